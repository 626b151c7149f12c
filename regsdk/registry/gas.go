package registry

import (
	"github.com/0xAtelerix/registry-sdk/regsdk/transaction"
)

// Gas operation identifiers. These are fee-schedule keys and are frozen once
// published.
const (
	// GasOpRegisterEntity is the gas operation identifier for entity registration.
	GasOpRegisterEntity transaction.Op = "register_entity"
	// GasOpDeregisterEntity is the gas operation identifier for entity deregistration.
	GasOpDeregisterEntity transaction.Op = "deregister_entity"
	// GasOpRegisterNode is the gas operation identifier for node registration.
	GasOpRegisterNode transaction.Op = "register_node"
	// GasOpUnfreezeNode is the gas operation identifier for unfreezing nodes.
	GasOpUnfreezeNode transaction.Op = "unfreeze_node"
	// GasOpRegisterRuntime is the gas operation identifier for runtime registration.
	GasOpRegisterRuntime transaction.Op = "register_runtime"
	// GasOpRuntimeEpochMaintenance is the gas operation identifier for per-epoch
	// runtime maintenance.
	GasOpRuntimeEpochMaintenance transaction.Op = "runtime_epoch_maintenance"
	// GasOpUpdateKeyManager is the gas operation identifier for key manager
	// policy updates.
	GasOpUpdateKeyManager transaction.Op = "update_keymanager"
)

// DefaultGasCosts are the "zero" gas costs for registry operations, used when
// the consensus parameters do not override them.
var DefaultGasCosts = transaction.Costs{
	GasOpRegisterEntity:          0,
	GasOpDeregisterEntity:        0,
	GasOpRegisterNode:            0,
	GasOpUnfreezeNode:            0,
	GasOpRegisterRuntime:         0,
	GasOpRuntimeEpochMaintenance: 0,
	GasOpUpdateKeyManager:        0,
}

// GasOpForMethod maps a registry method to the gas operation that meters it.
func GasOpForMethod(method transaction.MethodName) (transaction.Op, bool) {
	switch method {
	case MethodRegisterEntity:
		return GasOpRegisterEntity, true
	case MethodDeregisterEntity:
		return GasOpDeregisterEntity, true
	case MethodRegisterNode:
		return GasOpRegisterNode, true
	case MethodUnfreezeNode:
		return GasOpUnfreezeNode, true
	case MethodRegisterRuntime:
		return GasOpRegisterRuntime, true
	default:
		return "", false
	}
}
