// Package registry implements the client side of the registry protocol:
// the wire-contract constants (signature contexts, method names, gas
// operations and error codes), the registerable descriptors and the
// stateless argument checks that gate registration.
package registry

import (
	"github.com/0xAtelerix/registry-sdk/regsdk/errors"
	"github.com/0xAtelerix/registry-sdk/regsdk/signature"
	"github.com/0xAtelerix/registry-sdk/regsdk/transaction"
)

// ModuleName is the registry module name, used as the error-code namespace
// and the method-name prefix.
const ModuleName = "registry"

var (
	// RegisterEntitySignatureContext is the signature context used for
	// entity registration.
	RegisterEntitySignatureContext = signature.NewContext("oasis-core/registry: register entity")

	// RegisterGenesisEntitySignatureContext is the signature context used
	// for entity registration in the genesis document.
	//
	// It is an alias of RegisterEntitySignatureContext so that entity
	// registrations can be replayed into a new genesis document without
	// re-signing.
	RegisterGenesisEntitySignatureContext = RegisterEntitySignatureContext

	// RegisterNodeSignatureContext is the signature context used for node
	// registration.
	RegisterNodeSignatureContext = signature.NewContext("oasis-core/registry: register node")

	// RegisterGenesisNodeSignatureContext is the signature context used for
	// node registration in the genesis document.
	//
	// It is an alias of RegisterNodeSignatureContext, same as for entities.
	RegisterGenesisNodeSignatureContext = RegisterNodeSignatureContext
)

var (
	// MethodRegisterEntity is the method name for entity registrations.
	MethodRegisterEntity = transaction.NewMethodName(ModuleName, "RegisterEntity")

	// MethodDeregisterEntity is the method name for entity deregistrations.
	MethodDeregisterEntity = transaction.NewMethodName(ModuleName, "DeregisterEntity")

	// MethodRegisterNode is the method name for node registrations.
	MethodRegisterNode = transaction.NewMethodName(ModuleName, "RegisterNode")

	// MethodUnfreezeNode is the method name for unfreezing nodes.
	MethodUnfreezeNode = transaction.NewMethodName(ModuleName, "UnfreezeNode")

	// MethodRegisterRuntime is the method name for runtime registrations.
	MethodRegisterRuntime = transaction.NewMethodName(ModuleName, "RegisterRuntime")

	// Methods is the list of all registry methods.
	Methods = []transaction.MethodName{
		MethodRegisterEntity,
		MethodDeregisterEntity,
		MethodRegisterNode,
		MethodUnfreezeNode,
		MethodRegisterRuntime,
	}
)

var (
	// ErrInvalidArgument is the error returned on malformed arguments.
	ErrInvalidArgument = errors.New(ModuleName, 1, "registry: invalid argument")

	// ErrInvalidSignature is the error returned on an invalid signature.
	ErrInvalidSignature = errors.New(ModuleName, 2, "registry: invalid signature")

	// ErrBadEntityForNode is the error returned when a node registration
	// with an unknown or unauthorized entity is attempted.
	ErrBadEntityForNode = errors.New(ModuleName, 3, "registry: bad entity for node")

	// ErrBadEntityForRuntime is the error returned when a runtime
	// registration with an unknown or unauthorized entity is attempted.
	ErrBadEntityForRuntime = errors.New(ModuleName, 4, "registry: bad entity for runtime")

	// ErrNoEnclaveForRuntime is the error returned when a TEE runtime
	// registration carries no enclave identities.
	ErrNoEnclaveForRuntime = errors.New(ModuleName, 5, "registry: no enclaves for TEE runtime registration")

	// ErrBadEnclaveIdentity is the error returned when a node tries to
	// register with a TEE enclave identity that the runtime does not allow.
	ErrBadEnclaveIdentity = errors.New(ModuleName, 6, "registry: bad TEE enclave identity")

	// ErrBadCapabilitiesTEEHardware is the error returned when a node
	// advertises malformed TEE hardware capabilities.
	ErrBadCapabilitiesTEEHardware = errors.New(ModuleName, 7, "registry: bad capabilities.TEE.Hardware")

	// ErrTEEHardwareMismatch is the error returned when the node's TEE
	// hardware does not match the runtime's required TEE hardware.
	ErrTEEHardwareMismatch = errors.New(ModuleName, 8, "registry: runtime TEE.Hardware mismatches node TEE.Hardware")

	// ErrNoSuchEntity is the error returned when an entity does not exist.
	ErrNoSuchEntity = errors.New(ModuleName, 9, "registry: no such entity")

	// ErrNoSuchNode is the error returned when a node does not exist.
	ErrNoSuchNode = errors.New(ModuleName, 10, "registry: no such node")

	// ErrNoSuchRuntime is the error returned when a runtime does not exist.
	ErrNoSuchRuntime = errors.New(ModuleName, 11, "registry: no such runtime")

	// ErrIncorrectTxSigner is the error returned when the signer of the
	// transaction is not allowed to perform the operation.
	ErrIncorrectTxSigner = errors.New(ModuleName, 12, "registry: incorrect tx signer")

	// ErrNodeExpired is the error returned when the node is expired.
	ErrNodeExpired = errors.New(ModuleName, 13, "registry: node expired")

	// ErrNodeCannotBeUnfrozen is the error returned when the node cannot be
	// unfrozen yet.
	ErrNodeCannotBeUnfrozen = errors.New(ModuleName, 14, "registry: node cannot be unfrozen")

	// ErrEntityHasNodes is the error returned when an entity with registered
	// nodes is deregistered.
	ErrEntityHasNodes = errors.New(ModuleName, 15, "registry: entity still has nodes")

	// ErrForbidden is the error returned when an operation is forbidden by
	// policy.
	ErrForbidden = errors.New(ModuleName, 16, "registry: forbidden by policy")

	// ErrNodeUpdateNotAllowed is the error returned when an update to an
	// existing node would change fields that may not change.
	ErrNodeUpdateNotAllowed = errors.New(ModuleName, 17, "registry: node update not allowed")

	// ErrRuntimeUpdateNotAllowed is the error returned when an update to an
	// existing runtime is not allowed.
	ErrRuntimeUpdateNotAllowed = errors.New(ModuleName, 18, "registry: runtime update not allowed")

	// ErrEntityHasRuntimes is the error returned when an entity with
	// registered runtimes is deregistered.
	ErrEntityHasRuntimes = errors.New(ModuleName, 19, "registry: entity still has runtimes")
)
