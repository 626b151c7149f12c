package regsdk

import "time"

const (
	// DefaultChainID is the chain identifier used when none is configured.
	DefaultChainID = "registry-dev"

	// DefaultDataDir is the data directory used when none is configured.
	DefaultDataDir = "/data"

	// DefaultEpochInterval is how often the service advances its epoch when
	// no external epoch source drives it.
	DefaultEpochInterval = time.Hour
)
