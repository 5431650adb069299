package constants

import "time"

// Default configuration constants
const (
	// DefaultMaxDomains bounds the valid dispatch-domain id range.
	// Domain ids come from the hypervisor and must be < MaxDomains.
	DefaultMaxDomains = 16

	// DefaultPauseTimeout is how long lifecycle operations wait for an
	// in-flight drain pass to quiesce before giving up.
	DefaultPauseTimeout = 5 * time.Second

	// DefaultDebugAddr is the default listen address for the remiod
	// debug HTTP endpoint.
	DefaultDebugAddr = "127.0.0.1:9823"
)

// Timing constants for the simulated workload used by remiod
const (
	// SimKickInterval is the interval between synthetic request batches
	// generated by the remiod demo workload.
	SimKickInterval = 500 * time.Millisecond
)
