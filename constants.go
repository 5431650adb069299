package remio

import "github.com/ehrlich-b/go-remio/internal/constants"

// Re-export constants for public API
const (
	DefaultMaxDomains   = constants.DefaultMaxDomains
	DefaultPauseTimeout = constants.DefaultPauseTimeout
)
