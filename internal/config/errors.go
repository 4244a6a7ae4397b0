package config

import "errors"

// Common errors returned by the config package.
var (
	// ErrInvalidConfig is returned when a configuration value is out of range.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrUnsupportedDomain is returned when a domain name is not in the supported set.
	ErrUnsupportedDomain = errors.New("unsupported domain")
	// ErrNoDomains is returned when a run would cover zero domains.
	ErrNoDomains = errors.New("no domains to harvest")
)
