package cache

import "fmt"

// A ConfigurationError reports a cache configuration that cannot be built.
type ConfigurationError struct {
	Cache  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("cache %s: %s", e.Cache, e.Reason)
}

func configErr(name, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{
		Cache:  name,
		Reason: fmt.Sprintf(format, args...),
	}
}
