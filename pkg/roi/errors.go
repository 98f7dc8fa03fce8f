package roi

import "fmt"

// ConfigError reports malformed or out-of-bounds ROI data.
type ConfigError struct {
	// Source is the file the definitions came from, if known.
	Source string

	// ROI names the offending region, if any.
	ROI string

	// Reason describes the problem.
	Reason string

	// Err is the underlying read or decode error, if any.
	Err error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	msg := "roi config"
	if e.Source != "" {
		msg += " [" + e.Source + "]"
	}
	if e.ROI != "" {
		msg += fmt.Sprintf(": %s", e.ROI)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Err
}
