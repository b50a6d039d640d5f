package impute

import "fmt"

// ImputationError reports a column whose fill model cannot be fitted.
type ImputationError struct {
	Column string
	Method Method
	Err    error
}

func (e *ImputationError) Error() string {
	return fmt.Sprintf("impute %s (%s): %v", e.Column, e.Method, e.Err)
}

func (e *ImputationError) Unwrap() error { return e.Err }

// ConfigError reports an invalid column-to-method mapping or option.
type ConfigError struct {
	Column string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Column == "" {
		return "imputation config: " + e.Reason
	}
	return fmt.Sprintf("imputation config: column %q: %s", e.Column, e.Reason)
}
