package analyzer

import "fmt"

// ConfigurationError means the analyzer cannot be invoked at all, most
// commonly because no access key is configured. Fatal to the specific call
// only; the scan continues past it.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "analyzer not configured: " + e.Reason
}

// TransportError is a network or service failure for one analyzer call.
// Isolated to the manifest batch or single file that triggered it.
type TransportError struct {
	Operation string
	Status    int // HTTP status, 0 when the request never completed
	Message   string
	Err       error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Operation, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Operation, e.Message)
}

func (e *TransportError) Unwrap() error { return e.Err }
