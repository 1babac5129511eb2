package driven

import "fmt"

// RemoteError reports a non-success response from a remote service. It is
// recoverable: the orchestrator catches it at the pass boundary, logs it, and
// retries the whole pass after a cooldown.
type RemoteError struct {
	Host    string // "github", "gitlab", "ollama".
	Status  int    // HTTP status code; 0 when the request never completed.
	Message string
}

func (e *RemoteError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Host, e.Message)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Host, e.Status, e.Message)
}
