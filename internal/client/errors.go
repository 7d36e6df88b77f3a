package client

import "fmt"

// UpstreamError reports a non-2xx reply from an external API. Handlers
// surface the upstream status to the caller instead of a generic 500.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream returned status %d", e.Status)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.Status, e.Body)
}
