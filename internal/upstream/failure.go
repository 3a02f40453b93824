// Package upstream holds the pieces shared by both provider clients: the
// unified Failure error value and the per-provider circuit breaker.
package upstream

import "fmt"

// Failure is the single error shape produced by either provider client for
// a non-2xx or otherwise failed HTTP exchange. Call sites never parse
// provider-specific error envelopes themselves; the result normalizer
// consumes this value.
type Failure struct {
	Source string // "bookeo" or "payu"
	Status int    // upstream HTTP status, 0 when the call never completed
	Body   []byte // raw response body, may be nil
}

func (f *Failure) Error() string {
	if f.Status == 0 {
		return fmt.Sprintf("%s: request failed: %s", f.Source, string(f.Body))
	}
	return fmt.Sprintf("%s: HTTP %d: %s", f.Source, f.Status, string(f.Body))
}
