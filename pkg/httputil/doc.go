// Package httputil provides retry helpers shared by the HTTP API clients.
//
// # Retry
//
// [Retry] re-runs an operation while it keeps failing with a
// [RetryableError]. Any other error stops the loop immediately, so clients
// decide per response which failures are transient:
//
//   - connection errors and timeouts
//   - 5xx server errors
//   - 429 rate limit responses
//
// The delay doubles after each attempt. A RetryableError may carry a
// server-provided wait (from a Retry-After header), which replaces the
// computed delay when it is longer:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    ...
//	})
//
// # Defaults
//
//   - Attempts: 3
//   - Initial delay: 1 second
//   - Longest honored Retry-After: 1 minute
package httputil
