// Package integrations provides the HTTP plumbing shared by external API
// clients.
//
// # Client
//
// [Client] wraps an *http.Client with:
//
//   - default headers (API keys, user agent)
//   - an optional token-bucket rate limit (golang.org/x/time/rate)
//   - retry with exponential backoff for transient failures
//   - status mapping onto coded errors from pkg/errors
//   - request/response events for pkg/observability
//
// Status codes map as follows:
//
//	2xx      success
//	401/403  UNAUTHORIZED
//	404      NOT_FOUND
//	429      RATE_LIMITED (retried, honoring Retry-After)
//	5xx      NETWORK_ERROR (retried)
//	other    INVALID_INPUT
//
// Each provider lives in its own subpackage and builds on Client:
//
//   - [gemini]: Gemini file upload and content generation
package integrations
