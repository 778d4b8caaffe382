// Package api talks to the Yudo REST API.
//
// Responses are decoded into typed results at this boundary: a call either
// returns its payload, or an error that is one of
//
//   - *ServerError: the API answered with a non-2xx status or an "error" field;
//   - ErrUnavailable (wrapped): the request could not be completed or the
//     response could not be read.
//
// HTTPClient attaches Accept and X-Request-ID headers to every request. No
// retries are attempted.
package api
