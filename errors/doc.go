// Package errors provides the structured error type surfaced to users of
// the connector and the wire envelope the Apify API uses for failures.
//
// AppError carries a machine-readable code, a retryable flag and the HTTP
// status it corresponds to. ErrorResponse mirrors the API's
// {"error":{"type":...,"message":...}} body so failures can be both parsed
// from responses and rendered by the CLI.
package errors
