// Package ai defines the boundary to the external text-understanding
// service used for knowledge extraction.
//
// The package provides:
//   - Completer, the opaque prompt-in/text-out service boundary
//   - ExtractionService, the typed per-stage extraction interface
//   - response parsers that turn free-form model output into the fixed
//     per-stage schemas (a response that fails to parse is a retryable
//     malformed-response error)
//   - the service error taxonomy (transient vs. fatal)
//
// The package never interprets prompt semantics; it only enforces the
// structural contract of the responses.
package ai
