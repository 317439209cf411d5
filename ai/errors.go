// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an extraction-service failure.
type ErrorKind string

const (
	// KindTimeout marks a request that exceeded its configured timeout.
	KindTimeout ErrorKind = "timeout"
	// KindRateLimit marks a request rejected by service rate limiting.
	KindRateLimit ErrorKind = "rate_limit"
	// KindMalformedResponse marks a response that could not be parsed
	// into the expected schema (including empty responses).
	KindMalformedResponse ErrorKind = "malformed_response"
	// KindAuth marks an authentication or endpoint configuration failure.
	KindAuth ErrorKind = "auth"
)

// ServiceError wraps an extraction-service failure with its classification.
// Timeout, rate-limit and malformed-response errors are transient and
// retried; auth errors are fatal and abort the pipeline.
type ServiceError struct {
	Kind ErrorKind
	Err  error
}

func (e *ServiceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("extraction service: %s", e.Kind)
	}
	return fmt.Sprintf("extraction service: %s: %v", e.Kind, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Transient reports whether retrying the request can succeed.
func (e *ServiceError) Transient() bool {
	return e.Kind == KindTimeout || e.Kind == KindRateLimit || e.Kind == KindMalformedResponse
}

// Timeout wraps err as a transient timeout failure.
func Timeout(err error) *ServiceError {
	return &ServiceError{Kind: KindTimeout, Err: err}
}

// RateLimited wraps err as a transient rate-limit failure.
func RateLimited(err error) *ServiceError {
	return &ServiceError{Kind: KindRateLimit, Err: err}
}

// Malformed wraps err as a transient malformed-response failure.
func Malformed(err error) *ServiceError {
	return &ServiceError{Kind: KindMalformedResponse, Err: err}
}

// AuthFailure wraps err as a fatal authentication/configuration failure.
func AuthFailure(err error) *ServiceError {
	return &ServiceError{Kind: KindAuth, Err: err}
}

// IsTransient reports whether err is a retryable service failure.
// Unclassified errors are treated as transient so that sporadic transport
// problems get the benefit of the retry budget.
func IsTransient(err error) bool {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Transient()
	}
	return err != nil && !IsFatal(err)
}

// IsFatal reports whether err must abort the whole pipeline.
func IsFatal(err error) bool {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind == KindAuth
	}
	return false
}

// KindOf returns the classification of err, or "" for unclassified errors.
func KindOf(err error) ErrorKind {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}
