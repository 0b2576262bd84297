package imagen

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// Kind classifies a generation fault.
type Kind string

const (
	KindCredential  Kind = "credential"
	KindRemoteCall  Kind = "remote_call"
	KindEmptyResult Kind = "empty_result"
	KindInternal    Kind = "internal"
)

// NoImagesMessage is the message of an EmptyResultError without a filter reason.
const NoImagesMessage = "No images were generated in the response"

// CredentialError reports a missing or unusable credential file.
type CredentialError struct {
	Path string
	Err  error
}

func (e *CredentialError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load credentials: %v", e.Err)
	}
	return fmt.Sprintf("load credentials %s: %v", e.Path, e.Err)
}

func (e *CredentialError) Unwrap() error { return e.Err }

// RemoteCallError reports a failure talking to the generation endpoint.
// StatusCode is zero when no HTTP response was received.
type RemoteCallError struct {
	Op         string
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *RemoteCallError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteCallError) Unwrap() error { return e.Err }

// EmptyResultError reports a successful call that produced no image bytes.
type EmptyResultError struct {
	FilteredReason string // set when the only candidates were removed by safety filters
}

func (e *EmptyResultError) Error() string {
	if e.FilteredReason != "" {
		return NoImagesMessage + " (filtered: " + e.FilteredReason + ")"
	}
	return NoImagesMessage
}

// KindOf returns the fault kind of err; errors that are not generation faults are KindInternal.
func KindOf(err error) Kind {
	var credErr *CredentialError
	var remoteErr *RemoteCallError
	var emptyErr *EmptyResultError
	switch {
	case errors.As(err, &credErr):
		return KindCredential
	case errors.As(err, &remoteErr):
		return KindRemoteCall
	case errors.As(err, &emptyErr):
		return KindEmptyResult
	default:
		return KindInternal
	}
}

// remoteError wraps a genai error, lifting the HTTP status out of genai.APIError when present.
func remoteError(op string, err error) *RemoteCallError {
	re := &RemoteCallError{Op: op, Err: err}
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		re.StatusCode = apiErr.Code
	case errors.As(err, &apiErrPtr):
		re.StatusCode = apiErrPtr.Code
	}
	re.Retryable = shouldRetryStatus(re.StatusCode) && !errors.Is(err, context.Canceled)
	return re
}

// shouldRetryStatus reports whether a caller may reasonably retry. Transport errors with no status are retryable.
func shouldRetryStatus(code int) bool {
	if code == 0 || code == http.StatusTooManyRequests || code == http.StatusRequestTimeout {
		return true
	}
	return code >= 500
}
