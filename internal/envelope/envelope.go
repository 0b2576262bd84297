// Package envelope defines the Result Envelope written once per image generation attempt.
package envelope

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/snappy-loop/genimage/internal/imagen"
)

// Envelope is either a success carrying base64 image data or a failure carrying a message.
// The structured failure fields are additive to the {"success","error"} contract.
type Envelope struct {
	Success   bool   `json:"success"`
	ImageData string `json:"image_data,omitempty"`
	MimeType  string `json:"mime_type,omitempty"`

	Error      string      `json:"error,omitempty"`
	ErrorKind  imagen.Kind `json:"error_kind,omitempty"`
	StatusCode int         `json:"status_code,omitempty"`
	Retryable  bool        `json:"retryable,omitempty"`
}

// Success wraps raw image bytes.
func Success(data []byte, mimeType string) *Envelope {
	return &Envelope{
		Success:   true,
		ImageData: base64.StdEncoding.EncodeToString(data),
		MimeType:  mimeType,
	}
}

// Failure converts err into a failure envelope, keeping the fault kind and, for remote
// call faults, the HTTP status and retryability.
func Failure(err error) *Envelope {
	msg := "unknown error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	env := &Envelope{Error: msg, ErrorKind: imagen.KindOf(err)}
	var remoteErr *imagen.RemoteCallError
	if errors.As(err, &remoteErr) {
		env.StatusCode = remoteErr.StatusCode
		env.Retryable = remoteErr.Retryable
	}
	return env
}

// Validate checks that exactly one variant is populated.
func (e *Envelope) Validate() error {
	if e.Success {
		if e.ImageData == "" {
			return errors.New("success envelope without image_data")
		}
		if e.Error != "" {
			return errors.New("success envelope with error")
		}
		return nil
	}
	if e.Error == "" {
		return errors.New("failure envelope without error")
	}
	if e.ImageData != "" {
		return errors.New("failure envelope with image_data")
	}
	return nil
}

// Image decodes the image bytes of a success envelope.
func (e *Envelope) Image() ([]byte, error) {
	if !e.Success {
		return nil, fmt.Errorf("envelope is a failure: %s", e.Error)
	}
	data, err := base64.StdEncoding.DecodeString(e.ImageData)
	if err != nil {
		return nil, fmt.Errorf("decode image_data: %w", err)
	}
	return data, nil
}
