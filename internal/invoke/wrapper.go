// Package invoke runs one image generation attempt and always records the outcome as a
// result envelope. Only a failure to write the envelope escapes Invoke as an error.
package invoke

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/snappy-loop/genimage/internal/envelope"
	"github.com/snappy-loop/genimage/internal/imagen"
	"github.com/snappy-loop/genimage/internal/output"
)

// Generator produces one image for a prompt.
type Generator interface {
	GenerateImage(ctx context.Context, prompt string) (*imagen.Image, error)
}

// Connector resolves credentials and builds a Generator. It runs once per invocation,
// inside the fault boundary.
type Connector func(ctx context.Context) (Generator, error)

// ImagenConnector returns a Connector backed by imagen.NewClient.
func ImagenConnector(opts imagen.Options) Connector {
	return func(ctx context.Context) (Generator, error) {
		c, err := imagen.NewClient(ctx, opts)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// Wrapper is the fail-safe invocation boundary.
type Wrapper struct {
	connect Connector
	store   *output.Store
}

// NewWrapper returns a Wrapper that connects with connect and persists to store.
func NewWrapper(connect Connector, store *output.Store) *Wrapper {
	return &Wrapper{connect: connect, store: store}
}

// Invoke performs one generation attempt for prompt and writes the envelope under
// requestID, returning its path. Credential, remote and empty-result faults (and panics)
// become failure envelopes; the returned error is non-nil only when the write fails.
func (w *Wrapper) Invoke(ctx context.Context, requestID, prompt string) (string, error) {
	env := w.attempt(ctx, prompt)

	logEvt := log.Info()
	if !env.Success {
		logEvt = log.Warn().Str("error", env.Error).Str("error_kind", string(env.ErrorKind))
	}
	logEvt.Str("request_id", requestID).Bool("success", env.Success).Msg("Image generation finished")

	path, err := w.store.Save(requestID, env)
	if err != nil {
		return "", fmt.Errorf("persist result envelope: %w", err)
	}
	return path, nil
}

func (w *Wrapper) attempt(ctx context.Context, prompt string) (env *envelope.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered panic during image generation")
			env = envelope.Failure(fmt.Errorf("internal error: %v", r))
		}
	}()

	gen, err := w.connect(ctx)
	if err != nil {
		return envelope.Failure(err)
	}
	img, err := gen.GenerateImage(ctx, prompt)
	if err != nil {
		return envelope.Failure(err)
	}
	if img == nil || len(img.Data) == 0 {
		return envelope.Failure(&imagen.EmptyResultError{})
	}
	return envelope.Success(img.Data, img.MimeType)
}
