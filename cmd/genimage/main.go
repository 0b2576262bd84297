// Command genimage generates one image for the prompt given as its only argument,
// writes the result envelope as JSON to a temporary file and prints that file's path
// on stdout with no trailing newline.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/snappy-loop/genimage/internal/config"
	"github.com/snappy-loop/genimage/internal/invoke"
	"github.com/snappy-loop/genimage/internal/output"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.Load()
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	connect := invoke.ImagenConnector(cfg.ImagenOptions())
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, cfg, connect))
}

// run returns the process exit code: 2 for usage errors, 1 when the envelope could not be
// written (or, with FailExitCode, when it records a failure), 0 otherwise.
func run(ctx context.Context, args []string, stdout io.Writer, cfg *config.Config, connect invoke.Connector) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: genimage <prompt>")
		return 2
	}

	requestID := cfg.RequestID
	if requestID == "" {
		requestID = strconv.Itoa(os.Getpid())
	}

	w := invoke.NewWrapper(connect, output.NewStore(cfg.OutputDir))
	path, err := w.Invoke(ctx, requestID, args[0])
	if err != nil {
		log.Error().Err(err).Str("request_id", requestID).Msg("Failed to write result envelope")
		return 1
	}

	fmt.Fprint(stdout, path)

	if cfg.FailExitCode {
		env, err := output.Load(path)
		if err != nil || !env.Success {
			return 1
		}
	}
	return 0
}
