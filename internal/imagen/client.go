package imagen

import (
	"context"
	"errors"
	"os"

	"cloud.google.com/go/auth"
	"cloud.google.com/go/auth/credentials"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// Options selects the Vertex AI project, model and generation settings.
type Options struct {
	Project         string
	Region          string
	Model           string // e.g. imagen-3.0-generate-002
	AspectRatio     string // e.g. 1:1, 16:9
	Language        string // prompt language, e.g. en
	ImageCount      int
	CredentialsFile string // service account JSON
	Endpoint        string // optional base URL override (e.g. a local proxy)
}

// imageModels is the subset of genai.Models used by Client.
type imageModels interface {
	GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// Client generates images with Imagen on Vertex AI.
type Client struct {
	opts   Options
	models imageModels
}

// Image represents a generated image
type Image struct {
	Data     []byte
	MimeType string // e.g. "image/png" (from genai Image.MIMEType)
	Model    string
}

// NewClient resolves credentials from opts.CredentialsFile and binds a Vertex AI client
// to opts.Project and opts.Region. Credential faults are returned as *CredentialError,
// client construction faults as *RemoteCallError.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	creds, err := loadCredentials(opts.CredentialsFile)
	if err != nil {
		return nil, err
	}

	cfg := &genai.ClientConfig{
		Project:     opts.Project,
		Location:    opts.Region,
		Backend:     genai.BackendVertexAI,
		Credentials: creds,
	}
	if opts.Endpoint != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.Endpoint}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, &RemoteCallError{Op: "init vertex ai client", Err: err}
	}

	log.Debug().
		Str("project", opts.Project).
		Str("region", opts.Region).
		Str("model", opts.Model).
		Str("api_endpoint", opts.Endpoint).
		Msg("Imagen client initialized")

	return newClient(opts, client.Models), nil
}

func newClient(opts Options, models imageModels) *Client {
	if opts.ImageCount < 1 {
		opts.ImageCount = 1
	}
	return &Client{opts: opts, models: models}
}

// loadCredentials reads a service account (or other ADC-style) JSON file.
func loadCredentials(path string) (*auth.Credentials, error) {
	if path == "" {
		return nil, &CredentialError{Path: path, Err: errors.New("no credential file configured")}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &CredentialError{Path: path, Err: err}
	}
	creds, err := credentials.DetectDefault(&credentials.DetectOptions{
		Scopes:          []string{cloudPlatformScope},
		CredentialsJSON: data,
	})
	if err != nil {
		return nil, &CredentialError{Path: path, Err: err}
	}
	return creds, nil
}
