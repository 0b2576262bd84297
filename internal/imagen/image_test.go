package imagen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"google.golang.org/genai"
)

// fakeModels records the GenerateImages call and returns a canned response.
type fakeModels struct {
	calls  int
	model  string
	prompt string
	config *genai.GenerateImagesConfig
	resp   *genai.GenerateImagesResponse
	err    error
}

func (f *fakeModels) GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
	f.calls++
	f.model = model
	f.prompt = prompt
	f.config = config
	return f.resp, f.err
}

func testOptions() Options {
	return Options{
		Project:     "test-project",
		Region:      "asia-south1",
		Model:       "imagen-3.0-generate-002",
		AspectRatio: "1:1",
		Language:    "en",
		ImageCount:  1,
	}
}

func TestGenerateImage_Success(t *testing.T) {
	fake := &fakeModels{resp: &genai.GenerateImagesResponse{
		GeneratedImages: []*genai.GeneratedImage{
			{Image: &genai.Image{ImageBytes: []byte("png-bytes"), MIMEType: "image/png"}},
		},
	}}
	c := newClient(testOptions(), fake)

	img, err := c.GenerateImage(context.Background(), "a red fox in snow")
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if string(img.Data) != "png-bytes" || img.MimeType != "image/png" {
		t.Errorf("unexpected image: %+v", img)
	}
	if img.Model != "imagen-3.0-generate-002" {
		t.Errorf("Model = %q", img.Model)
	}
	if fake.calls != 1 {
		t.Errorf("GenerateImages called %d times, want exactly 1", fake.calls)
	}
	if fake.model != "imagen-3.0-generate-002" || fake.prompt != "a red fox in snow" {
		t.Errorf("unexpected call: model=%q prompt=%q", fake.model, fake.prompt)
	}
	if fake.config.NumberOfImages != 1 || fake.config.AspectRatio != "1:1" || fake.config.Language != genai.ImagePromptLanguage("en") {
		t.Errorf("unexpected config: %+v", fake.config)
	}
}

func TestGenerateImage_DefaultsMimeType(t *testing.T) {
	fake := &fakeModels{resp: &genai.GenerateImagesResponse{
		GeneratedImages: []*genai.GeneratedImage{{Image: &genai.Image{ImageBytes: []byte{1, 2, 3}}}},
	}}
	img, err := newClient(testOptions(), fake).GenerateImage(context.Background(), "x")
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if img.MimeType != "image/png" {
		t.Errorf("MimeType = %q, want image/png", img.MimeType)
	}
}

func TestGenerateImage_EmptyResults(t *testing.T) {
	tests := []struct {
		name    string
		resp    *genai.GenerateImagesResponse
		wantMsg string
	}{
		{"nil response", nil, NoImagesMessage},
		{"no images", &genai.GenerateImagesResponse{}, NoImagesMessage},
		{"nil entries", &genai.GenerateImagesResponse{GeneratedImages: []*genai.GeneratedImage{nil}}, NoImagesMessage},
		{
			"filtered",
			&genai.GenerateImagesResponse{GeneratedImages: []*genai.GeneratedImage{{RAIFilteredReason: "blocked by safety filter"}}},
			NoImagesMessage + " (filtered: blocked by safety filter)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(testOptions(), &fakeModels{resp: tt.resp})
			_, err := c.GenerateImage(context.Background(), "prompt")
			var emptyErr *EmptyResultError
			if !errors.As(err, &emptyErr) {
				t.Fatalf("expected *EmptyResultError, got %T: %v", err, err)
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("message = %q, want %q", err.Error(), tt.wantMsg)
			}
			if KindOf(err) != KindEmptyResult {
				t.Errorf("KindOf = %q", KindOf(err))
			}
		})
	}
}

func TestGenerateImage_SkipsFilteredImage(t *testing.T) {
	fake := &fakeModels{resp: &genai.GenerateImagesResponse{
		GeneratedImages: []*genai.GeneratedImage{
			{RAIFilteredReason: "filtered"},
			{Image: &genai.Image{ImageBytes: []byte("second"), MIMEType: "image/jpeg"}},
		},
	}}
	img, err := newClient(testOptions(), fake).GenerateImage(context.Background(), "x")
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if string(img.Data) != "second" || img.MimeType != "image/jpeg" {
		t.Errorf("unexpected image: %+v", img)
	}
}

func TestGenerateImage_RemoteErrors(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantStatus    int
		wantRetryable bool
	}{
		{"quota", fmt.Errorf("call: %w", genai.APIError{Code: 429, Message: "quota exceeded"}), 429, true},
		{"unavailable", genai.APIError{Code: 503, Message: "unavailable"}, 503, true},
		{"permission denied", genai.APIError{Code: 403, Message: "permission denied"}, 403, false},
		{"bad request", genai.APIError{Code: 400, Message: "invalid aspect ratio"}, 400, false},
		{"transport", errors.New("dial tcp: connection refused"), 0, true},
		{"canceled", fmt.Errorf("send: %w", context.Canceled), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(testOptions(), &fakeModels{err: tt.err})
			_, err := c.GenerateImage(context.Background(), "prompt")
			var remoteErr *RemoteCallError
			if !errors.As(err, &remoteErr) {
				t.Fatalf("expected *RemoteCallError, got %T: %v", err, err)
			}
			if remoteErr.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", remoteErr.StatusCode, tt.wantStatus)
			}
			if remoteErr.Retryable != tt.wantRetryable {
				t.Errorf("Retryable = %v, want %v", remoteErr.Retryable, tt.wantRetryable)
			}
			if KindOf(err) != KindRemoteCall {
				t.Errorf("KindOf = %q", KindOf(err))
			}
		})
	}
}

func TestNewClient_CredentialFaults(t *testing.T) {
	dir := t.TempDir()
	invalid := filepath.Join(dir, "invalid.json")
	if err := os.WriteFile(invalid, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"not configured", ""},
		{"missing file", filepath.Join(dir, "missing.json")},
		{"invalid json", invalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions()
			opts.CredentialsFile = tt.path
			_, err := NewClient(context.Background(), opts)
			var credErr *CredentialError
			if !errors.As(err, &credErr) {
				t.Fatalf("expected *CredentialError, got %T: %v", err, err)
			}
			if KindOf(err) != KindCredential {
				t.Errorf("KindOf = %q", KindOf(err))
			}
			if !strings.Contains(err.Error(), "load credentials") {
				t.Errorf("message %q lacks context", err.Error())
			}
		})
	}
}

func TestCredentialError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *CredentialError
		want string
	}{
		{"no path", &CredentialError{Err: errors.New("no credential file configured")}, "load credentials: no credential file configured"},
		{"with path", &CredentialError{Path: "/srv/credentials.json", Err: os.ErrNotExist}, "load credentials /srv/credentials.json: file does not exist"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncatePrompt(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		n      int
		want   string
	}{
		{"short", "koi", 50, "koi"},
		{"ascii", "abcdef", 3, "abc"},
		{"multibyte boundary", "日本の庭園", 2, "日本"},
		{"emoji", "🌊🌊🌊", 1, "🌊"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncatePrompt(tt.prompt, tt.n)
			if got != tt.want {
				t.Errorf("truncatePrompt = %q, want %q", got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncatePrompt returned invalid UTF-8 %q", got)
			}
		})
	}
}

func TestKindOf_Internal(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != KindInternal {
		t.Errorf("KindOf = %q, want %q", got, KindInternal)
	}
}

func TestNewClient_ClampsImageCount(t *testing.T) {
	opts := testOptions()
	opts.ImageCount = 0
	fake := &fakeModels{resp: &genai.GenerateImagesResponse{
		GeneratedImages: []*genai.GeneratedImage{{Image: &genai.Image{ImageBytes: []byte("x")}}},
	}}
	if _, err := newClient(opts, fake).GenerateImage(context.Background(), "p"); err != nil {
		t.Fatal(err)
	}
	if fake.config.NumberOfImages != 1 {
		t.Errorf("NumberOfImages = %d, want 1", fake.config.NumberOfImages)
	}
}
