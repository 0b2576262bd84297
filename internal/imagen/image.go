package imagen

import (
	"context"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// GenerateImage issues exactly one GenerateImages call and returns the first image.
// Faults are *RemoteCallError or *EmptyResultError; nothing is retried.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (*Image, error) {
	log.Debug().
		Str("prompt", truncatePrompt(prompt, 50)).
		Str("model", c.opts.Model).
		Msg("Generating image")

	resp, err := c.models.GenerateImages(ctx, c.opts.Model, prompt, c.generateConfig())
	if err != nil {
		rerr := remoteError("generate images", err)
		log.Error().Err(err).
			Str("model", c.opts.Model).
			Int("status_code", rerr.StatusCode).
			Bool("retryable", rerr.Retryable).
			Msg("Imagen generation failed")
		return nil, rerr
	}

	img, err := firstImage(resp)
	if err != nil {
		log.Warn().Err(err).Str("model", c.opts.Model).Msg("Imagen returned no image bytes")
		return nil, err
	}
	img.Model = c.opts.Model

	log.Info().
		Str("caller", "GenerateImage").
		Int("image_size_bytes", len(img.Data)).
		Str("mime_type", img.MimeType).
		Str("model", c.opts.Model).
		Msg("Imagen response (image bytes)")
	return img, nil
}

func (c *Client) generateConfig() *genai.GenerateImagesConfig {
	return &genai.GenerateImagesConfig{
		NumberOfImages: int32(c.opts.ImageCount),
		AspectRatio:    c.opts.AspectRatio,
		Language:       genai.ImagePromptLanguage(c.opts.Language),
	}
}

// firstImage returns the first generated image carrying bytes. Images removed by safety
// filters are skipped; if nothing remains the first filter reason is reported.
func firstImage(resp *genai.GenerateImagesResponse) (*Image, error) {
	if resp == nil {
		return nil, &EmptyResultError{}
	}
	var filtered string
	for _, gen := range resp.GeneratedImages {
		if gen == nil {
			continue
		}
		if gen.Image == nil || len(gen.Image.ImageBytes) == 0 {
			if filtered == "" {
				filtered = gen.RAIFilteredReason
			}
			continue
		}
		mimeType := gen.Image.MIMEType
		if mimeType == "" {
			mimeType = "image/png"
		}
		return &Image{Data: gen.Image.ImageBytes, MimeType: mimeType}, nil
	}
	return nil, &EmptyResultError{FilteredReason: filtered}
}

// truncatePrompt shortens prompt to at most n runes for logging.
func truncatePrompt(prompt string, n int) string {
	runes := []rune(prompt)
	if len(runes) <= n {
		return prompt
	}
	return string(runes[:n])
}
