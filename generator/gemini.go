package generator

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const (
	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultImageModel  = "imagen-3.0-generate-002"
	imagePromptSuffix  = ", digital art, high quality, vibrant"
	imageMIMEType      = "image/jpeg"
)

// GeminiSettings configures the Gemini text and Imagen clients.
type GeminiSettings struct {
	ImageModel  string
	AspectRatio string
}

// NewGeminiFactory returns a BackendFactory creating one genai client per credential.
// The guards are shared across credentials so pacing applies process-wide.
func NewGeminiFactory(settings GeminiSettings, textGuard, imageGuard *Guard) BackendFactory {
	if settings.ImageModel == "" {
		settings.ImageModel = DefaultImageModel
	}
	if settings.AspectRatio == "" {
		settings.AspectRatio = "1:1"
	}
	return func(ctx context.Context, cred Credential) (Backend, error) {
		if strings.TrimSpace(cred.APIKey) == "" {
			return nil, &ValidationError{Field: "api_key", Message: "gemini api key missing"}
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cred.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		model := cred.Model
		if model == "" {
			model = DefaultGeminiModel
		}
		return &GeminiBackend{
			client:      client,
			model:       model,
			imageModel:  settings.ImageModel,
			aspectRatio: settings.AspectRatio,
			textGuard:   textGuard,
			imageGuard:  imageGuard,
		}, nil
	}
}

// GeminiBackend implements Backend on google.golang.org/genai.
type GeminiBackend struct {
	client      *genai.Client
	model       string
	imageModel  string
	aspectRatio string
	textGuard   *Guard
	imageGuard  *Guard
}

func (g *GeminiBackend) Complete(ctx context.Context, prompt Prompt) (string, error) {
	cfg := &genai.GenerateContentConfig{Temperature: prompt.Temperature}
	if prompt.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(prompt.System, genai.RoleUser)
	}
	if prompt.Schema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = prompt.Schema
	}

	out, err := g.textGuard.Do(ctx, func() (any, error) {
		return g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt.User), cfg)
	})
	if err != nil {
		return "", err
	}
	resp, _ := out.(*genai.GenerateContentResponse)
	if resp == nil {
		return "", errors.New("gemini: empty response")
	}
	return resp.Text(), nil
}

func (g *GeminiBackend) GenerateImage(ctx context.Context, prompt string) (Image, error) {
	out, err := g.imageGuard.Do(ctx, func() (any, error) {
		return g.client.Models.GenerateImages(ctx, g.imageModel, prompt+imagePromptSuffix, &genai.GenerateImagesConfig{
			NumberOfImages: 1,
			OutputMIMEType: imageMIMEType,
			AspectRatio:    g.aspectRatio,
		})
	})
	if err != nil {
		return Image{}, err
	}
	resp, _ := out.(*genai.GenerateImagesResponse)
	if resp == nil || len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return Image{}, errors.New("imagen: no image returned")
	}
	return DataURIImage(imageMIMEType, resp.GeneratedImages[0].Image.ImageBytes), nil
}

// DataURIImage encodes raw image bytes as a data URI image.
func DataURIImage(mimeType string, data []byte) Image {
	return Image{
		Src:      "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data),
		MIMEType: mimeType,
	}
}
