package generator

import (
	"context"

	"google.golang.org/genai"
)

// LLMClient 抽象大模型客户端，便于替换/Mock。
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// ImageGenerator produces one image per prompt.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (Image, error)
}

// Backend bundles the text and image clients bound to one credential.
type Backend interface {
	LLMClient
	ImageGenerator
}

// BackendFactory builds a Backend for the credential of the current operation.
// It is only invoked after the credential has been validated.
type BackendFactory func(ctx context.Context, cred Credential) (Backend, error)

// LLMSettings 提供给具体实现的基础配置。
type LLMSettings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// Prompt is one request to the text model.
// Schema, when set, asks the model for JSON matching it; clients without
// schema support fall back to the instructions embedded in User.
type Prompt struct {
	System      string
	User        string
	Schema      *genai.Schema
	Temperature *float32
}
