package generator

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// PostGenerator turns a draft into a finished post. onStage may be nil.
type PostGenerator interface {
	Generate(ctx context.Context, d Draft, onStage StageFunc) (Post, error)
}

// StageFunc is notified when generation moves between text and images.
type StageFunc func(State)

func (f StageFunc) notify(s State) {
	if f != nil {
		f(s)
	}
}

// StructuredGenerator is the schema-validated pipeline: text, then images, then composition.
type StructuredGenerator struct {
	Backend Backend
}

func (g *StructuredGenerator) Generate(ctx context.Context, d Draft, onStage StageFunc) (Post, error) {
	if err := requireFields(d.Topic, "topic"); err != nil {
		return Post{}, err
	}
	onStage.notify(StateGeneratingText)
	payload, err := RequestPayload(ctx, g.Backend, d)
	if err != nil {
		return Post{}, err
	}

	onStage.notify(StateGeneratingImages)
	images, err := GenerateImages(ctx, g.Backend, payload.ImagePrompts)
	if err != nil {
		return Post{}, err
	}

	return Post{
		Topic:   d.Topic,
		Title:   payload.Title,
		Content: Compose(payload.ContentTemplate, images, payload.ImagePrompts),
		Tags:    payload.Tags,
		QnA:     payload.QnA,
	}, nil
}

// RequestPayload runs the text-generation step and decodes its payload.
func RequestPayload(ctx context.Context, llm LLMClient, d Draft) (Payload, error) {
	raw, err := llm.Complete(ctx, BuildPostPrompt(d))
	if err != nil {
		return Payload{}, &RequestError{Op: opGeneratePost, Err: err}
	}
	payload, err := ParsePayload(raw)
	if err != nil {
		return Payload{}, err
	}
	if n := CountPlaceholders(payload.ContentTemplate); n != len(payload.ImagePrompts) {
		slog.Warn("placeholder count does not match image prompts",
			"placeholders", n, "image_prompts", len(payload.ImagePrompts))
	}
	return payload, nil
}

// SuggestTopics asks the text model for candidate titles in a category.
func SuggestTopics(ctx context.Context, llm LLMClient, category string) ([]string, error) {
	raw, err := llm.Complete(ctx, BuildTopicPrompt(category))
	if err != nil {
		return nil, &RequestError{Op: opSuggest, Err: err}
	}
	topics, err := ParseTopics(raw)
	if err != nil {
		return nil, &RequestError{Op: opSuggest, Err: err}
	}
	return topics, nil
}

// Agent 负责根据凭据和草稿生成稿件。
// The credential is passed per call; the agent itself holds no key.
type Agent struct {
	backends BackendFactory
	freeform PostGenerator
}

// AgentOption configures optional Agent capabilities.
type AgentOption func(*Agent)

// WithFreeform enables the sentinel-tag fallback flow.
func WithFreeform(g PostGenerator) AgentOption {
	return func(a *Agent) { a.freeform = g }
}

func NewAgent(backends BackendFactory, opts ...AgentOption) (*Agent, error) {
	if backends == nil {
		return nil, errors.New("backend factory is required")
	}
	a := &Agent{backends: backends}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *Agent) backend(ctx context.Context, cred Credential) (Backend, error) {
	if strings.TrimSpace(cred.APIKey) == "" {
		return nil, &ValidationError{Field: "api_key", Message: "api key is not set"}
	}
	return a.backends(ctx, cred)
}

// SuggestTopics validates the credential before any network call.
func (a *Agent) SuggestTopics(ctx context.Context, cred Credential, category string) ([]string, error) {
	if err := requireFields(category, "category"); err != nil {
		return nil, err
	}
	b, err := a.backend(ctx, cred)
	if err != nil {
		return nil, err
	}
	return SuggestTopics(ctx, b, category)
}

// Generate runs the structured pipeline for d.
func (a *Agent) Generate(ctx context.Context, cred Credential, d Draft, onStage StageFunc) (Post, error) {
	b, err := a.backend(ctx, cred)
	if err != nil {
		return Post{}, err
	}
	g := &StructuredGenerator{Backend: b}
	return g.Generate(ctx, d, onStage)
}

// GenerateFreeform runs the fallback flow, which uses server-held credentials.
func (a *Agent) GenerateFreeform(ctx context.Context, d Draft, onStage StageFunc) (Post, error) {
	if a.freeform == nil {
		return Post{}, ErrFreeformDisabled
	}
	return a.freeform.Generate(ctx, d, onStage)
}
