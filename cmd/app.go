package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"ai_blog_post_writer/config"
	"ai_blog_post_writer/credential"
	"ai_blog_post_writer/generator"
)

// buildAgent wires the Gemini backend (or the mock) and, when an llm block is
// configured, the OpenAI-backed freeform generator.
func buildAgent(cfg config.Config, mock bool) (*generator.Agent, error) {
	if mock {
		return generator.NewAgent(generator.MockFactory, generator.WithFreeform(&generator.FreeformGenerator{
			LLM:    generator.MockLLM{},
			Images: generator.MockLLM{},
		}))
	}

	factory := generator.NewGeminiFactory(
		generator.GeminiSettings{ImageModel: cfg.Gemini.ImageModel},
		generator.NewGuard("gemini-text", cfg.Gemini.RequestsPerMinute),
		generator.NewGuard("gemini-images", cfg.Gemini.RequestsPerMinute),
	)

	var agentOpts []generator.AgentOption
	if freeform, err := buildFreeform(cfg); err != nil {
		slog.Debug("freeform generation disabled", "error", err)
	} else {
		agentOpts = append(agentOpts, generator.WithFreeform(freeform))
	}
	return generator.NewAgent(factory, agentOpts...)
}

func buildFreeform(cfg config.Config) (*generator.FreeformGenerator, error) {
	settings, err := cfg.LLMSettings()
	if err != nil {
		return nil, err
	}
	llm, err := generator.NewOpenAILLMFromConfig(settings)
	if err != nil {
		return nil, err
	}
	llm.Guard = generator.NewGuard("openai-chat", 0)

	images, err := generator.NewOpenAIImagesFromConfig(settings, cfg.ImageSize)
	if err != nil {
		return nil, err
	}
	images.Guard = generator.NewGuard("openai-images", 0)
	return &generator.FreeformGenerator{LLM: llm, Images: images}, nil
}

func credentialStore(cfg config.Config) (*credential.Store, error) {
	path := cfg.Credential
	if path == "" {
		p, err := credential.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("resolve credential path: %w", err)
		}
		path = p
	}
	return credential.NewStore(path), nil
}

// resolveCredential picks the stored key first, then GEMINI_API_KEY / config.
// In mock mode any non-empty key will do.
func resolveCredential(cfg config.Config, mock bool) (generator.Credential, error) {
	cred := generator.Credential{Model: cfg.Gemini.Model}
	if mock {
		cred.APIKey = "mock"
		return cred, nil
	}
	store, err := credentialStore(cfg)
	if err != nil {
		return cred, err
	}
	key, err := store.Load()
	if err != nil {
		return cred, err
	}
	if strings.TrimSpace(key) == "" {
		key = cfg.Gemini.APIKey
	}
	cred.APIKey = key
	return cred, nil
}
