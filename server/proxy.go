package server

import (
	"log/slog"
	"net/http"
	"strings"

	"ai_blog_post_writer/config"
	"ai_blog_post_writer/generator"
)

const defaultCoverPrompt = "Blog cover image"

// proxy serves the OpenAI-backed endpoints. The OpenAI key stays on the server.
type proxy struct {
	llm    generator.LLMClient
	images generator.ImageGenerator
}

func proxyFromConfig(cfg config.Config, logger *slog.Logger) *proxy {
	settings, err := cfg.LLMSettings()
	if err != nil {
		logger.Warn("proxy endpoints have no llm backend", "error", err)
		return &proxy{}
	}
	p := &proxy{}
	if llm, err := generator.NewOpenAILLMFromConfig(settings); err == nil {
		llm.Guard = generator.NewGuard("openai-chat", 0)
		p.llm = llm
	} else {
		logger.Warn("proxy chat client unavailable", "error", err)
	}
	if images, err := generator.NewOpenAIImagesFromConfig(settings, cfg.ImageSize); err == nil {
		images.Guard = generator.NewGuard("openai-images", 0)
		p.images = images
	} else {
		logger.Warn("proxy image client unavailable", "error", err)
	}
	return p
}

type generateReq struct {
	Category string   `json:"category"`
	Title    string   `json:"title"`
	Style    string   `json:"style"`
	Tags     []string `json:"tags"`
	Prompt   string   `json:"prompt"`
}

type contentResp struct {
	Content string `json:"content"`
}

type promptReq struct {
	Prompt string `json:"prompt"`
}

type urlResp struct {
	URL string `json:"url"`
}

func allowPost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		errJSON(w, http.StatusMethodNotAllowed, "Method not allowed")
		return false
	}
	return true
}

func (p *proxy) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if !allowPost(w, r) {
		return
	}
	var req generateReq
	if !decodeBody(w, r, &req) {
		return
	}

	var prompt generator.Prompt
	switch {
	case strings.TrimSpace(req.Title) != "":
		prompt = generator.BuildProxyPrompt(req.Category, req.Title, req.Style, req.Tags)
	case strings.TrimSpace(req.Prompt) != "":
		prompt = generator.Prompt{User: req.Prompt}
	default:
		errJSON(w, http.StatusBadRequest, "Missing title")
		return
	}
	if p.llm == nil {
		errJSON(w, http.StatusInternalServerError, "OPENAI_API_KEY is not configured")
		return
	}

	content, err := p.llm.Complete(r.Context(), prompt)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp{Error: "OpenAI error", Detail: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, contentResp{Content: content})
}

func (p *proxy) handleDalle(w http.ResponseWriter, r *http.Request) {
	if !allowPost(w, r) {
		return
	}
	var req promptReq
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		req.Prompt = defaultCoverPrompt
	}
	if p.images == nil {
		errJSON(w, http.StatusInternalServerError, "OPENAI_API_KEY is not configured")
		return
	}

	img, err := p.images.GenerateImage(r.Context(), req.Prompt)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp{Error: "OpenAI image error", Detail: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, urlResp{URL: img.Src})
}

// handleGenerateImage is the strict variant of handleDalle: the prompt is required.
func (p *proxy) handleGenerateImage(w http.ResponseWriter, r *http.Request) {
	if !allowPost(w, r) {
		return
	}
	var req promptReq
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		errJSON(w, http.StatusBadRequest, "Missing prompt")
		return
	}
	if p.images == nil {
		errJSON(w, http.StatusInternalServerError, "OPENAI_API_KEY is not configured")
		return
	}

	img, err := p.images.GenerateImage(r.Context(), req.Prompt)
	if err != nil {
		slog.Error("generate-image failed", "error", err)
		errJSON(w, http.StatusInternalServerError, "Failed to generate image")
		return
	}
	writeJSON(w, http.StatusOK, urlResp{URL: img.Src})
}
