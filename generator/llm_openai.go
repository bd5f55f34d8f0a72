package generator

import (
	"context"
	"errors"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	DefaultOpenAIModel     = "gpt-4o-mini"
	DefaultOpenAIImageSize = "512x512"
)

// OpenAILLM implements LLMClient using the official openai-go SDK (chat completions).
type OpenAILLM struct {
	Model string
	Opts  []option.RequestOption
	Guard *Guard
}

func NewOpenAILLMFromConfig(cfg *LLMSettings) (*OpenAILLM, error) {
	opts, err := openAIOptions(cfg)
	if err != nil {
		return nil, err
	}
	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAILLM{Model: model, Opts: opts}, nil
}

func openAIOptions(cfg *LLMSettings) ([]option.RequestOption, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key missing; provide llm.api_key or OPENAI_API_KEY")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return opts, nil
}

func (o *OpenAILLM) Complete(ctx context.Context, prompt Prompt) (string, error) {
	client := openai.NewClient(o.Opts...)

	var msgs []openai.ChatCompletionMessageParamUnion
	if prompt.System != "" {
		msgs = append(msgs, openai.SystemMessage(prompt.System))
	}
	msgs = append(msgs, openai.UserMessage(prompt.User))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.Model),
		Messages: msgs,
	}
	if prompt.Temperature != nil {
		params.Temperature = openai.Float(float64(*prompt.Temperature))
	}

	out, err := o.Guard.Do(ctx, func() (any, error) {
		return client.Chat.Completions.New(ctx, params)
	})
	if err != nil {
		return "", err
	}
	resp, _ := out.(*openai.ChatCompletion)
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("openai: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// OpenAIImages implements ImageGenerator with the images endpoint; results are hosted URLs.
type OpenAIImages struct {
	Size  string
	Opts  []option.RequestOption
	Guard *Guard
}

func NewOpenAIImagesFromConfig(cfg *LLMSettings, size string) (*OpenAIImages, error) {
	opts, err := openAIOptions(cfg)
	if err != nil {
		return nil, err
	}
	if size == "" {
		size = DefaultOpenAIImageSize
	}
	return &OpenAIImages{Size: size, Opts: opts}, nil
}

func (o *OpenAIImages) GenerateImage(ctx context.Context, prompt string) (Image, error) {
	client := openai.NewClient(o.Opts...)
	out, err := o.Guard.Do(ctx, func() (any, error) {
		return client.Images.Generate(ctx, openai.ImageGenerateParams{
			Prompt: prompt,
			N:      openai.Int(1),
			Size:   openai.ImageGenerateParamsSize(o.Size),
		})
	})
	if err != nil {
		return Image{}, err
	}
	resp, _ := out.(*openai.ImagesResponse)
	if resp == nil || len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return Image{}, errors.New("openai: no image url returned")
	}
	return Image{Src: resp.Data[0].URL}, nil
}
