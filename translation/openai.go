package translation

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/skillsenselab/audiopipe/logger"
)

const (
	defaultModel     = "gpt-4o-mini"
	defaultMaxTokens = 1024
)

// OpenAIConfig configures the chat-completion translator.
type OpenAIConfig struct {
	// APIKey authenticates against the completion endpoint.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`

	// BaseURL overrides the API endpoint. Empty means the public API.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Model is the completion model. Defaults to gpt-4o-mini.
	Model string `yaml:"model" mapstructure:"model"`

	// MaxTokens caps the translation output length. Defaults to 1024.
	MaxTokens int `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// OpenAITranslator translates via a chat-completion endpoint.
type OpenAITranslator struct {
	client    *openai.Client
	model     string
	maxTokens int
	log       *logger.Logger
}

// NewOpenAITranslator creates a translator backed by go-openai.
func NewOpenAITranslator(cfg OpenAIConfig, log *logger.Logger) (*OpenAITranslator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("translation: api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAITranslator{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		log:       log.WithComponent("translator"),
	}, nil
}

// Translate asks the completion model for an English rendering of text.
// Any failure degrades to "" with a warning; the caller's transcription
// result stays intact.
func (t *OpenAITranslator) Translate(ctx context.Context, text, sourceLanguage string) string {
	if text == "" {
		return ""
	}

	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     t.model,
		MaxTokens: t.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf(
					"You are a translator. Translate the user's text from %s to English. Reply with the translation only.",
					sourceLanguage,
				),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
	})
	if err != nil {
		t.log.Warn("translation failed", logger.Fields(
			logger.FieldLanguage, sourceLanguage,
			logger.FieldError, err.Error(),
		))
		return ""
	}
	if len(resp.Choices) == 0 {
		t.log.Warn("translation returned no choices", logger.Fields(logger.FieldLanguage, sourceLanguage))
		return ""
	}

	return resp.Choices[0].Message.Content
}
