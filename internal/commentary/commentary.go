package commentary

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/trustscope/trustscope/internal/score"
)

// Commentator writes a short free-text assessment of a result
type Commentator interface {
	Comment(ctx context.Context, result *score.Result) (string, error)
}

// Config configures the OpenAI commentator
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
}

// OpenAI produces commentary with the chat completions API
type OpenAI struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAI creates an OpenAI commentator
func NewOpenAI(cfg Config) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 300
	}

	return &OpenAI{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

const systemPrompt = `You review automated trust assessments of websites and job postings.
Write two to four plain sentences for a non-technical reader explaining what the findings mean
and what they should check before trusting the target. Do not invent facts beyond the findings.`

// Comment asks the model for a short assessment of result
func (o *OpenAI) Comment(ctx context.Context, result *score.Result) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     o.model,
		MaxTokens: o.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(result)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// BuildPrompt renders a result as the user message
func BuildPrompt(result *score.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Target: %s (%s)\n", result.Target, result.Kind)
	fmt.Fprintf(&b, "Score: %d/100, verdict: %s\n", result.Score, result.Verdict)
	b.WriteString("Findings:\n")
	for _, f := range result.Findings {
		fmt.Fprintf(&b, "- [%s] %s\n", f.Severity, f.Text)
	}
	return b.String()
}
