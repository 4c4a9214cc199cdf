package llm

import (
	"context"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/nina031/MenuScanner-backend/internal/errs"
)

const maxOutputTokens = 8192

// completer is the minimal surface the menu-structuring calls need; tests
// stub it with canned responses.
type completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// claudeCompleter issues single-shot, deterministic (temperature 0) calls to
// the Claude messages API.
type claudeCompleter struct {
	messages anthropic.MessageService
	model    string
}

func newClaudeCompleter(apiKey, model string) *claudeCompleter {
	return &claudeCompleter{
		messages: anthropic.NewMessageService(option.WithAPIKey(apiKey)),
		model:    model,
	}
}

func (c *claudeCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	message, err := c.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   maxOutputTokens,
		Temperature: anthropic.Float(0),
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", convertClaudeError(err)
	}

	for _, block := range message.Content {
		if block.Text != "" {
			return block.Text, nil
		}
	}
	return "", errs.LLM(errs.CodeLLMError, "réponse Claude vide")
}

func convertClaudeError(err error) error {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		switch apierr.StatusCode {
		case 401, 403:
			return errs.LLM(errs.CodeLLMAuthError, "clé API Claude invalide")
		case 429:
			return errs.LLM(errs.CodeLLMRateLimit, "limite Claude atteinte")
		}
	}
	return errs.LLM(errs.CodeLLMError, "appel Claude échoué: %v", err)
}
