// Package llm is the chat-completion capability the pipeline stages depend on.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nalk-analytics/internal/common/config"
	commonerrors "nalk-analytics/internal/common/errors"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var (
	ErrRequestFailed   = errors.New("LLM_REQUEST_FAILED")
	ErrTimeout         = errors.New("LLM_TIMEOUT")
	ErrInvalidResponse = errors.New("LLM_INVALID_RESPONSE")
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options are per-call settings. A zero MaxTokens uses the client default.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// Client returns the text of one assistant message for the given conversation.
type Client interface {
	Complete(ctx context.Context, messages []Message, opts Options) (string, error)
}

func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

func User(content string) Message { return Message{Role: RoleUser, Content: content} }

// New builds the client for the configured provider.
func New(cfg config.LLMConfig) (Client, error) {
	timeout := time.Duration(cfg.Timeout) * time.Millisecond
	switch strings.ToLower(cfg.Provider) {
	case "groq", "":
		return NewGroqClient(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.MaxTokens, timeout), nil
	case "anthropic":
		return NewAnthropicClient(cfg.APIKey, cfg.Model, cfg.MaxTokens, timeout), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// classify maps a transport error onto ErrTimeout or ErrRequestFailed.
func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrRequestFailed, err)
}

// StandardError maps an error returned by Complete onto its error code.
func StandardError(stage string, err error) *commonerrors.StandardError {
	switch {
	case errors.Is(err, ErrTimeout):
		return commonerrors.NewLLMTimeoutError(stage, err)
	case errors.Is(err, ErrInvalidResponse):
		return commonerrors.NewLLMInvalidResponseError(stage, err)
	default:
		return commonerrors.NewLLMRequestFailedError(stage, err)
	}
}
