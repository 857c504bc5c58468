package llm

import (
	"context"
	"fmt"
	"sync"
)

// FakeResponse is one scripted reply. Err takes precedence over Text.
type FakeResponse struct {
	Text string
	Err  error
}

// FakeCall records what a stage sent.
type FakeCall struct {
	Messages []Message
	Options  Options
}

// FakeClient replays scripted responses in order. It is safe for concurrent use.
type FakeClient struct {
	mu        sync.Mutex
	responses []FakeResponse
	calls     []FakeCall
}

func NewFakeClient(responses ...FakeResponse) *FakeClient {
	return &FakeClient{responses: responses}
}

func (f *FakeClient) Complete(ctx context.Context, messages []Message, opts Options) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, FakeCall{Messages: messages, Options: opts})
	if err := ctx.Err(); err != nil {
		return "", classify(ctx, err)
	}
	if len(f.responses) == 0 {
		return "", fmt.Errorf("%w: no scripted response left", ErrRequestFailed)
	}

	next := f.responses[0]
	f.responses = f.responses[1:]
	if next.Err != nil {
		return "", next.Err
	}
	return next.Text, nil
}

func (f *FakeClient) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FakeCall, len(f.calls))
	copy(out, f.calls)
	return out
}

// LastPrompt returns the content of the last message of the most recent call.
func (f *FakeClient) LastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return ""
	}
	msgs := f.calls[len(f.calls)-1].Messages
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1].Content
}
