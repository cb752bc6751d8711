package email_test

import (
	"context"
	"sync"

	"github.com/RedouaeElalami/chutney/internal/action/email"
)

type sendCall struct {
	Config email.TransportConfig
	Msg    email.Message
}

// fakeTransport records every Send and returns err.
type fakeTransport struct {
	mu    sync.Mutex
	err   error
	calls []sendCall
}

func (f *fakeTransport) Send(_ context.Context, cfg email.TransportConfig, msg email.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sendCall{Config: cfg, Msg: msg})
	return f.err
}

func (f *fakeTransport) Calls() []sendCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sendCall(nil), f.calls...)
}

type fakeLogger struct {
	infos  []string
	errors []string
}

func (l *fakeLogger) Info(msg string)  { l.infos = append(l.infos, msg) }
func (l *fakeLogger) Error(msg string) { l.errors = append(l.errors, msg) }

func ptr[T any](v T) *T { return &v }
