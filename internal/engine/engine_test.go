package engine

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RedouaeElalami/chutney/internal/action"
	"github.com/RedouaeElalami/chutney/internal/action/email"
	"github.com/RedouaeElalami/chutney/internal/config"
	"github.com/RedouaeElalami/chutney/internal/dataset"
	"github.com/RedouaeElalami/chutney/internal/environment"
	"github.com/RedouaeElalami/chutney/internal/history"
	"github.com/RedouaeElalami/chutney/internal/target"
)

type fakeTargets struct {
	mu      sync.Mutex
	targets map[string]target.Target
}

func (f *fakeTargets) set(envName string, t target.Target) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.targets[envName+"/"+t.Name] = t
}

func (f *fakeTargets) FindTarget(_ context.Context, envName, targetName string) (target.Target, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.targets[envName+"/"+targetName]
	if !ok {
		return target.Target{}, environment.ErrTargetNotFound
	}
	return t.Clone(), nil
}

type fakeHistory struct {
	mu      sync.Mutex
	records []history.Execution
}

func (f *fakeHistory) Append(_ context.Context, e history.Execution) (history.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e.ID = int64(len(f.records) + 1)
	f.records = append(f.records, e)
	return e.Summary, nil
}

func (f *fakeHistory) all() []history.Execution {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]history.Execution(nil), f.records...)
}

type fakeDatasets map[string]dataset.DataSet

func (f fakeDatasets) FindByID(_ context.Context, id string) (dataset.DataSet, error) {
	ds, ok := f[id]
	if !ok {
		return dataset.DataSet{}, dataset.ErrNotFound
	}
	return ds, nil
}

type recordingTransport struct {
	mu    sync.Mutex
	err   error
	hosts []string
}

func (r *recordingTransport) Send(_ context.Context, cfg email.TransportConfig, _ email.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hosts = append(r.hosts, cfg.Host)
	return r.err
}

func (r *recordingTransport) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.hosts...)
}

type fixture struct {
	runner  *Runner
	targets *fakeTargets
	history *fakeHistory
}

func newFixture(t *testing.T, transport email.Transport) *fixture {
	t.Helper()
	f := &fixture{
		targets: &fakeTargets{targets: map[string]target.Target{}},
		history: &fakeHistory{},
	}
	f.targets.set("STAGING", target.Target{
		Name:         "mail",
		Host:         "smtp.staging.local",
		Port:         2525,
		User:         "bot@staging.local",
		UserPassword: "secret",
	})
	f.targets.set("STAGING", target.Target{Name: "anonymous", Host: "smtp.staging.local", Port: 25})

	reg := action.NewRegistry()
	email.Register(reg, transport, email.DefaultProviders())
	datasets := fakeDatasets{"ds-1": {ID: "ds-1", Name: "users", Constants: map[string]string{"k": "v"}}}
	f.runner = NewRunner(slog.New(slog.DiscardHandler), reg, f.targets, f.history, datasets)
	return f
}

func mailInvocation() Invocation {
	return Invocation{
		ActionType:  email.SendMailType,
		Environment: "STAGING",
		Target:      "mail",
		ScenarioID:  "sc-1",
		User:        "alice",
		Inputs:      action.Inputs{"to": "ops@example.com", "subject": "Report", "body": "done"},
	}
}

func TestRun_SuccessIsReportedAndRecorded(t *testing.T) {
	tr := &recordingTransport{}
	f := newFixture(t, tr)
	inv := mailInvocation()
	inv.DatasetID = "ds-1"

	rep, err := f.runner.Run(context.Background(), inv)

	require.NoError(t, err)
	assert.Equal(t, action.StatusSuccess, rep.Status)
	assert.Empty(t, rep.Diagnostic)
	assert.NotEmpty(t, rep.InvocationID)
	assert.Equal(t, []action.LogLine{{Level: "info", Message: "email sent successfully"}}, rep.Logs)
	assert.Equal(t, []string{"smtp.staging.local"}, tr.calls())

	recs := f.history.all()
	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Equal(t, int64(1), rep.ExecutionID)
	assert.Equal(t, "sc-1", rec.ScenarioID)
	assert.Equal(t, history.StatusSuccess, rec.Status)
	assert.Equal(t, "send-mail", rec.ActionType)
	assert.Equal(t, "alice", rec.User)
	assert.Equal(t, "STAGING", rec.Environment)
	assert.Equal(t, rep.InvocationID, rec.InvocationID)
	assert.Equal(t, "email sent successfully", rec.Info)
	require.NotNil(t, rec.Dataset)
	assert.Equal(t, "ds-1", rec.Dataset.ID)
	assert.Equal(t, map[string]string{"k": "v"}, rec.Dataset.Constants)

	var stored Report
	require.NoError(t, json.Unmarshal([]byte(rec.Report), &stored))
	assert.Equal(t, rep.Logs, stored.Logs)
	assert.Equal(t, action.StatusSuccess, stored.Status)
}

func TestRun_TargetWithoutUserIsInvalid(t *testing.T) {
	tr := &recordingTransport{}
	f := newFixture(t, tr)
	inv := mailInvocation()
	inv.Target = "anonymous"

	rep, err := f.runner.Run(context.Background(), inv)

	assert.Nil(t, rep)
	var vErr *action.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, []string{"username is required"}, vErr.Errors)
	assert.Empty(t, tr.calls())
	assert.Empty(t, f.history.all())
}

func TestRun_UserWithoutSecretFails(t *testing.T) {
	tr := &recordingTransport{}
	f := newFixture(t, tr)
	f.targets.set("STAGING", target.Target{Name: "nosecret", Host: "smtp.staging.local", Port: 25, User: "bot"})
	inv := mailInvocation()
	inv.Target = "nosecret"

	rep, err := f.runner.Run(context.Background(), inv)

	require.NoError(t, err)
	assert.Equal(t, action.StatusFailure, rep.Status)
	assert.Equal(t, email.NoAuthDiagnostic, rep.Diagnostic)
	assert.Equal(t, []action.LogLine{{Level: "error", Message: "authentication configuration error: " + email.NoAuthDiagnostic}}, rep.Logs)
	assert.Empty(t, tr.calls())

	recs := f.history.all()
	require.Len(t, recs, 1)
	assert.Equal(t, history.StatusFailure, recs[0].Status)
	assert.Equal(t, email.NoAuthDiagnostic, recs[0].Error)
}

func TestRun_TransportFailure(t *testing.T) {
	tr := &recordingTransport{err: errors.New("SMTP server unavailable")}
	f := newFixture(t, tr)

	rep, err := f.runner.Run(context.Background(), mailInvocation())

	require.NoError(t, err)
	assert.Equal(t, action.StatusFailure, rep.Status)
	assert.Contains(t, rep.Diagnostic, "SMTP server unavailable")
	require.Len(t, rep.Logs, 1)
	assert.Equal(t, "error", rep.Logs[0].Level)
}

func TestRun_TargetIsReresolvedEachTime(t *testing.T) {
	tr := &recordingTransport{}
	f := newFixture(t, tr)
	ctx := context.Background()

	_, err := f.runner.Run(ctx, mailInvocation())
	require.NoError(t, err)

	f.targets.set("STAGING", target.Target{
		Name:         "mail",
		Host:         "smtp.moved.local",
		Port:         2525,
		User:         "bot@staging.local",
		UserPassword: "secret",
	})
	_, err = f.runner.Run(ctx, mailInvocation())
	require.NoError(t, err)

	assert.Equal(t, []string{"smtp.staging.local", "smtp.moved.local"}, tr.calls())
}

func TestRun_NoScenarioNoRecord(t *testing.T) {
	f := newFixture(t, &recordingTransport{})
	inv := mailInvocation()
	inv.ScenarioID = ""

	rep, err := f.runner.Run(context.Background(), inv)

	require.NoError(t, err)
	assert.Zero(t, rep.ExecutionID)
	assert.Empty(t, f.history.all())
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Invocation)
		target *target.Target
		is     error
	}{
		{name: "unknown type", mutate: func(i *Invocation) { i.ActionType = "fax" }, is: action.ErrUnknownType},
		{name: "target without environment", mutate: func(i *Invocation) { i.Environment = "" }, is: ErrMissingEnvironment},
		{name: "unknown target", mutate: func(i *Invocation) { i.Target = "db" }, is: environment.ErrTargetNotFound},
		{name: "unknown dataset", mutate: func(i *Invocation) { i.DatasetID = "ds-404" }, is: dataset.ErrNotFound},
		{name: "missing recipient", mutate: func(i *Invocation) { delete(i.Inputs, "to") }, is: action.ErrValidation},
		{
			name:   "non numeric port property",
			mutate: func(i *Invocation) { i.Target = "badport" },
			target: &target.Target{Name: "badport", Host: "h", Port: 25, User: "u", UserPassword: "p", Properties: map[string]string{"smtp.port": "abc"}},
			is:     action.ErrConfiguration,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &recordingTransport{}
			f := newFixture(t, tr)
			if tt.target != nil {
				f.targets.set("STAGING", *tt.target)
			}
			inv := mailInvocation()
			tt.mutate(&inv)

			rep, err := f.runner.Run(context.Background(), inv)

			assert.Nil(t, rep)
			assert.True(t, errors.Is(err, tt.is), "got %v", err)
			assert.Empty(t, tr.calls())
			assert.Empty(t, f.history.all())
		})
	}
}

// blockingTransport holds every Send until release is closed.
type blockingTransport struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingTransport) Send(ctx context.Context, _ email.TransportConfig, _ email.Message) error {
	b.started <- struct{}{}
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func testConf(workers, depth int) config.EngineConf {
	return config.EngineConf{Workers: workers, QueueDepth: depth, InvocationTimeoutMs: 5000}
}

func TestEngine_RunSync(t *testing.T) {
	f := newFixture(t, &recordingTransport{})
	e := New(context.Background(), f.runner, testConf(2, 4), slog.New(slog.DiscardHandler))
	defer e.Shutdown()

	inv := mailInvocation()
	inv.ID = "inv-42"
	rep, err := e.RunSync(context.Background(), inv)

	require.NoError(t, err)
	assert.Equal(t, "inv-42", rep.InvocationID)
	assert.Equal(t, action.StatusSuccess, rep.Status)
}

func TestEngine_RunSyncPropagatesErrors(t *testing.T) {
	f := newFixture(t, &recordingTransport{})
	e := New(context.Background(), f.runner, testConf(1, 1), slog.New(slog.DiscardHandler))
	defer e.Shutdown()

	inv := mailInvocation()
	inv.ActionType = "fax"
	_, err := e.RunSync(context.Background(), inv)
	assert.True(t, errors.Is(err, action.ErrUnknownType))
}

func TestEngine_QueueFull(t *testing.T) {
	bt := &blockingTransport{started: make(chan struct{}, 4), release: make(chan struct{})}
	f := newFixture(t, bt)
	e := New(context.Background(), f.runner, testConf(1, 1), slog.New(slog.DiscardHandler))

	_, err := e.RunAsync(mailInvocation())
	require.NoError(t, err)
	<-bt.started // the only worker is now busy

	_, err = e.RunAsync(mailInvocation())
	require.NoError(t, err)
	assert.Equal(t, 1.0, e.QueueUtilization())

	_, err = e.RunAsync(mailInvocation())
	assert.True(t, errors.Is(err, ErrQueueFull))
	_, err = e.RunSync(context.Background(), mailInvocation())
	assert.True(t, errors.Is(err, ErrQueueFull))

	close(bt.release)
	e.Shutdown()
	assert.Len(t, f.history.all(), 2)

	_, err = e.RunAsync(mailInvocation())
	assert.True(t, errors.Is(err, ErrQueueFull))
}

func TestEngine_RunSyncCallerCancel(t *testing.T) {
	bt := &blockingTransport{started: make(chan struct{}, 1), release: make(chan struct{})}
	f := newFixture(t, bt)
	e := New(context.Background(), f.runner, testConf(1, 1), slog.New(slog.DiscardHandler))
	defer e.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	rep, err := e.RunSync(ctx, mailInvocation())
	if err != nil {
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	} else {
		assert.Equal(t, action.StatusFailure, rep.Status)
	}

	// The cancelled send still yields a failure record.
	require.Eventually(t, func() bool { return len(f.history.all()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, history.StatusFailure, f.history.all()[0].Status)
}

func TestEngine_ShutdownRunsQueuedAfterCancel(t *testing.T) {
	for i := 0; i < 20; i++ {
		bt := &blockingTransport{started: make(chan struct{}, 4), release: make(chan struct{})}
		f := newFixture(t, bt)
		ctx, cancel := context.WithCancel(context.Background())
		e := New(ctx, f.runner, testConf(1, 4), slog.New(slog.DiscardHandler))

		for j := 0; j < 4; j++ {
			_, err := e.RunAsync(mailInvocation())
			require.NoError(t, err)
		}
		<-bt.started

		cancel()
		close(bt.release)
		e.Shutdown()

		require.Len(t, f.history.all(), 4, "iteration %d", i)
		for _, rec := range f.history.all() {
			assert.Equal(t, history.StatusSuccess, rec.Status)
		}
	}
}
