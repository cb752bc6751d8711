package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RedouaeElalami/chutney/internal/action"
	"github.com/RedouaeElalami/chutney/internal/action/email"
	"github.com/RedouaeElalami/chutney/internal/engine"
)

const stagingYAML = `name: STAGING
description: staging mail relay
targets:
  - name: mail
    host: smtp.staging.local
    port: 2525
    user: bot@staging.local
    user_password: secret
    properties:
      smtp.tls: "false"
`

// setupEnv points the config at a fresh database and an environments
// directory holding STAGING.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	envDir := filepath.Join(dir, "environments")
	require.NoError(t, os.MkdirAll(envDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(envDir, "staging.yaml"), []byte(stagingYAML), 0o644))

	t.Setenv("CHUTNEY_DATABASE_PATH", filepath.Join(dir, "chutney.db"))
	t.Setenv("CHUTNEY_ENVIRONMENTS_DIR", envDir)
	t.Setenv("CHUTNEY_LOG_LEVEL", "error")
	return envDir
}

func execute(t *testing.T, opts *RootOptions, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := newRootCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "chutney", cmd.Use)

	for _, name := range []string{"serve", "run", "env", "version"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, &RootOptions{}, "version", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestVersionJSON(t *testing.T) {
	out, err := execute(t, &RootOptions{}, "version", "--format", "json")
	require.NoError(t, err)

	var v map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "dev", v["version"])
}

func TestParseInputs(t *testing.T) {
	in, err := parseInputs(`{"to":"a@example.com","smtpPort":2525}`, []string{"to=b@example.com", "subject=x=y"})
	require.NoError(t, err)
	assert.Equal(t, "b@example.com", in["to"])
	assert.Equal(t, "x=y", in["subject"])
	assert.Equal(t, float64(2525), in["smtpPort"])

	_, err = parseInputs(`{`, nil)
	assert.Error(t, err)
	_, err = parseInputs("", []string{"novalue"})
	assert.Error(t, err)
}

func TestRun_SuccessRecordsExecution(t *testing.T) {
	setupEnv(t)
	var got []email.TransportConfig
	opts := &RootOptions{transport: email.TransportFunc(func(_ context.Context, cfg email.TransportConfig, msg email.Message) error {
		got = append(got, cfg)
		return nil
	})}

	out, err := execute(t, opts, "run", "send-mail",
		"--env", "STAGING", "--target", "mail",
		"-i", "to=ops@example.com", "-i", "subject=Nightly",
		"--scenario", "nightly", "--format", "json")

	require.NoError(t, err)
	var rep engine.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, action.StatusSuccess, rep.Status)
	assert.NotZero(t, rep.ExecutionID)
	require.Len(t, got, 1)
	assert.Equal(t, "smtp.staging.local", got[0].Host)
	assert.Equal(t, 2525, got[0].Port)
	assert.False(t, got[0].UseTLS)
}

func TestRun_FailureExitsOne(t *testing.T) {
	setupEnv(t)
	opts := &RootOptions{transport: email.TransportFunc(func(context.Context, email.TransportConfig, email.Message) error {
		return errors.New("connection refused")
	})}

	out, err := execute(t, opts, "run", "send-mail", "--env", "STAGING", "--target", "mail", "-i", "to=ops@example.com")

	require.Error(t, err)
	assert.Equal(t, ExitFailure, ExitCode(err))
	assert.Contains(t, out, "send-mail FAILURE")
	assert.Contains(t, out, "connection refused")
}

func TestRun_InvalidInputsExitTwo(t *testing.T) {
	setupEnv(t)
	opts := &RootOptions{transport: email.TransportFunc(func(context.Context, email.TransportConfig, email.Message) error {
		t.Error("transport must not be called")
		return nil
	})}

	_, err := execute(t, opts, "run", "send-mail", "--env", "STAGING", "--target", "mail")

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, ExitCode(err))
	assert.Contains(t, err.Error(), "to is required")
}

func TestRun_UnknownTarget(t *testing.T) {
	setupEnv(t)

	_, err := execute(t, &RootOptions{}, "run", "send-mail", "--env", "STAGING", "--target", "db", "-i", "to=ops@example.com")

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, ExitCode(err))
}

func TestEnvImportAndList(t *testing.T) {
	envDir := setupEnv(t)
	t.Setenv("CHUTNEY_ENVIRONMENTS_DIR", "")
	require.NoError(t, os.WriteFile(filepath.Join(envDir, "prod.yml"), []byte("name: PROD\n"), 0o644))

	out, err := execute(t, &RootOptions{}, "env", "import", envDir)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 2 environment(s)")

	out, err = execute(t, &RootOptions{}, "env", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "PROD\t0 target(s)")
	assert.Contains(t, out, "STAGING\t1 target(s)\tstaging mail relay")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCode(nil))
	assert.Equal(t, ExitCommandError, ExitCode(errors.New("boom")))
	assert.Equal(t, ExitFailure, ExitCode(&ExitError{Code: ExitFailure, Err: errors.New("ko")}))
}
