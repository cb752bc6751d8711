package action_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RedouaeElalami/chutney/internal/action"
)

type noopAction struct{}

func (noopAction) Type() string                          { return "noop" }
func (noopAction) ValidateInputs() []string              { return nil }
func (noopAction) Execute(context.Context) action.Result { return action.Ok() }

func noopFactory(action.Request) (action.Action, error) { return noopAction{}, nil }

func TestRegistry_GetAndTypes(t *testing.T) {
	reg := action.NewRegistry()
	reg.Register("b-noop", noopFactory)
	reg.Register("a-noop", noopFactory)

	f, err := reg.Get("a-noop")
	require.NoError(t, err)
	a, err := f(action.Request{})
	require.NoError(t, err)
	assert.Equal(t, "noop", a.Type())

	assert.Equal(t, []string{"a-noop", "b-noop"}, reg.Types())
}

func TestRegistry_UnknownType(t *testing.T) {
	reg := action.NewRegistry()
	_, err := reg.Get("missing")
	assert.True(t, errors.Is(err, action.ErrUnknownType))
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	reg := action.NewRegistry()
	reg.Register("noop", noopFactory)
	assert.Panics(t, func() { reg.Register("noop", noopFactory) })
}

func TestInputs_Int(t *testing.T) {
	in := action.Inputs{
		"json":   float64(587),
		"yaml":   465,
		"string": "25",
		"blank":  "",
		"bad":    "abc",
		"frac":   float64(2.5),
	}

	for key, want := range map[string]int{"json": 587, "yaml": 465, "string": 25} {
		got, err := in.Int(key)
		require.NoError(t, err, key)
		require.NotNil(t, got, key)
		assert.Equal(t, want, *got, key)
	}

	got, err := in.Int("blank")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = in.Int("absent")
	require.NoError(t, err)
	assert.Nil(t, got)

	for _, key := range []string{"bad", "frac"} {
		_, err = in.Int(key)
		var cfgErr *action.ConfigurationError
		require.ErrorAs(t, err, &cfgErr, key)
		assert.Equal(t, key, cfgErr.Key)
		assert.True(t, errors.Is(err, action.ErrConfiguration))
	}
}

func TestInputs_Bool(t *testing.T) {
	in := action.Inputs{"t": true, "s": "false", "bad": "yes please", "num": 3}

	b, err := in.Bool("t")
	require.NoError(t, err)
	assert.True(t, *b)

	b, err = in.Bool("s")
	require.NoError(t, err)
	assert.False(t, *b)

	_, err = in.Bool("bad")
	assert.ErrorIs(t, err, action.ErrConfiguration)
	_, err = in.Bool("num")
	assert.ErrorIs(t, err, action.ErrConfiguration)
}

func TestInputs_Strings(t *testing.T) {
	in := action.Inputs{"to": "a@b.c", "blank": "   ", "n": 5}
	assert.Equal(t, "a@b.c", in.String("to"))
	assert.Equal(t, "5", in.String("n"))
	assert.Equal(t, "", in.String("absent"))
	assert.Nil(t, in.OptionalString("blank"))
	assert.Equal(t, "a@b.c", *in.OptionalString("to"))
}

func TestValidationError_Message(t *testing.T) {
	one := &action.ValidationError{Errors: []string{"to is required"}}
	assert.Equal(t, "validation: to is required", one.Error())

	many := &action.ValidationError{Errors: []string{"a", "b"}}
	assert.Equal(t, "validation: 2 errors: a; b", many.Error())
	assert.ErrorIs(t, many, action.ErrValidation)
}

func TestRecordingLogger(t *testing.T) {
	var buf bytes.Buffer
	l := action.NewRecordingLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	l.Info("sent")
	l.Error("failed")

	assert.Equal(t, []action.LogLine{
		{Level: "info", Message: "sent"},
		{Level: "error", Message: "failed"},
	}, l.Lines())
	assert.Contains(t, buf.String(), "msg=sent")
	assert.Contains(t, buf.String(), "msg=failed")
}

func TestResult(t *testing.T) {
	assert.True(t, action.Ok().Succeeded())
	ko := action.Ko("boom")
	assert.False(t, ko.Succeeded())
	assert.Equal(t, action.StatusFailure, ko.Status)
	assert.Equal(t, "boom", ko.Diagnostic)
}
