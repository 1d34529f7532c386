package contract

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_IsMatchesKindSentinels(t *testing.T) {
	t.Parallel()

	err := IndexOutOfRange(4, 4, false)

	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.NotErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, "index out of range: index 4 out of range [0, 4)", err.Error())
}

func TestWrap_KeepsCauseReachable(t *testing.T) {
	t.Parallel()

	cause := InvalidState("component count desynchronized")
	err := fmt.Errorf("findNodes: %w", Wrap("search failed", cause))

	assert.ErrorIs(t, err, ErrServiceFailure)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, KindServiceFailure, KindOf(err))

	var ce *Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, cause, ce.Cause)
}

func TestIsBug(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"invalid state", InvalidState("x"), true},
		{"method failed", MethodFailed("x"), true},
		{"invalid argument", InvalidArgument("x"), false},
		{"target not set", TargetNotSet("x"), false},
		{"plain error", errors.New("x"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsBug(tt.err))
		})
	}
}

func TestStandard_Dispatch(t *testing.T) {
	t.Parallel()

	want := InvalidArgument("bad")
	assert.NoError(t, Standard.Dispatch(Precondition, true, want))
	assert.Same(t, want, Standard.Dispatch(Precondition, false, want))
}

func TestLogged_ReportsViolations(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	d := Logged(nil, logger)

	require.NoError(t, d.Dispatch(Postcondition, true, MethodFailed("unused")))
	assert.Empty(t, buf.String(), "must not log satisfied checks")

	err := d.Dispatch(ClassInvariant, false, InvalidState("delimiter empty"))
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), `"severity":"class-invariant"`)
	assert.Contains(t, buf.String(), "delimiter empty")
}
