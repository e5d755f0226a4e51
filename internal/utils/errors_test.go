package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFabricError_Error(t *testing.T) {
	tests := []struct {
		name     string
		context  string
		cause    error
		expected string
	}{
		{
			name:     "simple error",
			context:  "reading graph header",
			cause:    errors.New("invalid signature"),
			expected: "reading graph header: invalid signature",
		},
		{
			name:     "nested error",
			context:  "decoding class record",
			cause:    errors.New("record too short"),
			expected: "decoding class record: record too short",
		},
		{
			name:     "empty context",
			context:  "",
			cause:    errors.New("some error"),
			expected: ": some error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &FabricError{
				Context: tt.context,
				Cause:   tt.cause,
			}
			require.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestWrapError(t *testing.T) {
	tests := []struct {
		name    string
		context string
		cause   error
		wantNil bool
	}{
		{
			name:    "wrap non-nil error",
			context: "reading store header",
			cause:   errors.New("IO error"),
			wantNil: false,
		},
		{
			name:    "wrap nil error returns nil",
			context: "some operation",
			cause:   nil,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := WrapError(tt.context, tt.cause)

			if tt.wantNil {
				require.Nil(t, err)
				return
			}

			require.NotNil(t, err)

			var ferr *FabricError
			ok := errors.As(err, &ferr)
			require.True(t, ok, "error should be FabricError type")
			require.Equal(t, tt.context, ferr.Context)
			require.Equal(t, tt.cause, ferr.Cause)
		})
	}
}

func TestFabricError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	wrapped := WrapError("context", originalErr)

	require.NotNil(t, wrapped)

	unwrapped := errors.Unwrap(wrapped)
	require.Equal(t, originalErr, unwrapped)
}

func TestFabricError_ErrorsIs(t *testing.T) {
	originalErr := errors.New("specific error")
	wrapped := WrapError("first level", originalErr)
	doubleWrapped := WrapError("second level", wrapped)

	// errors.Is should work through the chain
	require.True(t, errors.Is(doubleWrapped, originalErr))
	require.True(t, errors.Is(wrapped, originalErr))
}

func TestWrapError_ChainedWrapping(t *testing.T) {
	baseErr := errors.New("base error")
	level1 := WrapError("flushing class store", baseErr)
	level2 := WrapError("flushing graph", level1)

	require.NotNil(t, level2)

	errMsg := level2.Error()
	require.Contains(t, errMsg, "flushing graph")
	require.Contains(t, errMsg, "flushing class store")

	require.True(t, errors.Is(level2, baseErr))

	var ferr *FabricError
	require.True(t, errors.As(level2, &ferr))
	require.Equal(t, "flushing graph", ferr.Context)

	unwrapped := errors.Unwrap(level2)
	require.True(t, errors.As(unwrapped, &ferr))
	require.Equal(t, "flushing class store", ferr.Context)

	require.Equal(t, baseErr, errors.Unwrap(unwrapped))
}

func BenchmarkWrapError(b *testing.B) {
	baseErr := errors.New("base error")

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = WrapError("context", baseErr)
	}
}
