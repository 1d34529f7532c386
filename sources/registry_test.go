package sources

import (
	"fmt"
	"sync"
	"testing"

	"github.com/brettbedarf/namefs"
	"github.com/brettbedarf/namefs/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRegister_SingleProvider(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	mockProvider := &mocks.MockSourceProvider{}

	r.Register(HTTPSourceType, mockProvider)
	provider, err := r.GetProvider(HTTPSourceType)

	require.NoError(t, err)
	assert.Equal(t, mockProvider, provider)
}

func TestRegister_DuplicateProvider(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	mockProvider1 := &mocks.MockSourceProvider{}
	mockProvider2 := &mocks.MockSourceProvider{}

	r.Register("test", mockProvider1)
	r.Register("test", mockProvider2)

	provider, err := r.GetProvider("test")
	require.NoError(t, err)
	assert.Same(t, mockProvider1, provider)
}

func TestRegister_Concurrent(t *testing.T) {
	t.Parallel()
	var wg sync.WaitGroup
	r := NewRegistry()

	for i := range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sourceType := fmt.Sprintf("test%d", i)
			mockProvider := &mocks.MockSourceProvider{}
			r.Register(sourceType, mockProvider)
			provider, err := r.GetProvider(sourceType)
			assert.NoError(t, err)
			assert.Same(t, mockProvider, provider)
		}()
	}
	wg.Wait()
}

func TestGetProvider_NonExistentProvider(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	_, err := r.GetProvider("nonexistent")
	assert.Error(t, err)
}

func TestNewSource_ValidConfig(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	mockProvider := &mocks.MockSourceProvider{}
	mockSource := &mocks.MockByteSource{}
	r.Register("test", mockProvider)

	cfg := []byte(`{"type":"test"}`) // only need type field for tests
	mockProvider.On("NewSource", cfg).Return(mockSource, nil)
	ret, err := r.NewSource(cfg)
	require.NoError(t, err)
	mockProvider.AssertCalled(t, "NewSource", cfg)
	assert.Equal(t, mockSource, ret)
}

func TestNewSource_Errors(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	mockProvider := &mocks.MockSourceProvider{}
	r.Register("test", mockProvider)
	expErr := fmt.Errorf("test error")
	mockProvider.On("NewSource", mock.Anything).Return(nil, expErr)

	tests := []struct {
		name string
		raw  string
	}{
		{"missing type", `{"foo":"bar"}`},
		{"unregistered type", `{"type":"foo"}`},
		{"bad json", `{"type":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.NewSource([]byte(tt.raw))
			assert.Error(t, err)
		})
	}

	_, err := r.NewSource([]byte(`{"type":"test"}`))
	require.Error(t, err)
	assert.Equal(t, expErr, err)
	mockProvider.AssertExpectations(t)
}

func TestBuiltins(t *testing.T) {
	t.Parallel()
	r := NewDefaultRegistry()

	for _, typ := range []string{ZeroSourceType, TextSourceType, FileSourceType, HTTPSourceType} {
		_, err := r.GetProvider(typ)
		assert.NoError(t, err, typ)
	}

	only := NewRegistry()
	RegisterBuiltins(only, TextSourceType)
	_, err := only.GetProvider(TextSourceType)
	assert.NoError(t, err)
	_, err = only.GetProvider(HTTPSourceType)
	assert.Error(t, err)
}

func readAll(t *testing.T, src namefs.ByteSource) []byte {
	t.Helper()
	var out []byte
	for {
		b, err := src.ReadByte()
		if err != nil {
			return out
		}
		out = append(out, b)
	}
}

func TestTextSource(t *testing.T) {
	t.Parallel()
	src, err := NewDefaultRegistry().NewSource([]byte(`{"type":"text","data":"hello"}`))
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), readAll(t, src))
}
