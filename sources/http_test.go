package sources

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockHTTPClient struct {
	mock.Mock
}

func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*http.Response), args.Error(1)
}

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

func TestHTTPProvider_NewSource(t *testing.T) {
	provider := NewHTTPProvider(&MockHTTPClient{})

	t.Run("URL validation", func(t *testing.T) {
		tests := []struct {
			url     string
			wantErr bool
			desc    string
		}{
			// Valid cases
			{"http://test.com", false, "basic HTTP URL"},
			{"https://test.com", false, "basic HTTPS URL"},
			{"  http://test.com   ", false, "URL with whitespace"},
			{"http://test.com/path?arg=1&arg2=2", false, "URL with path and query"},
			{"http://test.com:8080", false, "URL with port"},
			{"http://localhost:8080/test", false, "localhost with port"},
			{"http://123.123.123.123/test", false, "IP address"},
			{"http://mylocalnet/test", false, "single label hostname"},

			// Invalid cases
			{"", true, "empty string"},
			{" ", true, "whitespace only"},
			{"_", true, "invalid character"},
			{"ftp://test.com", true, "different scheme rejected"},
			{"test.com", true, "missing scheme"},
			{"http://user@test.com/path", true, "URL with user info"},
		}

		for _, tt := range tests {
			t.Run(tt.desc, func(t *testing.T) {
				src, err := provider.NewSource(createCfg(tt.url))

				if tt.wantErr {
					assert.Error(t, err)
					assert.Nil(t, src)
				} else {
					require.NoError(t, err)
					require.NotNil(t, src)
					assert.IsType(t, &lazySource{}, src)
				}
			})
		}
	})
}

func TestHTTPSource_Read(t *testing.T) {
	t.Run("successful request", func(t *testing.T) {
		client := &MockHTTPClient{}
		client.On("Do", mock.Anything).Return(response(http.StatusOK, "hi"), nil).Once()
		src, err := NewHTTPProvider(client).NewSource(createCfg("http://test.com/file"))
		require.NoError(t, err)

		assert.Equal(t, []byte("hi"), readAll(t, src))
		client.AssertNumberOfCalls(t, "Do", 1)
	})

	t.Run("network error is retried on next read", func(t *testing.T) {
		client := &MockHTTPClient{}
		netErr := errors.New("connection reset")
		client.On("Do", mock.Anything).Return(nil, netErr).Once()
		client.On("Do", mock.Anything).Return(response(http.StatusOK, "x"), nil).Once()
		src, err := NewHTTPProvider(client).NewSource(createCfg("http://test.com/file"))
		require.NoError(t, err)

		_, err = src.ReadByte()
		assert.ErrorIs(t, err, netErr)
		b, err := src.ReadByte()
		require.NoError(t, err)
		assert.Equal(t, byte('x'), b)
		client.AssertExpectations(t)
	})

	t.Run("HTTP error status", func(t *testing.T) {
		client := &MockHTTPClient{}
		client.On("Do", mock.Anything).Return(response(http.StatusNotFound, ""), nil)
		src, err := NewHTTPProvider(client).NewSource(createCfg("http://test.com/missing"))
		require.NoError(t, err)

		_, err = src.ReadByte()
		assert.ErrorContains(t, err, "unexpected status")
	})

	t.Run("with custom method and headers", func(t *testing.T) {
		client := &MockHTTPClient{}
		method := HTTPMethodPost
		client.On("Do", mock.MatchedBy(func(req *http.Request) bool {
			return req.Method == HTTPMethodPost && req.Header.Get("Authorization") == "Bearer t"
		})).Return(response(http.StatusOK, "ok"), nil)
		src, err := NewHTTPProvider(client).NewSource(
			createCfgWithOpts("https://test.com/api", &method, map[string]string{"Authorization": "Bearer t"}))
		require.NoError(t, err)

		assert.Equal(t, []byte("ok"), readAll(t, src))
		client.AssertExpectations(t)
	})
}

func TestRegisterHTTP(t *testing.T) {
	t.Run("registers http provider", func(t *testing.T) {
		registry := NewRegistry()
		RegisterHTTP(registry)

		provider, err := registry.GetProvider(HTTPSourceType)
		require.NoError(t, err)
		require.NotNil(t, provider)
		assert.IsType(t, &HTTPProvider{}, provider)
	})
}

// Test helpers

func createCfg(url string) []byte {
	return createCfgWithOpts(url, nil, nil)
}

func createCfgWithOpts(url string, method *HTTPMethod, headers map[string]string) []byte {
	config := struct {
		Type string `json:"type"`
		HTTPSource
	}{
		Type: HTTPSourceType,
		HTTPSource: HTTPSource{
			URL:     url,
			Method:  method,
			Headers: headers,
		},
	}
	data, _ := json.Marshal(config)
	return data
}
