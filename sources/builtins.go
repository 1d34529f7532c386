package sources

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/brettbedarf/namefs"
)

type BuiltInSourceType = string

const (
	ZeroSourceType BuiltInSourceType = "zero"
	TextSourceType BuiltInSourceType = "text"
	FileSourceType BuiltInSourceType = "file"
	HTTPSourceType BuiltInSourceType = "http"
)

// RegisterBuiltins registers all built-in providers on r by default
// or only the specific ones if keys are provided
func RegisterBuiltins(r *Registry, types ...BuiltInSourceType) {
	if len(types) == 0 {
		types = []BuiltInSourceType{ZeroSourceType, TextSourceType, FileSourceType, HTTPSourceType}
	}

	for _, key := range types {
		switch key {
		case ZeroSourceType:
			r.Register(key, providerFunc(func([]byte) (namefs.ByteSource, error) {
				return namefs.ZeroSource{}, nil
			}))
		case TextSourceType:
			r.Register(key, providerFunc(newTextSource))
		case FileSourceType:
			r.Register(key, providerFunc(newFileSource))
		case HTTPSourceType:
			RegisterHTTP(r)
		}
	}
}

// NewDefaultRegistry returns a registry with every built-in provider
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterBuiltins(r)
	return r
}

type providerFunc func(raw []byte) (namefs.ByteSource, error)

func (f providerFunc) NewSource(raw []byte) (namefs.ByteSource, error) {
	return f(raw)
}

// lazySource fetches its whole content on the first read. A failed fetch is
// returned to the caller and attempted again on the next read.
type lazySource struct {
	fetch func() ([]byte, error)
	r     *bytes.Reader
}

func (s *lazySource) ReadByte() (byte, error) {
	if s.r == nil {
		data, err := s.fetch()
		if err != nil {
			return 0, err
		}
		s.r = bytes.NewReader(data)
	}
	return s.r.ReadByte()
}

// TextSource serves inline content: {"type": "text", "data": "..."}
type TextSource struct {
	Data string `json:"data"`
}

func newTextSource(raw []byte) (namefs.ByteSource, error) {
	var cfg TextSource
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	return bytes.NewReader([]byte(cfg.Data)), nil
}

// LocalFileSource reads a local file: {"type": "file", "path": "..."}
type LocalFileSource struct {
	Path string `json:"path"`
}

func newFileSource(raw []byte) (namefs.ByteSource, error) {
	var cfg LocalFileSource
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("file source is missing a path")
	}
	return &lazySource{fetch: func() ([]byte, error) {
		return os.ReadFile(cfg.Path)
	}}, nil
}
