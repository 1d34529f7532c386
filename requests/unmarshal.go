// Package requests turns node definition files into [namefs.NodeRequest]s.
package requests

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/brettbedarf/namefs"
	"github.com/brettbedarf/namefs/filesystem"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a node definition document
type Format string

const (
	JSONFormat Format = "json"
	YAMLFormat Format = "yaml"
)

// FormatFromPath picks the format from a file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSONFormat, nil
	case ".yaml", ".yml":
		return YAMLFormat, nil
	default:
		return "", fmt.Errorf("unknown node file extension: %s", path)
	}
}

// LoadFile reads and unmarshals a node definition file
func LoadFile(path string) ([]namefs.NodeRequest, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	reqs, err := Unmarshal(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reqs, nil
}

// Unmarshal parses a `{"nodes": [...]}` document and converts every entry
// with defaults applied. The first invalid entry fails the whole document.
func Unmarshal(data []byte, format Format) ([]namefs.NodeRequest, error) {
	var list NodeListDTO
	switch format {
	case JSONFormat:
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("failed to unmarshal nodes: %w", err)
		}
	case YAMLFormat:
		if err := yaml.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("failed to unmarshal nodes: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported node format: %q", format)
	}

	reqs := make([]namefs.NodeRequest, 0, len(list.Nodes))
	for i, dto := range list.Nodes {
		req, err := convertNodeDTO(dto)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// Conversion logic with defaults in the unmarshaling layer
func convertNodeDTO(dto NodeRequestDTO) (namefs.NodeRequest, error) {
	if !dto.Type.Valid() {
		return namefs.NodeRequest{}, fmt.Errorf("invalid node type %q", dto.Type)
	}
	if dto.Path == "" {
		return namefs.NodeRequest{}, fmt.Errorf("missing path")
	}
	if dto.Type == namefs.SymlinkNodeType && valueOrDefault(dto.Target, "") == "" {
		return namefs.NodeRequest{}, fmt.Errorf("symlink %s is missing a target", dto.Path)
	}

	if dto.Source != nil && dto.Type != namefs.FileNodeType {
		return namefs.NodeRequest{}, fmt.Errorf("%s %s cannot have a source", dto.Type, dto.Path)
	}
	var source []byte
	if dto.Source != nil {
		raw, err := json.Marshal(dto.Source)
		if err != nil {
			return namefs.NodeRequest{}, fmt.Errorf("invalid source for %s: %w", dto.Path, err)
		}
		source = raw
	}

	id := uuid.New()
	if dto.UUID != nil {
		parsed, err := uuid.Parse(*dto.UUID)
		if err != nil {
			return namefs.NodeRequest{}, fmt.Errorf("invalid uuid for %s: %w", dto.Path, err)
		}
		id = parsed
	}

	return namefs.NodeRequest{
		Path:   dto.Path,
		Type:   dto.Type,
		UUID:   id,
		Target: valueOrDefault(dto.Target, ""),
		Perms:  valueOrDefault(dto.Perms, defaultPerms(dto.Type)),
		Source: source,
	}, nil
}

func defaultPerms(typ namefs.NodeRequestType) uint32 {
	switch typ {
	case namefs.DirNodeType:
		return filesystem.DefaultDirPerms
	case namefs.SymlinkNodeType:
		return filesystem.DefaultLinkPerms
	default:
		return filesystem.DefaultFilePerms
	}
}

func valueOrDefault[T any](ptr *T, defaultVal T) T {
	if ptr != nil {
		return *ptr
	}
	return defaultVal
}
