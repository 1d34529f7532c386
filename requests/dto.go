package requests

import "github.com/brettbedarf/namefs"

// NodeRequestDTO is the JSON/YAML representation of [namefs.NodeRequest]
type NodeRequestDTO struct {
	Path   string                 `json:"path" yaml:"path"`
	Type   namefs.NodeRequestType `json:"type" yaml:"type"`
	UUID   *string                `json:"uuid,omitempty" yaml:"uuid,omitempty"`     // Optional UUID to pin node identity
	Target *string                `json:"target,omitempty" yaml:"target,omitempty"` // Symlinks only: path of the target node
	Perms  *uint32                `json:"perms,omitempty" yaml:"perms,omitempty"`   // i.e. 0755 (Default by type)
	// Source is the file's source definition; its "type" selects the
	// provider and the remaining fields depend on it.
	//
	// Ex. For type="http" (see [sources.HTTPSource]):
	//
	//	url     string
	//	method  string (optional, default GET)
	//	headers map of string to string (optional)
	Source map[string]any `json:"source,omitempty" yaml:"source,omitempty"`
}

// NodeListDTO is the top-level layout of a node definition file
type NodeListDTO struct {
	Nodes []NodeRequestDTO `json:"nodes" yaml:"nodes"`
}
