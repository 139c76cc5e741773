package terraform

import (
	"encoding/json"
	"fmt"
	"os"
)

// State is a parsed terraform.tfstate snapshot. It is only ever a discovery
// hint: identifiers read from it are re-verified against the live cloud API
// before use.
type State struct {
	Version          int        `json:"version"`
	TerraformVersion string     `json:"terraform_version"`
	Serial           int        `json:"serial"`
	Lineage          string     `json:"lineage"`
	Resources        []Resource `json:"resources"`
}

type Resource struct {
	Mode      string     `json:"mode"`
	Type      string     `json:"type"`
	Name      string     `json:"name"`
	Instances []Instance `json:"instances"`
}

type Instance struct {
	Attributes map[string]any `json:"attributes"`
}

// LoadState reads and parses a state snapshot from disk.
func LoadState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read state snapshot: %w", err)
	}
	return ParseState(data)
}

// ParseState parses state snapshot bytes.
func ParseState(data []byte) (*State, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty state snapshot")
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state snapshot: %w", err)
	}
	if state.Version == 0 {
		return nil, fmt.Errorf("invalid state snapshot: missing version field")
	}
	return &state, nil
}

// ResourceID returns the "id" attribute of the first managed instance of the
// given resource type, or "" when the type is absent from the snapshot.
func (s *State) ResourceID(resourceType string) string {
	for _, resource := range s.Resources {
		if resource.Mode != "managed" || resource.Type != resourceType {
			continue
		}
		for _, instance := range resource.Instances {
			if id, ok := instance.Attributes["id"].(string); ok && id != "" {
				return id
			}
		}
	}
	return ""
}
