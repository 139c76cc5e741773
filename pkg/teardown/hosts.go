package teardown

import (
	"bytes"
	"errors"
	"fmt"
	"os"
)

// HostsOverrideSpec pins a hostname to a fixed address in a hosts file for
// the duration of the escalation ladder. Used when a destroy is blocked
// because a provider validation or OIDC endpoint is unreachable while its
// DNS delegation is in flux.
type HostsOverrideSpec struct {
	Path    string `yaml:"path"`
	Host    string `yaml:"host"`
	Address string `yaml:"address"`
}

func (s HostsOverrideSpec) enabled() bool {
	return s.Host != "" && s.Address != ""
}

// HostsOverride is an acquired hosts-file override. Restore must run on
// every exit path; it is idempotent so a deferred call is always safe.
type HostsOverride struct {
	path     string
	original []byte
	existed  bool
	restored bool
}

// AcquireHostsOverride appends an "address host" entry to the hosts file at
// path, remembering the original contents for Restore.
func AcquireHostsOverride(spec HostsOverrideSpec) (*HostsOverride, error) {
	original, err := os.ReadFile(spec.Path)
	existed := true
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read hosts file: %w", err)
		}
		existed = false
		original = nil
	}
	content := append([]byte{}, original...)
	if len(content) > 0 && !bytes.HasSuffix(content, []byte("\n")) {
		content = append(content, '\n')
	}
	content = append(content, fmt.Sprintf("%s %s\n", spec.Address, spec.Host)...)
	if err := os.WriteFile(spec.Path, content, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write hosts override: %w", err)
	}
	return &HostsOverride{path: spec.Path, original: original, existed: existed}, nil
}

// Restore puts the hosts file back exactly as it was before acquisition.
// Calling it more than once is a no-op.
func (h *HostsOverride) Restore() error {
	if h == nil || h.restored {
		return nil
	}
	h.restored = true
	if !h.existed {
		if err := os.Remove(h.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove hosts override: %w", err)
		}
		return nil
	}
	if err := os.WriteFile(h.path, h.original, 0o644); err != nil {
		return fmt.Errorf("failed to restore hosts file: %w", err)
	}
	return nil
}
