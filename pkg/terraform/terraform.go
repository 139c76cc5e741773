// Package terraform shells out to the terraform binary for the declarative
// destroy path. The reconciler treats every operation here as a black box
// returning success or failure; no provisioning logic lives in this module.
package terraform

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const stateFileName = "terraform.tfstate"

// CLI runs terraform commands in a working directory.
type CLI struct {
	dir string
	// runCmd is swapped out in tests
	runCmd func(ctx context.Context, dir string, args ...string) ([]byte, error)
}

func New(dir string) *CLI {
	return &CLI{
		dir:    dir,
		runCmd: runTerraform,
	}
}

func runTerraform(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "terraform", args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// Destroy runs a full destroy of everything in state.
func (c *CLI) Destroy(ctx context.Context) error {
	return c.destroy(ctx, nil)
}

// DestroyWithoutRefresh runs a full destroy with the pre-destroy state
// refresh disabled, routing around transient read failures that would
// otherwise abort the run before anything is deleted.
func (c *CLI) DestroyWithoutRefresh(ctx context.Context) error {
	return c.destroy(ctx, []string{"-refresh=false"})
}

// DestroyTargets destroys only the named resource addresses.
func (c *CLI) DestroyTargets(ctx context.Context, targets []string) error {
	args := make([]string, 0, len(targets))
	for _, target := range targets {
		args = append(args, fmt.Sprintf("-target=%s", target))
	}
	return c.destroy(ctx, args)
}

func (c *CLI) destroy(ctx context.Context, extraArgs []string) error {
	args := append([]string{"destroy", "-auto-approve", "-input=false", "-no-color"}, extraArgs...)
	out, err := c.runCmd(ctx, c.dir, args...)
	if err != nil {
		return fmt.Errorf("terraform destroy failed: %w\noutput: %s", err, tail(out))
	}
	return nil
}

// Output returns the raw value of a single terraform output.
func (c *CLI) Output(ctx context.Context, name string) (string, error) {
	out, err := c.runCmd(ctx, c.dir, "output", "-raw", "-no-color", name)
	if err != nil {
		return "", fmt.Errorf("terraform output %s failed: %w", name, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// StateList returns the resource addresses currently tracked in state.
func (c *CLI) StateList(ctx context.Context) ([]string, error) {
	out, err := c.runCmd(ctx, c.dir, "state", "list", "-no-color")
	if err != nil {
		return nil, fmt.Errorf("terraform state list failed: %w", err)
	}
	var addrs []string
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			addrs = append(addrs, line)
		}
	}
	return addrs, nil
}

// StatePath returns the path of the local state snapshot.
func (c *CLI) StatePath() string {
	return filepath.Join(c.dir, stateFileName)
}

// HasState reports whether a local state snapshot exists.
func (c *CLI) HasState() bool {
	_, err := os.Stat(c.StatePath())
	return err == nil
}

// RemoveStateFile deletes the local state snapshot and its backup. Called
// only after a fully clean teardown.
func (c *CLI) RemoveStateFile() error {
	if err := os.Remove(c.StatePath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove state file: %w", err)
	}
	if err := os.Remove(c.StatePath() + ".backup"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove state backup: %w", err)
	}
	return nil
}

// tail keeps error messages readable when terraform dumps pages of output.
func tail(out []byte) string {
	const maxLines = 20
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return strings.Join(lines, "\n")
}
