// Package prereqs checks that the external tools the teardown shells out to
// are installed before any destructive action is attempted. A missing
// required tool is a hard error, not a warning.
package prereqs

import (
	"fmt"
	"os/exec"
	"strings"
)

// Tool is a binary looked up on PATH.
type Tool struct {
	Name        string
	Required    bool
	Description string
}

// TeardownTools returns the tools a teardown run depends on. kubectl is
// optional: it is only needed when the cluster still hosts Service-type load
// balancers worth draining first.
func TeardownTools() []Tool {
	return []Tool{
		{Name: "terraform", Required: true, Description: "drives the declarative destroy path"},
		{Name: "aws", Required: false, Description: "useful for manual follow-up on residual resources"},
		{Name: "kubectl", Required: false, Description: "drains in-cluster load balancer Services before teardown"},
	}
}

// CheckResult records one tool lookup.
type CheckResult struct {
	Tool  Tool
	Found bool
	Path  string
}

// Check looks up each tool and returns an error naming every missing
// required tool, or nil when all requirements are met.
func Check(tools []Tool) ([]CheckResult, error) {
	checkResults := make([]CheckResult, 0, len(tools))
	var missing []string
	for _, tool := range tools {
		result := CheckResult{Tool: tool}
		if path, err := exec.LookPath(tool.Name); err == nil {
			result.Found = true
			result.Path = path
		} else if tool.Required {
			missing = append(missing, tool.Name)
		}
		checkResults = append(checkResults, result)
	}
	if len(missing) > 0 {
		return checkResults, fmt.Errorf("missing required tools: %s", strings.Join(missing, ", "))
	}
	return checkResults, nil
}
