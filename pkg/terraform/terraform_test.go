package terraform

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeCLI(t *testing.T, output []byte, err error) (*CLI, *[][]string) {
	t.Helper()
	var calls [][]string
	cli := New(t.TempDir())
	cli.runCmd = func(_ context.Context, _ string, args ...string) ([]byte, error) {
		calls = append(calls, args)
		return output, err
	}
	return cli, &calls
}

func TestDestroyArgs(t *testing.T) {
	cli, calls := fakeCLI(t, nil, nil)
	require.NoError(t, cli.Destroy(context.Background()))
	require.Len(t, *calls, 1)
	assert.Equal(t, []string{"destroy", "-auto-approve", "-input=false", "-no-color"}, (*calls)[0])
}

func TestDestroyWithoutRefreshArgs(t *testing.T) {
	cli, calls := fakeCLI(t, nil, nil)
	require.NoError(t, cli.DestroyWithoutRefresh(context.Background()))
	require.Len(t, *calls, 1)
	assert.Contains(t, (*calls)[0], "-refresh=false")
}

func TestDestroyTargetsArgs(t *testing.T) {
	cli, calls := fakeCLI(t, nil, nil)
	targets := []string{"aws_acm_certificate_validation.cert", "module.eks.aws_eks_node_group.workers"}
	require.NoError(t, cli.DestroyTargets(context.Background(), targets))
	require.Len(t, *calls, 1)
	assert.Contains(t, (*calls)[0], "-target=aws_acm_certificate_validation.cert")
	assert.Contains(t, (*calls)[0], "-target=module.eks.aws_eks_node_group.workers")
}

func TestDestroyFailureIncludesOutput(t *testing.T) {
	cli, _ := fakeCLI(t, []byte("Error: DependencyViolation on vpc-123"), errors.New("exit status 1"))
	err := cli.Destroy(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DependencyViolation on vpc-123")
}

func TestStateList(t *testing.T) {
	cli, _ := fakeCLI(t, []byte("aws_vpc.main\naws_eks_cluster.main\n\n"), nil)
	addrs, err := cli.StateList(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"aws_vpc.main", "aws_eks_cluster.main"}, addrs)
}

func TestOutputTrimsWhitespace(t *testing.T) {
	cli, _ := fakeCLI(t, []byte("vpc-0abc123\n"), nil)
	value, err := cli.Output(context.Background(), "vpc_id")
	require.NoError(t, err)
	assert.Equal(t, "vpc-0abc123", value)
}

func TestHasStateAndRemove(t *testing.T) {
	dir := t.TempDir()
	cli := New(dir)
	assert.False(t, cli.HasState())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "terraform.tfstate"), []byte("{}"), 0o600))
	assert.True(t, cli.HasState())

	require.NoError(t, cli.RemoveStateFile())
	assert.False(t, cli.HasState())
	// removing again is fine
	require.NoError(t, cli.RemoveStateFile())
}

func TestParseStateValid(t *testing.T) {
	data := []byte(`{
		"version": 4,
		"terraform_version": "1.5.7",
		"serial": 12,
		"lineage": "9a1c-44",
		"resources": [
			{
				"mode": "managed",
				"type": "aws_vpc",
				"name": "eks_vpc",
				"instances": [{"attributes": {"id": "vpc-0abc123", "cidr_block": "10.0.0.0/16"}}]
			},
			{
				"mode": "data",
				"type": "aws_eks_cluster",
				"name": "this",
				"instances": [{"attributes": {"id": "sock-shop-eks"}}]
			}
		]
	}`)
	state, err := ParseState(data)
	require.NoError(t, err)
	assert.Equal(t, 4, state.Version)
	assert.Equal(t, "vpc-0abc123", state.ResourceID("aws_vpc"))
	// data resources are not deletion hints
	assert.Equal(t, "", state.ResourceID("aws_eks_cluster"))
	assert.Equal(t, "", state.ResourceID("aws_nat_gateway"))
}

func TestParseStateInvalid(t *testing.T) {
	_, err := ParseState(nil)
	assert.ErrorContains(t, err, "empty state snapshot")

	_, err = ParseState([]byte(`{not json`))
	assert.ErrorContains(t, err, "unmarshal")

	_, err = ParseState([]byte(`{"terraform_version": "1.5.7"}`))
	assert.ErrorContains(t, err, "missing version")
}

func TestLoadStateMissingFile(t *testing.T) {
	_, err := LoadState(filepath.Join(t.TempDir(), "terraform.tfstate"))
	require.Error(t, err)
}
