package teardown

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeStateSnapshot(t *testing.T, vpcID string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "terraform.tfstate")
	snapshot := `{
  "version": 4,
  "terraform_version": "1.5.7",
  "serial": 12,
  "lineage": "b9a3",
  "resources": [
    {
      "mode": "managed",
      "type": "aws_vpc",
      "name": "eks_vpc",
      "instances": [{"attributes": {"id": "` + vpcID + `"}}]
    }
  ]
}`
	require.NoError(t, os.WriteFile(path, []byte(snapshot), 0o644))
	return path
}

func TestDiscoverUsesStateSnapshotHint(t *testing.T) {
	cloud := &fakeCloud{vpcs: []ec2types.Vpc{{VpcId: aws.String("vpc-live")}}}
	tf := &fakeTerraform{hasState: true, statePath: writeStateSnapshot(t, "vpc-live")}
	reconciler := newTestReconciler(cloud, tf, Options{})

	plan := reconciler.Discover(context.Background())
	require.Len(t, plan.Spec.VPCs, 1)
	assert.Equal(t, "vpc-live", aws.ToString(plan.Spec.VPCs[0].VpcId))
}

// A snapshot naming a VPC that no longer exists must fall through to the
// live tag query instead of failing discovery.
func TestDiscoverStaleHintFallsBackToTags(t *testing.T) {
	cloud := &fakeCloud{vpcs: []ec2types.Vpc{{VpcId: aws.String("vpc-live")}}}
	tf := &fakeTerraform{hasState: true, statePath: writeStateSnapshot(t, "vpc-stale")}
	reconciler := newTestReconciler(cloud, tf, Options{})

	plan := reconciler.Discover(context.Background())
	require.Len(t, plan.Spec.VPCs, 1)
	assert.Equal(t, "vpc-live", aws.ToString(plan.Spec.VPCs[0].VpcId))
}

func TestDiscoverGroupsResourcesByKind(t *testing.T) {
	cloud := &fakeCloud{
		vpcs: []ec2types.Vpc{{VpcId: aws.String("vpc-123")}},
		enis: []ec2types.NetworkInterface{{
			NetworkInterfaceId: aws.String("eni-1"),
			VpcId:              aws.String("vpc-123"),
			Status:             ec2types.NetworkInterfaceStatusAvailable,
		}},
		securityGroups: []ec2types.SecurityGroup{
			{GroupId: aws.String("sg-default"), GroupName: aws.String("default")},
			{GroupId: aws.String("sg-app"), GroupName: aws.String("sock-shop-nodes")},
		},
		subnets:        []ec2types.Subnet{{SubnetId: aws.String("subnet-1"), VpcId: aws.String("vpc-123")}},
		clusterUp:      true,
		nodegroupNames: []string{"workers"},
	}
	reconciler := newTestReconciler(cloud, nil, Options{})

	plan := reconciler.Discover(context.Background())

	assert.Len(t, plan.Spec.VPCs, 1)
	assert.Len(t, plan.Spec.NetworkInterfaces, 1)
	// the default group is filtered out at discovery, so no deletion phase
	// can ever see it
	assert.Len(t, plan.Spec.SecurityGroups, 1)
	assert.Len(t, plan.Spec.Subnets, 1)
	assert.True(t, plan.Spec.ClusterPresent)
	assert.Equal(t, []string{"workers"}, plan.Spec.Nodegroups)
	assert.Equal(t, "sock-shop-eks", plan.Metadata.ClusterName)
}
