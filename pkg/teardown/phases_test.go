package teardown

import (
	"context"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhasePrecedenceIsFixed(t *testing.T) {
	reconciler := &Reconciler{}
	names := lo.Map(reconciler.phases(), func(ph phase, _ int) string {
		return ph.name
	})
	assert.Equal(t, []string{
		"dns-records",
		"node-groups",
		"cluster",
		"load-balancers",
		"target-groups",
		"network-interfaces",
		"security-groups",
		"nat-gateways",
		"subnets",
		"internet-gateways",
		"vpcs",
	}, names)
}

func TestSecurityGroupsDeletedAfterNetworkInterfaces(t *testing.T) {
	cloud := &fakeCloud{
		vpcs: []ec2types.Vpc{{VpcId: aws.String("vpc-123")}},
		enis: []ec2types.NetworkInterface{
			{
				NetworkInterfaceId: aws.String("eni-1"),
				VpcId:              aws.String("vpc-123"),
				Status:             ec2types.NetworkInterfaceStatusAvailable,
				Groups:             []ec2types.GroupIdentifier{{GroupId: aws.String("sg-app")}},
			},
			{
				NetworkInterfaceId: aws.String("eni-2"),
				VpcId:              aws.String("vpc-123"),
				Status:             ec2types.NetworkInterfaceStatusAvailable,
				Groups:             []ec2types.GroupIdentifier{{GroupId: aws.String("sg-app")}},
			},
		},
		securityGroups: []ec2types.SecurityGroup{{
			GroupId:   aws.String("sg-app"),
			GroupName: aws.String("sock-shop-nodes"),
		}},
	}
	reconciler := newTestReconciler(cloud, nil, Options{SkipTerraform: true})

	outcome := reconciler.Run(context.Background())
	require.Equal(t, StateClean, outcome.State)

	sgDeleteIndex := lo.IndexOf(cloud.calls, "DeleteSecurityGroup:sg-app")
	require.NotEqual(t, -1, sgDeleteIndex)
	eniDeletes := 0
	for i, call := range cloud.calls {
		if strings.HasPrefix(call, "DeleteNetworkInterface:") {
			eniDeletes++
			assert.Less(t, i, sgDeleteIndex)
		}
	}
	require.Equal(t, 2, eniDeletes)
}

func TestDefaultSecurityGroupNeverTargeted(t *testing.T) {
	cloud := &fakeCloud{
		vpcs: []ec2types.Vpc{{VpcId: aws.String("vpc-123")}},
		securityGroups: []ec2types.SecurityGroup{
			{GroupId: aws.String("sg-default"), GroupName: aws.String("default")},
			{GroupId: aws.String("sg-app"), GroupName: aws.String("sock-shop-nodes")},
		},
	}
	reconciler := newTestReconciler(cloud, nil, Options{SkipTerraform: true})

	reconciler.Run(context.Background())

	assert.Contains(t, cloud.calls, "DeleteSecurityGroup:sg-app")
	assert.NotContains(t, cloud.calls, "DeleteSecurityGroup:sg-default")
}

// A node group that never finishes deleting must exhaust the wait budget and
// let the run move on to the control plane, not hang.
func TestBoundedWaitProceedsPastStuckNodegroup(t *testing.T) {
	cloud := &fakeCloud{
		clusterUp:       true,
		nodegroupNames:  []string{"workers"},
		stuckNodegroups: true,
	}
	reconciler := newTestReconciler(cloud, nil, Options{SkipTerraform: true})

	outcome := reconciler.Run(context.Background())

	assert.Contains(t, cloud.calls, "DeleteNodegroup:workers")
	assert.Contains(t, cloud.calls, "DeleteCluster:sock-shop-eks")
	assert.Equal(t, StateClean, outcome.State)
}

func TestElasticIPsReleasedAfterNATGateways(t *testing.T) {
	cloud := &fakeCloud{
		vpcs: []ec2types.Vpc{{VpcId: aws.String("vpc-123")}},
		natGateways: []ec2types.NatGateway{{
			NatGatewayId: aws.String("nat-1"),
			VpcId:        aws.String("vpc-123"),
			State:        ec2types.NatGatewayStateAvailable,
			NatGatewayAddresses: []ec2types.NatGatewayAddress{{
				AllocationId: aws.String("eipalloc-1"),
			}},
		}},
	}
	reconciler := newTestReconciler(cloud, nil, Options{SkipTerraform: true})

	outcome := reconciler.Run(context.Background())
	require.Equal(t, StateClean, outcome.State)

	natIndex := lo.IndexOf(cloud.calls, "DeleteNatGateway:nat-1")
	releaseIndex := lo.IndexOf(cloud.calls, "ReleaseAddress:eipalloc-1")
	require.NotEqual(t, -1, natIndex)
	require.NotEqual(t, -1, releaseIndex)
	assert.Less(t, natIndex, releaseIndex)
	assert.Contains(t, outcome.Deleted, "elastic-ip/eipalloc-1")
}
