package securitygroups

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/samber/lo"
)

// DefaultGroupName is the per-VPC group AWS refuses to delete. It is filtered
// out of every resolve so a deletion attempt against it can never be issued.
const DefaultGroupName = "default"

// Watcher discovers and deletes security groups
type Watcher struct {
	ec2API SDKSecurityGroupOps
}

// SDKSecurityGroupOps is an interface that combines the necessary EC2 SDK client interfaces
// AWS SDK for Go v2 does not provide a single interface that combines all the necessary methods
type SDKSecurityGroupOps interface {
	ec2.DescribeSecurityGroupsAPIClient
	DeleteSecurityGroup(context.Context, *ec2.DeleteSecurityGroupInput, ...func(*ec2.Options)) (*ec2.DeleteSecurityGroupOutput, error)
	RevokeSecurityGroupIngress(context.Context, *ec2.RevokeSecurityGroupIngressInput, ...func(*ec2.Options)) (*ec2.RevokeSecurityGroupIngressOutput, error)
	RevokeSecurityGroupEgress(context.Context, *ec2.RevokeSecurityGroupEgressInput, ...func(*ec2.Options)) (*ec2.RevokeSecurityGroupEgressOutput, error)
}

// SecurityGroup represents an AWS Security Group
// This is not the AWS SDK SecurityGroup type, but a wrapper around it so that we can add additional data
type SecurityGroup struct {
	ec2types.SecurityGroup
}

// NewWatcher creates a new Security Group Watcher
func NewWatcher(ec2API SDKSecurityGroupOps) Watcher {
	return Watcher{
		ec2API: ec2API,
	}
}

// Resolve returns the deletable security groups in the given VPC. The VPC
// default group is never included.
func (w Watcher) Resolve(ctx context.Context, vpcID string) ([]SecurityGroup, error) {
	var securityGroups []SecurityGroup
	pager := ec2.NewDescribeSecurityGroupsPaginator(w.ec2API, &ec2.DescribeSecurityGroupsInput{
		Filters: []ec2types.Filter{{
			Name:   aws.String("vpc-id"),
			Values: []string{vpcID},
		}},
	})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe security groups: %w", err)
		}
		deletable := lo.Filter(page.SecurityGroups, func(sdkSG ec2types.SecurityGroup, _ int) bool {
			return aws.ToString(sdkSG.GroupName) != DefaultGroupName
		})
		securityGroups = append(securityGroups, lo.Map(deletable, func(sdkSG ec2types.SecurityGroup, _ int) SecurityGroup {
			return SecurityGroup{sdkSG}
		})...)
	}
	return securityGroups, nil
}

// RevokeRules removes all ingress and egress rules from a security group.
// Cross-referencing rules between groups in the same VPC otherwise deadlock
// deletion regardless of order.
func (w Watcher) RevokeRules(ctx context.Context, securityGroup SecurityGroup) error {
	if len(securityGroup.IpPermissions) > 0 {
		if _, err := w.ec2API.RevokeSecurityGroupIngress(ctx, &ec2.RevokeSecurityGroupIngressInput{
			GroupId:       securityGroup.GroupId,
			IpPermissions: securityGroup.IpPermissions,
		}); err != nil {
			return fmt.Errorf("failed to revoke ingress rules: %w", err)
		}
	}
	if len(securityGroup.IpPermissionsEgress) > 0 {
		if _, err := w.ec2API.RevokeSecurityGroupEgress(ctx, &ec2.RevokeSecurityGroupEgressInput{
			GroupId:       securityGroup.GroupId,
			IpPermissions: securityGroup.IpPermissionsEgress,
		}); err != nil {
			return fmt.Errorf("failed to revoke egress rules: %w", err)
		}
	}
	return nil
}

// Delete deletes a security group by ID
func (w Watcher) Delete(ctx context.Context, sgID string) error {
	_, err := w.ec2API.DeleteSecurityGroup(ctx, &ec2.DeleteSecurityGroupInput{GroupId: &sgID})
	return err
}
