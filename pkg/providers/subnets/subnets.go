package subnets

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/samber/lo"
)

// Watcher discovers and deletes subnets
type Watcher struct {
	ec2API SDKSubnetOps
}

// SDKSubnetOps is an interface that combines the necessary EC2 SDK client interfaces
// AWS SDK for Go v2 does not provide a single interface that combines all the necessary methods
type SDKSubnetOps interface {
	ec2.DescribeSubnetsAPIClient
	DeleteSubnet(context.Context, *ec2.DeleteSubnetInput, ...func(*ec2.Options)) (*ec2.DeleteSubnetOutput, error)
}

// Subnet represents an AWS Subnet
// This is not the AWS SDK Subnet type, but a wrapper around it so that we can add additional data
type Subnet struct {
	ec2types.Subnet
}

// NewWatcher creates a new Subnet Watcher
func NewWatcher(ec2API SDKSubnetOps) Watcher {
	return Watcher{
		ec2API: ec2API,
	}
}

// Resolve returns all subnets in the given VPC
func (w Watcher) Resolve(ctx context.Context, vpcID string) ([]Subnet, error) {
	var subnetList []Subnet
	pager := ec2.NewDescribeSubnetsPaginator(w.ec2API, &ec2.DescribeSubnetsInput{
		Filters: []ec2types.Filter{{
			Name:   aws.String("vpc-id"),
			Values: []string{vpcID},
		}},
	})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe subnets: %w", err)
		}
		subnetList = append(subnetList, lo.Map(page.Subnets, func(sdkSubnet ec2types.Subnet, _ int) Subnet {
			return Subnet{sdkSubnet}
		})...)
	}
	return subnetList, nil
}

// Delete deletes a subnet by ID
func (w Watcher) Delete(ctx context.Context, subnetID string) error {
	_, err := w.ec2API.DeleteSubnet(ctx, &ec2.DeleteSubnetInput{SubnetId: &subnetID})
	return err
}
