package natgws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/samber/lo"
)

// Watcher discovers and deletes NAT Gateways and releases their Elastic IPs
type Watcher struct {
	ec2API SDKNATGatewayOps
}

// SDKNATGatewayOps is an interface that combines the necessary EC2 SDK client interfaces
// AWS SDK for Go v2 does not provide a single interface that combines all the necessary methods
type SDKNATGatewayOps interface {
	ec2.DescribeNatGatewaysAPIClient
	DeleteNatGateway(context.Context, *ec2.DeleteNatGatewayInput, ...func(*ec2.Options)) (*ec2.DeleteNatGatewayOutput, error)
	ReleaseAddress(context.Context, *ec2.ReleaseAddressInput, ...func(*ec2.Options)) (*ec2.ReleaseAddressOutput, error)
}

// NATGateway represents an AWS NAT Gateway
// This is not the AWS SDK NatGateway type, but a wrapper around it so that we can add additional data
type NATGateway struct {
	ec2types.NatGateway
}

// AllocationIDs returns the Elastic IP allocations held by this gateway.
// They can only be released once the gateway has finished deleting.
func (n NATGateway) AllocationIDs() []string {
	var allocationIDs []string
	for _, address := range n.NatGatewayAddresses {
		if address.AllocationId != nil {
			allocationIDs = append(allocationIDs, aws.ToString(address.AllocationId))
		}
	}
	return allocationIDs
}

// NewWatcher creates a new NAT Gateway Watcher
func NewWatcher(ec2API SDKNATGatewayOps) Watcher {
	return Watcher{
		ec2API: ec2API,
	}
}

// Resolve returns the live (pending or available) NAT Gateways in the VPC
func (w Watcher) Resolve(ctx context.Context, vpcID string) ([]NATGateway, error) {
	var natGateways []NATGateway
	pager := ec2.NewDescribeNatGatewaysPaginator(w.ec2API, &ec2.DescribeNatGatewaysInput{
		Filter: []ec2types.Filter{
			{
				Name:   aws.String("vpc-id"),
				Values: []string{vpcID},
			},
			{
				Name:   aws.String("state"),
				Values: []string{"pending", "available"},
			},
		},
	})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe NAT Gateways: %w", err)
		}
		natGateways = append(natGateways, lo.Map(page.NatGateways, func(sdkNATGateway ec2types.NatGateway, _ int) NATGateway {
			return NATGateway{sdkNATGateway}
		})...)
	}
	return natGateways, nil
}

// Gone reports whether no live NAT Gateways remain in the VPC. Used as a
// bounded-poll condition before releasing Elastic IPs.
func (w Watcher) Gone(ctx context.Context, vpcID string) (bool, error) {
	natGateways, err := w.Resolve(ctx, vpcID)
	if err != nil {
		return false, err
	}
	return len(natGateways) == 0, nil
}

// Delete requests deletion of a NAT Gateway by ID. Deletion is asynchronous.
func (w Watcher) Delete(ctx context.Context, natGatewayID string) error {
	_, err := w.ec2API.DeleteNatGateway(ctx, &ec2.DeleteNatGatewayInput{NatGatewayId: &natGatewayID})
	return err
}

// ReleaseAddress releases an Elastic IP allocation
func (w Watcher) ReleaseAddress(ctx context.Context, allocationID string) error {
	_, err := w.ec2API.ReleaseAddress(ctx, &ec2.ReleaseAddressInput{AllocationId: &allocationID})
	return err
}
