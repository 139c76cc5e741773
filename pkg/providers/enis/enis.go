package enis

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/samber/lo"
)

// Watcher discovers and deletes elastic network interfaces. Load balancers
// leave ENIs behind asynchronously after deletion, so this is the kind that
// most often blocks a VPC teardown.
type Watcher struct {
	ec2API SDKENIOps
}

// SDKENIOps is an interface that combines the necessary EC2 SDK client interfaces
// AWS SDK for Go v2 does not provide a single interface that combines all the necessary methods
type SDKENIOps interface {
	ec2.DescribeNetworkInterfacesAPIClient
	DeleteNetworkInterface(context.Context, *ec2.DeleteNetworkInterfaceInput, ...func(*ec2.Options)) (*ec2.DeleteNetworkInterfaceOutput, error)
	DetachNetworkInterface(context.Context, *ec2.DetachNetworkInterfaceInput, ...func(*ec2.Options)) (*ec2.DetachNetworkInterfaceOutput, error)
}

// NetworkInterface represents an AWS elastic network interface
// This is not the AWS SDK NetworkInterface type, but a wrapper around it so that we can add additional data
type NetworkInterface struct {
	ec2types.NetworkInterface
}

// Available reports whether the ENI is detached and safe to delete directly.
func (n NetworkInterface) Available() bool {
	return n.Status == ec2types.NetworkInterfaceStatusAvailable
}

// AttachmentID returns the current attachment id, or "" when detached.
func (n NetworkInterface) AttachmentID() string {
	if n.Attachment == nil {
		return ""
	}
	return aws.ToString(n.Attachment.AttachmentId)
}

// SecurityGroupIDs returns the ids of the security groups this ENI references.
func (n NetworkInterface) SecurityGroupIDs() []string {
	return lo.Map(n.Groups, func(group ec2types.GroupIdentifier, _ int) string {
		return aws.ToString(group.GroupId)
	})
}

// NewWatcher creates a new ENI Watcher
func NewWatcher(ec2API SDKENIOps) Watcher {
	return Watcher{
		ec2API: ec2API,
	}
}

// Resolve returns all ENIs in the given VPC
func (w Watcher) Resolve(ctx context.Context, vpcID string) ([]NetworkInterface, error) {
	var interfaces []NetworkInterface
	pager := ec2.NewDescribeNetworkInterfacesPaginator(w.ec2API, &ec2.DescribeNetworkInterfacesInput{
		Filters: []ec2types.Filter{{
			Name:   aws.String("vpc-id"),
			Values: []string{vpcID},
		}},
	})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe network interfaces: %w", err)
		}
		interfaces = append(interfaces, lo.Map(page.NetworkInterfaces, func(sdkENI ec2types.NetworkInterface, _ int) NetworkInterface {
			return NetworkInterface{sdkENI}
		})...)
	}
	return interfaces, nil
}

// Delete deletes an ENI by ID. The ENI must be in the available state.
func (w Watcher) Delete(ctx context.Context, eniID string) error {
	_, err := w.ec2API.DeleteNetworkInterface(ctx, &ec2.DeleteNetworkInterfaceInput{
		NetworkInterfaceId: &eniID,
	})
	return err
}

// Detach force-detaches an ENI from whatever it is attached to. Only invoked
// under the opt-in forceful policy.
func (w Watcher) Detach(ctx context.Context, attachmentID string) error {
	_, err := w.ec2API.DetachNetworkInterface(ctx, &ec2.DetachNetworkInterfaceInput{
		AttachmentId: &attachmentID,
		Force:        aws.Bool(true),
	})
	return err
}
