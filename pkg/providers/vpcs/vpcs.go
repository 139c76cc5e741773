package vpcs

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/samber/lo"

	"github.com/oyewoledavid/microservice-deployment/pkg/selectors"
)

// Watcher discovers and deletes VPCs belonging to an environment
type Watcher struct {
	ec2API SDKVPCOps
}

// SDKVPCOps is an interface that combines the necessary EC2 SDK client interfaces
// AWS SDK for Go v2 does not provide a single interface that combines all the necessary methods
type SDKVPCOps interface {
	ec2.DescribeVpcsAPIClient
	DeleteVpc(context.Context, *ec2.DeleteVpcInput, ...func(*ec2.Options)) (*ec2.DeleteVpcOutput, error)
}

// Selector selects VPCs by discovery tag or by ID
type Selector struct {
	Tags map[string]string
	ID   string
}

// VPC represents an AWS VPC
// This is not the AWS SDK VPC type, but a wrapper around it so that we can add additional data
type VPC struct {
	ec2types.Vpc
}

// NewWatcher creates a new VPC Watcher
func NewWatcher(ec2API SDKVPCOps) Watcher {
	return Watcher{
		ec2API: ec2API,
	}
}

// Resolve returns the VPCs matching the selector. ID selection wins over tags
// so that a state-snapshot hint can be verified against the live API.
func (w Watcher) Resolve(ctx context.Context, selector Selector) ([]VPC, error) {
	input := &ec2.DescribeVpcsInput{}
	if selector.ID != "" {
		input.VpcIds = []string{selector.ID}
	} else {
		input.Filters = selectors.TagsToEC2Filters(selector.Tags)
	}
	var vpcList []VPC
	pager := ec2.NewDescribeVpcsPaginator(w.ec2API, input)
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe vpcs: %w", err)
		}
		vpcList = append(vpcList, lo.Map(page.Vpcs, func(sdkVPC ec2types.Vpc, _ int) VPC {
			return VPC{sdkVPC}
		})...)
	}
	return vpcList, nil
}

// Delete deletes a VPC by ID
func (w Watcher) Delete(ctx context.Context, vpcID string) error {
	_, err := w.ec2API.DeleteVpc(ctx, &ec2.DeleteVpcInput{VpcId: &vpcID})
	return err
}
