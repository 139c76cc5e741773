package igws

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"
	"github.com/samber/lo"
)

// Watcher discovers and deletes Internet Gateways
type Watcher struct {
	ec2API SDKIGWOps
}

// SDKIGWOps is an interface that combines the necessary EC2 SDK client interfaces
// AWS SDK for Go v2 does not provide a single interface that combines all the necessary methods
type SDKIGWOps interface {
	ec2.DescribeInternetGatewaysAPIClient
	DetachInternetGateway(context.Context, *ec2.DetachInternetGatewayInput, ...func(*ec2.Options)) (*ec2.DetachInternetGatewayOutput, error)
	DeleteInternetGateway(context.Context, *ec2.DeleteInternetGatewayInput, ...func(*ec2.Options)) (*ec2.DeleteInternetGatewayOutput, error)
}

// InternetGateway represents an AWS Internet Gateway
// This is not the AWS SDK InternetGateway type, but a wrapper around it so that we can add additional data
type InternetGateway struct {
	ec2types.InternetGateway
}

// NewWatcher creates a new Internet Gateway Watcher
func NewWatcher(ec2API SDKIGWOps) Watcher {
	return Watcher{
		ec2API: ec2API,
	}
}

// Resolve returns the Internet Gateways attached to the given VPC
func (w Watcher) Resolve(ctx context.Context, vpcID string) ([]InternetGateway, error) {
	var internetGateways []InternetGateway
	pager := ec2.NewDescribeInternetGatewaysPaginator(w.ec2API, &ec2.DescribeInternetGatewaysInput{
		Filters: []ec2types.Filter{{
			Name:   aws.String("attachment.vpc-id"),
			Values: []string{vpcID},
		}},
	})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe Internet Gateways: %w", err)
		}
		internetGateways = append(internetGateways, lo.Map(page.InternetGateways, func(sdkIGW ec2types.InternetGateway, _ int) InternetGateway {
			return InternetGateway{sdkIGW}
		})...)
	}
	return internetGateways, nil
}

// Delete detaches the gateway from the VPC and deletes it. An already
// detached gateway is still deleted.
func (w Watcher) Delete(ctx context.Context, internetGateway InternetGateway, vpcID string) error {
	if _, err := w.ec2API.DetachInternetGateway(ctx, &ec2.DetachInternetGatewayInput{
		InternetGatewayId: internetGateway.InternetGatewayId,
		VpcId:             aws.String(vpcID),
	}); err != nil && !isNotAttachedErr(err) {
		return err
	}
	_, err := w.ec2API.DeleteInternetGateway(ctx, &ec2.DeleteInternetGatewayInput{
		InternetGatewayId: internetGateway.InternetGatewayId,
	})
	return err
}

func isNotAttachedErr(err error) bool {
	var ae smithy.APIError
	return errors.As(err, &ae) && ae.ErrorCode() == "Gateway.NotAttached"
}
