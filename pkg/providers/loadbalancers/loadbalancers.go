package loadbalancers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	elbv2 "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	elbv2types "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"
	"github.com/samber/lo"
)

// Watcher discovers and deletes load balancers, their listeners, and target
// groups. These are usually created by the in-cluster controller rather than
// by the provisioning tool, so state snapshots never know about them.
type Watcher struct {
	elbAPI SDKELBOps
}

// SDKELBOps is an interface that combines the necessary ELBv2 SDK client interfaces
// AWS SDK for Go v2 does not provide a single interface that combines all the necessary methods
type SDKELBOps interface {
	elbv2.DescribeLoadBalancersAPIClient
	elbv2.DescribeListenersAPIClient
	elbv2.DescribeTargetGroupsAPIClient
	DeleteLoadBalancer(context.Context, *elbv2.DeleteLoadBalancerInput, ...func(*elbv2.Options)) (*elbv2.DeleteLoadBalancerOutput, error)
	DeleteListener(context.Context, *elbv2.DeleteListenerInput, ...func(*elbv2.Options)) (*elbv2.DeleteListenerOutput, error)
	DeleteTargetGroup(context.Context, *elbv2.DeleteTargetGroupInput, ...func(*elbv2.Options)) (*elbv2.DeleteTargetGroupOutput, error)
}

// LoadBalancer represents an AWS application or network load balancer
// This is not the AWS SDK LoadBalancer type, but a wrapper around it so that we can add additional data
type LoadBalancer struct {
	elbv2types.LoadBalancer
}

// TargetGroup represents an AWS target group
type TargetGroup struct {
	elbv2types.TargetGroup
}

// NewWatcher creates a new Load Balancer Watcher
func NewWatcher(elbAPI SDKELBOps) Watcher {
	return Watcher{
		elbAPI: elbAPI,
	}
}

// Resolve returns the load balancers in the given VPC. The describe API has
// no VPC filter, so filtering happens client-side.
func (w Watcher) Resolve(ctx context.Context, vpcID string) ([]LoadBalancer, error) {
	var loadBalancers []LoadBalancer
	pager := elbv2.NewDescribeLoadBalancersPaginator(w.elbAPI, &elbv2.DescribeLoadBalancersInput{})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe load balancers: %w", err)
		}
		inVPC := lo.Filter(page.LoadBalancers, func(sdkLB elbv2types.LoadBalancer, _ int) bool {
			return aws.ToString(sdkLB.VpcId) == vpcID
		})
		loadBalancers = append(loadBalancers, lo.Map(inVPC, func(sdkLB elbv2types.LoadBalancer, _ int) LoadBalancer {
			return LoadBalancer{sdkLB}
		})...)
	}
	return loadBalancers, nil
}

// ResolveTargetGroups returns the target groups in the given VPC
func (w Watcher) ResolveTargetGroups(ctx context.Context, vpcID string) ([]TargetGroup, error) {
	var targetGroups []TargetGroup
	pager := elbv2.NewDescribeTargetGroupsPaginator(w.elbAPI, &elbv2.DescribeTargetGroupsInput{})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe target groups: %w", err)
		}
		inVPC := lo.Filter(page.TargetGroups, func(sdkTG elbv2types.TargetGroup, _ int) bool {
			return aws.ToString(sdkTG.VpcId) == vpcID
		})
		targetGroups = append(targetGroups, lo.Map(inVPC, func(sdkTG elbv2types.TargetGroup, _ int) TargetGroup {
			return TargetGroup{sdkTG}
		})...)
	}
	return targetGroups, nil
}

// Delete deletes a load balancer's listeners and then the load balancer
// itself. It does not wait for removal to finish; the backing ENIs are
// released asynchronously and handled by the ENI phase.
func (w Watcher) Delete(ctx context.Context, loadBalancer LoadBalancer) error {
	listenerPager := elbv2.NewDescribeListenersPaginator(w.elbAPI, &elbv2.DescribeListenersInput{
		LoadBalancerArn: loadBalancer.LoadBalancerArn,
	})
	for listenerPager.HasMorePages() {
		page, err := listenerPager.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to describe listeners: %w", err)
		}
		for _, listener := range page.Listeners {
			if _, err := w.elbAPI.DeleteListener(ctx, &elbv2.DeleteListenerInput{
				ListenerArn: listener.ListenerArn,
			}); err != nil {
				return fmt.Errorf("failed to delete listener: %w", err)
			}
		}
	}
	_, err := w.elbAPI.DeleteLoadBalancer(ctx, &elbv2.DeleteLoadBalancerInput{
		LoadBalancerArn: loadBalancer.LoadBalancerArn,
	})
	return err
}

// DeleteTargetGroup deletes a target group by ARN
func (w Watcher) DeleteTargetGroup(ctx context.Context, targetGroupARN string) error {
	_, err := w.elbAPI.DeleteTargetGroup(ctx, &elbv2.DeleteTargetGroupInput{
		TargetGroupArn: &targetGroupARN,
	})
	return err
}
