package teardown

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/oyewoledavid/microservice-deployment/pkg/logging"
	"github.com/oyewoledavid/microservice-deployment/pkg/plans"
	"github.com/oyewoledavid/microservice-deployment/pkg/providers/vpcs"
	"github.com/oyewoledavid/microservice-deployment/pkg/terraform"
)

// Discover builds the current resource inventory for the environment. The
// cloud API's live listing is authoritative; a state snapshot only seeds the
// VPC lookup and a stale hint falls through to the tag query. A failed query
// for one kind yields an empty set for that kind and never aborts the rest;
// downstream deletion tolerates not-found either way.
func (r *Reconciler) Discover(ctx context.Context) *plans.TeardownPlan {
	log := logging.FromContext(ctx)
	plan := &plans.TeardownPlan{
		Metadata: plans.TeardownMetadata{
			Region:      r.region,
			VPCTags:     r.opts.VPCTags,
			ClusterName: r.opts.ClusterName,
			ZoneName:    r.opts.ZoneName,
		},
		Status: plans.NewStatus(),
	}

	selector := vpcs.Selector{Tags: r.opts.VPCTags}
	if hint := r.stateHint(ctx); hint != "" {
		selector.ID = hint
	}
	vpcList, err := r.vpcWatcher.Resolve(ctx, selector)
	if (err != nil || len(vpcList) == 0) && selector.ID != "" {
		log.Debug("state snapshot VPC hint is stale, falling back to tag query", "hint", selector.ID)
		selector.ID = ""
		vpcList, err = r.vpcWatcher.Resolve(ctx, selector)
	}
	if err != nil {
		log.Warn("failed to discover VPCs", "error", err)
	}
	plan.Spec.VPCs = vpcList

	for _, vpc := range vpcList {
		vpcID := aws.ToString(vpc.VpcId)
		if lbs, err := r.loadBalancerWatcher.Resolve(ctx, vpcID); err != nil {
			log.Warn("failed to discover load balancers", "vpc", vpcID, "error", err)
		} else {
			plan.Spec.LoadBalancers = append(plan.Spec.LoadBalancers, lbs...)
		}
		if tgs, err := r.loadBalancerWatcher.ResolveTargetGroups(ctx, vpcID); err != nil {
			log.Warn("failed to discover target groups", "vpc", vpcID, "error", err)
		} else {
			plan.Spec.TargetGroups = append(plan.Spec.TargetGroups, tgs...)
		}
		if interfaces, err := r.eniWatcher.Resolve(ctx, vpcID); err != nil {
			log.Warn("failed to discover network interfaces", "vpc", vpcID, "error", err)
		} else {
			plan.Spec.NetworkInterfaces = append(plan.Spec.NetworkInterfaces, interfaces...)
		}
		if securityGroups, err := r.securityGroupWatcher.Resolve(ctx, vpcID); err != nil {
			log.Warn("failed to discover security groups", "vpc", vpcID, "error", err)
		} else {
			plan.Spec.SecurityGroups = append(plan.Spec.SecurityGroups, securityGroups...)
		}
		if natGateways, err := r.natGatewayWatcher.Resolve(ctx, vpcID); err != nil {
			log.Warn("failed to discover NAT gateways", "vpc", vpcID, "error", err)
		} else {
			plan.Spec.NATGateways = append(plan.Spec.NATGateways, natGateways...)
		}
		if subnetList, err := r.subnetWatcher.Resolve(ctx, vpcID); err != nil {
			log.Warn("failed to discover subnets", "vpc", vpcID, "error", err)
		} else {
			plan.Spec.Subnets = append(plan.Spec.Subnets, subnetList...)
		}
		if internetGateways, err := r.igwWatcher.Resolve(ctx, vpcID); err != nil {
			log.Warn("failed to discover internet gateways", "vpc", vpcID, "error", err)
		} else {
			plan.Spec.InternetGateways = append(plan.Spec.InternetGateways, internetGateways...)
		}
	}

	if r.opts.ClusterName != "" {
		if exists, err := r.clusterWatcher.ClusterExists(ctx, r.opts.ClusterName); err != nil {
			log.Warn("failed to discover cluster", "cluster", r.opts.ClusterName, "error", err)
		} else {
			plan.Spec.ClusterPresent = exists
		}
		if groups, err := r.clusterWatcher.Resolve(ctx, r.opts.ClusterName); err != nil {
			log.Warn("failed to discover node groups", "cluster", r.opts.ClusterName, "error", err)
		} else {
			plan.Spec.Nodegroups = groups
		}
	}

	if r.opts.ZoneName != "" {
		zoneID, err := r.dnsWatcher.ResolveZoneID(ctx, r.opts.ZoneName)
		if err != nil {
			log.Warn("failed to discover hosted zone", "zone", r.opts.ZoneName, "error", err)
		}
		plan.Spec.ZoneID = zoneID
		if zoneID != "" {
			if records, err := r.dnsWatcher.Resolve(ctx, zoneID, r.opts.ZoneName); err != nil {
				log.Warn("failed to discover record sets", "zone", r.opts.ZoneName, "error", err)
			} else {
				plan.Spec.Records = records
			}
		}
	}

	log.Info("discovery complete",
		"vpcs", len(plan.Spec.VPCs),
		"loadBalancers", len(plan.Spec.LoadBalancers),
		"networkInterfaces", len(plan.Spec.NetworkInterfaces),
		"securityGroups", len(plan.Spec.SecurityGroups),
		"nodeGroups", len(plan.Spec.Nodegroups),
		"records", len(plan.Spec.Records))
	return plan
}

// stateHint reads the VPC id out of a prior state snapshot, if one exists.
// Best effort only; any parse failure means no hint.
func (r *Reconciler) stateHint(ctx context.Context) string {
	if r.tf == nil || !r.tf.HasState() {
		return ""
	}
	state, err := terraform.LoadState(r.tf.StatePath())
	if err != nil {
		logging.FromContext(ctx).Debug("could not parse state snapshot for discovery hints", "error", err)
		return ""
	}
	return state.ResourceID("aws_vpc")
}
