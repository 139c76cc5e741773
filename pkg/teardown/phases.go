package teardown

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/oyewoledavid/microservice-deployment/pkg/logging"
	"github.com/oyewoledavid/microservice-deployment/pkg/plans"
	"github.com/oyewoledavid/microservice-deployment/pkg/results"
	"github.com/oyewoledavid/microservice-deployment/pkg/waiter"
)

// A phase deletes one kind of resource. The list returned by phases is the
// deletion precedence as data, consumed by the driver loop in Run; it must
// not be reordered. Node groups come before the control plane, load
// balancers before the interfaces they leave behind, interfaces before the
// groups they reference, and the VPC goes last. Record cleanup has no
// ordering dependency on any of them.
type phase struct {
	name string
	run  func(ctx context.Context, plan *plans.TeardownPlan, out *Outcome)
}

func (r *Reconciler) phases() []phase {
	return []phase{
		{name: "dns-records", run: r.deleteDNSRecords},
		{name: "node-groups", run: r.deleteNodegroups},
		{name: "cluster", run: r.deleteCluster},
		{name: "load-balancers", run: r.deleteLoadBalancers},
		{name: "target-groups", run: r.deleteTargetGroups},
		{name: "network-interfaces", run: r.deleteNetworkInterfaces},
		{name: "security-groups", run: r.deleteSecurityGroups},
		{name: "nat-gateways", run: r.deleteNATGateways},
		{name: "subnets", run: r.deleteSubnets},
		{name: "internet-gateways", run: r.deleteInternetGateways},
		{name: "vpcs", run: r.deleteVPCs},
	}
}

func (r *Reconciler) deleteDNSRecords(ctx context.Context, plan *plans.TeardownPlan, out *Outcome) {
	if plan.Spec.ZoneID == "" {
		return
	}
	for _, record := range plan.Spec.Records {
		id := aws.ToString(record.Name) + " " + string(record.Type)
		res := r.apply(ctx, out, "dns-record", id, r.dnsWatcher.Delete(ctx, plan.Spec.ZoneID, record))
		plan.Status.Records[id] = res.OK()
	}
}

func (r *Reconciler) deleteNodegroups(ctx context.Context, plan *plans.TeardownPlan, out *Outcome) {
	log := logging.FromContext(ctx)
	for _, nodegroup := range plan.Spec.Nodegroups {
		res := r.apply(ctx, out, "node-group", nodegroup, r.clusterWatcher.DeleteNodegroup(ctx, r.opts.ClusterName, nodegroup))
		plan.Status.Nodegroups[nodegroup] = res.OK()
		if !res.OK() {
			continue
		}
		err := waiter.Poll(ctx, r.opts.PollInterval, r.opts.PollBudget, func(ctx context.Context) (bool, error) {
			return r.clusterWatcher.NodegroupGone(ctx, r.opts.ClusterName, nodegroup)
		})
		if err != nil {
			log.Warn("node group deletion taking longer than expected", "nodeGroup", nodegroup, "error", err)
		}
	}
}

func (r *Reconciler) deleteCluster(ctx context.Context, plan *plans.TeardownPlan, out *Outcome) {
	if !plan.Spec.ClusterPresent {
		return
	}
	log := logging.FromContext(ctx)
	res := r.deleteUntilUnblocked(ctx, func(ctx context.Context) error {
		return r.clusterWatcher.DeleteCluster(ctx, r.opts.ClusterName)
	})
	r.record(ctx, out, "cluster", r.opts.ClusterName, res)
	plan.Status.ClusterDeleted = res.OK()
	if !res.OK() {
		return
	}
	err := waiter.Poll(ctx, r.opts.PollInterval, r.opts.PollBudget, func(ctx context.Context) (bool, error) {
		return r.clusterWatcher.ClusterGone(ctx, r.opts.ClusterName)
	})
	if err != nil {
		log.Warn("cluster deletion taking longer than expected", "cluster", r.opts.ClusterName, "error", err)
	}
}

// deleteLoadBalancers requests deletion of every load balancer in the batch
// without waiting on each one, then settles once; the backing interfaces are
// released asynchronously and picked up by the interface phase.
func (r *Reconciler) deleteLoadBalancers(ctx context.Context, plan *plans.TeardownPlan, out *Outcome) {
	requested := 0
	for _, lb := range plan.Spec.LoadBalancers {
		arn := aws.ToString(lb.LoadBalancerArn)
		res := r.apply(ctx, out, "load-balancer", arn, r.loadBalancerWatcher.Delete(ctx, lb))
		plan.Status.LoadBalancers[arn] = res.OK()
		if res.Code == results.Succeeded {
			requested++
		}
	}
	if requested > 0 {
		logging.FromContext(ctx).Info("waiting for load balancer network interfaces to release", "loadBalancers", requested)
		r.settle(ctx)
	}
}

func (r *Reconciler) deleteTargetGroups(ctx context.Context, plan *plans.TeardownPlan, out *Outcome) {
	for _, targetGroup := range plan.Spec.TargetGroups {
		arn := aws.ToString(targetGroup.TargetGroupArn)
		res := r.apply(ctx, out, "target-group", arn, r.loadBalancerWatcher.DeleteTargetGroup(ctx, arn))
		plan.Status.TargetGroups[arn] = res.OK()
	}
}

// deleteNetworkInterfaces re-resolves rather than trusting discovery: the
// load balancer batch that just ran frees interfaces asynchronously, so the
// discovered set is already stale. Attached interfaces are skipped unless
// the forceful policy was opted into.
func (r *Reconciler) deleteNetworkInterfaces(ctx context.Context, plan *plans.TeardownPlan, out *Outcome) {
	log := logging.FromContext(ctx)
	for _, vpc := range plan.Spec.VPCs {
		vpcID := aws.ToString(vpc.VpcId)
		interfaces, err := r.eniWatcher.Resolve(ctx, vpcID)
		if err != nil {
			log.Warn("failed to re-list network interfaces, using discovery snapshot", "vpc", vpcID, "error", err)
			interfaces = plan.Spec.NetworkInterfaces
		}
		for _, eni := range interfaces {
			eniID := aws.ToString(eni.NetworkInterfaceId)
			if !eni.Available() {
				if !r.opts.ForceDetachENIs {
					log.Warn("network interface still attached, skipping", "eni", eniID)
					out.markRemaining("network-interface", eniID, "still attached; re-run with --force-detach-enis to remove")
					plan.Status.NetworkInterfaces[eniID] = false
					continue
				}
				if attachmentID := eni.AttachmentID(); attachmentID != "" {
					if err := r.eniWatcher.Detach(ctx, attachmentID); err != nil {
						r.apply(ctx, out, "network-interface", eniID, err)
						plan.Status.NetworkInterfaces[eniID] = false
						continue
					}
				}
			}
			res := r.deleteUntilUnblocked(ctx, func(ctx context.Context) error {
				return r.eniWatcher.Delete(ctx, eniID)
			})
			r.record(ctx, out, "network-interface", eniID, res)
			plan.Status.NetworkInterfaces[eniID] = res.OK()
		}
	}
}

// deleteSecurityGroups runs strictly after the interface phase. Rules are
// revoked first so groups referencing each other cannot deadlock deletion,
// and a dependency refusal is retried up to the wait budget.
func (r *Reconciler) deleteSecurityGroups(ctx context.Context, plan *plans.TeardownPlan, out *Outcome) {
	log := logging.FromContext(ctx)
	for _, securityGroup := range plan.Spec.SecurityGroups {
		sgID := aws.ToString(securityGroup.GroupId)
		if err := r.securityGroupWatcher.RevokeRules(ctx, securityGroup); err != nil {
			log.Warn("failed to revoke security group rules", "securityGroup", sgID, "error", err)
		}
		res := r.deleteUntilUnblocked(ctx, func(ctx context.Context) error {
			return r.securityGroupWatcher.Delete(ctx, sgID)
		})
		r.record(ctx, out, "security-group", sgID, res)
		plan.Status.SecurityGroups[sgID] = res.OK()
	}
}

// deleteNATGateways requests gateway deletion, waits for the gateways to
// leave the VPC, then releases the elastic IPs they held. Releasing before
// the gateway is gone fails, so the wait is load-bearing.
func (r *Reconciler) deleteNATGateways(ctx context.Context, plan *plans.TeardownPlan, out *Outcome) {
	log := logging.FromContext(ctx)
	var allocationIDs []string
	requestedVPCs := map[string]bool{}
	for _, natGateway := range plan.Spec.NATGateways {
		natID := aws.ToString(natGateway.NatGatewayId)
		allocationIDs = append(allocationIDs, natGateway.AllocationIDs()...)
		res := r.apply(ctx, out, "nat-gateway", natID, r.natGatewayWatcher.Delete(ctx, natID))
		plan.Status.NATGateways[natID] = res.OK()
		if res.OK() {
			requestedVPCs[aws.ToString(natGateway.VpcId)] = true
		}
	}
	for vpcID := range requestedVPCs {
		err := waiter.Poll(ctx, r.opts.PollInterval, r.opts.PollBudget, func(ctx context.Context) (bool, error) {
			return r.natGatewayWatcher.Gone(ctx, vpcID)
		})
		if err != nil {
			log.Warn("NAT gateway deletion taking longer than expected", "vpc", vpcID, "error", err)
		}
	}
	for _, allocationID := range allocationIDs {
		res := r.apply(ctx, out, "elastic-ip", allocationID, r.natGatewayWatcher.ReleaseAddress(ctx, allocationID))
		plan.Status.ElasticIPs[allocationID] = res.OK()
	}
}

func (r *Reconciler) deleteSubnets(ctx context.Context, plan *plans.TeardownPlan, out *Outcome) {
	for _, subnet := range plan.Spec.Subnets {
		subnetID := aws.ToString(subnet.SubnetId)
		res := r.deleteUntilUnblocked(ctx, func(ctx context.Context) error {
			return r.subnetWatcher.Delete(ctx, subnetID)
		})
		r.record(ctx, out, "subnet", subnetID, res)
		plan.Status.Subnets[subnetID] = res.OK()
	}
}

func (r *Reconciler) deleteInternetGateways(ctx context.Context, plan *plans.TeardownPlan, out *Outcome) {
	for _, internetGateway := range plan.Spec.InternetGateways {
		igwID := aws.ToString(internetGateway.InternetGatewayId)
		var vpcID string
		if len(internetGateway.Attachments) > 0 {
			vpcID = aws.ToString(internetGateway.Attachments[0].VpcId)
		}
		res := r.deleteUntilUnblocked(ctx, func(ctx context.Context) error {
			return r.igwWatcher.Delete(ctx, internetGateway, vpcID)
		})
		r.record(ctx, out, "internet-gateway", igwID, res)
		plan.Status.InternetGateways[igwID] = res.OK()
	}
}

func (r *Reconciler) deleteVPCs(ctx context.Context, plan *plans.TeardownPlan, out *Outcome) {
	for _, vpc := range plan.Spec.VPCs {
		vpcID := aws.ToString(vpc.VpcId)
		res := r.deleteUntilUnblocked(ctx, func(ctx context.Context) error {
			return r.vpcWatcher.Delete(ctx, vpcID)
		})
		r.record(ctx, out, "vpc", vpcID, res)
		plan.Status.VPCs[vpcID] = res.OK()
	}
}
