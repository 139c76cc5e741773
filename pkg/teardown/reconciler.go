// Package teardown drives an EKS environment from an unknown, possibly
// partially provisioned state down to empty. It discovers resources by tag,
// deletes them in dependency order, escalates around a failed declarative
// destroy, and verifies the end state. Execution is strictly sequential;
// running two reconciliations against the same environment concurrently is
// unsupported.
package teardown

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/eks"
	elbv2 "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	"github.com/aws/aws-sdk-go-v2/service/route53"

	"github.com/oyewoledavid/microservice-deployment/pkg/logging"
	"github.com/oyewoledavid/microservice-deployment/pkg/providers/dnsrecords"
	"github.com/oyewoledavid/microservice-deployment/pkg/providers/enis"
	"github.com/oyewoledavid/microservice-deployment/pkg/providers/igws"
	"github.com/oyewoledavid/microservice-deployment/pkg/providers/loadbalancers"
	"github.com/oyewoledavid/microservice-deployment/pkg/providers/natgws"
	"github.com/oyewoledavid/microservice-deployment/pkg/providers/nodegroups"
	"github.com/oyewoledavid/microservice-deployment/pkg/providers/securitygroups"
	"github.com/oyewoledavid/microservice-deployment/pkg/providers/subnets"
	"github.com/oyewoledavid/microservice-deployment/pkg/providers/vpcs"
	"github.com/oyewoledavid/microservice-deployment/pkg/results"
	"github.com/oyewoledavid/microservice-deployment/pkg/waiter"
)

const (
	defaultPollInterval = 15 * time.Second
	defaultPollBudget   = 10 * time.Minute
	defaultSettleDelay  = 30 * time.Second
)

// TerraformCLI is the declarative destroy collaborator. Every operation is a
// black box returning success or failure.
type TerraformCLI interface {
	Destroy(ctx context.Context) error
	DestroyWithoutRefresh(ctx context.Context) error
	DestroyTargets(ctx context.Context, targets []string) error
	HasState() bool
	StatePath() string
	RemoveStateFile() error
}

// Options configures one reconciliation run.
type Options struct {
	// VPCTags select the environment's VPC (e.g. Name=eks-vpc).
	VPCTags map[string]string
	// ClusterName is the EKS cluster to tear down.
	ClusterName string
	// ZoneName enables hosted-zone record cleanup when non-empty.
	ZoneName string
	// SkipTerraform bypasses the declarative destroy ladder entirely.
	SkipTerraform bool
	// ForceDetachENIs opts into detach-then-delete for attached network
	// interfaces. The default is to skip them and report a partial outcome.
	ForceDetachENIs bool
	// EscalationTargets are resource addresses destroyed individually when
	// the full destroy keeps failing. Deployment-specific, so configuration
	// rather than a built-in list.
	EscalationTargets []string
	// HostsOverride, when set, is acquired for the escalation ladder and
	// restored on every exit path.
	HostsOverride HostsOverrideSpec

	PollInterval time.Duration
	PollBudget   time.Duration
	SettleDelay  time.Duration
}

func (o Options) withDefaults() Options {
	if o.PollInterval == 0 {
		o.PollInterval = defaultPollInterval
	}
	if o.PollBudget == 0 {
		o.PollBudget = defaultPollBudget
	}
	if o.SettleDelay == 0 {
		o.SettleDelay = defaultSettleDelay
	}
	if o.HostsOverride.enabled() && o.HostsOverride.Path == "" {
		o.HostsOverride.Path = "/etc/hosts"
	}
	return o
}

// Reconciler owns no persistent state; everything is re-derived from the
// live cloud account on each run.
type Reconciler struct {
	opts                 Options
	region               string
	tf                   TerraformCLI
	vpcWatcher           vpcs.Watcher
	eniWatcher           enis.Watcher
	securityGroupWatcher securitygroups.Watcher
	natGatewayWatcher    natgws.Watcher
	subnetWatcher        subnets.Watcher
	igwWatcher           igws.Watcher
	loadBalancerWatcher  loadbalancers.Watcher
	clusterWatcher       nodegroups.Watcher
	dnsWatcher           dnsrecords.Watcher
}

// New creates a Reconciler over real AWS clients. tf may be nil when no
// terraform working directory is available.
func New(awsCfg *aws.Config, tf TerraformCLI, opts Options) *Reconciler {
	ec2API := ec2.NewFromConfig(*awsCfg)
	eksAPI := eks.NewFromConfig(*awsCfg)
	elbAPI := elbv2.NewFromConfig(*awsCfg)
	route53API := route53.NewFromConfig(*awsCfg)
	return &Reconciler{
		opts:                 opts.withDefaults(),
		region:               awsCfg.Region,
		tf:                   tf,
		vpcWatcher:           vpcs.NewWatcher(ec2API),
		eniWatcher:           enis.NewWatcher(ec2API),
		securityGroupWatcher: securitygroups.NewWatcher(ec2API),
		natGatewayWatcher:    natgws.NewWatcher(ec2API),
		subnetWatcher:        subnets.NewWatcher(ec2API),
		igwWatcher:           igws.NewWatcher(ec2API),
		loadBalancerWatcher:  loadbalancers.NewWatcher(elbAPI),
		clusterWatcher:       nodegroups.NewWatcher(eksAPI),
		dnsWatcher:           dnsrecords.NewWatcher(route53API),
	}
}

// Run executes a full teardown: the declarative destroy ladder, then the
// dependency-ordered sweep of whatever remains, then verification. It always
// returns an Outcome; per-resource failures never abort the run.
func (r *Reconciler) Run(ctx context.Context) Outcome {
	log := logging.FromContext(ctx)
	out := &Outcome{}

	destroyFailed := false
	if !r.opts.SkipTerraform && r.tf != nil && r.tf.HasState() {
		if err := r.destroyWithEscalation(ctx); err != nil {
			log.Warn("all declarative destroy attempts failed, falling back to direct deletion", "error", err)
			destroyFailed = true
		}
	}

	plan := r.Discover(ctx)
	for _, ph := range r.phases() {
		log.Debug("starting phase", "phase", ph.name)
		ph.run(ctx, plan, out)
	}

	r.verifyInto(ctx, out)
	switch {
	case len(out.Remaining) == 0:
		out.State = StateClean
		r.removeStateFile(ctx)
	case destroyFailed && r.vpcRemains(out):
		out.State = StateFailed
	default:
		out.State = StatePartial
	}
	r.report(ctx, out)
	return *out
}

// Verify is the standalone read-only pass: re-query the environment's
// defining resources and report what is left. No deletions are attempted.
func (r *Reconciler) Verify(ctx context.Context) Outcome {
	out := &Outcome{}
	r.verifyInto(ctx, out)
	if len(out.Remaining) == 0 {
		out.State = StateClean
	} else {
		out.State = StatePartial
	}
	return *out
}

// destroyWithEscalation runs the declarative destroy ladder, stopping at the
// first strategy that succeeds:
//  1. full destroy
//  2. full destroy with the pre-destroy state refresh disabled
//  3. targeted destroys of the configured escalation addresses (individual
//     failures ignored), then one more full destroy
//
// Returning an error hands the problem to the imperative sweep.
func (r *Reconciler) destroyWithEscalation(ctx context.Context) error {
	log := logging.FromContext(ctx)

	log.Info("destroying provisioned infrastructure")
	err := r.tf.Destroy(ctx)
	if err == nil {
		return nil
	}
	log.Warn("full destroy failed, retrying with refresh disabled", "error", err)

	if r.opts.HostsOverride.enabled() {
		override, overrideErr := AcquireHostsOverride(r.opts.HostsOverride)
		if overrideErr != nil {
			log.Warn("failed to acquire hosts override", "error", overrideErr)
		} else {
			defer func() {
				if restoreErr := override.Restore(); restoreErr != nil {
					log.Error("failed to restore hosts file", "error", restoreErr)
				}
			}()
		}
	}

	if err = r.tf.DestroyWithoutRefresh(ctx); err == nil {
		return nil
	}
	log.Warn("refresh-disabled destroy failed, destroying known problem resources individually", "error", err)

	if len(r.opts.EscalationTargets) > 0 {
		if targetErr := r.tf.DestroyTargets(ctx, r.opts.EscalationTargets); targetErr != nil {
			log.Warn("targeted destroy failed", "error", targetErr)
		}
	}
	return r.tf.Destroy(ctx)
}

// verifyInto re-queries the environment's defining resources (tagged VPC and
// its load balancers) and appends whatever is still present.
func (r *Reconciler) verifyInto(ctx context.Context, out *Outcome) {
	log := logging.FromContext(ctx)
	vpcList, err := r.vpcWatcher.Resolve(ctx, vpcs.Selector{Tags: r.opts.VPCTags})
	if err != nil {
		log.Warn("verification query for VPCs failed", "error", err)
		out.markRemaining("vpc", "unknown", "verification query failed: "+err.Error())
		return
	}
	for _, vpc := range vpcList {
		vpcID := aws.ToString(vpc.VpcId)
		out.markRemaining("vpc", vpcID, "still present after teardown")
		lbs, err := r.loadBalancerWatcher.Resolve(ctx, vpcID)
		if err != nil {
			log.Warn("verification query for load balancers failed", "error", err)
			continue
		}
		for _, lb := range lbs {
			out.markRemaining("load-balancer", aws.ToString(lb.LoadBalancerArn), "still present after teardown")
		}
	}
}

func (r *Reconciler) vpcRemains(out *Outcome) bool {
	for _, residual := range out.Remaining {
		if residual.Kind == "vpc" {
			return true
		}
	}
	return false
}

// removeStateFile deletes the local state snapshot, a post-condition of a
// fully clean run only.
func (r *Reconciler) removeStateFile(ctx context.Context) {
	if r.tf == nil || !r.tf.HasState() {
		return
	}
	log := logging.FromContext(ctx)
	if err := r.tf.RemoveStateFile(); err != nil {
		log.Warn("failed to remove state snapshot", "error", err)
		return
	}
	log.Info("removed state snapshot")
}

// report emits the final summary and the manual follow-up list. The operator
// is never left without visibility into what remains.
func (r *Reconciler) report(ctx context.Context, out *Outcome) {
	log := logging.FromContext(ctx)
	log.Info("teardown finished", "state", string(out.State), "deleted", len(out.Deleted), "remaining", len(out.Remaining))
	for _, residual := range out.Remaining {
		log.Warn("resource remains", "kind", residual.Kind, "id", residual.ID, "reason", residual.Reason)
	}
}

// record folds one normalized deletion attempt into the outcome.
func (r *Reconciler) record(ctx context.Context, out *Outcome, kind, id string, res results.Result) {
	log := logging.FromContext(ctx)
	switch res.Code {
	case results.Succeeded:
		log.Info("deleted", "kind", kind, "id", id)
		out.markDeleted(kind, id)
	case results.NotFound:
		log.Debug("already gone", "kind", kind, "id", id)
		out.markDeleted(kind, id)
	case results.Blocked:
		log.Warn("deletion blocked by dependents", "kind", kind, "id", id, "error", res.Err)
		out.markRemaining(kind, id, "blocked by dependent resources")
	case results.Transient:
		log.Warn("deletion hit a transient failure", "kind", kind, "id", id, "error", res.Err)
		out.markRemaining(kind, id, "transient failure: "+res.Err.Error())
	default:
		log.Error("deletion failed", "kind", kind, "id", id, "error", res.Err)
		out.markRemaining(kind, id, res.Err.Error())
	}
}

// apply classifies a raw deletion error and records it.
func (r *Reconciler) apply(ctx context.Context, out *Outcome, kind, id string, err error) results.Result {
	res := results.Classify(err)
	r.record(ctx, out, kind, id, res)
	return res
}

// deleteUntilUnblocked retries a deletion that is refused because dependents
// still reference the target, on a fixed interval up to the wait budget.
// Exhausting the budget leaves the last result standing; it is reported, not
// fatal.
func (r *Reconciler) deleteUntilUnblocked(ctx context.Context, del func(context.Context) error) results.Result {
	var last results.Result
	err := waiter.Poll(ctx, r.opts.PollInterval, r.opts.PollBudget, func(ctx context.Context) (bool, error) {
		last = results.Classify(del(ctx))
		if last.OK() {
			return true, nil
		}
		if last.Code == results.Blocked || last.Code == results.Transient {
			return false, nil
		}
		return false, last.Err
	})
	if err != nil && last.Err == nil {
		last = results.Classify(err)
	}
	return last
}

// settle waits out asynchronous resource release between phases.
func (r *Reconciler) settle(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(r.opts.SettleDelay):
	}
}
