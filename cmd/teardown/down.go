/*
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/oyewoledavid/microservice-deployment/pkg/logging"
	"github.com/oyewoledavid/microservice-deployment/pkg/prereqs"
	"github.com/oyewoledavid/microservice-deployment/pkg/selectors"
	"github.com/oyewoledavid/microservice-deployment/pkg/teardown"
	"github.com/oyewoledavid/microservice-deployment/pkg/terraform"
)

type DownOptions struct {
	VPCTag            string   `yaml:"vpcTag"`
	Cluster           string   `yaml:"cluster"`
	Zone              string   `yaml:"zone"`
	StateFile         string   `yaml:"stateFile"`
	SkipTerraform     bool     `yaml:"skipTerraform"`
	ForceDetachENIs   bool     `yaml:"forceDetachEnis"`
	EscalationTargets []string `yaml:"escalationTargets"`
	// HostsOverride is config-file only: pinning an endpoint is a deliberate,
	// deployment-specific workaround, not something to pass ad hoc.
	HostsOverride teardown.HostsOverrideSpec `yaml:"hostsOverride"`
}

var (
	downOptions = DownOptions{}
	cmdDown     = &cobra.Command{
		Use:   "down",
		Short: "tear the environment down to empty",
		Long:  `Discovers resources belonging to the environment, destroys them via terraform with imperative fallback, and reports what remains.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return down(commandContext(cmd), downOptions, globalOpts)
		},
	}
)

func init() {
	rootCmd.AddCommand(cmdDown)
	cmdDown.Flags().StringVar(&downOptions.VPCTag, "vpc-tag", "Name=eks-vpc", "Tag selector for the environment's VPC (key=value)")
	cmdDown.Flags().StringVar(&downOptions.Cluster, "cluster", "sock-shop-eks", "EKS cluster name")
	cmdDown.Flags().StringVar(&downOptions.Zone, "zone", "", "Hosted zone whose records should be cleaned up")
	cmdDown.Flags().StringVar(&downOptions.StateFile, "state-file", "terraform.tfstate", "Path to the terraform state snapshot")
	cmdDown.Flags().BoolVar(&downOptions.SkipTerraform, "skip-terraform", false, "Skip the declarative destroy and sweep resources directly")
	cmdDown.Flags().BoolVar(&downOptions.ForceDetachENIs, "force-detach-enis", false, "Detach and delete network interfaces that are still attached (default is to skip them)")
	cmdDown.Flags().StringSliceVar(&downOptions.EscalationTargets, "escalation-target",
		[]string{"aws_acm_certificate_validation.cert", "aws_eks_node_group.sock_shop"},
		"Resource addresses destroyed individually when the full destroy keeps failing")
}

func down(ctx context.Context, downOptions DownOptions, globalOpts GlobalOptions) error {
	downOptions, err := ParseConfig(globalOpts, downOptions)
	if err != nil {
		return err
	}
	vpcTags, err := selectors.ParseTags(downOptions.VPCTag)
	if err != nil {
		return err
	}

	var tf teardown.TerraformCLI
	if !downOptions.SkipTerraform {
		checkResults, err := prereqs.Check(prereqs.TeardownTools())
		for _, result := range checkResults {
			if !result.Found {
				logging.FromContext(ctx).Warn("tool not found", "tool", result.Tool.Name, "purpose", result.Tool.Description)
			}
		}
		if err != nil {
			return err
		}
		tf = terraform.New(filepath.Dir(downOptions.StateFile))
	}

	awsCfg, err := AWSConfig(ctx, globalOpts)
	if err != nil {
		return err
	}
	reconciler := teardown.New(awsCfg, tf, teardown.Options{
		VPCTags:           vpcTags,
		ClusterName:       downOptions.Cluster,
		ZoneName:          downOptions.Zone,
		SkipTerraform:     downOptions.SkipTerraform,
		ForceDetachENIs:   downOptions.ForceDetachENIs,
		EscalationTargets: downOptions.EscalationTargets,
		HostsOverride:     downOptions.HostsOverride,
	})

	outcome := reconciler.Run(ctx)
	renderOutcome(outcome, globalOpts.Output)
	if outcome.State != teardown.StateClean {
		return fmt.Errorf("teardown finished %s: %d resource(s) remain", outcome.State, len(outcome.Remaining))
	}
	return nil
}
