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

	"github.com/spf13/cobra"

	"github.com/oyewoledavid/microservice-deployment/pkg/selectors"
	"github.com/oyewoledavid/microservice-deployment/pkg/teardown"
)

type VerifyOptions struct {
	VPCTag  string `yaml:"vpcTag"`
	Cluster string `yaml:"cluster"`
}

var (
	verifyOptions = VerifyOptions{}
	cmdVerify     = &cobra.Command{
		Use:   "verify",
		Short: "check whether the environment is gone",
		Long:  `Runs the read-only verification pass on its own: re-queries the environment's defining resources and reports anything still present. No deletions are attempted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return verify(commandContext(cmd), verifyOptions, globalOpts)
		},
	}
)

func init() {
	rootCmd.AddCommand(cmdVerify)
	cmdVerify.Flags().StringVar(&verifyOptions.VPCTag, "vpc-tag", "Name=eks-vpc", "Tag selector for the environment's VPC (key=value)")
	cmdVerify.Flags().StringVar(&verifyOptions.Cluster, "cluster", "sock-shop-eks", "EKS cluster name")
}

func verify(ctx context.Context, verifyOptions VerifyOptions, globalOpts GlobalOptions) error {
	verifyOptions, err := ParseConfig(globalOpts, verifyOptions)
	if err != nil {
		return err
	}
	vpcTags, err := selectors.ParseTags(verifyOptions.VPCTag)
	if err != nil {
		return err
	}
	awsCfg, err := AWSConfig(ctx, globalOpts)
	if err != nil {
		return err
	}
	reconciler := teardown.New(awsCfg, nil, teardown.Options{
		VPCTags:     vpcTags,
		ClusterName: verifyOptions.Cluster,
	})

	outcome := reconciler.Verify(ctx)
	renderOutcome(outcome, globalOpts.Output)
	if outcome.State != teardown.StateClean {
		return fmt.Errorf("environment is %s: %d resource(s) remain", outcome.State, len(outcome.Remaining))
	}
	return nil
}
