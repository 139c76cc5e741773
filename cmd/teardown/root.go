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
	"os"

	"dario.cat/mergo"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/oyewoledavid/microservice-deployment/pkg/logging"
	"github.com/oyewoledavid/microservice-deployment/pkg/pretty"
	"github.com/oyewoledavid/microservice-deployment/pkg/teardown"
)

const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

var (
	version = ""
)

type GlobalOptions struct {
	Region     string
	Profile    string
	Verbose    bool
	Output     string
	ConfigFile string
}

var (
	globalOpts = GlobalOptions{}
	rootCmd    = &cobra.Command{
		Use:     "teardown",
		Version: version,
		Short:   "reconcile an EKS environment down to empty",
	}
)

func main() {
	rootCmd.PersistentFlags().BoolVar(&globalOpts.Verbose, "verbose", false, "Verbose output")
	rootCmd.PersistentFlags().StringVarP(&globalOpts.Output, "output", "o", OutputTable,
		fmt.Sprintf("Output mode: %v", []string{OutputTable, OutputJSON, OutputYAML}))
	rootCmd.PersistentFlags().StringVarP(&globalOpts.ConfigFile, "file", "f", "", "YAML Config File")
	rootCmd.PersistentFlags().StringVarP(&globalOpts.Region, "region", "r", "", "AWS Region")
	rootCmd.PersistentFlags().StringVarP(&globalOpts.Profile, "profile", "p", "", "AWS CLI Profile")

	rootCmd.AddCommand(&cobra.Command{Use: "completion", Hidden: true})
	cobra.EnableCommandSorting = false

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// commandContext attaches the run's logger to the cobra context.
func commandContext(cmd *cobra.Command) context.Context {
	return logging.ToContext(cmd.Context(), logging.New(globalOpts.Verbose))
}

func ParseConfig[T any](globalOpts GlobalOptions, opts T) (T, error) {
	if globalOpts.ConfigFile == "" {
		return opts, nil
	}
	configBytes, err := os.ReadFile(globalOpts.ConfigFile)
	if err != nil {
		return opts, err
	}
	var parsedOpts T
	if err := yaml.Unmarshal(configBytes, &parsedOpts); err != nil {
		return opts, err
	}
	if err := mergo.Merge(&opts, parsedOpts, mergo.WithOverride); err != nil {
		return opts, err
	}
	return opts, nil
}

func AWSConfig(ctx context.Context, globalOptions GlobalOptions) (*aws.Config, error) {
	var options []func(*config.LoadOptions) error
	if globalOptions.Region != "" {
		options = append(options, config.WithRegion(globalOptions.Region))
	}
	if globalOptions.Profile != "" {
		options = append(options, config.WithSharedConfigProfile(globalOptions.Profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func renderOutcome(outcome teardown.Outcome, output string) {
	switch output {
	case OutputJSON:
		fmt.Print(pretty.EncodeJSON(outcome))
	case OutputYAML:
		fmt.Print(pretty.EncodeYAML(outcome))
	default:
		fmt.Printf("State: %s\n", outcome.State)
		fmt.Printf("Deleted: %d resource(s)\n", len(outcome.Deleted))
		if len(outcome.Remaining) > 0 {
			fmt.Println("Remaining resources requiring manual follow-up:")
			fmt.Println(pretty.Table(outcome.Remaining))
		}
	}
}
