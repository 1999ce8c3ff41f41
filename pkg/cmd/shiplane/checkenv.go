package shiplane

import (
	"fmt"
	"os"

	"github.com/shiplane-io/shiplane/pkg/cmd/genericclioptions"
	"github.com/spf13/cobra"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/klog/v2"
)

type CheckEnvOptions struct {
	genericclioptions.IOStreams
}

func NewCheckEnvOptions(streams genericclioptions.IOStreams) *CheckEnvOptions {
	return &CheckEnvOptions{
		IOStreams: streams,
	}
}

func NewCheckEnvCommand(streams genericclioptions.IOStreams) *cobra.Command {
	o := NewCheckEnvOptions(streams)

	cmd := &cobra.Command{
		Use:   "check-env",
		Short: "check-env verifies the environment variables the lanes require",
		Long:  "check-env verifies that the tokens, credentials and identity fields the lanes consume from the environment are set, and reports every missing one.",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer klog.Flush()

			err := o.Run(cmd)
			if err != nil {
				return err
			}

			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	return cmd
}

func (o *CheckEnvOptions) Run(cmd *cobra.Command) error {
	var errs []error

	for _, key := range requiredEnv {
		if len(os.Getenv(key)) == 0 {
			fmt.Fprintf(o.Out, "%-24s MISSING\n", key)
			errs = append(errs, fmt.Errorf("required environment variable %q is not set", key))
			continue
		}

		fmt.Fprintf(o.Out, "%-24s ok\n", key)
	}

	return utilerrors.NewAggregate(errs)
}
