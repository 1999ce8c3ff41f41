package shiplane

import (
	"context"
	"fmt"
	"os"

	"github.com/shiplane-io/shiplane/pkg/api"
	"github.com/shiplane-io/shiplane/pkg/cmd/genericclioptions"
	cmdutil "github.com/shiplane-io/shiplane/pkg/cmd/util"
	"github.com/shiplane-io/shiplane/pkg/lane"
	"github.com/shiplane-io/shiplane/pkg/signals"
	"github.com/shiplane-io/shiplane/pkg/toolchain"
	"github.com/spf13/cobra"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/klog/v2"
)

type TestOptions struct {
	genericclioptions.IOStreams

	Scheme      string
	Destination string
	RunReview   bool
	DeployDir   string

	tools api.Toolchain
}

func NewTestOptions(streams genericclioptions.IOStreams) *TestOptions {
	return &TestOptions{
		IOStreams: streams,

		tools: api.DefaultToolchain(),
	}
}

func NewTestCommand(streams genericclioptions.IOStreams) *cobra.Command {
	o := NewTestOptions(streams)

	cmd := &cobra.Command{
		Use:   "test",
		Short: "test installs dependencies and runs the test action against a device profile",
		Long:  "test installs project dependencies and runs the test action against a device profile; with --review the static review tool runs afterwards.",
		RunE: func(cmd *cobra.Command, args []string) error {
			defer klog.Flush()

			err := o.Validate()
			if err != nil {
				return err
			}

			err = o.Complete()
			if err != nil {
				return err
			}

			err = o.Run(cmd)
			if err != nil {
				return err
			}

			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.Flags().StringVarP(&o.Scheme, "scheme", "", o.Scheme, "Scheme the test action is run against.")
	cmd.Flags().StringVarP(&o.Destination, "destination", "", o.Destination, "Device profile the test runner targets.")
	cmd.Flags().BoolVarP(&o.RunReview, "review", "", o.RunReview, "Run the static review tool after the tests.")
	cmd.Flags().StringVarP(&o.DeployDir, "deploy-dir", "", o.DeployDir, "Directory test logs are written to.")

	return cmd
}

func (o *TestOptions) Validate() error {
	var errs []error

	if len(o.Scheme) == 0 && len(os.Getenv(EnvScheme)) == 0 {
		errs = append(errs, fmt.Errorf("scheme can't be empty"))
	}

	return utilerrors.NewAggregate(errs)
}

func (o *TestOptions) Complete() error {
	if len(o.Scheme) == 0 {
		o.Scheme = os.Getenv(EnvScheme)
	}

	if len(o.DeployDir) == 0 {
		o.DeployDir = envOr(EnvDeployDir, "deploy")
	}

	if len(o.Destination) != 0 {
		o.tools.Destination = o.Destination
	}

	return nil
}

func (o *TestOptions) Run(cmd *cobra.Command) error {
	klog.Infof("loglevel is set to %q", cmdutil.GetLoglevel())

	stopCh := signals.StopChannel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-stopCh
		cancel()
	}()

	runner := toolchain.NewRunner(o.DeployDir, o.Out)
	xcode := toolchain.NewXcode(runner, o.tools)

	p := lane.New("test", nil)

	p.Add(
		lane.Stage{
			Name: "install-dependencies",
			Run: func(ctx context.Context) error {
				return xcode.InstallDeps(ctx)
			},
		},
		lane.Stage{
			Name: "run-tests",
			Run: func(ctx context.Context) error {
				return xcode.Test(ctx, o.Scheme)
			},
		},
	)

	if o.RunReview {
		p.Add(lane.Stage{
			Name: "run-review",
			Run: func(ctx context.Context) error {
				return xcode.Review(ctx)
			},
		})
	}

	p.Add(summaryStage(p, o.Out))

	return p.Run(ctx)
}
