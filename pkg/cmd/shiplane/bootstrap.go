package shiplane

import (
	"context"
	"fmt"

	"github.com/shiplane-io/shiplane/pkg/api"
	"github.com/shiplane-io/shiplane/pkg/cmd/genericclioptions"
	cmdutil "github.com/shiplane-io/shiplane/pkg/cmd/util"
	"github.com/shiplane-io/shiplane/pkg/manifest"
	"github.com/shiplane-io/shiplane/pkg/signals"
	"github.com/shiplane-io/shiplane/pkg/toolchain"
	"github.com/spf13/cobra"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/klog/v2"
)

type BootstrapOptions struct {
	genericclioptions.IOStreams

	ManifestPath string
	DryRun       bool

	tools api.Toolchain
}

func NewBootstrapOptions(streams genericclioptions.IOStreams) *BootstrapOptions {
	return &BootstrapOptions{
		IOStreams: streams,

		ManifestPath: "packages.yaml",

		tools: api.DefaultToolchain(),
	}
}

func NewBootstrapCommand(streams genericclioptions.IOStreams) *cobra.Command {
	o := NewBootstrapOptions(streams)

	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "bootstrap installs the workstation packages declared in the manifest",
		Long:  "bootstrap reads the declarative package manifest (taps, formulas, casks and App Store apps) and installs each entry through the package manager, stopping at the first failure.",
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

	cmd.Flags().StringVarP(&o.ManifestPath, "manifest", "", o.ManifestPath, "Path to the package manifest.")
	cmd.Flags().BoolVarP(&o.DryRun, "dry-run", "", o.DryRun, "Print the install plan without executing it.")

	return cmd
}

func (o *BootstrapOptions) Validate() error {
	var errs []error

	if len(o.ManifestPath) == 0 {
		errs = append(errs, fmt.Errorf("manifest path can't be empty"))
	}

	return utilerrors.NewAggregate(errs)
}

func (o *BootstrapOptions) Complete() error {
	return nil
}

func (o *BootstrapOptions) Run(cmd *cobra.Command) error {
	klog.Infof("loglevel is set to %q", cmdutil.GetLoglevel())

	stopCh := signals.StopChannel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-stopCh
		cancel()
	}()

	m, err := manifest.Load(o.ManifestPath)
	if err != nil {
		return err
	}

	runner := toolchain.NewRunner("", o.Out)
	installer := manifest.NewInstaller(runner, o.tools, o.DryRun, o.Out)

	return installer.Install(ctx, m)
}
