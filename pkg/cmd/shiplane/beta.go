package shiplane

import (
	"context"
	"fmt"
	"os"

	"github.com/shiplane-io/shiplane/pkg/api"
	"github.com/shiplane-io/shiplane/pkg/changelog"
	"github.com/shiplane-io/shiplane/pkg/cmd/genericclioptions"
	cmdutil "github.com/shiplane-io/shiplane/pkg/cmd/util"
	"github.com/shiplane-io/shiplane/pkg/distribute"
	"github.com/shiplane-io/shiplane/pkg/lane"
	"github.com/shiplane-io/shiplane/pkg/notify"
	"github.com/shiplane-io/shiplane/pkg/signals"
	"github.com/shiplane-io/shiplane/pkg/toolchain"
	"github.com/spf13/cobra"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/klog/v2"
)

type BetaOptions struct {
	genericclioptions.IOStreams

	ProductName       string
	BuildNumber       string
	PublishingAccount string
	TesterGroups      []string

	NotesPath         string
	ExportOptionsPath string
	DeployDir         string

	BetaURL        string
	CrashReportURL string

	params   api.ReleaseParams
	tools    api.Toolchain
	notifier notify.Notifier

	distCfg api.DistributionConfig
}

func NewBetaOptions(streams genericclioptions.IOStreams) *BetaOptions {
	return &BetaOptions{
		IOStreams: streams,

		NotesPath:         "whatsnew.txt",
		ExportOptionsPath: "ExportOptions.plist",

		tools:    api.DefaultToolchain(),
		notifier: notify.Nop{},
	}
}

func NewBetaCommand(streams genericclioptions.IOStreams) *cobra.Command {
	o := NewBetaOptions(streams)

	cmd := &cobra.Command{
		Use:   "beta",
		Short: "beta runs the beta lane: tests, build number bump, build, tester distribution",
		Long:  "beta runs the beta lane: parameter validation, tests, build number bump, build and sign, and distribution of the build with the \"what's new\" notes to the tester groups. No hosted release is created and the version string stays untouched.",
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

	cmd.Flags().StringVarP(&o.ProductName, "product-name", "", o.ProductName, "Name of the product being distributed.")
	cmd.Flags().StringVarP(&o.BuildNumber, "build-number", "", o.BuildNumber, "Build number of the beta build.")
	cmd.Flags().StringVarP(&o.PublishingAccount, "publishing-account", "", o.PublishingAccount, "Account the build is distributed under.")
	cmd.Flags().StringSliceVarP(&o.TesterGroups, "tester-groups", "", o.TesterGroups, "Tester groups the build is distributed to.")
	cmd.Flags().StringVarP(&o.NotesPath, "notes", "", o.NotesPath, "Path to the plaintext \"what's new\" notes file.")
	cmd.Flags().StringVarP(&o.ExportOptionsPath, "export-options", "", o.ExportOptionsPath, "Path to the export options descriptor used by the packaging step.")
	cmd.Flags().StringVarP(&o.DeployDir, "deploy-dir", "", o.DeployDir, "Directory artifacts, symbols and build logs are written to.")
	cmd.Flags().StringVarP(&o.BetaURL, "beta-url", "", o.BetaURL, "Upload endpoint of the beta-distribution service.")
	cmd.Flags().StringVarP(&o.CrashReportURL, "crash-report-url", "", o.CrashReportURL, "Upload endpoint of the crash-reporting service.")

	return cmd
}

func (o *BetaOptions) Validate() error {
	var errs []error

	if len(o.NotesPath) == 0 {
		errs = append(errs, fmt.Errorf("notes path can't be empty"))
	}

	return utilerrors.NewAggregate(errs)
}

func (o *BetaOptions) Complete() error {
	if len(o.DeployDir) == 0 {
		o.DeployDir = envOr(EnvDeployDir, "deploy")
	}

	// The beta lane has no tester-group fallback; distributing a beta
	// to nobody is a caller mistake.
	if len(o.TesterGroups) == 0 {
		o.TesterGroups = splitGroups(os.Getenv(EnvTesterGroups))
	}

	o.params = api.ReleaseParams{
		ProductName:       o.ProductName,
		BuildNumber:       o.BuildNumber,
		PublishingAccount: o.PublishingAccount,
		TesterGroups:      o.TesterGroups,

		TeamID:   os.Getenv(EnvTeamID),
		BundleID: os.Getenv(EnvBundleID),
		Scheme:   envOr(EnvScheme, o.ProductName),
		Target:   os.Getenv(EnvTarget),

		DeployDir:         o.DeployDir,
		NotesPath:         o.NotesPath,
		ExportOptionsPath: o.ExportOptionsPath,
	}

	o.distCfg = api.DistributionConfig{
		BetaURL:          o.BetaURL,
		BetaToken:        os.Getenv(EnvBetaUploadToken),
		CrashReportURL:   o.CrashReportURL,
		CrashReportToken: os.Getenv(EnvCrashReportToken),
	}

	webhookURL := os.Getenv(EnvSlackWebhookURL)
	if len(webhookURL) != 0 {
		o.notifier = notify.NewSlackWebhook(webhookURL)
	}

	return nil
}

func (o *BetaOptions) Run(cmd *cobra.Command) error {
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
	distClient := distribute.NewClient(o.distCfg)

	var notes string

	p := lane.New("beta", func(ctx context.Context, failedStage string, err error) {
		n := notify.Notification{
			Success: err == nil,
			Fields: []notify.Field{
				{Name: "Lane", Value: "beta"},
				{Name: "Build", Value: o.BuildNumber},
			},
		}

		if err != nil {
			n.Title = fmt.Sprintf("%s beta %s failed", o.ProductName, o.BuildNumber)
			n.Text = err.Error()
		} else {
			n.Title = fmt.Sprintf("%s beta %s distributed", o.ProductName, o.BuildNumber)
			n.Text = notes
		}

		perr := o.notifier.Publish(ctx, n)
		if perr != nil {
			klog.Errorf("Can't deliver completion notification: %v", perr)
		}
	})

	p.Add(
		lane.Stage{
			Name: "validate-parameters",
			Run: func(ctx context.Context) error {
				return o.params.ValidateRequired()
			},
		},
		lane.Stage{
			Name: "run-tests",
			Run: func(ctx context.Context) error {
				err := xcode.InstallDeps(ctx)
				if err != nil {
					return err
				}

				return xcode.Test(ctx, o.params.Scheme)
			},
		},
		lane.Stage{
			Name: "bump-build-number",
			Run: func(ctx context.Context) error {
				return xcode.BumpBuildNumber(ctx)
			},
		},
		lane.Stage{
			Name: "read-notes",
			Run: func(ctx context.Context) error {
				var err error
				notes, err = changelog.ReadNotes(o.NotesPath)
				if err != nil {
					return err
				}

				notes = changelog.Strip(notes)

				return nil
			},
		},
		lane.Stage{
			Name: "build-and-sign",
			Run: func(ctx context.Context) error {
				return xcode.Build(ctx, o.params)
			},
		},
		lane.Stage{
			Name: "distribute-build",
			Run: func(ctx context.Context) error {
				return distClient.UploadBuild(ctx, toolchain.ArtifactPath(o.params), notes, o.TesterGroups)
			},
		},
	)

	p.Add(summaryStage(p, o.Out))

	return p.Run(ctx)
}
