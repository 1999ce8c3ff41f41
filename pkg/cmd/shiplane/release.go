package shiplane

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/shiplane-io/shiplane/pkg/api"
	"github.com/shiplane-io/shiplane/pkg/archive"
	"github.com/shiplane-io/shiplane/pkg/changelog"
	"github.com/shiplane-io/shiplane/pkg/cmd/genericclioptions"
	cmdutil "github.com/shiplane-io/shiplane/pkg/cmd/util"
	"github.com/shiplane-io/shiplane/pkg/distribute"
	"github.com/shiplane-io/shiplane/pkg/gittools"
	"github.com/shiplane-io/shiplane/pkg/hosting"
	"github.com/shiplane-io/shiplane/pkg/lane"
	"github.com/shiplane-io/shiplane/pkg/notify"
	"github.com/shiplane-io/shiplane/pkg/signals"
	"github.com/shiplane-io/shiplane/pkg/toolchain"
	"github.com/spf13/cobra"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/klog/v2"
)

type ReleaseOptions struct {
	genericclioptions.IOStreams

	ProductName       string
	Version           string
	BuildNumber       string
	PublishingAccount string
	TesterGroups      []string
	RunReview         bool

	ChangelogPath     string
	ExportOptionsPath string
	DeployDir         string

	HostingBaseURL string
	HostingOwner   string
	HostingRepo    string
	RepoURL        string

	BetaURL            string
	CrashReportURL     string
	StoreSymbolsURL    string
	DefaultTesterGroup string

	ArchiveBucket string

	params   api.ReleaseParams
	tools    api.Toolchain
	notifier notify.Notifier

	hostingCfg api.HostingConfig
	distCfg    api.DistributionConfig
}

func NewReleaseOptions(streams genericclioptions.IOStreams) *ReleaseOptions {
	return &ReleaseOptions{
		IOStreams: streams,

		ChangelogPath:      "CHANGELOG.md",
		ExportOptionsPath:  "ExportOptions.plist",
		DeployDir:          "",
		DefaultTesterGroup: "internal",

		tools:    api.DefaultToolchain(),
		notifier: notify.Nop{},
	}
}

func NewReleaseCommand(streams genericclioptions.IOStreams) *cobra.Command {
	o := NewReleaseOptions(streams)

	cmd := &cobra.Command{
		Use:   "release",
		Short: "release runs the full release lane: tests, version bump, build, publish, distribute",
		Long:  "release runs the full release lane: parameter validation, tests (optionally static review), version and build number bump, changelog extraction, build and sign, hosted release publication, symbol upload, tester distribution, symbol refresh and a summary.",
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

	cmd.Flags().StringVarP(&o.ProductName, "product-name", "", o.ProductName, "Name of the product being released.")
	cmd.Flags().StringVarP(&o.Version, "version", "", o.Version, "Marketing version string of the release.")
	cmd.Flags().StringVarP(&o.BuildNumber, "build-number", "", o.BuildNumber, "Build number of the release.")
	cmd.Flags().StringVarP(&o.PublishingAccount, "publishing-account", "", o.PublishingAccount, "Account the release is published under.")
	cmd.Flags().StringSliceVarP(&o.TesterGroups, "tester-groups", "", o.TesterGroups, "Tester groups the build is distributed to.")
	cmd.Flags().BoolVarP(&o.RunReview, "review", "", o.RunReview, "Run the static review tool after the tests.")
	cmd.Flags().StringVarP(&o.ChangelogPath, "changelog", "", o.ChangelogPath, "Path to the changelog file with version-keyed sections.")
	cmd.Flags().StringVarP(&o.ExportOptionsPath, "export-options", "", o.ExportOptionsPath, "Path to the export options descriptor used by the packaging step.")
	cmd.Flags().StringVarP(&o.DeployDir, "deploy-dir", "", o.DeployDir, "Directory artifacts, symbols and build logs are written to.")
	cmd.Flags().StringVarP(&o.HostingBaseURL, "hosting-base-url", "", o.HostingBaseURL, "Base URL of the source-hosting API.")
	cmd.Flags().StringVarP(&o.HostingOwner, "hosting-owner", "", o.HostingOwner, "Owner of the hosting repository releases are created in.")
	cmd.Flags().StringVarP(&o.HostingRepo, "hosting-repo", "", o.HostingRepo, "Name of the hosting repository releases are created in.")
	cmd.Flags().StringVarP(&o.RepoURL, "repo-url", "", o.RepoURL, "Repository URL used for tagging when not running inside a checkout.")
	cmd.Flags().StringVarP(&o.BetaURL, "beta-url", "", o.BetaURL, "Upload endpoint of the beta-distribution service.")
	cmd.Flags().StringVarP(&o.CrashReportURL, "crash-report-url", "", o.CrashReportURL, "Upload endpoint of the crash-reporting service.")
	cmd.Flags().StringVarP(&o.StoreSymbolsURL, "store-symbols-url", "", o.StoreSymbolsURL, "Download endpoint for store-recompiled symbols.")
	cmd.Flags().StringVarP(&o.DefaultTesterGroup, "default-tester-group", "", o.DefaultTesterGroup, "Tester group used when none are configured.")
	cmd.Flags().StringVarP(&o.ArchiveBucket, "archive-bucket", "", o.ArchiveBucket, "Optional S3 bucket release artifacts are archived to.")

	return cmd
}

func (o *ReleaseOptions) Validate() error {
	var errs []error

	if len(o.Version) == 0 {
		errs = append(errs, fmt.Errorf("version can't be empty"))
	}

	if len(o.ChangelogPath) == 0 {
		errs = append(errs, fmt.Errorf("changelog path can't be empty"))
	}

	if len(o.HostingOwner) == 0 || len(o.HostingRepo) == 0 {
		errs = append(errs, fmt.Errorf("hosting owner and repo can't be empty"))
	}

	return utilerrors.NewAggregate(errs)
}

func (o *ReleaseOptions) Complete() error {
	if len(o.DeployDir) == 0 {
		o.DeployDir = envOr(EnvDeployDir, "deploy")
	}

	if len(o.TesterGroups) == 0 {
		o.TesterGroups = splitGroups(os.Getenv(EnvTesterGroups))
	}
	if len(o.TesterGroups) == 0 && len(o.DefaultTesterGroup) != 0 {
		klog.V(2).Infof("No tester groups configured, falling back to %q.", o.DefaultTesterGroup)
		o.TesterGroups = []string{o.DefaultTesterGroup}
	}

	o.params = api.ReleaseParams{
		ProductName:       o.ProductName,
		Version:           o.Version,
		BuildNumber:       o.BuildNumber,
		PublishingAccount: o.PublishingAccount,
		TesterGroups:      o.TesterGroups,

		TeamID:   os.Getenv(EnvTeamID),
		BundleID: os.Getenv(EnvBundleID),
		Scheme:   envOr(EnvScheme, o.ProductName),
		Target:   os.Getenv(EnvTarget),

		DeployDir:         o.DeployDir,
		ChangelogPath:     o.ChangelogPath,
		ExportOptionsPath: o.ExportOptionsPath,

		RunReview: o.RunReview,
	}

	o.hostingCfg = api.HostingConfig{
		BaseURL: o.HostingBaseURL,
		Owner:   o.HostingOwner,
		Repo:    o.HostingRepo,
		Token:   os.Getenv(EnvGithubToken),
	}

	o.distCfg = api.DistributionConfig{
		BetaURL:            o.BetaURL,
		BetaToken:          os.Getenv(EnvBetaUploadToken),
		CrashReportURL:     o.CrashReportURL,
		CrashReportToken:   os.Getenv(EnvCrashReportToken),
		StoreSymbolsURL:    o.StoreSymbolsURL,
		DefaultTesterGroup: o.DefaultTesterGroup,
	}

	webhookURL := os.Getenv(EnvSlackWebhookURL)
	if len(webhookURL) != 0 {
		o.notifier = notify.NewSlackWebhook(webhookURL)
	}

	return nil
}

func (o *ReleaseOptions) Run(cmd *cobra.Command) error {
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
	hostingClient := hosting.NewClient(o.hostingCfg)
	distClient := distribute.NewClient(o.distCfg)

	// Filled by the read-changelog stage, consumed by publish and
	// distribute.
	var section string
	var plainNotes string

	p := lane.New("release", o.completion(&plainNotes))

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

				err = xcode.Test(ctx, o.params.Scheme)
				if err != nil {
					return err
				}

				if o.RunReview {
					return xcode.Review(ctx)
				}

				return nil
			},
		},
		lane.Stage{
			Name: "bump-version",
			Run: func(ctx context.Context) error {
				err := xcode.BumpBuildNumber(ctx)
				if err != nil {
					return err
				}

				return xcode.SetVersion(ctx, o.Version)
			},
		},
		lane.Stage{
			Name: "read-changelog",
			Run: func(ctx context.Context) error {
				var err error
				section, err = changelog.ExtractFile(o.ChangelogPath, o.Version)
				if err != nil {
					return err
				}

				plainNotes = changelog.Strip(section)

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
			Name: "publish-release",
			Run: func(ctx context.Context) error {
				repo, err := gittools.OpenWorkingCopy(".")
				if err != nil && len(o.RepoURL) != 0 {
					cache := gittools.NewRepoCache(filepath.Join(o.DeployDir, "repo-cache"))
					repo, err = cache.OpenOrClone(ctx, o.RepoURL)
				}
				if err != nil {
					return fmt.Errorf("can't open release repository: %w", err)
				}

				err = gittools.TagRelease(ctx, repo, o.Version, fmt.Sprintf("Release %s (%s)", o.Version, o.BuildNumber))
				if err != nil {
					return err
				}

				url, err := hostingClient.CreateRelease(ctx, hosting.Release{
					TagName: o.Version,
					Name:    o.Version,
					Body:    section,
				})
				if err != nil {
					return err
				}
				klog.Infof("Release published at %q", url)

				return nil
			},
		},
		lane.Stage{
			Name: "upload-symbols",
			Run: func(ctx context.Context) error {
				return o.uploadSymbols(ctx, distClient)
			},
		},
		lane.Stage{
			Name: "distribute-build",
			Run: func(ctx context.Context) error {
				return distClient.UploadBuild(ctx, toolchain.ArtifactPath(o.params), plainNotes, o.TesterGroups)
			},
		},
		lane.Stage{
			Name: "refresh-symbols",
			Run: func(ctx context.Context) error {
				return distClient.RefreshSymbols(ctx, o.Version, o.BuildNumber, o.DeployDir)
			},
		},
		lane.Stage{
			Name: "archive-artifacts",
			Run: func(ctx context.Context) error {
				return o.archiveArtifacts(ctx)
			},
		},
	)

	p.Add(summaryStage(p, o.Out))

	return p.Run(ctx)
}

func (o *ReleaseOptions) uploadSymbols(ctx context.Context, distClient *distribute.Client) error {
	archives, err := distribute.FindSymbolArchives(osfs.New(o.DeployDir), ".")
	if err != nil {
		return fmt.Errorf("can't scan %q for symbol archives: %w", o.DeployDir, err)
	}

	if len(archives) == 0 {
		return fmt.Errorf("no symbol archives found under %q", o.DeployDir)
	}

	for _, a := range archives {
		err = distClient.UploadSymbols(ctx, filepath.Join(o.DeployDir, a))
		if err != nil {
			return err
		}
	}

	return nil
}

func (o *ReleaseOptions) archiveArtifacts(ctx context.Context) error {
	if len(o.ArchiveBucket) == 0 {
		klog.V(2).Info("No archive bucket configured, skipping artifact archival.")
		return nil
	}

	uploader, err := archive.NewUploader(o.ArchiveBucket)
	if err != nil {
		return err
	}

	paths := []string{toolchain.ArtifactPath(o.params)}

	archives, err := distribute.FindSymbolArchives(osfs.New(o.DeployDir), ".")
	if err != nil {
		return err
	}
	for _, a := range archives {
		paths = append(paths, filepath.Join(o.DeployDir, a))
	}

	buildLog := filepath.Join(o.DeployDir, "build.log")
	if _, err := os.Stat(buildLog); err == nil {
		paths = append(paths, buildLog)
	}

	prefix := fmt.Sprintf("%s/%s-%s", o.ProductName, o.Version, o.BuildNumber)

	return uploader.Archive(ctx, prefix, paths...)
}

func (o *ReleaseOptions) completion(plainNotes *string) lane.CompletionFunc {
	return func(ctx context.Context, failedStage string, err error) {
		n := notify.Notification{
			Success: err == nil,
			Fields: []notify.Field{
				{Name: "Lane", Value: "release"},
				{Name: "Version", Value: o.Version},
				{Name: "Build", Value: o.BuildNumber},
			},
		}

		if err != nil {
			n.Title = fmt.Sprintf("%s %s release failed", o.ProductName, o.Version)
			n.Text = err.Error()
		} else {
			n.Title = fmt.Sprintf("%s %s released", o.ProductName, o.Version)
			n.Text = *plainNotes
		}

		perr := o.notifier.Publish(ctx, n)
		if perr != nil {
			klog.Errorf("Can't deliver completion notification: %v", perr)
		}
	}
}
