package shiplane

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/shiplane-io/shiplane/pkg/cmd/genericclioptions"
	cmdutil "github.com/shiplane-io/shiplane/pkg/cmd/util"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

const envFile = ".env"

func NewShiplaneCommand(streams genericclioptions.IOStreams) *cobra.Command {
	// Parent command to which all lanes are added.
	rootCmd := &cobra.Command{
		Use:   "shiplane",
		Short: "shiplane runs the named release lanes for a mobile app",
		Long:  "shiplane runs the named release lanes for a mobile app: testing, version bumps, building, publishing and distribution, each delegated to the external toolchain.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			err := godotenv.Overload(envFile)
			if err != nil {
				if !os.IsNotExist(err) {
					return fmt.Errorf("can't load %q: %w", envFile, err)
				}
				klog.V(4).Infof("No %q file present.", envFile)
			}

			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	rootCmd.AddCommand(
		NewReleaseCommand(streams),
		NewBetaCommand(streams),
		NewTestCommand(streams),
		NewBootstrapCommand(streams),
		NewCheckEnvCommand(streams),
	)

	cmdutil.InstallKlog(rootCmd)

	return rootCmd
}
