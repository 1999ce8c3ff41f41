package util

import (
	"flag"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const flagLoglevelName = "loglevel"

// InstallKlog wires the cobra loglevel flag into klog's verbosity.
func InstallKlog(cmd *cobra.Command) {
	var flags *pflag.FlagSet = cmd.PersistentFlags()
	flags.Int8(flagLoglevelName, 0, "Set the level of log output (0-10).")

	previousPreRunE := cmd.PersistentPreRunE
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if previousPreRunE != nil {
			err := previousPreRunE(cmd, args)
			if err != nil {
				return err
			}
		}

		loglevel, err := cmd.Flags().GetInt8(flagLoglevelName)
		if err != nil {
			return fmt.Errorf("can't read flag %q: %w", flagLoglevelName, err)
		}

		err = flag.Set("v", strconv.Itoa(int(loglevel)))
		if err != nil {
			return fmt.Errorf("can't set klog verbosity: %w", err)
		}

		return nil
	}
}

func GetLoglevel() string {
	f := flag.Lookup("v")
	if f == nil {
		return "<unset>"
	}

	return f.Value.String()
}
