package manifest

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/shiplane-io/shiplane/pkg/api"
	"github.com/shiplane-io/shiplane/pkg/toolchain"
	"k8s.io/klog/v2"
)

// Installer applies a manifest by shelling out to the package manager,
// one entry at a time, stopping at the first failure.
type Installer struct {
	runner *toolchain.Runner
	tools  api.Toolchain
	dryRun bool
	out    io.Writer
}

func NewInstaller(runner *toolchain.Runner, tools api.Toolchain, dryRun bool, out io.Writer) *Installer {
	if out == nil {
		out = io.Discard
	}

	return &Installer{
		runner: runner,
		tools:  tools,
		dryRun: dryRun,
		out:    out,
	}
}

func (i *Installer) Install(ctx context.Context, m *Manifest) error {
	klog.Infof("Applying package manifest with %d entries", m.Len())

	for _, tap := range m.Taps {
		err := i.run(ctx, i.tools.BrewPath, "tap", tap)
		if err != nil {
			return fmt.Errorf("can't tap %q: %w", tap, err)
		}
	}

	for _, f := range m.Formulas {
		args := append([]string{"install", f.Name}, f.Args...)
		err := i.run(ctx, i.tools.BrewPath, args...)
		if err != nil {
			return fmt.Errorf("can't install formula %q: %w", f.Name, err)
		}
	}

	for _, cask := range m.Casks {
		err := i.run(ctx, i.tools.BrewPath, "install", "--cask", cask)
		if err != nil {
			return fmt.Errorf("can't install cask %q: %w", cask, err)
		}
	}

	for _, app := range m.AppStore {
		err := i.run(ctx, i.tools.MasPath, "install", strconv.FormatInt(app.ID, 10))
		if err != nil {
			return fmt.Errorf("can't install appstore app %q (%d): %w", app.Name, app.ID, err)
		}
	}

	return nil
}

func (i *Installer) run(ctx context.Context, name string, args ...string) error {
	if i.dryRun {
		fmt.Fprintf(i.out, "would run: %s", name)
		for _, a := range args {
			fmt.Fprintf(i.out, " %s", a)
		}
		fmt.Fprintln(i.out)
		return nil
	}

	return i.runner.Run(ctx, "bootstrap", name, args...)
}
