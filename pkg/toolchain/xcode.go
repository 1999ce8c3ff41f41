package toolchain

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/shiplane-io/shiplane/pkg/api"
)

// Xcode drives the platform build toolchain. Every method is a thin
// invocation of an external tool; shiplane owns only the arguments.
type Xcode struct {
	runner *Runner
	tools  api.Toolchain
}

func NewXcode(runner *Runner, tools api.Toolchain) *Xcode {
	return &Xcode{
		runner: runner,
		tools:  tools,
	}
}

// InstallDeps installs project dependencies before the test stage.
func (x *Xcode) InstallDeps(ctx context.Context) error {
	cmd := x.tools.DepsCommand
	if len(cmd) == 0 {
		return fmt.Errorf("dependency install command is not configured")
	}

	return x.runner.Run(ctx, "deps", cmd[0], cmd[1:]...)
}

// Test runs the test action against the configured device profile.
func (x *Xcode) Test(ctx context.Context, scheme string) error {
	return x.runner.Run(ctx, "test", x.tools.XcodebuildPath,
		"test",
		"-scheme", scheme,
		"-destination", x.tools.Destination,
	)
}

// Review runs the static review tool in strict mode.
func (x *Xcode) Review(ctx context.Context) error {
	return x.runner.Run(ctx, "review", x.tools.ReviewToolPath, "lint", "--strict")
}

// BumpBuildNumber increments the build counter by one; the arithmetic
// is the versioning tool's, not ours.
func (x *Xcode) BumpBuildNumber(ctx context.Context) error {
	return x.runner.Run(ctx, "bump", x.tools.AgvtoolPath, "next-version", "-all")
}

// SetVersion sets the marketing version string.
func (x *Xcode) SetVersion(ctx context.Context, version string) error {
	return x.runner.Run(ctx, "bump", x.tools.AgvtoolPath, "new-marketing-version", version)
}

// Build produces the signed package: clean archive and export with
// debug symbols and bitcode enabled, per the export options file.
func (x *Xcode) Build(ctx context.Context, p api.ReleaseParams) error {
	archivePath := filepath.Join(p.DeployDir, p.ProductName+".xcarchive")

	args := []string{
		"clean", "archive",
		"-scheme", p.Scheme,
		"-archivePath", archivePath,
		"DEBUG_INFORMATION_FORMAT=dwarf-with-dsym",
		"ENABLE_BITCODE=YES",
	}
	if len(p.TeamID) != 0 {
		args = append(args, "DEVELOPMENT_TEAM="+p.TeamID)
	}
	if len(p.BundleID) != 0 {
		args = append(args, "PRODUCT_BUNDLE_IDENTIFIER="+p.BundleID)
	}

	err := x.runner.Run(ctx, "build", x.tools.XcodebuildPath, args...)
	if err != nil {
		return err
	}

	return x.runner.Run(ctx, "build", x.tools.XcodebuildPath,
		"-exportArchive",
		"-archivePath", archivePath,
		"-exportPath", p.DeployDir,
		"-exportOptionsPlist", p.ExportOptionsPath,
	)
}

// ArtifactPath is where Build leaves the signed package.
func ArtifactPath(p api.ReleaseParams) string {
	return filepath.Join(p.DeployDir, p.ProductName+".ipa")
}
