package api

import (
	"fmt"
)

// ReleaseParams is the flat parameter bag a lane invocation runs with.
// Values come from flags with environment fallbacks; lanes never take
// positional arguments.
type ReleaseParams struct {
	ProductName       string
	Version           string
	BuildNumber       string
	PublishingAccount string
	TesterGroups      []string

	TeamID   string
	BundleID string
	Scheme   string
	Target   string

	DeployDir         string
	ChangelogPath     string
	NotesPath         string
	ExportOptionsPath string

	RunReview bool
}

type requiredParam struct {
	name  string
	empty func(p *ReleaseParams) bool
}

// Required parameters are checked in this order; validation stops at
// the first missing one, before any external tool is invoked.
var requiredParams = []requiredParam{
	{"product-name", func(p *ReleaseParams) bool { return len(p.ProductName) == 0 }},
	{"build-number", func(p *ReleaseParams) bool { return len(p.BuildNumber) == 0 }},
	{"publishing-account", func(p *ReleaseParams) bool { return len(p.PublishingAccount) == 0 }},
	{"tester-groups", func(p *ReleaseParams) bool { return len(p.TesterGroups) == 0 }},
}

func (p *ReleaseParams) ValidateRequired() error {
	for _, r := range requiredParams {
		if r.empty(p) {
			return fmt.Errorf("required parameter %q is missing or empty", r.name)
		}
	}

	return nil
}

// Toolchain holds the external tools every heavyweight stage delegates
// to. Zero values fall back to the defaults from DefaultToolchain.
type Toolchain struct {
	XcodebuildPath string
	AgvtoolPath    string
	ReviewToolPath string
	BrewPath       string
	MasPath        string

	// DepsCommand installs project dependencies before the test stage.
	DepsCommand []string

	// Destination is the device profile the test runner targets.
	Destination string
}

func DefaultToolchain() Toolchain {
	return Toolchain{
		XcodebuildPath: "xcodebuild",
		AgvtoolPath:    "agvtool",
		ReviewToolPath: "swiftlint",
		BrewPath:       "brew",
		MasPath:        "mas",
		DepsCommand:    []string{"bundle", "exec", "pod", "install"},
		Destination:    "platform=iOS Simulator,name=iPhone 15",
	}
}

// HostingConfig identifies the source-hosting account releases are
// published under.
type HostingConfig struct {
	BaseURL string
	Owner   string
	Repo    string
	Token   string
}

// DistributionConfig identifies the crash-reporting and beta
// distribution services builds and symbols are uploaded to.
type DistributionConfig struct {
	BetaURL          string
	BetaToken        string
	CrashReportURL   string
	CrashReportToken string

	// StoreSymbolsURL is where recompiled dSYMs are fetched from after
	// the store ingests a build.
	StoreSymbolsURL string

	DefaultTesterGroup string
}
