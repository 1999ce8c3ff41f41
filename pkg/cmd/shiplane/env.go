package shiplane

import (
	"os"
	"strings"
)

// Environment variables consumed by the lanes. Tokens and credentials
// never travel through flags.
const (
	EnvGithubToken      = "GITHUB_TOKEN"
	EnvSlackWebhookURL  = "SLACK_WEBHOOK_URL"
	EnvDeployDir        = "SHIPLANE_DEPLOY_DIR"
	EnvBetaUploadToken  = "BETA_UPLOAD_TOKEN"
	EnvCrashReportToken = "CRASH_REPORT_TOKEN"

	EnvTeamID       = "SHIPLANE_TEAM_ID"
	EnvBundleID     = "SHIPLANE_BUNDLE_ID"
	EnvScheme       = "SHIPLANE_SCHEME"
	EnvTarget       = "SHIPLANE_TARGET"
	EnvTesterGroups = "SHIPLANE_TESTER_GROUPS"
)

// requiredEnv is what the check-env lane verifies.
var requiredEnv = []string{
	EnvGithubToken,
	EnvSlackWebhookURL,
	EnvDeployDir,
	EnvBetaUploadToken,
	EnvCrashReportToken,
	EnvTeamID,
	EnvBundleID,
	EnvScheme,
	EnvTarget,
	EnvTesterGroups,
}

func envOr(key, fallback string) string {
	v := os.Getenv(key)
	if len(v) != 0 {
		return v
	}

	return fallback
}

func splitGroups(s string) []string {
	var groups []string
	for _, g := range strings.Split(s, ",") {
		g = strings.TrimSpace(g)
		if len(g) != 0 {
			groups = append(groups, g)
		}
	}

	return groups
}
