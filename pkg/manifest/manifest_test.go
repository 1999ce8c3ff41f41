package manifest

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shiplane-io/shiplane/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testManifest = `taps:
  - homebrew/cask-fonts
formulas:
  - name: git
  - name: swiftlint
  - name: wget
    args: ["--HEAD"]
casks:
  - visual-studio-code
  - slack
appstore:
  - name: Xcode
    id: 497799835
`

func writeManifest(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "packages.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	return path
}

func TestLoad(t *testing.T) {
	m, err := Load(writeManifest(t, testManifest))
	require.NoError(t, err)

	assert.Equal(t, []string{"homebrew/cask-fonts"}, m.Taps)
	assert.Equal(t, []Formula{
		{Name: "git"},
		{Name: "swiftlint"},
		{Name: "wget", Args: []string{"--HEAD"}},
	}, m.Formulas)
	assert.Equal(t, []string{"visual-studio-code", "slack"}, m.Casks)
	assert.Equal(t, []App{{Name: "Xcode", ID: 497799835}}, m.AppStore)
	assert.Equal(t, 7, m.Len())
}

func TestLoadRejectsInvalidManifests(t *testing.T) {
	tt := []struct {
		name        string
		content     string
		errContains string
	}{
		{
			name:        "duplicate formula",
			content:     "formulas:\n  - name: git\n  - name: git\n",
			errContains: `duplicate formula "git"`,
		},
		{
			name:        "empty cask name",
			content:     "casks:\n  - \"\"\n",
			errContains: "cask with empty name",
		},
		{
			name:        "appstore app without id",
			content:     "appstore:\n  - name: Xcode\n",
			errContains: `appstore app "Xcode" has invalid id 0`,
		},
		{
			name:        "not yaml",
			content:     "{{{",
			errContains: "can't decode manifest",
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeManifest(t, tc.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errContains)
		})
	}
}

func TestInstallerDryRunPrintsPlanWithoutExecuting(t *testing.T) {
	m, err := Load(writeManifest(t, testManifest))
	require.NoError(t, err)

	var out bytes.Buffer
	i := NewInstaller(nil, api.DefaultToolchain(), true, &out)

	require.NoError(t, i.Install(context.Background(), m))

	plan := out.String()
	assert.Contains(t, plan, "would run: brew tap homebrew/cask-fonts")
	assert.Contains(t, plan, "would run: brew install wget --HEAD")
	assert.Contains(t, plan, "would run: brew install --cask slack")
	assert.Contains(t, plan, "would run: mas install 497799835")
}
