package distribute

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/shiplane-io/shiplane/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArtifact(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	return path
}

func TestUploadBuild(t *testing.T) {
	var gotNotes, gotGroups, gotAuth, gotFilename, gotContent string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotNotes = r.FormValue("notes")
		gotGroups = r.FormValue("groups")
		gotAuth = r.Header.Get("Authorization")

		f, fh, err := r.FormFile("ipa")
		require.NoError(t, err)
		defer f.Close()
		gotFilename = fh.Filename
		content, err := io.ReadAll(f)
		require.NoError(t, err)
		gotContent = string(content)
	}))
	defer server.Close()

	c := NewClient(api.DistributionConfig{
		BetaURL:   server.URL,
		BetaToken: "beta-t0ken",
	})

	artifact := writeArtifact(t, "Sailcraft.ipa", "signed-bytes")
	err := c.UploadBuild(context.Background(), artifact, "* Offline mode", []string{"internal", "beta-customers"})
	require.NoError(t, err)

	assert.Equal(t, "* Offline mode", gotNotes)
	assert.Equal(t, "internal,beta-customers", gotGroups)
	assert.Equal(t, "Bearer beta-t0ken", gotAuth)
	assert.Equal(t, "Sailcraft.ipa", gotFilename)
	assert.Equal(t, "signed-bytes", gotContent)
}

func TestUploadSymbolsSurfacesServiceErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad symbols", http.StatusBadRequest)
	}))
	defer server.Close()

	c := NewClient(api.DistributionConfig{CrashReportURL: server.URL})

	dsym := writeArtifact(t, "Sailcraft.app.dSYM.zip", "symbols")
	err := c.UploadSymbols(context.Background(), dsym)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "bad symbols")
}

func TestRefreshSymbols(t *testing.T) {
	var gotVersion, gotBuild string
	uploads := 0

	store := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotVersion = r.URL.Query().Get("version")
		gotBuild = r.URL.Query().Get("build")
		_, _ = w.Write([]byte("recompiled-symbols"))
	}))
	defer store.Close()

	crash := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, _, err := r.FormFile("dsym")
		require.NoError(t, err)
		uploads++
	}))
	defer crash.Close()

	c := NewClient(api.DistributionConfig{
		StoreSymbolsURL: store.URL,
		CrashReportURL:  crash.URL,
	})

	deployDir := t.TempDir()
	err := c.RefreshSymbols(context.Background(), "2.4.0", "1342", deployDir)
	require.NoError(t, err)

	assert.Equal(t, "2.4.0", gotVersion)
	assert.Equal(t, "1342", gotBuild)
	assert.Equal(t, 1, uploads)

	downloaded, err := os.ReadFile(filepath.Join(deployDir, "2.4.0-1342.dSYM.zip"))
	require.NoError(t, err)
	assert.Equal(t, "recompiled-symbols", string(downloaded))
}

func TestFindSymbolArchives(t *testing.T) {
	fs := memfs.New()

	for _, path := range []string{
		"deploy/Sailcraft.app.dSYM.zip",
		"deploy/frameworks/Sync.framework.dSYM.zip",
		"deploy/Sailcraft.ipa",
		"deploy/build.log",
	} {
		require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0755))
		f, err := fs.Create(path)
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}

	archives, err := FindSymbolArchives(fs, "deploy")
	require.NoError(t, err)

	sort.Strings(archives)
	assert.Equal(t, []string{
		"deploy/Sailcraft.app.dSYM.zip",
		"deploy/frameworks/Sync.framework.dSYM.zip",
	}, archives)
}
