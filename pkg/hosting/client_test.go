package hosting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shiplane-io/shiplane/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRelease(t *testing.T) {
	var gotPath, gotAuth string
	var gotRelease Release

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRelease))

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":       1,
			"html_url": "https://git.example.com/sailcraft/app/releases/2.4.0",
		})
	}))
	defer server.Close()

	c := NewClient(api.HostingConfig{
		BaseURL: server.URL,
		Owner:   "sailcraft",
		Repo:    "app",
		Token:   "t0ken",
	})

	url, err := c.CreateRelease(context.Background(), Release{
		TagName: "2.4.0",
		Name:    "2.4.0",
		Body:    "* Offline mode",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://git.example.com/sailcraft/app/releases/2.4.0", url)
	assert.Equal(t, "/repos/sailcraft/app/releases", gotPath)
	assert.Equal(t, "token t0ken", gotAuth)
	assert.Equal(t, "2.4.0", gotRelease.TagName)
	assert.Equal(t, "2.4.0", gotRelease.Name)
	assert.Equal(t, "* Offline mode", gotRelease.Body)
}

func TestCreateReleaseSurfacesAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Validation Failed"}`, http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	c := NewClient(api.HostingConfig{BaseURL: server.URL, Owner: "o", Repo: "r"})

	_, err := c.CreateRelease(context.Background(), Release{TagName: "2.4.0"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
	assert.Contains(t, err.Error(), "Validation Failed")
}
