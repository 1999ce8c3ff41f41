package hosting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shiplane-io/shiplane/pkg/api"
	"k8s.io/klog/v2"
)

const defaultBaseURL = "https://api.github.com"

// Release is the hosted release entry created for a version. The
// version serves as both the tag and the release name.
type Release struct {
	TagName    string `json:"tag_name"`
	Name       string `json:"name"`
	Body       string `json:"body"`
	Draft      bool   `json:"draft"`
	Prerelease bool   `json:"prerelease"`
}

type createdRelease struct {
	ID      int64  `json:"id"`
	HTMLURL string `json:"html_url"`
}

// Client talks to the source-hosting release API.
type Client struct {
	cfg    api.HostingConfig
	client *http.Client
}

func NewClient(cfg api.HostingConfig) *Client {
	if len(cfg.BaseURL) == 0 {
		cfg.BaseURL = defaultBaseURL
	}

	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreateRelease publishes a release entry and returns its URL.
func (c *Client) CreateRelease(ctx context.Context, release Release) (string, error) {
	body := &bytes.Buffer{}
	err := json.NewEncoder(body).Encode(release)
	if err != nil {
		return "", fmt.Errorf("can't encode release %q: %w", release.TagName, err)
	}

	url := fmt.Sprintf("%s/repos/%s/%s/releases", c.cfg.BaseURL, c.cfg.Owner, c.cfg.Repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "token "+c.cfg.Token)

	klog.V(4).Infof("Creating release %q in %s/%s", release.TagName, c.cfg.Owner, c.cfg.Repo)

	res, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("can't create release %q: %w", release.TagName, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return "", fmt.Errorf("can't create release %q: unexpected status %q: %s", release.TagName, res.Status, string(msg))
	}

	created := &createdRelease{}
	err = json.NewDecoder(res.Body).Decode(created)
	if err != nil {
		return "", fmt.Errorf("can't decode release response: %w", err)
	}

	return created.HTMLURL, nil
}
