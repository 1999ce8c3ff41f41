package distribute

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shiplane-io/shiplane/pkg/api"
	"k8s.io/klog/v2"
)

// Client uploads builds and debug symbols to the beta-distribution and
// crash-reporting services.
type Client struct {
	cfg    api.DistributionConfig
	client *http.Client
}

func NewClient(cfg api.DistributionConfig) *Client {
	return &Client{
		cfg: cfg,
		client: &http.Client{
			// Uploads carry whole build artifacts.
			Timeout: 15 * time.Minute,
		},
	}
}

// UploadBuild sends the packaged artifact to the beta service with the
// plain-text release notes and the tester groups it is distributed to.
func (c *Client) UploadBuild(ctx context.Context, artifactPath, notes string, groups []string) error {
	fields := map[string]string{
		"notes":  notes,
		"groups": strings.Join(groups, ","),
	}

	klog.V(4).Infof("Uploading build %q to groups %q", artifactPath, strings.Join(groups, ","))

	return c.upload(ctx, c.cfg.BetaURL, c.cfg.BetaToken, "ipa", artifactPath, fields)
}

// UploadSymbols sends a dSYM archive to the crash-reporting service.
func (c *Client) UploadSymbols(ctx context.Context, dsymPath string) error {
	klog.V(4).Infof("Uploading symbols %q", dsymPath)

	return c.upload(ctx, c.cfg.CrashReportURL, c.cfg.CrashReportToken, "dsym", dsymPath, nil)
}

// DownloadSymbols fetches the store-recompiled dSYM archive for a
// version/build pair into destDir and returns its path.
func (c *Client) DownloadSymbols(ctx context.Context, version, build, destDir string) (string, error) {
	u, err := url.Parse(c.cfg.StoreSymbolsURL)
	if err != nil {
		return "", fmt.Errorf("can't parse store symbols URL: %w", err)
	}
	q := u.Query()
	q.Set("version", version)
	q.Set("build", build)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}

	res, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("can't download symbols for %s (%s): %w", version, build, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("can't download symbols for %s (%s): unexpected status %q", version, build, res.Status)
	}

	err = os.MkdirAll(destDir, 0755)
	if err != nil {
		return "", err
	}

	path := filepath.Join(destDir, fmt.Sprintf("%s-%s.dSYM.zip", version, build))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	_, err = io.Copy(f, res.Body)
	if err != nil {
		return "", fmt.Errorf("can't write symbols to %q: %w", path, err)
	}

	return path, nil
}

// RefreshSymbols re-downloads the dSYMs the store recompiled after
// ingesting the build and re-uploads them to the crash reporter. The
// recompilation is an upstream quirk; without the refresh the crash
// reporter holds stale symbols.
func (c *Client) RefreshSymbols(ctx context.Context, version, build, deployDir string) error {
	path, err := c.DownloadSymbols(ctx, version, build, deployDir)
	if err != nil {
		return err
	}

	return c.UploadSymbols(ctx, path)
}

func (c *Client) upload(ctx context.Context, endpoint, token, fileField, path string, fields map[string]string) error {
	if len(endpoint) == 0 {
		return fmt.Errorf("upload endpoint for %q is not configured", fileField)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("can't open %q: %w", path, err)
	}
	defer f.Close()

	// The body is streamed through a pipe so artifacts are never held
	// in memory whole.
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		var err error
		defer func() {
			pw.CloseWithError(err)
		}()

		for k, v := range fields {
			err = mw.WriteField(k, v)
			if err != nil {
				return
			}
		}

		var part io.Writer
		part, err = mw.CreateFormFile(fileField, filepath.Base(path))
		if err != nil {
			return
		}

		_, err = io.Copy(part, f)
		if err != nil {
			return
		}

		err = mw.Close()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, pr)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if len(token) != 0 {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("can't upload %q: %w", path, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("can't upload %q: unexpected status %q: %s", path, res.Status, string(msg))
	}

	return nil
}
