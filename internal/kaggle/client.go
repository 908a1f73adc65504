// Package kaggle is the source-platform client. It lists a user's notebooks
// and pulls notebook bundles, always in the saved form that includes cell
// outputs.
package kaggle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pintyy/kaggle-sync/internal/domain"
)

const (
	defaultBaseURL  = "https://www.kaggle.com/api/v1"
	defaultTimeout  = 30 * time.Second
	defaultPageSize = 100
	metadataFile    = "kernel-metadata.json"
)

// Options configures a Client
type Options struct {
	BaseURL  string        // defaults to the public Kaggle API
	Timeout  time.Duration // cap on any single request
	PageSize int           // listing page size, the API caps it at 100
}

// Client talks to the Kaggle API with basic-auth credentials. It never reads
// the environment; credentials are injected at construction.
type Client struct {
	baseURL  string
	username string
	key      string
	pageSize int
	http     *http.Client
}

// New creates a Client for the given credentials
func New(username, key string, opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.PageSize <= 0 || opts.PageSize > 100 {
		opts.PageSize = defaultPageSize
	}
	return &Client{
		baseURL:  strings.TrimSuffix(opts.BaseURL, "/"),
		username: username,
		key:      key,
		pageSize: opts.PageSize,
		http:     &http.Client{Timeout: opts.Timeout},
	}
}

// kernel is the listing entry returned by the API
type kernel struct {
	Ref    string `json:"ref"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

// pullResponse is the payload of /kernels/pull. For notebooks the blob
// source is the .ipynb document as last saved, outputs included.
type pullResponse struct {
	Metadata json.RawMessage `json:"metadata"`
	Blob     struct {
		KernelType string `json:"kernelType"`
		Language   string `json:"language"`
		Slug       string `json:"slug"`
		Source     string `json:"source"`
	} `json:"blob"`
}

// ListNotebooks returns every notebook of user, in the order the API lists
// them. An empty result is not an error.
func (c *Client) ListNotebooks(ctx context.Context, user string) ([]domain.NotebookRef, error) {
	var refs []domain.NotebookRef

	for page := 1; ; page++ {
		query := url.Values{
			"user":     {user},
			"page":     {strconv.Itoa(page)},
			"pageSize": {strconv.Itoa(c.pageSize)},
		}

		var kernels []kernel
		if err := c.getJSON(ctx, "/kernels/list", query, &kernels); err != nil {
			return nil, fmt.Errorf("list notebooks for %s: %w", user, err)
		}

		for _, k := range kernels {
			refs = append(refs, refFromKernel(k, user))
		}

		if len(kernels) < c.pageSize {
			return refs, nil
		}
	}
}

// FetchBundle pulls one notebook into dir and returns the staged bundle.
// A notebook deleted between listing and fetch is a permanent failure for
// that notebook only.
func (c *Client) FetchBundle(ctx context.Context, ref domain.NotebookRef, dir string) (domain.NotebookBundle, error) {
	query := url.Values{
		"userName":   {ref.Owner},
		"kernelSlug": {ref.Slug},
	}

	var pull pullResponse
	if err := c.getJSON(ctx, "/kernels/pull", query, &pull); err != nil {
		if domain.IsNotFound(err) {
			return domain.NotebookBundle{}, domain.Permanent(fmt.Errorf("notebook %s no longer exists", ref.Ref()))
		}
		return domain.NotebookBundle{}, fmt.Errorf("pull %s: %w", ref.Ref(), err)
	}

	if pull.Blob.Source == "" {
		return domain.NotebookBundle{}, domain.Permanent(fmt.Errorf("notebook %s has no source", ref.Ref()))
	}

	bundle := domain.NotebookBundle{
		NotebookPath: filepath.Join(dir, ref.Slug+".ipynb"),
	}
	if err := os.WriteFile(bundle.NotebookPath, []byte(pull.Blob.Source), 0644); err != nil {
		return domain.NotebookBundle{}, domain.Permanent(fmt.Errorf("staging notebook: %w", err))
	}
	bundle.Bytes = int64(len(pull.Blob.Source))

	if len(pull.Metadata) > 0 && string(pull.Metadata) != "null" {
		bundle.MetadataPath = filepath.Join(dir, metadataFile)
		if err := os.WriteFile(bundle.MetadataPath, pull.Metadata, 0644); err != nil {
			return domain.NotebookBundle{}, domain.Permanent(fmt.Errorf("staging metadata: %w", err))
		}
		bundle.Bytes += int64(len(pull.Metadata))
	}

	return bundle, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.Permanent(err)
	}
	req.SetBasicAuth(c.username, c.key)

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Transient(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return classifyStatus(resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.Permanent(fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

// classifyStatus maps an API status to the error taxonomy: rate limits and
// server errors are worth retrying, credential rejections abort the run,
// anything else will not improve on retry.
func classifyStatus(code int) error {
	err := fmt.Errorf("kaggle api status %d", code)
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return domain.Auth(err)
	case code == http.StatusNotFound:
		return domain.NotFound(err)
	case code == http.StatusTooManyRequests || code >= 500:
		return domain.Transient(err)
	default:
		return domain.Permanent(err)
	}
}

func refFromKernel(k kernel, fallbackOwner string) domain.NotebookRef {
	owner, slug := fallbackOwner, k.Ref
	if i := strings.IndexByte(k.Ref, '/'); i >= 0 {
		owner, slug = k.Ref[:i], k.Ref[i+1:]
	}
	return domain.NotebookRef{Owner: owner, Slug: slug, Title: k.Title}
}
