// Package ghrepo is the target-platform client. It probes, creates and
// writes files in GitHub repositories through the REST API.
package ghrepo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"

	"github.com/pintyy/kaggle-sync/internal/domain"
)

const defaultTimeout = 30 * time.Second

// Options configures a Client
type Options struct {
	BaseURL string        // override for tests
	Timeout time.Duration // cap on any single request
}

// Client wraps the GitHub API for the operations the sync loop needs. The
// token is injected at construction; nothing here reads the environment.
type Client struct {
	gh *github.Client
}

// New creates a Client authenticated with token
func New(token string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	gh := github.NewClient(&http.Client{Timeout: opts.Timeout}).WithAuthToken(token)
	if opts.BaseURL != "" {
		base := opts.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		if u, err := url.Parse(base); err == nil {
			gh.BaseURL = u
			gh.UploadURL = u
		}
	}

	return &Client{gh: gh}
}

// AuthenticatedUser resolves the login the token belongs to
func (c *Client) AuthenticatedUser(ctx context.Context) (string, error) {
	user, _, err := c.gh.Users.Get(ctx, "")
	if err != nil {
		return "", fmt.Errorf("resolve authenticated user: %w", classify(err))
	}
	return user.GetLogin(), nil
}

// RepositoryExists probes for owner/name. A missing repository is a regular
// false, not an error.
func (c *Client) RepositoryExists(ctx context.Context, owner, name string) (bool, error) {
	_, _, err := c.gh.Repositories.Get(ctx, owner, name)
	if err == nil {
		return true, nil
	}

	cerr := classify(err)
	if domain.IsNotFound(cerr) {
		return false, nil
	}
	return false, fmt.Errorf("probe %s/%s: %w", owner, name, cerr)
}

// CreateRepository creates a repository for the authenticated user. The
// caller probes first, so the no-conflict case is assumed. No auto-init:
// the first file push creates the initial commit.
func (c *Client) CreateRepository(ctx context.Context, name string, opts domain.CreateOptions) (domain.Repo, error) {
	repo := &github.Repository{
		Name:        github.String(name),
		Description: github.String(opts.Description),
		Private:     github.Bool(opts.Private),
		AutoInit:    github.Bool(false),
	}

	created, _, err := c.gh.Repositories.Create(ctx, "", repo)
	if err != nil {
		return domain.Repo{}, fmt.Errorf("create repository %s: %w", name, classify(err))
	}

	return domain.Repo{
		Owner: created.GetOwner().GetLogin(),
		Name:  created.GetName(),
		URL:   created.GetHTMLURL(),
	}, nil
}

// PutFile creates filePath in the repository or overwrites it if present,
// preserving history at the hosting layer. An empty message derives the
// commit message from the action: "Add <file>" or "Update <file>".
func (c *Client) PutFile(ctx context.Context, repo domain.Repo, filePath string, content []byte, message string) (domain.FileAction, error) {
	opts := &github.RepositoryContentFileOptions{
		Content: content,
	}

	action := domain.FileCreated
	current, _, _, err := c.gh.Repositories.GetContents(ctx, repo.Owner, repo.Name, filePath, nil)
	switch {
	case err == nil && current != nil:
		action = domain.FileUpdated
		opts.SHA = github.String(current.GetSHA())
	case err != nil && !domain.IsNotFound(classify(err)):
		return "", fmt.Errorf("inspect %s in %s/%s: %w", filePath, repo.Owner, repo.Name, classify(err))
	}

	if message == "" {
		verb := "Add"
		if action == domain.FileUpdated {
			verb = "Update"
		}
		message = fmt.Sprintf("%s %s", verb, path.Base(filePath))
	}
	opts.Message = github.String(message)

	if action == domain.FileUpdated {
		_, _, err = c.gh.Repositories.UpdateFile(ctx, repo.Owner, repo.Name, filePath, opts)
	} else {
		_, _, err = c.gh.Repositories.CreateFile(ctx, repo.Owner, repo.Name, filePath, opts)
	}
	if err != nil {
		return "", fmt.Errorf("push %s to %s/%s: %w", filePath, repo.Owner, repo.Name, classify(err))
	}

	return action, nil
}

// classify maps a GitHub API error to the taxonomy. Rate limits come in as
// dedicated go-github types and must be checked before the plain 403 case,
// which means a rejected token.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return domain.Transient(err)
	}

	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		code := ghErr.Response.StatusCode
		switch {
		case code == http.StatusUnauthorized || code == http.StatusForbidden:
			return domain.Auth(err)
		case code == http.StatusNotFound:
			return domain.NotFound(err)
		case code == http.StatusUnprocessableEntity:
			return domain.Permanent(err)
		case code == http.StatusTooManyRequests || code >= 500:
			return domain.Transient(err)
		default:
			return domain.Permanent(err)
		}
	}

	// No structured response: network-level failure.
	return domain.Transient(err)
}
