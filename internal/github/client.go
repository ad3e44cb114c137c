// Package github stores a single data file in a GitHub repository through the
// contents API. The file's blob sha is passed back on update so GitHub rejects
// writes based on a stale copy.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
)

const DefaultAPIURL = "https://api.github.com"

// Target names the file being synchronized.
type Target struct {
	Owner  string
	Repo   string
	Branch string
	Path   string
}

type Client struct {
	repos  *gh.RepositoriesService
	target Target
	err    error
}

// NewClient returns a client that authenticates every request with token.
func NewClient(ctx context.Context, apiURL, token string, target Target) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return NewClientWithHTTP(apiURL, target, oauth2.NewClient(ctx, ts))
}

// NewClientWithHTTP uses httpClient as is; it must add credentials itself.
// An unparsable apiURL makes every call fail.
func NewClientWithHTTP(apiURL string, target Target, httpClient *http.Client) *Client {
	client := gh.NewClient(httpClient)
	c := &Client{repos: client.Repositories, target: target}

	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	base, err := url.Parse(strings.TrimRight(apiURL, "/") + "/")
	if err != nil {
		c.err = fmt.Errorf("invalid GitHub API URL %q: %w", apiURL, err)
		return c
	}
	client.BaseURL = base
	return c
}

// StatusCode returns the HTTP status carried by a contents API error, or 0.
func StatusCode(err error) int {
	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		return respErr.Response.StatusCode
	}
	return 0
}

// GetContent returns the current blob sha of the data file. found is false when the
// file does not exist on the branch yet.
func (c *Client) GetContent(ctx context.Context) (sha string, found bool, err error) {
	if c.err != nil {
		return "", false, c.err
	}

	file, _, resp, err := c.repos.GetContents(ctx, c.target.Owner, c.target.Repo, c.target.Path,
		&gh.RepositoryContentGetOptions{Ref: c.target.Branch})
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", c.target.Path, err)
	}
	if file == nil {
		return "", false, fmt.Errorf("%s is a directory", c.target.Path)
	}
	return file.GetSHA(), true, nil
}

// PutContent creates the data file, or replaces it when sha names the version
// being overwritten.
func (c *Client) PutContent(ctx context.Context, message string, content []byte, sha string) error {
	if c.err != nil {
		return c.err
	}

	opts := &gh.RepositoryContentFileOptions{
		Message: gh.Ptr(message),
		Content: content,
		Branch:  gh.Ptr(c.target.Branch),
	}

	var err error
	if sha == "" {
		_, _, err = c.repos.CreateFile(ctx, c.target.Owner, c.target.Repo, c.target.Path, opts)
	} else {
		opts.SHA = gh.Ptr(sha)
		_, _, err = c.repos.UpdateFile(ctx, c.target.Owner, c.target.Repo, c.target.Path, opts)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", c.target.Path, err)
	}
	return nil
}
