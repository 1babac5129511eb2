// Package github implements the SourceControl port using the go-github library.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/reviewbot/internal/domain/model"
	"github.com/ericfisherdev/reviewbot/internal/domain/port/driven"
)

// listTimeout bounds every metadata call. Generation latency lives in the
// ollama adapter; nothing here should wait longer than this.
const listTimeout = 10 * time.Second

// Compile-time interface satisfaction check.
var _ driven.SourceControl = (*Client)(nil)

// Client implements the driven.SourceControl port for GitHub.
type Client struct {
	gh *gh.Client
}

// NewClient creates a new GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching; polling the same
//     listing endpoints every pass makes most responses 304s)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with PAT auth)
func NewClient(token string) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	rateLimitClient.Timeout = listTimeout
	client := gh.NewClient(rateLimitClient).WithAuthToken(token)

	return &Client{gh: client}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base
// URL. This constructor is intended for testing, allowing injection of an
// httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &Client{gh: client}, nil
}

// Host returns the host identifier used in logs and review records.
func (c *Client) Host() string { return "github" }

// ListOpenRequests retrieves the open pull requests for repo. It handles
// pagination automatically and maps go-github types to domain model types.
func (c *Client) ListOpenRequests(ctx context.Context, repo model.RepoRef) ([]model.ReviewRequest, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	opts := &gh.PullRequestListOptions{
		State:       "open",
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	var all []model.ReviewRequest

	for {
		prs, resp, err := c.gh.PullRequests.List(ctx, owner, name, opts)
		if err != nil {
			return nil, remoteErr(fmt.Sprintf("listing open pull requests for %s (page %d)", repo, opts.Page), err)
		}

		logRateLimit(resp, string(repo), opts.Page, len(prs))

		for _, pr := range prs {
			all = append(all, model.ReviewRequest{
				Repo:    repo,
				Number:  pr.GetNumber(),
				Title:   pr.GetTitle(),
				URL:     pr.GetHTMLURL(),
				HeadSHA: pr.GetHead().GetSHA(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	if all == nil {
		all = []model.ReviewRequest{}
	}

	return all, nil
}

// ListComments retrieves all PR-level comments (from the Issues API),
// oldest-first, so the trigger scan sees the thread in chronological order.
func (c *Client) ListComments(ctx context.Context, req model.ReviewRequest) ([]model.Comment, error) {
	owner, name, err := splitRepo(req.Repo)
	if err != nil {
		return nil, err
	}

	opts := &gh.IssueListCommentsOptions{
		Sort:        gh.Ptr("created"),
		Direction:   gh.Ptr("asc"),
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	var all []model.Comment

	for {
		comments, resp, err := c.gh.Issues.ListComments(ctx, owner, name, req.Number, opts)
		if err != nil {
			return nil, remoteErr(fmt.Sprintf("listing comments for %s#%d (page %d)", req.Repo, req.Number, opts.Page), err)
		}

		for _, comment := range comments {
			all = append(all, model.Comment{
				Author: comment.GetUser().GetLogin(),
				Body:   comment.GetBody(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// GetDiff returns the pull request's unified diff as raw text.
func (c *Client) GetDiff(ctx context.Context, req model.ReviewRequest) (string, error) {
	owner, name, err := splitRepo(req.Repo)
	if err != nil {
		return "", err
	}

	diff, _, err := c.gh.PullRequests.GetRaw(ctx, owner, name, req.Number, gh.RawOptions{Type: gh.Diff})
	if err != nil {
		return "", remoteErr(fmt.Sprintf("fetching diff for %s#%d", req.Repo, req.Number), err)
	}

	return diff, nil
}

// ListChangedFiles retrieves the files touched by the pull request.
func (c *Client) ListChangedFiles(ctx context.Context, req model.ReviewRequest) ([]model.ChangedFile, error) {
	owner, name, err := splitRepo(req.Repo)
	if err != nil {
		return nil, err
	}

	opts := &gh.ListOptions{PerPage: 100}
	var all []model.ChangedFile

	for {
		files, resp, err := c.gh.PullRequests.ListFiles(ctx, owner, name, req.Number, opts)
		if err != nil {
			return nil, remoteErr(fmt.Sprintf("listing changed files for %s#%d (page %d)", req.Repo, req.Number, opts.Page), err)
		}

		for _, f := range files {
			all = append(all, model.ChangedFile{
				Filename:         f.GetFilename(),
				PreviousFilename: f.GetPreviousFilename(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// GetFileContents returns the complete contents of path at the request's head
// commit.
func (c *Client) GetFileContents(ctx context.Context, req model.ReviewRequest, path string) (string, error) {
	owner, name, err := splitRepo(req.Repo)
	if err != nil {
		return "", err
	}

	file, _, _, err := c.gh.Repositories.GetContents(ctx, owner, name, path,
		&gh.RepositoryContentGetOptions{Ref: req.HeadSHA})
	if err != nil {
		return "", remoteErr(fmt.Sprintf("fetching %s at %s for %s#%d", path, req.HeadSHA, req.Repo, req.Number), err)
	}
	if file == nil {
		return "", fmt.Errorf("fetching %s for %s#%d: path is a directory", path, req.Repo, req.Number)
	}

	contents, err := file.GetContent()
	if err != nil {
		return "", fmt.Errorf("decoding %s for %s#%d: %w", path, req.Repo, req.Number, err)
	}

	return contents, nil
}

// PostComment adds a PR-level comment via the Issues API.
func (c *Client) PostComment(ctx context.Context, req model.ReviewRequest, body string) error {
	owner, name, err := splitRepo(req.Repo)
	if err != nil {
		return err
	}

	_, _, err = c.gh.Issues.CreateComment(ctx, owner, name, req.Number, &gh.IssueComment{Body: gh.Ptr(body)})
	if err != nil {
		return remoteErr(fmt.Sprintf("posting comment on %s#%d", req.Repo, req.Number), err)
	}

	return nil
}

// remoteErr wraps a go-github error as a *driven.RemoteError so the
// orchestrator's failure containment sees a uniform shape across hosts.
func remoteErr(op string, err error) error {
	status := 0
	message := err.Error()

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) {
		if ghErr.Response != nil {
			status = ghErr.Response.StatusCode
		}
		if ghErr.Message != "" {
			message = ghErr.Message
		}
	}

	return fmt.Errorf("%s: %w", op, &driven.RemoteError{Host: "github", Status: status, Message: message})
}

// logRateLimit logs the GitHub API rate limit status after each listing call.
func logRateLimit(resp *gh.Response, endpoint string, page, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"page", page,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Remaining < 100 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}

// splitRepo splits a "owner/repo" reference into its two components.
func splitRepo(repo model.RepoRef) (string, string, error) {
	parts := strings.SplitN(string(repo), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo name %q: expected owner/repo", repo)
	}
	return parts[0], parts[1], nil
}
