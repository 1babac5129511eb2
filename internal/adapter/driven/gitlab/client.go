// Package gitlab implements the SourceControl port against the GitLab v4
// REST API using go-resty for transport.
package gitlab

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ericfisherdev/reviewbot/internal/domain/model"
	"github.com/ericfisherdev/reviewbot/internal/domain/port/driven"
)

const (
	apiPrefix   = "/api/v4"
	listTimeout = 10 * time.Second
	perPage     = 100
)

// Compile-time interface satisfaction check.
var _ driven.SourceControl = (*Client)(nil)

// Client implements the driven.SourceControl port for GitLab.
type Client struct {
	rc *resty.Client
}

// NewClient creates a GitLab API client for the given instance base URL
// (e.g. "https://gitlab.example.com") authenticated with a private token.
func NewClient(baseURL, token string) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/") + apiPrefix).
		SetHeader("PRIVATE-TOKEN", token).
		SetTimeout(listTimeout)

	return &Client{rc: rc}
}

// Host returns the host identifier used in logs and review records.
func (c *Client) Host() string { return "gitlab" }

// ListOpenRequests retrieves the opened merge requests for the given project.
// The project reference may be a numeric ID or a "group/project" path.
func (c *Client) ListOpenRequests(ctx context.Context, repo model.RepoRef) ([]model.ReviewRequest, error) {
	path := fmt.Sprintf("/projects/%s/merge_requests", projectID(repo))

	var all []model.ReviewRequest

	page := "1"
	for page != "" {
		var mrs []mergeRequest
		resp, err := c.rc.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"state":    "opened",
				"per_page": fmt.Sprint(perPage),
				"page":     page,
			}).
			SetResult(&mrs).
			Get(path)
		if err != nil {
			return nil, fmt.Errorf("listing open merge requests for %s: %w", repo, err)
		}
		if resp.IsError() {
			return nil, remoteErr(fmt.Sprintf("listing open merge requests for %s", repo), resp)
		}

		for _, mr := range mrs {
			all = append(all, model.ReviewRequest{
				Repo:    repo,
				Number:  mr.IID,
				Title:   mr.Title,
				URL:     mr.WebURL,
				HeadSHA: mr.SHA,
			})
		}

		page = resp.Header().Get("x-next-page")
	}

	if all == nil {
		all = []model.ReviewRequest{}
	}

	return all, nil
}

// ListComments retrieves the merge request's notes oldest-first. System notes
// (branch pushes, label changes, and so on) are not part of the discussion
// and are skipped.
func (c *Client) ListComments(ctx context.Context, req model.ReviewRequest) ([]model.Comment, error) {
	path := fmt.Sprintf("/projects/%s/merge_requests/%d/notes", projectID(req.Repo), req.Number)

	var all []model.Comment

	page := "1"
	for page != "" {
		var notes []note
		resp, err := c.rc.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"sort":     "asc",
				"order_by": "created_at",
				"per_page": fmt.Sprint(perPage),
				"page":     page,
			}).
			SetResult(&notes).
			Get(path)
		if err != nil {
			return nil, fmt.Errorf("listing notes for %s!%d: %w", req.Repo, req.Number, err)
		}
		if resp.IsError() {
			return nil, remoteErr(fmt.Sprintf("listing notes for %s!%d", req.Repo, req.Number), resp)
		}

		for _, n := range notes {
			if n.System {
				continue
			}
			all = append(all, model.Comment{
				Author: n.Author.Username,
				Body:   n.Body,
			})
		}

		page = resp.Header().Get("x-next-page")
	}

	return all, nil
}

// GetDiff returns the merge request's unified diff as raw text.
func (c *Client) GetDiff(ctx context.Context, req model.ReviewRequest) (string, error) {
	path := fmt.Sprintf("/projects/%s/merge_requests/%d/raw_diffs", projectID(req.Repo), req.Number)

	resp, err := c.rc.R().SetContext(ctx).Get(path)
	if err != nil {
		return "", fmt.Errorf("fetching diff for %s!%d: %w", req.Repo, req.Number, err)
	}
	if resp.IsError() {
		return "", remoteErr(fmt.Sprintf("fetching diff for %s!%d", req.Repo, req.Number), resp)
	}

	return resp.String(), nil
}

// ListChangedFiles retrieves the files touched by the merge request.
func (c *Client) ListChangedFiles(ctx context.Context, req model.ReviewRequest) ([]model.ChangedFile, error) {
	path := fmt.Sprintf("/projects/%s/merge_requests/%d/diffs", projectID(req.Repo), req.Number)

	var all []model.ChangedFile

	page := "1"
	for page != "" {
		var diffs []mergeRequestDiff
		resp, err := c.rc.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"per_page": fmt.Sprint(perPage),
				"page":     page,
			}).
			SetResult(&diffs).
			Get(path)
		if err != nil {
			return nil, fmt.Errorf("listing changed files for %s!%d: %w", req.Repo, req.Number, err)
		}
		if resp.IsError() {
			return nil, remoteErr(fmt.Sprintf("listing changed files for %s!%d", req.Repo, req.Number), resp)
		}

		for _, d := range diffs {
			cf := model.ChangedFile{Filename: d.NewPath}
			if d.RenamedFile {
				cf.PreviousFilename = d.OldPath
			}
			all = append(all, cf)
		}

		page = resp.Header().Get("x-next-page")
	}

	return all, nil
}

// GetFileContents returns the raw contents of path at the request's head
// revision. The file path is URL-escaped as a single component, as the
// repository files API requires.
func (c *Client) GetFileContents(ctx context.Context, req model.ReviewRequest, path string) (string, error) {
	endpoint := fmt.Sprintf("/projects/%s/repository/files/%s/raw", projectID(req.Repo), url.PathEscape(path))

	resp, err := c.rc.R().
		SetContext(ctx).
		SetQueryParam("ref", req.HeadSHA).
		Get(endpoint)
	if err != nil {
		return "", fmt.Errorf("fetching %s from %s!%d: %w", path, req.Repo, req.Number, err)
	}
	if resp.IsError() {
		return "", remoteErr(fmt.Sprintf("fetching %s from %s!%d", path, req.Repo, req.Number), resp)
	}

	return resp.String(), nil
}

// PostComment adds a note on the merge request.
func (c *Client) PostComment(ctx context.Context, req model.ReviewRequest, body string) error {
	path := fmt.Sprintf("/projects/%s/merge_requests/%d/notes", projectID(req.Repo), req.Number)

	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(map[string]string{"body": body}).
		Post(path)
	if err != nil {
		return fmt.Errorf("posting note on %s!%d: %w", req.Repo, req.Number, err)
	}
	if resp.IsError() {
		return remoteErr(fmt.Sprintf("posting note on %s!%d", req.Repo, req.Number), resp)
	}

	return nil
}

// projectID converts a RepoRef into the URL-encoded project identifier the
// GitLab API expects. Numeric IDs pass through unchanged; "group/project"
// paths are escaped as a single component.
func projectID(repo model.RepoRef) string {
	return url.PathEscape(string(repo))
}

// remoteErr maps a non-success response to a *driven.RemoteError. GitLab
// error bodies usually carry {"message": ...} or {"error": ...}; fall back to
// the raw body when neither parses.
func remoteErr(op string, resp *resty.Response) error {
	message := strings.TrimSpace(resp.String())

	var body struct {
		Message json.RawMessage `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		switch {
		case len(body.Message) > 0:
			message = strings.Trim(string(body.Message), `"`)
		case body.Error != "":
			message = body.Error
		}
	}

	return fmt.Errorf("%s: %w", op, &driven.RemoteError{
		Host:    "gitlab",
		Status:  resp.StatusCode(),
		Message: message,
	})
}
