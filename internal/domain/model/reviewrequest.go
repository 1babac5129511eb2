package model

// ReviewRequest represents an open pull request (GitHub) or merge request
// (GitLab) discovered during a poll. Requests are rebuilt fresh on every pass
// and never persisted; the only memory of past reviews is the comment thread
// itself.
type ReviewRequest struct {
	Repo    RepoRef
	Number  int // PR number on GitHub, MR IID on GitLab.
	Title   string
	URL     string
	HeadSHA string // Head commit; used to fetch file contents at the reviewed revision.
}
