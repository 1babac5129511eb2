// Package model contains the domain value types shared across the application.
package model

// RepoRef identifies a repository or project on a source-control host.
// For GitHub it is the "owner/repo" full name; for GitLab it is either the
// numeric project ID or the "group/project" path, both of which the GitLab
// API accepts interchangeably.
type RepoRef string
