package model

// PromptMode selects how the code change is embedded in the review prompt.
// The mode is a deployment-wide choice, not a per-request one.
type PromptMode string

const (
	// PromptModeDiff embeds the unified diff, truncated to a bounded prefix.
	PromptModeDiff PromptMode = "diff"
	// PromptModeFiles embeds the complete current contents of every changed
	// file, with no truncation.
	PromptModeFiles PromptMode = "files"
)
