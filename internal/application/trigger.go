// Package application contains use-case orchestration services.
package application

import (
	"regexp"
	"strings"

	"github.com/ericfisherdev/reviewbot/internal/domain/model"
)

// modelRequestPattern matches the first whole-word "use" or "using" followed
// by a model token. The token class is wider than \w so names like
// "codellama:13b" or "qwen2.5-coder" survive intact.
var modelRequestPattern = regexp.MustCompile(`(?i)\b(?:use|using)\b\s+([\w.:-]+)`)

// DecideReview scans a request's comment thread, oldest to newest, and
// decides whether a review is newly requested from the bot.
//
// A comment authored by the bot marks every earlier mention as answered.
// A comment mentioning "@{botIdentity}" arms the trigger and becomes the
// triggering comment, superseding any earlier mention. The author check takes
// precedence over the mention check so the bot's own replies, which usually
// quote the mention, never re-trigger it. An empty thread never triggers.
func DecideReview(comments []model.Comment, botIdentity string) model.TriggerDecision {
	mention := "@" + botIdentity

	var decision model.TriggerDecision
	for _, c := range comments {
		switch {
		case strings.Contains(c.Author, botIdentity):
			decision.Triggered = false
		case strings.Contains(c.Body, mention):
			decision.Triggered = true
			decision.TriggerBody = c.Body
		}
	}

	if !decision.Triggered {
		return model.TriggerDecision{}
	}

	decision.RequestedModel = ExtractRequestedModel(decision.TriggerBody)
	return decision
}

// ExtractRequestedModel returns the model token following the first
// case-insensitive "use"/"using" in text, or "" when there is none. No
// validation happens here; the orchestrator checks the allow-list.
func ExtractRequestedModel(text string) string {
	m := modelRequestPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}
