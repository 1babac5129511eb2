package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ericfisherdev/reviewbot/internal/domain/model"
	"github.com/ericfisherdev/reviewbot/internal/domain/port/driven"
)

// promptDiffLimit bounds how much diff text is embedded in diff-mode prompts
// so they stay within the generation service's context budget.
const promptDiffLimit = 4000

// Target pairs a source-control client with the repositories it watches.
type Target struct {
	Source driven.SourceControl
	Repos  []model.RepoRef
}

// Settings holds the immutable review policy the service runs under.
// It is built once at startup from the validated configuration.
type Settings struct {
	BotIdentity   string
	DefaultModel  string
	AllowedModels []string // Empty means no restriction.
	PromptMode    model.PromptMode
	PollInterval  time.Duration
	Cooldown      time.Duration
}

// ReviewService orchestrates the polling loop: discover open requests, decide
// whether a review was asked for, generate it, and post it back. Processing
// is strictly sequential; one request completes before the next begins.
type ReviewService struct {
	targets   []Target
	generator driven.Generator
	store     driven.ReviewStore // Optional; nil disables the audit log.
	settings  Settings
	allowed   map[string]struct{}
}

// NewReviewService creates a ReviewService. store may be nil.
func NewReviewService(targets []Target, generator driven.Generator, store driven.ReviewStore, settings Settings) *ReviewService {
	allowed := make(map[string]struct{}, len(settings.AllowedModels))
	for _, m := range settings.AllowedModels {
		allowed[m] = struct{}{}
	}

	return &ReviewService{
		targets:   targets,
		generator: generator,
		store:     store,
		settings:  settings,
		allowed:   allowed,
	}
}

// Start runs an immediate pass, then passes on the configured interval,
// forever. A pass error is logged and followed by the longer cooldown instead
// of the poll interval; the loop itself never exits on a pass error. Start
// blocks until the context is canceled.
func (s *ReviewService) Start(ctx context.Context) {
	for {
		wait := s.settings.PollInterval

		if err := s.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				slog.Info("review service stopped")
				return
			}
			slog.Error("review pass failed", "error", err, "cooldown", s.settings.Cooldown)
			wait = s.settings.Cooldown
		}

		select {
		case <-ctx.Done():
			slog.Info("review service stopped")
			return
		case <-time.After(wait):
		}
	}
}

// RunOnce executes a single full pass over every configured repository.
// The first remote failure aborts the pass; comments already posted earlier
// in the pass are unaffected.
func (s *ReviewService) RunOnce(ctx context.Context) error {
	start := time.Now()
	var requests, reviewed int

	for _, target := range s.targets {
		for _, repo := range target.Repos {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			reqs, err := target.Source.ListOpenRequests(ctx, repo)
			if err != nil {
				return fmt.Errorf("listing open requests for %s %s: %w", target.Source.Host(), repo, err)
			}
			requests += len(reqs)

			for _, req := range reqs {
				posted, err := s.processRequest(ctx, target.Source, req)
				if err != nil {
					return err
				}
				if posted {
					reviewed++
				}
			}
		}
	}

	slog.Info("review pass complete",
		"requests", requests,
		"reviewed", reviewed,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	return nil
}

// processRequest handles one open request: trigger decision, allow-list
// enforcement, prompt construction, generation, and posting. It returns true
// when a generated review was posted. A disallowed model is handled inline
// with a rejection comment and is not an error.
func (s *ReviewService) processRequest(ctx context.Context, src driven.SourceControl, req model.ReviewRequest) (bool, error) {
	comments, err := src.ListComments(ctx, req)
	if err != nil {
		return false, fmt.Errorf("listing comments for %s %s#%d: %w", src.Host(), req.Repo, req.Number, err)
	}

	decision := DecideReview(comments, s.settings.BotIdentity)
	if !decision.Triggered {
		slog.Debug("no review requested",
			"host", src.Host(),
			"repo", string(req.Repo),
			"request", req.Number,
			"comments", len(comments),
		)
		return false, nil
	}

	if decision.RequestedModel != "" && !s.modelAllowed(decision.RequestedModel) {
		body := fmt.Sprintf("%s is not an allowed model. Please use one of the following models: %s.",
			decision.RequestedModel, strings.Join(s.settings.AllowedModels, ", "))
		if err := src.PostComment(ctx, req, body); err != nil {
			return false, fmt.Errorf("posting model rejection on %s %s#%d: %w", src.Host(), req.Repo, req.Number, err)
		}
		s.record(ctx, src, req, decision.RequestedModel, true)
		slog.Warn("requested model not allowed",
			"host", src.Host(),
			"repo", string(req.Repo),
			"request", req.Number,
			"model", decision.RequestedModel,
		)
		return false, nil
	}

	prompt, err := s.buildPrompt(ctx, src, req)
	if err != nil {
		return false, err
	}

	modelName := s.settings.DefaultModel
	if decision.RequestedModel != "" {
		modelName = decision.RequestedModel
	}

	slog.Info("requesting review",
		"host", src.Host(),
		"repo", string(req.Repo),
		"request", req.Number,
		"title", req.Title,
		"model", modelName,
		"prompt_len", len(prompt),
	)

	review, err := s.generator.Generate(ctx, prompt, modelName)
	if err != nil {
		return false, fmt.Errorf("generating review for %s %s#%d: %w", src.Host(), req.Repo, req.Number, err)
	}

	if err := src.PostComment(ctx, req, review); err != nil {
		return false, fmt.Errorf("posting review on %s %s#%d: %w", src.Host(), req.Repo, req.Number, err)
	}
	s.record(ctx, src, req, modelName, false)

	slog.Info("review posted",
		"host", src.Host(),
		"repo", string(req.Repo),
		"request", req.Number,
		"model", modelName,
		"review_len", len(review),
	)

	return true, nil
}

// buildPrompt assembles the review prompt in the configured mode. In diff
// mode the unified diff is truncated to promptDiffLimit characters; in files
// mode every changed file's full contents are embedded untruncated.
func (s *ReviewService) buildPrompt(ctx context.Context, src driven.SourceControl, req model.ReviewRequest) (string, error) {
	var changes string

	switch s.settings.PromptMode {
	case model.PromptModeFiles:
		files, err := src.ListChangedFiles(ctx, req)
		if err != nil {
			return "", fmt.Errorf("listing changed files for %s %s#%d: %w", src.Host(), req.Repo, req.Number, err)
		}

		var b strings.Builder
		for _, f := range files {
			contents, err := src.GetFileContents(ctx, req, f.Filename)
			if err != nil {
				return "", fmt.Errorf("fetching %s from %s %s#%d: %w", f.Filename, src.Host(), req.Repo, req.Number, err)
			}
			fmt.Fprintf(&b, "File name:\n%s\nThe proposed code changes:\n%s\n", f.Filename, contents)
		}
		changes = b.String()

	default: // model.PromptModeDiff
		diff, err := src.GetDiff(ctx, req)
		if err != nil {
			return "", fmt.Errorf("fetching diff for %s %s#%d: %w", src.Host(), req.Repo, req.Number, err)
		}
		if len(diff) > promptDiffLimit {
			diff = diff[:promptDiffLimit]
		}
		changes = "Git diff\n" + diff
	}

	return fmt.Sprintf("You are a senior software engineer. Review this open pull request titled %q. "+
		"Point out potential bugs, style issues, and improvements. "+
		"You do not need to summarize the changes. "+
		"Include example code in your feedback.\n%s", req.Title, changes), nil
}

func (s *ReviewService) modelAllowed(name string) bool {
	if len(s.allowed) == 0 {
		return true
	}
	_, ok := s.allowed[name]
	return ok
}

// record appends an audit entry. Store failures are logged but never abort
// the pass; the comment is already posted at this point.
func (s *ReviewService) record(ctx context.Context, src driven.SourceControl, req model.ReviewRequest, modelName string, rejected bool) {
	if s.store == nil {
		return
	}

	rec := model.ReviewRecord{
		Host:          src.Host(),
		Repo:          string(req.Repo),
		RequestNumber: req.Number,
		RequestTitle:  req.Title,
		Model:         modelName,
		Rejected:      rejected,
		PostedAt:      time.Now().UTC(),
	}
	if err := s.store.Record(ctx, rec); err != nil {
		slog.Error("recording review failed",
			"host", rec.Host,
			"repo", rec.Repo,
			"request", rec.RequestNumber,
			"error", err,
		)
	}
}
