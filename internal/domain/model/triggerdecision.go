package model

// TriggerDecision is the outcome of scanning a request's comment thread for
// an unanswered review mention. It is derived per poll and never stored.
type TriggerDecision struct {
	// Triggered is true when the last relevant event in the thread is a
	// mention of the bot that the bot has not yet replied to.
	Triggered bool
	// RequestedModel is the model name extracted from the triggering comment
	// ("use <model>" / "using <model>"), or empty when none was requested.
	// Allow-list enforcement happens in the orchestrator, not here.
	RequestedModel string
	// TriggerBody is the body of the triggering comment, for logging.
	TriggerBody string
}
