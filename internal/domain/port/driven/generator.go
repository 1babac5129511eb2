package driven

import "context"

// Generator defines the driven port for the text-generation service.
// Generate is a single blocking call: implementations that receive their
// answer as an incremental stream buffer it internally and return only the
// assembled final text.
type Generator interface {
	// Generate submits prompt to the service and returns the generated text.
	// An empty model selects the deployment default.
	Generate(ctx context.Context, prompt, model string) (string, error)
}
