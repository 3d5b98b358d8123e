// Package analysis wraps the external text-generation service used for log
// triage, per-chunk worker analysis, and coordinator synthesis.
package analysis

import "context"

// Service is the narrow text-generation boundary the engine depends on. A
// call is a single request/response exchange: a system prompt plus ordered
// user parts in, answer text out. Implementations must be safe for
// concurrent use; retry and timeout budgets are the implementation's
// concern.
type Service interface {
	Generate(ctx context.Context, systemPrompt string, parts []string) (string, error)
}
