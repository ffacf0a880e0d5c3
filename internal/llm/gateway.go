package llm

import "context"

// Gateway is the contract the orchestrator depends on: a grounding context
// plus the farmer's (translated) question in, answer text out.
type Gateway interface {
	Complete(ctx context.Context, systemContext, userQuestion string) (string, error)
}
