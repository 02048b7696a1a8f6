// Package chat answers questions about the identity registry and the people
// currently on camera. Common questions are answered from canned patterns;
// everything else goes to a configured LLM provider.
package chat

import "context"

// Provider defines the interface for LLM chat backends.
type Provider interface {
	Name() string
	Reply(ctx context.Context, question string, roster RosterContext) (string, error)

	// Usage tracking.
	GetUsage() *Usage
	ResetUsage()
}

// Usage tracks token usage and calculates cost.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalCost    float64 // in USD
}

// RequestPricing holds input/output prices per 1M tokens.
type RequestPricing struct {
	Input  float64
	Output float64
}
