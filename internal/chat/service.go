package chat

import (
	"context"
	"fmt"
	"strings"
)

// Answer is the outcome of one chat question.
type Answer struct {
	Reply  string `json:"reply"`
	Source string `json:"source"` // "canned" or "llm"
}

// Service answers questions: canned patterns first, LLM fallback when a
// provider is configured.
type Service struct {
	canned   *CannedResponder
	provider Provider // nil means canned-only
	roster   RosterSource
}

// NewService creates a chat service. Provider may be nil.
func NewService(canned *CannedResponder, provider Provider, roster RosterSource) *Service {
	return &Service{
		canned:   canned,
		provider: provider,
		roster:   roster,
	}
}

// HasProvider reports whether an LLM fallback is configured.
func (s *Service) HasProvider() bool {
	return s.provider != nil
}

// Ask answers a single question.
func (s *Service) Ask(ctx context.Context, question string) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("empty question")
	}

	roster, err := s.roster.Roster(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build roster context: %w", err)
	}

	if reply, ok := s.canned.Answer(question, roster); ok {
		return &Answer{Reply: reply, Source: "canned"}, nil
	}

	if s.provider == nil {
		return &Answer{
			Reply:  "I can only answer simple questions about who I know and who is on camera. Try \"who is here?\" or \"how many people do you know?\".",
			Source: "canned",
		}, nil
	}

	reply, err := s.provider.Reply(ctx, question, roster)
	if err != nil {
		return nil, fmt.Errorf("chat provider failed: %w", err)
	}
	return &Answer{Reply: reply, Source: "llm"}, nil
}
