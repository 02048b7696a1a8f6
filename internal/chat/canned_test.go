package chat

import (
	"strings"
	"testing"
)

func testRoster() RosterContext {
	return RosterContext{
		KnownCount: 3,
		KnownNames: []string{"Carol", "Bob", "Alice"},
		Present: []PresentPerson{
			{Name: "Alice", Confidence: 0.92},
		},
	}
}

func TestCannedResponder_Answer(t *testing.T) {
	responder, err := NewCannedResponder()
	if err != nil {
		t.Fatalf("NewCannedResponder() error: %v", err)
	}

	tests := []struct {
		name     string
		question string
		contains string
	}{
		{"count", "How many people do you know?", "3 people"},
		{"roster", "Who do you know?", "Carol, Bob, Alice"},
		{"present", "Who is here right now?", "Alice (92%)"},
		{"present apostrophe", "who's here", "Alice (92%)"},
		{"newest", "Who was added last?", "Carol"},
		{"diacritics", "Kolik lidí znáš?", "3 people"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, ok := responder.Answer(tt.question, testRoster())
			if !ok {
				t.Fatalf("Answer(%q) did not match any pattern", tt.question)
			}
			if !strings.Contains(reply, tt.contains) {
				t.Errorf("Answer(%q) = %q, want it to contain %q", tt.question, reply, tt.contains)
			}
		})
	}
}

func TestCannedResponder_NoMatch(t *testing.T) {
	responder, err := NewCannedResponder()
	if err != nil {
		t.Fatalf("NewCannedResponder() error: %v", err)
	}

	if _, ok := responder.Answer("What is the meaning of life?", testRoster()); ok {
		t.Error("unrelated question should not match a canned pattern")
	}
	if _, ok := responder.Answer("", testRoster()); ok {
		t.Error("empty question should not match")
	}
}

func TestCannedResponder_EmptyRoster(t *testing.T) {
	responder, err := NewCannedResponder()
	if err != nil {
		t.Fatalf("NewCannedResponder() error: %v", err)
	}

	roster := RosterContext{}

	reply, ok := responder.Answer("who is here", roster)
	if !ok {
		t.Fatal("present question should match")
	}
	if !strings.Contains(reply, "nobody") {
		t.Errorf("reply = %q, want nobody placeholder", reply)
	}

	reply, ok = responder.Answer("who do you know", roster)
	if !ok {
		t.Fatal("roster question should match")
	}
	if !strings.Contains(reply, "nobody yet") {
		t.Errorf("reply = %q, want empty roster wording", reply)
	}
}
