package assistant

import (
	"testing"

	"github.com/harunnryd/strum/pkg/llm"
)

func TestFilterHistoryDropsErrorReplies(t *testing.T) {
	history := []llm.Message{
		{Role: llm.RoleUser, Content: "show me guitars"},
		{Role: llm.RoleAssistant, Content: "Sorry, I encountered an error processing that."},
		{Role: llm.RoleUser, Content: "  "},
		{Role: llm.RoleAssistant, Content: "Here is our catalog."},
		{Role: llm.RoleSystem, Content: "internal note"},
	}

	out := filterHistory(history)

	if len(out) != 2 {
		t.Fatalf("filtered length = %d, want 2", len(out))
	}
	if out[0].Role != llm.RoleUser || out[0].Content != "show me guitars" {
		t.Errorf("first message = %+v", out[0])
	}
	if out[1].Role != llm.RoleAssistant || out[1].Content != "Here is our catalog." {
		t.Errorf("second message = %+v", out[1])
	}
}

func TestFilterHistoryTrimsContent(t *testing.T) {
	out := filterHistory([]llm.Message{{Role: llm.RoleUser, Content: "  hello  "}})
	if len(out) != 1 || out[0].Content != "hello" {
		t.Fatalf("filtered = %+v", out)
	}
}

func TestTurnFSMRejectsInvalidTransition(t *testing.T) {
	fsm := newTurnFSM()
	if err := fsm.Transition(StateStreaming, "skip ahead"); err == nil {
		t.Fatal("expected invalid transition error")
	}
	if err := fsm.Transition(StateAwaitingModel, "send"); err != nil {
		t.Fatalf("valid transition rejected: %v", err)
	}
	if got := fsm.State(); got != StateAwaitingModel {
		t.Errorf("state = %s", got)
	}
}
