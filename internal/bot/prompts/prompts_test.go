package prompts

import (
	"context"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
)

func TestChatTemplate_OrdersMessages(t *testing.T) {
	tpl := ChatTemplate()

	msgs, err := tpl.Format(context.Background(), map[string]any{
		VarSystem: []*schema.Message{schema.SystemMessage("persona")},
		VarHistory: []*schema.Message{
			schema.UserMessage("old question"),
			schema.AssistantMessage("old answer", nil),
		},
		VarInput: []*schema.Message{schema.UserMessage("new question")},
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(msgs) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(msgs))
	}
	wantRoles := []schema.RoleType{schema.System, schema.User, schema.Assistant, schema.User}
	for i, role := range wantRoles {
		if msgs[i].Role != role {
			t.Errorf("position %d: expected role %s, got %s", i, role, msgs[i].Role)
		}
	}
	if msgs[3].Content != "new question" {
		t.Errorf("new input must come last, got %q", msgs[3].Content)
	}
}

func TestChatTemplate_HistoryIsOptional(t *testing.T) {
	tpl := ChatTemplate()

	msgs, err := tpl.Format(context.Background(), map[string]any{
		VarSystem:  []*schema.Message{schema.SystemMessage("persona")},
		VarHistory: []*schema.Message{},
		VarInput:   []*schema.Message{schema.UserMessage("hi")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages without history, got %d", len(msgs))
	}
}

func TestChatTemplate_BracesInUserTextSurvive(t *testing.T) {
	tpl := ChatTemplate()

	msgs, err := tpl.Format(context.Background(), map[string]any{
		VarSystem:  []*schema.Message{schema.SystemMessage("persona {with} braces")},
		VarHistory: []*schema.Message{},
		VarInput:   []*schema.Message{schema.UserMessage(`explain {"a": 1}`)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if msgs[0].Content != "persona {with} braces" {
		t.Errorf("system braces mangled: %q", msgs[0].Content)
	}
	if msgs[1].Content != `explain {"a": 1}` {
		t.Errorf("user braces mangled: %q", msgs[1].Content)
	}
}

func TestSystemMessage_MergesContext(t *testing.T) {
	m := SystemMessage("persona", "retrieved context")
	if m.Role != schema.System {
		t.Fatalf("expected system role, got %s", m.Role)
	}
	if !strings.Contains(m.Content, "persona") || !strings.Contains(m.Content, "retrieved context") {
		t.Errorf("merged content incomplete: %q", m.Content)
	}

	plain := SystemMessage("persona", "")
	if plain.Content != "persona" {
		t.Errorf("expected bare persona, got %q", plain.Content)
	}
}

func TestRenderRAG_SubstitutesQuestionAndContext(t *testing.T) {
	out, err := RenderRAG(context.Background(), "what is X?", "X is {42}")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "what is X?") {
		t.Errorf("question missing from rendered prompt: %q", out)
	}
	if !strings.Contains(out, "X is {42}") {
		t.Errorf("context (with braces) missing from rendered prompt: %q", out)
	}
	if strings.Contains(out, "{question}") || strings.Contains(out, "{context}") {
		t.Errorf("unsubstituted tokens left in prompt: %q", out)
	}
}
