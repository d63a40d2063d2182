package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/rag_prompt.txt
var ragPrompt string

//go:embed template/search_context.txt
var searchContext string

// Template variable keys shared by the chat template and the chain runner.
const (
	VarSystem  = "system"
	VarHistory = "chat_history"
	VarInput   = "input"
)

// ChatTemplate builds the conversational template: one system message, the
// replayed history, then the new user turn. All three slots are message
// placeholders so user-supplied text can never collide with format braces.
func ChatTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder(VarSystem, false),
		schema.MessagesPlaceholder(VarHistory, true),
		schema.MessagesPlaceholder(VarInput, false),
	)
}

// SystemMessage assembles the system turn from a persona plus optional
// retrieved context for this invocation.
func SystemMessage(persona, extraContext string) *schema.Message {
	content := strings.TrimSpace(persona)
	if extra := strings.TrimSpace(extraContext); extra != "" {
		content = content + "\n\n" + extra
	}
	return schema.SystemMessage(content)
}

// RenderSearchContext formats web search snippets into a system context block.
func RenderSearchContext(results string) string {
	return strings.NewReplacer("{results}", results).Replace(searchContext)
}

// RenderRAG renders the retrieval QA prompt via the Eino prompt component so
// prompt callbacks fire for observability. Known tokens are substituted with
// a replacer first to keep braces inside the retrieved context inert.
func RenderRAG(ctx context.Context, question, retrieved string) (string, error) {
	content := strings.NewReplacer(
		"{question}", question,
		"{context}", retrieved,
	).Replace(ragPrompt)

	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("rag_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"rag_messages": []*schema.Message{schema.UserMessage(content)},
	})
	if err != nil {
		return "", fmt.Errorf("rag prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("rag prompt render: empty result")
	}
	return msgs[0].Content, nil
}
