package chain

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/ragbot-core/server/internal/bot/model"
	"github.com/ragbot-core/server/internal/bot/prompts"
	logx "github.com/ragbot-core/server/pkg/logger"
)

// Config holds everything needed to compose the chat chain end-to-end.
type Config struct {
	// Persona is the default system instruction; QueryInput.Persona overrides it.
	Persona string
	// ModelName is used for usage cost resolution and logging only.
	ModelName string
	// MaxTurns caps how many stored turns are replayed into the prompt (0 = all).
	MaxTurns int
	// Timeout bounds one non-streaming model invocation.
	Timeout time.Duration
}

// Runner executes the chat pipeline: prompt template -> chat model -> string
// parser. When a session id is supplied it replays that session's history
// into the prompt and, only after a successful response, appends the user
// turn followed by the assistant turn. A failed model call never mutates
// history; a lone user turn without its reply would poison every later
// prompt for that session.
type Runner struct {
	repo      model.HistoryRepository
	chatModel einomodel.BaseChatModel
	tpl       prompt.ChatTemplate
	runnable  compose.Runnable[map[string]any, string]
	cfg       Config
}

// NewRunner compiles the chat chain and wraps it with history handling.
func NewRunner(ctx context.Context, cm einomodel.BaseChatModel, repo model.HistoryRepository, cfg Config) (*Runner, error) {
	if cm == nil {
		return nil, fmt.Errorf("chat model is nil")
	}
	if repo == nil {
		return nil, fmt.Errorf("history repository is nil")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	tpl := prompts.ChatTemplate()

	runnable, err := compose.NewChain[map[string]any, string]().
		AppendChatTemplate(tpl).
		AppendChatModel(cm).
		AppendLambda(compose.InvokableLambda(newOutputParser(cfg.ModelName))).
		Compile(ctx)
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling chat chain")
		return nil, fmt.Errorf("error compiling chat chain: %w", err)
	}

	logx.Debug().Str("model", cfg.ModelName).Msg("Chat chain compiled successfully")
	return &Runner{
		repo:      repo,
		chatModel: cm,
		tpl:       tpl,
		runnable:  runnable,
		cfg:       cfg,
	}, nil
}

// newOutputParser resolves the model message to its text content and logs
// token usage cost when the provider reports it.
func newOutputParser(modelName string) func(context.Context, *schema.Message) (string, error) {
	return func(ctx context.Context, out *schema.Message) (string, error) {
		if out == nil {
			return "", fmt.Errorf("model returned nil message")
		}
		if out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
			usage := out.ResponseMeta.Usage
			inC, outC, totalC := model.ComputeCost(usage, model.ResolvePricing(modelName))
			logx.Debug().
				Str("model", modelName).
				Int("prompt_tokens", usage.PromptTokens).
				Int("completion_tokens", usage.CompletionTokens).
				Int("total_tokens", usage.TotalTokens).
				Float64("input_cost_usd", inC).
				Float64("output_cost_usd", outC).
				Float64("total_cost_usd", totalC).
				Msg("LLM usage")
		}
		return out.Content, nil
	}
}

// Invoke runs one request/response exchange.
func (r *Runner) Invoke(ctx context.Context, in model.QueryInput) (string, error) {
	vars, err := r.promptVars(ctx, in)
	if err != nil {
		return "", err
	}

	callCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	out, err := r.runnable.Invoke(callCtx, vars, compose.WithCallbacks(NewCallbacks()))
	if err != nil {
		return "", ClassifyModelErr(err)
	}

	if err := r.recordExchange(ctx, in.SessionID, in.Query, out); err != nil {
		return "", err
	}
	return out, nil
}

// Stream runs one exchange and surfaces the reply as text fragments. History
// is appended only once the full response has accumulated, in a background
// reader that survives caller disconnect.
func (r *Runner) Stream(ctx context.Context, in model.QueryInput) (*schema.StreamReader[string], error) {
	vars, err := r.promptVars(ctx, in)
	if err != nil {
		return nil, err
	}

	msgs, err := r.tpl.Format(ctx, vars)
	if err != nil {
		return nil, fmt.Errorf("format chat template: %w", err)
	}

	sr, err := r.chatModel.Stream(ctx, msgs)
	if err != nil {
		return nil, ClassifyModelErr(err)
	}

	copies := sr.Copy(2)
	go r.accumulate(context.WithoutCancel(ctx), in, copies[1])

	return schema.StreamReaderWithConvert(copies[0], func(m *schema.Message) (string, error) {
		if m == nil {
			return "", nil
		}
		return m.Content, nil
	}), nil
}

func (r *Runner) accumulate(ctx context.Context, in model.QueryInput, sr *schema.StreamReader[*schema.Message]) {
	defer sr.Close()

	var sb strings.Builder
	for {
		chunk, err := sr.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			logx.Error().Err(err).Str("session_id", in.SessionID).Msg("stream aborted; history left untouched")
			return
		}
		if chunk != nil {
			sb.WriteString(chunk.Content)
		}
	}

	if err := r.recordExchange(ctx, in.SessionID, in.Query, sb.String()); err != nil {
		logx.Error().Err(err).Str("session_id", in.SessionID).Msg("failed to record streamed exchange")
	}
}

// promptVars loads and trims the session history and assembles template vars.
func (r *Runner) promptVars(ctx context.Context, in model.QueryInput) (map[string]any, error) {
	persona := in.Persona
	if persona == "" {
		persona = r.cfg.Persona
	}

	history := []*schema.Message{}
	if in.SessionID != "" {
		h, err := r.repo.LoadHistory(ctx, in.SessionID)
		if err != nil {
			return nil, err
		}
		history = trimTail(h.Messages, r.cfg.MaxTurns)
	}

	return map[string]any{
		prompts.VarSystem:  []*schema.Message{prompts.SystemMessage(persona, in.Context)},
		prompts.VarHistory: history,
		prompts.VarInput:   []*schema.Message{schema.UserMessage(in.Query)},
	}, nil
}

// recordExchange appends the user turn then the assistant turn, preserving
// the store-after-success invariant. Stateless invocations are not recorded.
func (r *Runner) recordExchange(ctx context.Context, sessionID, query, reply string) error {
	if sessionID == "" {
		return nil
	}
	return r.repo.AddMessages(ctx, sessionID, model.UserTurn(query), model.AssistantTurn(reply))
}

// trimTail keeps the most recent maxTurns messages. The stored log is never
// truncated; only the replayed prompt window is.
func trimTail(messages []*schema.Message, maxTurns int) []*schema.Message {
	if maxTurns <= 0 || len(messages) <= maxTurns {
		result := make([]*schema.Message, len(messages))
		copy(result, messages)
		return result
	}
	source := messages[len(messages)-maxTurns:]
	result := make([]*schema.Message, len(source))
	copy(result, source)
	return result
}
