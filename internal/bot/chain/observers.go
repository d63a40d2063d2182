package chain

import (
	"context"
	"strings"

	einocb "github.com/cloudwego/eino/callbacks"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	logx "github.com/ragbot-core/server/pkg/logger"
)

// NewCallbacks aggregates the prompt and chat model observers into one
// callbacks.Handler, attached per invocation via compose.WithCallbacks.
func NewCallbacks() einocb.Handler {
	return callbackHelper.NewHandlerHelper().
		ChatModel(newModelHandler()).
		Prompt(newPromptHandler()).
		Handler()
}

func newModelHandler() *callbackHelper.ModelCallbackHandler {
	return &callbackHelper.ModelCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *einomodel.CallbackInput) context.Context {
			n := 0
			if input != nil {
				n = len(input.Messages)
			}
			logx.Debug().
				Str("node", info.Name).
				Int("messages", n).
				Str("user", lastUserContent(input)).
				Msg("model call start")
			return ctx
		},
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *einomodel.CallbackOutput) context.Context {
			ev := logx.Debug().Str("node", info.Name)
			if output != nil && output.Message != nil {
				ev = ev.Int("reply_len", len(output.Message.Content))
			}
			ev.Msg("model call end")
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Error().Err(err).Str("node", info.Name).Msg("model call failed")
			return ctx
		},
	}
}

func newPromptHandler() *callbackHelper.PromptCallbackHandler {
	return &callbackHelper.PromptCallbackHandler{
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *prompt.CallbackOutput) context.Context {
			if output != nil {
				logx.Debug().Str("node", info.Name).Int("rendered_messages", len(output.Result)).Msg("prompt rendered")
			}
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Error().Err(err).Str("node", info.Name).Msg("prompt render failed")
			return ctx
		},
	}
}

func lastUserContent(input *einomodel.CallbackInput) string {
	if input == nil {
		return ""
	}
	for i := len(input.Messages) - 1; i >= 0; i-- {
		m := input.Messages[i]
		if m == nil {
			continue
		}
		if m.Role == schema.User {
			return strings.TrimSpace(m.Content)
		}
	}
	return ""
}
