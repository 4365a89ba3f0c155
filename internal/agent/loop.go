// Package agent runs the bounded tool-call loop that drives every pipeline agent.
//
// Each step sends the full transcript to the chat client. A reply holding tool
// calls is executed and the results are appended; any other reply is offered to
// the caller's extractor. The loop ends on the first extracted result, when the
// step budget is spent, or when the context is done.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/signal-agent/internal/llm"
	"github.com/jonathan/signal-agent/internal/tools"
)

// Degrade reasons
const (
	ReasonStepLimit = "step_limit_exceeded"
	ReasonCanceled  = "context_canceled"
)

// DefaultMaxToolResultChars bounds tool data echoed into the transcript
const DefaultMaxToolResultChars = 4000

// Loop configures one run of the tool-call loop
type Loop struct {
	// Name labels log lines (for example "scrape")
	Name   string
	Client llm.ChatClient
	// Tools executes calls; nil disables tool-call detection
	Tools     *tools.Registry
	StepLimit int
	// MaxToolResultChars truncates string tool data in the transcript; 0 uses the default
	MaxToolResultChars int
	// OnToolResult sees every executed call with its untruncated result
	OnToolResult func(call tools.Call, result tools.Result)
	Logger       *zap.Logger
}

// ExtractFunc turns a reply into a terminal result or reports why it could not
type ExtractFunc[T any] func(reply string) (T, error)

// DegradeFunc builds the fallback result for a loop that ended without extraction
type DegradeFunc[T any] func(reason string) T

// Result is the outcome of a loop run
type Result[T any] struct {
	Value T
	// Steps is the number of chat calls made
	Steps     int
	ToolCalls int
	// Degraded is set when Value came from the DegradeFunc
	Degraded   bool
	Reason     string
	Transcript []llm.Message
}

// Run drives the loop until extraction succeeds or the budget runs out.
// Chat failures never abort the loop; they are noted in the transcript.
func Run[T any](ctx context.Context, loop Loop, transcript []llm.Message, extractFn ExtractFunc[T], degrade DegradeFunc[T]) Result[T] {
	log := loop.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("agent", loop.Name))

	limit := loop.StepLimit
	if limit < 1 {
		limit = 1
	}

	messages := append([]llm.Message(nil), transcript...)
	res := Result[T]{}

	for step := 1; step <= limit; step++ {
		if err := ctx.Err(); err != nil {
			log.Debug("context done before step", zap.Int("step", step), zap.Error(err))
			return finish(res, messages, degrade(ReasonCanceled), ReasonCanceled)
		}

		res.Steps = step
		reply, err := loop.Client.Chat(ctx, messages)
		if err != nil {
			log.Debug("chat call failed", zap.Int("step", step), zap.Error(err))
			messages = append(messages, llm.Message{
				Role:    llm.RoleUser,
				Content: fmt.Sprintf("LLM call failed: %v. Reply with a tool call or the final JSON.", err),
			})
			continue
		}

		reply = strings.TrimSpace(reply)
		log.Debug("reply received", zap.Int("step", step), zap.Int("reply_len", len(reply)))

		if reply == "" {
			messages = append(messages, llm.Message{
				Role:    llm.RoleUser,
				Content: "Your reply was empty. Reply with a tool call or the final JSON.",
			})
			continue
		}

		if loop.Tools != nil {
			if calls := ParseToolCalls(reply); len(calls) > 0 {
				messages = runTools(ctx, loop, log, messages, calls)
				res.ToolCalls += len(calls)
				continue
			}
		}

		value, err := extractFn(reply)
		if err == nil {
			res.Value = value
			res.Transcript = append(messages, llm.Message{Role: llm.RoleAssistant, Content: reply})
			log.Debug("terminal result extracted", zap.Int("step", step))
			return res
		}

		log.Debug("extraction failed", zap.Int("step", step), zap.Error(err))
		messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: reply})
	}

	log.Debug("step budget exhausted", zap.Int("steps", limit))
	return finish(res, messages, degrade(ReasonStepLimit), ReasonStepLimit)
}

func finish[T any](res Result[T], messages []llm.Message, value T, reason string) Result[T] {
	res.Value = value
	res.Degraded = true
	res.Reason = reason
	res.Transcript = messages
	return res
}

func runTools(ctx context.Context, loop Loop, log *zap.Logger, messages []llm.Message, calls []tools.Call) []llm.Message {
	maxChars := loop.MaxToolResultChars
	if maxChars <= 0 {
		maxChars = DefaultMaxToolResultChars
	}

	for _, call := range calls {
		result := loop.Tools.Execute(ctx, call)
		log.Debug("tool executed", zap.String("tool", call.Tool), zap.Bool("ok", result.OK), zap.String("error", result.Error))

		if loop.OnToolResult != nil {
			loop.OnToolResult(call, result)
		}

		callJSON, _ := json.Marshal(call)
		envelope, _ := json.Marshal(map[string]tools.Result{"tool_result": truncateResult(result, maxChars)})
		messages = append(messages,
			llm.Message{Role: llm.RoleAssistant, Content: string(callJSON)},
			llm.Message{Role: llm.RoleTool, Content: string(envelope)},
		)
	}
	return messages
}

func truncateResult(result tools.Result, maxChars int) tools.Result {
	s, ok := result.Data.(string)
	if !ok {
		return result
	}
	r := []rune(s)
	if len(r) <= maxChars {
		return result
	}
	result.Data = string(r[:maxChars]) + fmt.Sprintf("...[truncated %d chars]", len(r)-maxChars)
	return result
}
