package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/soyeahso/prodbot/internal/domain"
	"github.com/soyeahso/prodbot/internal/hooks"
	"github.com/soyeahso/prodbot/internal/llm"
	"github.com/soyeahso/prodbot/internal/prompts"
	"github.com/soyeahso/prodbot/internal/tools"
)

// Fixed texts substituted for empty or missing results.
const (
	msgNoDirectAnswer   = "I'm not sure about that."
	msgRetrieverMissing = "Retriever tool not found in MCP client. Initialization might have failed."
	msgNoProductData    = "No relevant product data found."
	msgWebSearchMissing = "Web search tool not found in MCP client. Initialization might have failed."
	msgNoWebData        = "No data from web"
	msgNoResponse       = "No response generated."
)

// handler runs one node over the current turn and returns the content of
// the single message it appends.
type handler func(ctx context.Context, turn []domain.Message) (string, error)

func (e *Engine) handlerTable() map[Node]handler {
	return map[Node]handler{
		Assistant: e.assistant,
		Retriever: e.retriever,
		Generator: e.generator,
		Rewriter:  e.rewriter,
		WebSearch: e.webSearch,
	}
}

func question(turn []domain.Message) string { return turn[0].Content }
func last(turn []domain.Message) string     { return turn[len(turn)-1].Content }

func (e *Engine) assistant(ctx context.Context, turn []domain.Message) (string, error) {
	q := question(turn)
	if e.wantsTool(q) {
		return toolSentinel, nil
	}

	out, err := e.complete(ctx, prompts.Assistant, map[string]string{"question": q})
	if err != nil {
		e.log.Warn().Err(err).Msg("direct answer failed")
		return fmt.Sprintf("Error generating response: %v", err), nil
	}
	if strings.TrimSpace(out) == "" {
		return msgNoDirectAnswer, nil
	}
	return out, nil
}

// wantsTool reports whether text mentions any product keyword.
func (e *Engine) wantsTool(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range e.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// retriever queries the product tool with the turn's question. Every
// failure becomes the node's message.
func (e *Engine) retriever(ctx context.Context, turn []domain.Message) (string, error) {
	tool, ok := e.lookup(tools.ProductInfo)
	if !ok {
		return msgRetrieverMissing, nil
	}
	out, err := tool.Invoke(ctx, question(turn))
	if err != nil {
		e.log.Warn().Err(err).Str("tool", tools.ProductInfo).Msg("retriever failed")
		return fmt.Sprintf("Error invoking retriever: %v", err), nil
	}
	if out == "" {
		return msgNoProductData, nil
	}
	return out, nil
}

// webSearch queries the search tool with the rewritten query. A failed
// invocation aborts the run.
func (e *Engine) webSearch(ctx context.Context, turn []domain.Message) (string, error) {
	tool, ok := e.lookup(tools.WebSearch)
	if !ok {
		return msgWebSearchMissing, nil
	}
	out, err := tool.Invoke(ctx, last(turn))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrToolInvocation, tools.WebSearch, err)
	}
	if out == "" {
		return msgNoWebData, nil
	}
	return out, nil
}

func (e *Engine) generator(ctx context.Context, turn []domain.Message) (string, error) {
	out, err := e.complete(ctx, prompts.ProductBot, map[string]string{
		"context":  last(turn),
		"question": question(turn),
	})
	if err != nil {
		e.log.Warn().Err(err).Msg("generation failed")
		return fmt.Sprintf("Error generating response: %v", err), nil
	}
	if out == "" {
		return msgNoResponse, nil
	}
	return out, nil
}

func (e *Engine) rewriter(ctx context.Context, turn []domain.Message) (string, error) {
	out, err := e.complete(ctx, prompts.Rewriter, map[string]string{"question": question(turn)})
	if err != nil {
		e.log.Warn().Err(err).Msg("rewrite failed")
		return fmt.Sprintf("Error rewriting query: %v", err), nil
	}
	return strings.TrimSpace(out), nil
}

// grade asks the model whether the last message answers the question and
// returns the route label. Model errors count as "no".
func (e *Engine) grade(ctx context.Context, thread string, turn []domain.Message) string {
	out, err := e.complete(ctx, prompts.Grader, map[string]string{
		"question": question(turn),
		"docs":     last(turn),
	})
	if err != nil {
		e.log.Warn().Err(err).Msg("grader failed, routing to rewriter")
		out = ""
	}
	route := routeVerdict(out)
	e.log.Debug().Str("thread", thread).Str("route", route).Msg("graded documents")
	e.hooks.Emit(ctx, hooks.EventGraderVerdict, map[string]any{"thread": thread, "route": route})
	return route
}

// next returns the successor of node given the turn so far.
func (e *Engine) next(ctx context.Context, thread string, node Node, turn []domain.Message) Node {
	switch node {
	case Assistant:
		return routeAssistant(e.wantsTool(question(turn)))
	case Retriever:
		return routeTargets[e.grade(ctx, thread, turn)]
	default:
		return successors[node]
	}
}

func (e *Engine) lookup(name string) (tools.Tool, bool) {
	if e.tools == nil {
		return nil, false
	}
	return e.tools.Lookup(name)
}

func (e *Engine) complete(ctx context.Context, t prompts.Type, vars map[string]string) (string, error) {
	text := e.prompts.MustGet(t).Render(vars)
	return llm.Prompt(ctx, e.model, text, e.cfg.MaxTokens, e.cfg.Temperature)
}
