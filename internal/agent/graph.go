package agent

import (
	"errors"
	"fmt"
	"strings"
)

// Node identifies a step of the agent graph.
type Node int

const (
	End Node = iota
	Assistant
	Retriever
	Generator
	Rewriter
	WebSearch
)

var nodeNames = [...]string{
	End:       "END",
	Assistant: "Assistant",
	Retriever: "Retriever",
	Generator: "Generator",
	Rewriter:  "Rewriter",
	WebSearch: "WebSearch",
}

func (n Node) String() string {
	if n >= 0 && int(n) < len(nodeNames) {
		return nodeNames[n]
	}
	return fmt.Sprintf("Node(%d)", int(n))
}

// maxVisits is the longest path the topology allows:
// Assistant, Retriever, Rewriter, WebSearch, Generator.
const maxVisits = 5

// toolSentinel is the message Assistant emits when it hands the question to
// the retriever. It is a record in the thread, not a routing input.
const toolSentinel = "TOOL: retriever"

// Grader route labels.
const (
	routeGenerator = "generator"
	routeRewriter  = "rewriter"
)

// successors holds the unconditional edges. Assistant and Retriever route
// conditionally and are absent.
var successors = map[Node]Node{
	Generator: End,
	Rewriter:  WebSearch,
	WebSearch: Generator,
}

// routeAssistant picks the successor of Assistant from the keyword decision
// it made on the question. Its emitted text is never inspected, so a direct
// answer that happens to mention a tool still ends the turn.
func routeAssistant(wantsTool bool) Node {
	if wantsTool {
		return Retriever
	}
	return End
}

// routeVerdict maps raw grader output onto a route label. Anything without
// "yes" in it, including empty output, goes to the rewriter.
func routeVerdict(verdict string) string {
	if strings.Contains(strings.ToLower(verdict), "yes") {
		return routeGenerator
	}
	return routeRewriter
}

var routeTargets = map[string]Node{
	routeGenerator: Generator,
	routeRewriter:  Rewriter,
}

// ErrToolInvocation marks a tool call that failed at a node that does not
// absorb tool failures.
var ErrToolInvocation = errors.New("tool invocation failed")

// NodeError is a failure that aborted a run at a node.
type NodeError struct {
	Node Node
	Err  error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("agent: %s: %v", e.Node, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }
