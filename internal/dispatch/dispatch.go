// Package dispatch routes an agent's pending tool calls to tools. ModeOverride
// wraps a node so every call runs with the execution mode forced and failures
// come back as a tool message instead of an error.
package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	clierr "github.com/ggonzalez94/ledgertools/internal/errors"
	"github.com/ggonzalez94/ledgertools/internal/tools"
)

const (
	RoleAssistant = "assistant"
	RoleTool      = "tool"

	failurePrefix = "Error: Could not execute the requested tool. "
)

type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
}

// IsFailure reports whether m is the message ModeOverride produces when the
// wrapped node failed.
func IsFailure(m Message) bool {
	return m.Role == RoleTool && strings.HasPrefix(m.Content, failurePrefix)
}

type State struct {
	Messages []Message `json:"messages"`
}

// PendingCalls returns the tool calls of the last message.
func (s State) PendingCalls() []ToolCall {
	if len(s.Messages) == 0 {
		return nil
	}
	return s.Messages[len(s.Messages)-1].ToolCalls
}

type Node interface {
	Invoke(ctx context.Context, state State, cfg tools.RunConfig) (State, error)
}

// NodeFunc adapts a function to Node.
type NodeFunc func(ctx context.Context, state State, cfg tools.RunConfig) (State, error)

func (f NodeFunc) Invoke(ctx context.Context, state State, cfg tools.RunConfig) (State, error) {
	return f(ctx, state, cfg)
}

// ToolNode executes every pending call in order and returns one tool message
// per call. It stops at the first unknown tool or tool error.
type ToolNode struct {
	registry *tools.Registry
}

func NewToolNode(registry *tools.Registry) *ToolNode {
	return &ToolNode{registry: registry}
}

func (n *ToolNode) Invoke(ctx context.Context, state State, cfg tools.RunConfig) (State, error) {
	calls := state.PendingCalls()
	out := State{Messages: make([]Message, 0, len(calls))}
	for _, call := range calls {
		tool, ok := n.registry.Lookup(call.Name)
		if !ok {
			return State{}, clierr.New(clierr.CodeUnsupported, fmt.Sprintf("Tool %q not found", call.Name))
		}
		content, err := tool.Call(ctx, call.Arguments, cfg)
		if err != nil {
			return State{}, err
		}
		out.Messages = append(out.Messages, Message{
			Role:       RoleTool,
			Content:    content,
			ToolCallID: call.ID,
			Name:       call.Name,
		})
	}
	return out, nil
}

type modeOverride struct {
	next      Node
	custodial bool
	logger    zerolog.Logger
}

// ModeOverride returns a Node that merges isCustodial into the run config,
// delegates to next with the state untouched, and turns any failure of next
// (error or panic) into a single tool message. It never returns an error.
func ModeOverride(next Node, custodial bool, logger zerolog.Logger) Node {
	return &modeOverride{next: next, custodial: custodial, logger: logger}
}

func (m *modeOverride) Invoke(ctx context.Context, state State, cfg tools.RunConfig) (result State, _ error) {
	calls := state.PendingCalls()
	injected := cfg.WithConfigurable(tools.ConfigKeyCustodial, m.custodial)
	for _, call := range calls {
		m.logger.Debug().
			Str("tool", call.Name).
			Str("call_id", call.ID).
			Str("mode", injected.Mode()).
			Str("arguments", call.Arguments).
			Msg("dispatching tool call")
	}

	defer func() {
		if r := recover(); r != nil {
			err := clierr.New(clierr.CodeDispatch, fmt.Sprint(r))
			result = m.failed(calls, err)
		}
	}()

	out, err := m.next.Invoke(ctx, state, injected)
	if err != nil {
		return m.failed(calls, err), nil
	}
	return out, nil
}

func (m *modeOverride) failed(calls []ToolCall, err error) State {
	msg := err.Error()
	if msg == "" {
		msg = "Unknown error"
	}
	m.logger.Error().Err(err).Int("calls", len(calls)).Msg("tool execution failed")

	failure := Message{Role: RoleTool, Content: failurePrefix + msg}
	if len(calls) > 0 {
		failure.ToolCallID = calls[0].ID
		failure.Name = calls[0].Name
	}
	return State{Messages: []Message{failure}}
}
