// Package tools implements the agent-callable tools. Every tool returns a
// JSON result envelope; validation and upstream failures are reported inside
// the envelope rather than as Go errors.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"

	"github.com/rs/zerolog"

	clierr "github.com/ggonzalez94/ledgertools/internal/errors"
	"github.com/ggonzalez94/ledgertools/internal/model"
	"github.com/ggonzalez94/ledgertools/internal/policy"
)

// ConfigKeyCustodial is the configurable key carrying the execution mode.
const ConfigKeyCustodial = "isCustodial"

// RunConfig is the per-call context a tool receives alongside its input.
type RunConfig struct {
	Configurable map[string]any
}

func (c RunConfig) IsCustodial() bool {
	v, ok := c.Configurable[ConfigKeyCustodial].(bool)
	return ok && v
}

// WithConfigurable returns a copy with key set. The receiver's map is not
// modified.
func (c RunConfig) WithConfigurable(key string, value any) RunConfig {
	next := make(map[string]any, len(c.Configurable)+1)
	maps.Copy(next, c.Configurable)
	next[key] = value
	return RunConfig{Configurable: next}
}

func (c RunConfig) Mode() string {
	if c.IsCustodial() {
		return "custodial"
	}
	return "non-custodial"
}

type Tool interface {
	Name() string
	Description() string
	// Parameters is the JSON Schema of the tool input.
	Parameters() map[string]any
	// Call returns the encoded envelope. A non-nil error means the envelope
	// itself could not be produced.
	Call(ctx context.Context, input any, cfg RunConfig) (string, error)
}

type Registry struct {
	order  []string
	byName map[string]Tool
}

func NewRegistry(items ...Tool) (*Registry, error) {
	r := &Registry{byName: map[string]Tool{}}
	for _, t := range items {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(t Tool) error {
	name := t.Name()
	if name == "" {
		return clierr.New(clierr.CodeInternal, "tool name is required")
	}
	if _, exists := r.byName[name]; exists {
		return clierr.New(clierr.CodeInternal, fmt.Sprintf("duplicate tool name: %s", name))
	}
	r.byName[name] = t
	r.order = append(r.order, name)
	return nil
}

func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

func (r *Registry) Tools() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

func (r *Registry) Specs() []model.ToolSpec {
	out := make([]model.ToolSpec, 0, len(r.order))
	for _, t := range r.Tools() {
		out = append(out, model.ToolSpec{Name: t.Name(), Description: t.Description(), Parameters: t.Parameters()})
	}
	return out
}

// Restrict returns a registry holding only the tools permitted by allowlist.
func (r *Registry) Restrict(allowlist []string) *Registry {
	next := &Registry{byName: map[string]Tool{}}
	for _, name := range policy.Allowed(allowlist, r.order) {
		next.byName[name] = r.byName[name]
		next.order = append(next.order, name)
	}
	return next
}

func logCall(logger zerolog.Logger, name string, cfg RunConfig) {
	logger.Info().Str("tool", name).Str("mode", cfg.Mode()).Msgf("%s tool has been called (%s)", name, cfg.Mode())
}

func success(message string, data any) (string, error) {
	return encode(model.ToolEnvelope{Status: model.StatusSuccess, Message: message, Data: data})
}

func failure(logger zerolog.Logger, name string, err error) (string, error) {
	message := err.Error()
	if message == "" {
		message = "Unknown error occurred"
	}
	code := clierr.EnvelopeCode(err)
	event := logger.Warn()
	if clierr.IsValidation(err) {
		event = logger.Info()
	}
	event.Str("tool", name).Str("code", code).Err(err).Msg("tool failed")
	return encode(model.ToolEnvelope{Status: model.StatusError, Message: message, Code: code})
}

func encode(v any) (string, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return "", clierr.Wrap(clierr.CodeInternal, "encode tool result", err)
	}
	return string(buf), nil
}
