package tools

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ggonzalez94/ledgertools/internal/args"
)

// simpleTool is a stateless tool: decode arguments, run one upstream query,
// wrap the result.
type simpleTool[A any] struct {
	name        string
	description string
	schema      *args.Schema
	defaults    func() A
	message     string
	run         func(ctx context.Context, a A) (any, error)
	logger      zerolog.Logger
}

func (t *simpleTool[A]) Name() string               { return t.name }
func (t *simpleTool[A]) Description() string        { return t.description }
func (t *simpleTool[A]) Parameters() map[string]any { return t.schema.Raw() }

func (t *simpleTool[A]) Call(ctx context.Context, input any, cfg RunConfig) (string, error) {
	logCall(t.logger, t.name, cfg)

	a := t.defaults()
	if err := args.Decode(input, t.schema, &a); err != nil {
		return failure(t.logger, t.name, err)
	}
	data, err := t.run(ctx, a)
	if err != nil {
		return failure(t.logger, t.name, err)
	}
	return success(t.message, data)
}
