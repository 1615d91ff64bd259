package tools

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ggonzalez94/ledgertools/internal/args"
	clierr "github.com/ggonzalez94/ledgertools/internal/errors"
	"github.com/ggonzalez94/ledgertools/internal/model"
	"github.com/ggonzalez94/ledgertools/internal/providers"
)

const ConversionRatesToolName = "sauceswap_get_pool_conversion_rate"

const conversionRatesDescription = `Fetches the latest conversion rates for a SaucerSwap pool.
Inputs (input is a JSON string):
- **poolId** (*string*, required): The ID of the SaucerSwap pool to fetch conversion rates for.
- **interval** (*string*, optional): Data interval. Options: FIVEMIN, HOUR, DAY, WEEK. Default: HOUR.
- **inverted** (*boolean*, optional): Whether to invert the conversion rate. Default: false.

Example usage:
Get conversion rates for pool 1 with hourly interval:
'{
  "poolId": "1",
  "interval": "HOUR"
}'

Get conversion rates for pool 213 with daily interval and inverted:
'{
  "poolId": "213",
  "interval": "DAY",
  "inverted": true
}'`

var conversionRatesSchema = args.MustCompile(map[string]any{
	"type": "object",
	"properties": map[string]any{
		"poolId":   map[string]any{"type": []any{"string", "integer", "null"}, "description": "SaucerSwap pool id."},
		"interval": map[string]any{"type": []any{"string", "null"}, "description": "One of FIVEMIN, HOUR, DAY, WEEK.", "default": "HOUR"},
		"inverted": map[string]any{"type": []any{"boolean", "null"}, "description": "Invert the conversion rate.", "default": false},
	},
})

// ConversionRateArgs holds the decoded input. A null interval decodes to nil
// and is rejected rather than replaced by the default.
type ConversionRateArgs struct {
	PoolID   args.Text `json:"poolId"`
	Interval *string   `json:"interval"`
	Inverted bool      `json:"inverted"`
}

func defaultConversionRateArgs() ConversionRateArgs {
	interval := string(providers.IntervalHour)
	return ConversionRateArgs{Interval: &interval}
}

func (a ConversionRateArgs) Validate() error {
	if a.PoolID == "" {
		return clierr.Validation("Pool ID is required")
	}
	if a.Interval == nil || !providers.ConversionInterval(*a.Interval).Valid() {
		names := make([]string, 0, len(providers.ConversionIntervals))
		for _, v := range providers.ConversionIntervals {
			names = append(names, string(v))
		}
		return clierr.Validation("Invalid interval. Valid options: " + strings.Join(names, ", "))
	}
	return nil
}

type ConversionRateSource interface {
	PoolConversionRates(ctx context.Context, poolID string, interval providers.ConversionInterval, inverted bool) ([]model.PoolConversionRate, error)
}

func NewConversionRatesTool(source ConversionRateSource, logger zerolog.Logger) Tool {
	return &simpleTool[ConversionRateArgs]{
		name:        ConversionRatesToolName,
		description: conversionRatesDescription,
		schema:      conversionRatesSchema,
		defaults:    defaultConversionRateArgs,
		message:     "Pool conversion rates retrieved",
		logger:      logger,
		run: func(ctx context.Context, a ConversionRateArgs) (any, error) {
			return source.PoolConversionRates(ctx, a.PoolID.String(), providers.ConversionInterval(*a.Interval), a.Inverted)
		},
	}
}
