package tools

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ggonzalez94/ledgertools/internal/args"
	clierr "github.com/ggonzalez94/ledgertools/internal/errors"
	"github.com/ggonzalez94/ledgertools/internal/model"
	"github.com/ggonzalez94/ledgertools/internal/pagination"
	"github.com/ggonzalez94/ledgertools/internal/session"
)

const (
	PoolsToolName = "sauceswap_get_pools"

	PaginationErrorMessage = "Invalid pagination parameters. Page must be >= 1 and pageSize must be between 1 and 100."
	poolsSuccessMessage    = "SaucerSwap pools retrieved successfully"
)

const poolsDescription = `Fetches all available pools from SaucerSwap with their token information and liquidity data.
Inputs (input is a JSON string):
- **page** (*number*, optional): Page number to retrieve. Default: 1.
- **pageSize** (*number*, optional): Number of pools per page, between 1 and 100. Default: 10.
- **refresh** (*boolean*, optional): Force refresh data from API instead of cache. Default: false.
- **filter** (*string*, optional): Filter pools by token symbol (e.g. "HBAR" to get only HBAR pools). Default: none.

Always relay pagination.paginationSummary and pagination.navigationGuide to the user.

Example usage:
Get first page of pools (10 pools per page):
'{
  "page": 1,
  "pageSize": 10
}'

Get only HBAR pools:
'{
  "filter": "HBAR"
}'`

var poolsSchema = args.MustCompile(map[string]any{
	"type": "object",
	"properties": map[string]any{
		"page":     map[string]any{"type": []any{"integer", "null"}, "description": "Page number to retrieve (>= 1).", "default": 1},
		"pageSize": map[string]any{"type": []any{"integer", "null"}, "description": "Pools per page (1-100).", "default": 10},
		"refresh":  map[string]any{"type": []any{"boolean", "null"}, "description": "Re-fetch pools instead of using the session cache.", "default": false},
		"filter":   map[string]any{"type": []any{"string", "null"}, "description": "Case-insensitive token symbol filter."},
	},
})

// PoolsArgs holds the decoded pools input. An explicit null page or pageSize
// is kept as nil and rejected; a null refresh or filter is the same as absent.
type PoolsArgs struct {
	Page     *int   `json:"page"`
	PageSize *int   `json:"pageSize"`
	Refresh  bool   `json:"refresh"`
	Filter   string `json:"filter"`
}

func defaultPoolsArgs() PoolsArgs {
	page, pageSize := 1, 10
	return PoolsArgs{Page: &page, PageSize: &pageSize}
}

func (a PoolsArgs) Validate() error {
	if a.Page == nil || a.PageSize == nil || !pagination.ValidRequest(*a.Page, *a.PageSize) {
		return clierr.Validation(PaginationErrorMessage)
	}
	return nil
}

type PoolLister interface {
	Pools(ctx context.Context) ([]model.Pool, error)
}

// PoolsTool serves SaucerSwap pools page by page from a per-session snapshot.
// The snapshot is fetched on first use and replaced only when the caller
// asks for a refresh.
type PoolsTool struct {
	source     PoolLister
	cache      session.Cache[model.Pool]
	sessionKey string
	logger     zerolog.Logger
}

func NewPoolsTool(source PoolLister, cache session.Cache[model.Pool], sessionKey string, logger zerolog.Logger) *PoolsTool {
	return &PoolsTool{
		source:     source,
		cache:      cache,
		sessionKey: session.Key(sessionKey),
		logger:     logger,
	}
}

func (t *PoolsTool) Name() string               { return PoolsToolName }
func (t *PoolsTool) Description() string        { return poolsDescription }
func (t *PoolsTool) Parameters() map[string]any { return poolsSchema.Raw() }

func (t *PoolsTool) Call(ctx context.Context, input any, cfg RunConfig) (string, error) {
	logCall(t.logger, PoolsToolName, cfg)

	a := defaultPoolsArgs()
	if err := args.Decode(input, poolsSchema, &a); err != nil {
		return failure(t.logger, PoolsToolName, err)
	}

	pools, err := t.load(ctx, a.Refresh)
	if err != nil {
		return failure(t.logger, PoolsToolName, err)
	}

	filtered := pagination.Filter(pools, a.Filter, poolSymbols)
	if a.Filter != "" {
		t.logger.Debug().Str("filter", a.Filter).Int("matched", len(filtered)).Msg("applied pool filter")
	}
	page := pagination.Paginate(filtered, *a.Page, *a.PageSize, "pools")

	var filter *string
	if a.Filter != "" {
		filter = &a.Filter
	}
	return encode(model.PageEnvelope{
		Status:     model.StatusSuccess,
		Message:    poolsSuccessMessage,
		Pagination: page.Meta,
		Filter:     filter,
		Data:       page.Items,
	})
}

func (t *PoolsTool) load(ctx context.Context, refresh bool) ([]model.Pool, error) {
	if !refresh {
		cached, ok, err := t.cache.Get(t.sessionKey)
		if err != nil {
			t.logger.Warn().Err(err).Str("session", t.sessionKey).Msg("session cache read failed, fetching pools")
		} else if ok {
			t.logger.Debug().Str("session", t.sessionKey).Int("pools", len(cached)).Msg("using cached pools")
			return cached, nil
		}
	}

	t.logger.Debug().Str("session", t.sessionKey).Bool("refresh", refresh).Msg("fetching pools from SaucerSwap")
	pools, err := t.source.Pools(ctx)
	if err != nil {
		return nil, err
	}
	if err := t.cache.Set(t.sessionKey, pools); err != nil {
		t.logger.Warn().Err(err).Str("session", t.sessionKey).Msg("session cache write failed")
	} else {
		t.logger.Debug().Str("session", t.sessionKey).Int("pools", len(pools)).Msg("cached pools")
	}
	return pools, nil
}

func poolSymbols(p model.Pool) []string {
	return []string{p.TokenA.Symbol, p.TokenB.Symbol, p.LPToken.Symbol}
}
