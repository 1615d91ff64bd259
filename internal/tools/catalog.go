package tools

import (
	"github.com/rs/zerolog"

	"github.com/ggonzalez94/ledgertools/internal/model"
	"github.com/ggonzalez94/ledgertools/internal/providers"
	"github.com/ggonzalez94/ledgertools/internal/session"
)

type Deps struct {
	Pools           providers.PoolProvider
	Ledger          providers.LedgerReader
	PoolCache       session.Cache[model.Pool]
	OperatorAccount string
	Logger          zerolog.Logger
}

// NewCatalog builds the registry of every tool. Tools whose provider is nil
// are left out.
func NewCatalog(deps Deps) (*Registry, error) {
	items := []Tool{}
	if deps.Pools != nil {
		cache := deps.PoolCache
		if cache == nil {
			cache = session.NewMemory[model.Pool]()
		}
		items = append(items,
			NewPoolsTool(deps.Pools, cache, deps.OperatorAccount, deps.Logger),
			NewConversionRatesTool(deps.Pools, deps.Logger),
		)
	}
	if deps.Ledger != nil {
		items = append(items,
			NewHbarBalanceTool(deps.Ledger, deps.OperatorAccount, deps.Logger),
			NewTokenBalancesTool(deps.Ledger, deps.OperatorAccount, deps.Logger),
			NewTopicInfoTool(deps.Ledger, deps.Logger),
			NewTopicMessagesTool(deps.Ledger, deps.Logger),
			NewPendingAirdropsTool(deps.Ledger, deps.OperatorAccount, deps.Logger),
		)
	}
	return NewRegistry(items...)
}
