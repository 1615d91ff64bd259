package providers

import (
	"context"

	"github.com/ggonzalez94/ledgertools/internal/id"
	"github.com/ggonzalez94/ledgertools/internal/model"
)

type Provider interface {
	Info() model.ProviderInfo
}

type ConversionInterval string

const (
	IntervalFiveMin ConversionInterval = "FIVEMIN"
	IntervalHour    ConversionInterval = "HOUR"
	IntervalDay     ConversionInterval = "DAY"
	IntervalWeek    ConversionInterval = "WEEK"
)

// ConversionIntervals lists accepted intervals in display order.
var ConversionIntervals = []ConversionInterval{IntervalFiveMin, IntervalHour, IntervalDay, IntervalWeek}

func (i ConversionInterval) Valid() bool {
	for _, v := range ConversionIntervals {
		if v == i {
			return true
		}
	}
	return false
}

type PoolProvider interface {
	Provider
	Pools(ctx context.Context) ([]model.Pool, error)
	PoolConversionRates(ctx context.Context, poolID string, interval ConversionInterval, inverted bool) ([]model.PoolConversionRate, error)
}

type TopicMessagesRequest struct {
	TopicID        id.EntityID
	LowerTimestamp string
	UpperTimestamp string
	Limit          int
}

// LedgerReader covers the read-only ledger queries served by a mirror node.
type LedgerReader interface {
	Provider
	HbarBalance(ctx context.Context, account id.Account) (model.HbarBalance, error)
	TokenBalances(ctx context.Context, account id.Account) ([]model.TokenBalance, error)
	TopicInfo(ctx context.Context, topicID id.EntityID) (model.TopicInfo, error)
	TopicMessages(ctx context.Context, req TopicMessagesRequest) ([]model.TopicMessage, error)
	PendingAirdrops(ctx context.Context, account id.Account) ([]model.Airdrop, error)
}
