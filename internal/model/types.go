package model

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ToolEnvelope is the JSON contract every tool returns to the agent.
type ToolEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Code    string `json:"code,omitempty"`
}

// PageEnvelope is the success envelope of paginated tools. Filter is always
// rendered, as null when no filter was applied.
type PageEnvelope struct {
	Status     string         `json:"status"`
	Message    string         `json:"message"`
	Pagination PaginationMeta `json:"pagination"`
	Filter     *string        `json:"filter"`
	Data       any            `json:"data"`
}

type PaginationMeta struct {
	Page              int    `json:"page"`
	PageSize          int    `json:"pageSize"`
	TotalPages        int    `json:"totalPages"`
	TotalCount        int    `json:"totalCount"`
	HasNextPage       bool   `json:"hasNextPage"`
	HasPreviousPage   bool   `json:"hasPreviousPage"`
	PaginationSummary string `json:"paginationSummary"`
	NavigationGuide   string `json:"navigationGuide"`
	CurrentRange      string `json:"currentRange"`
	RemainingItems    int    `json:"remainingItems"`
	RemainingPages    int    `json:"remainingPages"`
}

type PoolToken struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Symbol   string  `json:"symbol"`
	Decimals int     `json:"decimals"`
	PriceUSD float64 `json:"priceUsd"`
}

// Pool is a SaucerSwap liquidity pool descriptor.
type Pool struct {
	ID             int       `json:"id"`
	ContractID     string    `json:"contractId"`
	LPToken        PoolToken `json:"lpToken"`
	LPTokenReserve string    `json:"lpTokenReserve"`
	TokenA         PoolToken `json:"tokenA"`
	TokenReserveA  string    `json:"tokenReserveA"`
	TokenB         PoolToken `json:"tokenB"`
	TokenReserveB  string    `json:"tokenReserveB"`
}

type PoolConversionRate struct {
	ID                    int     `json:"id"`
	PoolID                int     `json:"poolId"`
	Open                  float64 `json:"open"`
	High                  float64 `json:"high"`
	Low                   float64 `json:"low"`
	Close                 float64 `json:"close"`
	Avg                   float64 `json:"avg"`
	Volume                string  `json:"volume"`
	Liquidity             string  `json:"liquidity"`
	VolumeUSD             string  `json:"volumeUsd"`
	LiquidityUSD          string  `json:"liquidityUsd"`
	TimestampSeconds      int64   `json:"timestampSeconds"`
	StartTimestampSeconds int64   `json:"startTimestampSeconds"`
}

type HbarBalance struct {
	AccountID   string `json:"accountId"`
	Tinybars    int64  `json:"tinybars"`
	Hbar        string `json:"hbar"`
	EVMAddress  string `json:"evmAddress,omitempty"`
	RetrievedAt string `json:"retrievedAt"`
}

type TokenBalance struct {
	TokenID  string `json:"tokenId"`
	Balance  int64  `json:"balance"`
	Decimals int    `json:"decimals"`
}

type TopicKey struct {
	Type string `json:"_type"`
	Key  string `json:"key"`
}

type TopicInfo struct {
	TopicID            string    `json:"topic_id"`
	Memo               string    `json:"memo"`
	Deleted            bool      `json:"deleted"`
	AdminKey           *TopicKey `json:"admin_key,omitempty"`
	SubmitKey          *TopicKey `json:"submit_key,omitempty"`
	AutoRenewAccount   string    `json:"auto_renew_account,omitempty"`
	AutoRenewPeriod    int64     `json:"auto_renew_period,omitempty"`
	CreatedTimestamp   string    `json:"created_timestamp,omitempty"`
	TimestampRangeFrom string    `json:"timestamp_from,omitempty"`
	TimestampRangeTo   string    `json:"timestamp_to,omitempty"`
}

type TopicMessage struct {
	ConsensusTimestamp string `json:"consensus_timestamp"`
	Message            string `json:"message"`
	PayerAccountID     string `json:"payer_account_id"`
	RunningHash        string `json:"running_hash"`
	SequenceNumber     int64  `json:"sequence_number"`
	TopicID            string `json:"topic_id"`
}

type Airdrop struct {
	Amount     int64  `json:"amount"`
	ReceiverID string `json:"receiver_id"`
	SenderID   string `json:"sender_id"`
	TokenID    string `json:"token_id"`
}

// OperatorInfo describes the configured custodial operator without exposing key material.
type OperatorInfo struct {
	AccountID  string `json:"account_id"`
	Network    string `json:"network"`
	KeyType    string `json:"key_type"`
	PublicKey  string `json:"public_key"`
	EVMAddress string `json:"evm_address,omitempty"`
	Custodial  bool   `json:"custodial"`
}

// ToolSpec is the agent-facing declaration of a tool.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type ProviderInfo struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	RequiresKey  bool     `json:"requires_key"`
	Capabilities []string `json:"capabilities"`
}
