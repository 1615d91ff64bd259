package tools

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ggonzalez94/ledgertools/internal/args"
	clierr "github.com/ggonzalez94/ledgertools/internal/errors"
	"github.com/ggonzalez94/ledgertools/internal/id"
	"github.com/ggonzalez94/ledgertools/internal/providers"
)

const (
	HbarBalanceToolName     = "hedera_get_hbar_balance"
	TokenBalancesToolName   = "hedera_get_all_tokens_balances"
	TopicInfoToolName       = "hedera_get_topic_info"
	TopicMessagesToolName   = "hedera_get_topic_messages"
	PendingAirdropsToolName = "hedera_get_pending_airdrop"
)

var accountSchema = args.MustCompile(map[string]any{
	"type": "object",
	"properties": map[string]any{
		"accountId": map[string]any{"type": []any{"string", "null"}, "description": "Account id (0.0.x) or EVM address. Defaults to the operator account."},
	},
})

var topicInfoSchema = args.MustCompile(map[string]any{
	"type": "object",
	"properties": map[string]any{
		"topicId": map[string]any{"type": []any{"string", "null"}, "description": "Topic id (0.0.x)."},
	},
})

var topicMessagesSchema = args.MustCompile(map[string]any{
	"type": "object",
	"properties": map[string]any{
		"topicId":        map[string]any{"type": []any{"string", "null"}, "description": "Topic id (0.0.x)."},
		"lowerTimestamp": map[string]any{"type": []any{"string", "null"}, "description": "Only messages at or after this time (seconds.nanos, unix seconds or RFC3339)."},
		"upperTimestamp": map[string]any{"type": []any{"string", "null"}, "description": "Only messages at or before this time."},
		"limit":          map[string]any{"type": []any{"integer", "null"}, "description": "Maximum messages to return (1-100).", "default": 100},
	},
})

type AccountArgs struct {
	AccountID string `json:"accountId"`
}

type TopicArgs struct {
	TopicID string `json:"topicId"`
}

func (a TopicArgs) Validate() error {
	if strings.TrimSpace(a.TopicID) == "" {
		return clierr.Validation("Topic ID is required")
	}
	return nil
}

type TopicMessagesArgs struct {
	TopicID        string `json:"topicId"`
	LowerTimestamp string `json:"lowerTimestamp"`
	UpperTimestamp string `json:"upperTimestamp"`
	Limit          int    `json:"limit"`
}

func (a TopicMessagesArgs) Validate() error {
	if strings.TrimSpace(a.TopicID) == "" {
		return clierr.Validation("Topic ID is required")
	}
	if a.Limit < 1 || a.Limit > 100 {
		return clierr.Validation("limit must be between 1 and 100")
	}
	return nil
}

// resolveAccount falls back to the operator account when the caller names none.
func resolveAccount(requested, operator string) (id.Account, error) {
	ref := strings.TrimSpace(requested)
	if ref == "" {
		ref = strings.TrimSpace(operator)
	}
	if ref == "" {
		return id.Account{}, clierr.Validation("Account ID is required (no operator account is configured)")
	}
	return id.ParseAccount(ref)
}

func NewHbarBalanceTool(reader providers.LedgerReader, operatorAccount string, logger zerolog.Logger) Tool {
	return &simpleTool[AccountArgs]{
		name: HbarBalanceToolName,
		description: `Retrieves the HBAR balance of a Hedera account.
Inputs (input is a JSON string):
- **accountId** (*string*, optional): Account id (e.g. "0.0.123456") or EVM address. Default: the operator account.

Example usage:
'{
  "accountId": "0.0.123456"
}'`,
		schema:   accountSchema,
		defaults: func() AccountArgs { return AccountArgs{} },
		message:  "HBAR balance retrieved",
		logger:   logger,
		run: func(ctx context.Context, a AccountArgs) (any, error) {
			account, err := resolveAccount(a.AccountID, operatorAccount)
			if err != nil {
				return nil, err
			}
			return reader.HbarBalance(ctx, account)
		},
	}
}

func NewTokenBalancesTool(reader providers.LedgerReader, operatorAccount string, logger zerolog.Logger) Tool {
	return &simpleTool[AccountArgs]{
		name: TokenBalancesToolName,
		description: `Retrieves the balances of every token held by a Hedera account, in base units with token decimals.
Inputs (input is a JSON string):
- **accountId** (*string*, optional): Account id or EVM address. Default: the operator account.`,
		schema:   accountSchema,
		defaults: func() AccountArgs { return AccountArgs{} },
		message:  "Token balances retrieved",
		logger:   logger,
		run: func(ctx context.Context, a AccountArgs) (any, error) {
			account, err := resolveAccount(a.AccountID, operatorAccount)
			if err != nil {
				return nil, err
			}
			return reader.TokenBalances(ctx, account)
		},
	}
}

func NewTopicInfoTool(reader providers.LedgerReader, logger zerolog.Logger) Tool {
	return &simpleTool[TopicArgs]{
		name: TopicInfoToolName,
		description: `Retrieves information about a Hedera Consensus Service topic (memo, keys, auto renew settings).
Inputs (input is a JSON string):
- **topicId** (*string*, required): Topic id, e.g. "0.0.5005".`,
		schema:   topicInfoSchema,
		defaults: func() TopicArgs { return TopicArgs{} },
		message:  "Topic info retrieved",
		logger:   logger,
		run: func(ctx context.Context, a TopicArgs) (any, error) {
			topic, err := id.ParseEntityID(a.TopicID)
			if err != nil {
				return nil, err
			}
			return reader.TopicInfo(ctx, topic)
		},
	}
}

func NewTopicMessagesTool(reader providers.LedgerReader, logger zerolog.Logger) Tool {
	return &simpleTool[TopicMessagesArgs]{
		name: TopicMessagesToolName,
		description: `Retrieves messages posted to a Hedera Consensus Service topic, oldest first.
Inputs (input is a JSON string):
- **topicId** (*string*, required): Topic id, e.g. "0.0.5005".
- **lowerTimestamp** (*string*, optional): Only messages at or after this time.
- **upperTimestamp** (*string*, optional): Only messages at or before this time.
- **limit** (*number*, optional): Maximum messages to return (1-100). Default: 100.

Example usage:
'{
  "topicId": "0.0.5005",
  "lowerTimestamp": "1700000000"
}'`,
		schema:   topicMessagesSchema,
		defaults: func() TopicMessagesArgs { return TopicMessagesArgs{Limit: 100} },
		message:  "Topic messages retrieved",
		logger:   logger,
		run: func(ctx context.Context, a TopicMessagesArgs) (any, error) {
			topic, err := id.ParseEntityID(a.TopicID)
			if err != nil {
				return nil, err
			}
			return reader.TopicMessages(ctx, providers.TopicMessagesRequest{
				TopicID:        topic,
				LowerTimestamp: a.LowerTimestamp,
				UpperTimestamp: a.UpperTimestamp,
				Limit:          a.Limit,
			})
		},
	}
}

func NewPendingAirdropsTool(reader providers.LedgerReader, operatorAccount string, logger zerolog.Logger) Tool {
	return &simpleTool[AccountArgs]{
		name: PendingAirdropsToolName,
		description: `Lists token airdrops waiting to be claimed by a Hedera account.
Inputs (input is a JSON string):
- **accountId** (*string*, optional): Receiver account id or EVM address. Default: the operator account.`,
		schema:   accountSchema,
		defaults: func() AccountArgs { return AccountArgs{} },
		message:  "Pending airdrops retrieved",
		logger:   logger,
		run: func(ctx context.Context, a AccountArgs) (any, error) {
			account, err := resolveAccount(a.AccountID, operatorAccount)
			if err != nil {
				return nil, err
			}
			return reader.PendingAirdrops(ctx, account)
		},
	}
}
