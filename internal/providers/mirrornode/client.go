package mirrornode

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	clierr "github.com/ggonzalez94/ledgertools/internal/errors"
	"github.com/ggonzalez94/ledgertools/internal/httpx"
	"github.com/ggonzalez94/ledgertools/internal/id"
	"github.com/ggonzalez94/ledgertools/internal/model"
	"github.com/ggonzalez94/ledgertools/internal/providers"
	"github.com/ggonzalez94/ledgertools/internal/registry"
)

const (
	pageLimit = 100
	// Upper bound on followed "links.next" pages per query.
	maxPages          = 25
	tinybarsPerHbar   = 100_000_000
	defaultTopicLimit = 100
)

type Client struct {
	http    *httpx.Client
	baseURL string
	now     func() time.Time
}

func New(httpClient *httpx.Client, baseURL string) *Client {
	return &Client{
		http:    httpClient,
		baseURL: registry.NormalizeBaseURL(baseURL),
		now:     time.Now,
	}
}

func (c *Client) Info() model.ProviderInfo {
	return model.ProviderInfo{
		Name:        "mirrornode",
		Type:        "ledger",
		RequiresKey: false,
		Capabilities: []string{
			"accounts.balance",
			"accounts.tokens",
			"accounts.airdrops.pending",
			"topics.info",
			"topics.messages",
		},
	}
}

type links struct {
	Next *string `json:"next"`
}

type accountResp struct {
	Account    string `json:"account"`
	EVMAddress string `json:"evm_address"`
	Balance    struct {
		Balance   int64  `json:"balance"`
		Timestamp string `json:"timestamp"`
	} `json:"balance"`
}

func (c *Client) HbarBalance(ctx context.Context, account id.Account) (model.HbarBalance, error) {
	var resp accountResp
	endpoint := c.baseURL + "/api/v1/accounts/" + url.PathEscape(account.Ref())
	if _, err := c.http.GetJSON(ctx, endpoint, nil, &resp); err != nil {
		return model.HbarBalance{}, err
	}
	retrieved := consensusToRFC3339(resp.Balance.Timestamp)
	if retrieved == "" {
		retrieved = c.now().UTC().Format(time.RFC3339)
	}
	return model.HbarBalance{
		AccountID:   resp.Account,
		Tinybars:    resp.Balance.Balance,
		Hbar:        FormatHbar(resp.Balance.Balance),
		EVMAddress:  resp.EVMAddress,
		RetrievedAt: retrieved,
	}, nil
}

type tokensResp struct {
	Tokens []struct {
		TokenID  string `json:"token_id"`
		Balance  int64  `json:"balance"`
		Decimals int    `json:"decimals"`
	} `json:"tokens"`
	Links links `json:"links"`
}

func (c *Client) TokenBalances(ctx context.Context, account id.Account) ([]model.TokenBalance, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(pageLimit))
	next := "/api/v1/accounts/" + url.PathEscape(account.Ref()) + "/tokens?" + q.Encode()

	out := []model.TokenBalance{}
	for page := 0; next != "" && page < maxPages; page++ {
		var resp tokensResp
		if _, err := c.http.GetJSON(ctx, c.baseURL+next, nil, &resp); err != nil {
			return nil, err
		}
		for _, t := range resp.Tokens {
			out = append(out, model.TokenBalance{TokenID: t.TokenID, Balance: t.Balance, Decimals: t.Decimals})
		}
		next = nextPath(resp.Links)
	}
	return out, nil
}

type topicResp struct {
	TopicID          string          `json:"topic_id"`
	Memo             string          `json:"memo"`
	Deleted          bool            `json:"deleted"`
	AdminKey         *model.TopicKey `json:"admin_key"`
	SubmitKey        *model.TopicKey `json:"submit_key"`
	AutoRenewAccount string          `json:"auto_renew_account"`
	AutoRenewPeriod  int64           `json:"auto_renew_period"`
	CreatedTimestamp string          `json:"created_timestamp"`
	Timestamp        struct {
		From string `json:"from"`
		To   string `json:"to"`
	} `json:"timestamp"`
}

func (c *Client) TopicInfo(ctx context.Context, topicID id.EntityID) (model.TopicInfo, error) {
	var resp topicResp
	endpoint := c.baseURL + "/api/v1/topics/" + topicID.String()
	if _, err := c.http.GetJSON(ctx, endpoint, nil, &resp); err != nil {
		return model.TopicInfo{}, err
	}
	return model.TopicInfo{
		TopicID:            resp.TopicID,
		Memo:               resp.Memo,
		Deleted:            resp.Deleted,
		AdminKey:           resp.AdminKey,
		SubmitKey:          resp.SubmitKey,
		AutoRenewAccount:   resp.AutoRenewAccount,
		AutoRenewPeriod:    resp.AutoRenewPeriod,
		CreatedTimestamp:   resp.CreatedTimestamp,
		TimestampRangeFrom: resp.Timestamp.From,
		TimestampRangeTo:   resp.Timestamp.To,
	}, nil
}

type messagesResp struct {
	Messages []struct {
		ConsensusTimestamp string `json:"consensus_timestamp"`
		Message            string `json:"message"`
		PayerAccountID     string `json:"payer_account_id"`
		RunningHash        string `json:"running_hash"`
		SequenceNumber     int64  `json:"sequence_number"`
		TopicID            string `json:"topic_id"`
	} `json:"messages"`
	Links links `json:"links"`
}

// TopicMessages returns messages in ascending consensus order. Message bodies
// are base64-decoded when they hold UTF-8 text.
func (c *Client) TopicMessages(ctx context.Context, req providers.TopicMessagesRequest) ([]model.TopicMessage, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultTopicLimit
	}
	q := url.Values{}
	q.Set("order", "asc")
	q.Set("limit", strconv.Itoa(min(limit, pageLimit)))
	if v := strings.TrimSpace(req.LowerTimestamp); v != "" {
		ts, err := NormalizeTimestamp(v)
		if err != nil {
			return nil, err
		}
		q.Add("timestamp", "gte:"+ts)
	}
	if v := strings.TrimSpace(req.UpperTimestamp); v != "" {
		ts, err := NormalizeTimestamp(v)
		if err != nil {
			return nil, err
		}
		q.Add("timestamp", "lte:"+ts)
	}
	next := "/api/v1/topics/" + req.TopicID.String() + "/messages?" + q.Encode()

	out := []model.TopicMessage{}
	for page := 0; next != "" && page < maxPages && len(out) < limit; page++ {
		var resp messagesResp
		if _, err := c.http.GetJSON(ctx, c.baseURL+next, nil, &resp); err != nil {
			return nil, err
		}
		for _, m := range resp.Messages {
			if len(out) >= limit {
				break
			}
			out = append(out, model.TopicMessage{
				ConsensusTimestamp: m.ConsensusTimestamp,
				Message:            decodeMessage(m.Message),
				PayerAccountID:     m.PayerAccountID,
				RunningHash:        m.RunningHash,
				SequenceNumber:     m.SequenceNumber,
				TopicID:            m.TopicID,
			})
		}
		next = nextPath(resp.Links)
	}
	return out, nil
}

type airdropsResp struct {
	Airdrops []struct {
		Amount     int64  `json:"amount"`
		ReceiverID string `json:"receiver_id"`
		SenderID   string `json:"sender_id"`
		TokenID    string `json:"token_id"`
	} `json:"airdrops"`
	Links links `json:"links"`
}

func (c *Client) PendingAirdrops(ctx context.Context, account id.Account) ([]model.Airdrop, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(pageLimit))
	next := "/api/v1/accounts/" + url.PathEscape(account.Ref()) + "/airdrops/pending?" + q.Encode()

	out := []model.Airdrop{}
	for page := 0; next != "" && page < maxPages; page++ {
		var resp airdropsResp
		if _, err := c.http.GetJSON(ctx, c.baseURL+next, nil, &resp); err != nil {
			return nil, err
		}
		for _, a := range resp.Airdrops {
			out = append(out, model.Airdrop{Amount: a.Amount, ReceiverID: a.ReceiverID, SenderID: a.SenderID, TokenID: a.TokenID})
		}
		next = nextPath(resp.Links)
	}
	return out, nil
}

// FormatHbar renders tinybars as a decimal HBAR amount without trailing zeros.
func FormatHbar(tinybars int64) string {
	sign := ""
	u := uint64(tinybars)
	if tinybars < 0 {
		sign = "-"
		u = uint64(-(tinybars + 1)) + 1
	}
	whole := u / tinybarsPerHbar
	frac := u % tinybarsPerHbar
	if frac == 0 {
		return sign + strconv.FormatUint(whole, 10)
	}
	fracStr := strings.TrimRight(fmt.Sprintf("%08d", frac), "0")
	return sign + strconv.FormatUint(whole, 10) + "." + fracStr
}

// NormalizeTimestamp accepts a consensus timestamp (seconds.nanos), unix
// seconds or RFC3339 and returns the consensus form.
func NormalizeTimestamp(input string) (string, error) {
	v := strings.TrimSpace(input)
	if secs, nanos, ok := strings.Cut(v, "."); ok {
		if _, err := strconv.ParseUint(secs, 10, 64); err == nil {
			if _, err := strconv.ParseUint(nanos, 10, 64); err == nil && len(nanos) <= 9 {
				return secs + "." + nanos + strings.Repeat("0", 9-len(nanos)), nil
			}
		}
	}
	if _, err := strconv.ParseUint(v, 10, 64); err == nil {
		return v + ".000000000", nil
	}
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return fmt.Sprintf("%d.%09d", t.Unix(), t.Nanosecond()), nil
	}
	return "", clierr.Validation(fmt.Sprintf("invalid timestamp %q (expected seconds.nanos, unix seconds or RFC3339)", input))
}

func consensusToRFC3339(ts string) string {
	secs, nanos, _ := strings.Cut(strings.TrimSpace(ts), ".")
	s, err := strconv.ParseInt(secs, 10, 64)
	if err != nil || s <= 0 {
		return ""
	}
	var ns int64
	if nanos != "" {
		ns, _ = strconv.ParseInt(nanos, 10, 64)
	}
	return time.Unix(s, ns).UTC().Format(time.RFC3339)
}

func decodeMessage(encoded string) string {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || !utf8.Valid(raw) {
		return encoded
	}
	return string(raw)
}

func nextPath(l links) string {
	if l.Next == nil {
		return ""
	}
	return strings.TrimSpace(*l.Next)
}
