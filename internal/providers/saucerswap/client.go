package saucerswap

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	clierr "github.com/ggonzalez94/ledgertools/internal/errors"
	"github.com/ggonzalez94/ledgertools/internal/httpx"
	"github.com/ggonzalez94/ledgertools/internal/model"
	"github.com/ggonzalez94/ledgertools/internal/providers"
	"github.com/ggonzalez94/ledgertools/internal/registry"
)

type Client struct {
	http    *httpx.Client
	baseURL string
	apiKey  string
}

func New(httpClient *httpx.Client, baseURL, apiKey string) *Client {
	return &Client{
		http:    httpClient,
		baseURL: registry.NormalizeBaseURL(baseURL),
		apiKey:  strings.TrimSpace(apiKey),
	}
}

func (c *Client) Info() model.ProviderInfo {
	return model.ProviderInfo{
		Name:        "saucerswap",
		Type:        "dex",
		RequiresKey: false,
		Capabilities: []string{
			"pools.list",
			"pools.conversion_rates",
		},
	}
}

// Pools returns every pool the API lists, in API order.
func (c *Client) Pools(ctx context.Context) ([]model.Pool, error) {
	var resp []model.Pool
	if _, err := c.http.GetJSON(ctx, c.baseURL+"/pools", c.headers(), &resp); err != nil {
		return nil, err
	}
	if resp == nil {
		resp = []model.Pool{}
	}
	return resp, nil
}

func (c *Client) PoolConversionRates(ctx context.Context, poolID string, interval providers.ConversionInterval, inverted bool) ([]model.PoolConversionRate, error) {
	poolID = strings.TrimSpace(poolID)
	if poolID == "" {
		return nil, clierr.Validation("Pool ID is required")
	}
	if !interval.Valid() {
		return nil, clierr.Validation(fmt.Sprintf("unsupported interval %q", interval))
	}

	q := url.Values{}
	q.Set("interval", string(interval))
	q.Set("inverted", strconv.FormatBool(inverted))
	endpoint := fmt.Sprintf("%s/pools/conversionRates/%s?%s", c.baseURL, url.PathEscape(poolID), q.Encode())

	var resp []model.PoolConversionRate
	if _, err := c.http.GetJSON(ctx, endpoint, c.headers(), &resp); err != nil {
		return nil, err
	}
	if resp == nil {
		resp = []model.PoolConversionRate{}
	}
	return resp, nil
}

func (c *Client) headers() map[string]string {
	return map[string]string{"x-api-key": c.apiKey}
}
