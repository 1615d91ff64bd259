package registry

import (
	"net"
	"net/url"
	"strings"
)

const (
	MirrorMainnetURL    = "https://mainnet-public.mirrornode.hedera.com"
	MirrorTestnetURL    = "https://testnet.mirrornode.hedera.com"
	MirrorPreviewnetURL = "https://previewnet.mirrornode.hedera.com"

	// SaucerSwap has no previewnet deployment.
	SaucerSwapMainnetURL = "https://api.saucerswap.finance"
	SaucerSwapTestnetURL = "https://test-api.saucerswap.finance"
)

func MirrorNodeURL(network string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(network)) {
	case "mainnet":
		return MirrorMainnetURL, true
	case "testnet":
		return MirrorTestnetURL, true
	case "previewnet":
		return MirrorPreviewnetURL, true
	default:
		return "", false
	}
}

func SaucerSwapURL(network string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(network)) {
	case "mainnet":
		return SaucerSwapMainnetURL, true
	case "testnet":
		return SaucerSwapTestnetURL, true
	default:
		return "", false
	}
}

// IsAllowedOverrideURL reports whether endpoint may replace a default base
// URL. Overrides must be https unless they point at a loopback host.
func IsAllowedOverrideURL(endpoint string) bool {
	if strings.TrimSpace(endpoint) == "" {
		return true
	}
	parsed, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return false
	}
	if strings.TrimSpace(parsed.Hostname()) == "" {
		return false
	}
	scheme := strings.ToLower(strings.TrimSpace(parsed.Scheme))
	if isLoopbackHost(parsed.Hostname()) {
		return scheme == "http" || scheme == "https"
	}
	if scheme != "https" {
		return false
	}
	return parsed.RawQuery == "" && parsed.Fragment == ""
}

// NormalizeBaseURL trims whitespace and trailing slashes.
func NormalizeBaseURL(endpoint string) string {
	return strings.TrimRight(strings.TrimSpace(endpoint), "/")
}

func isLoopbackHost(host string) bool {
	h := strings.TrimSpace(strings.ToLower(host))
	if h == "localhost" {
		return true
	}
	ip := net.ParseIP(h)
	return ip != nil && ip.IsLoopback()
}
