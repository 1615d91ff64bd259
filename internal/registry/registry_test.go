package registry

import "testing"

func TestMirrorNodeURL(t *testing.T) {
	if u, ok := MirrorNodeURL("Mainnet"); !ok || u != MirrorMainnetURL {
		t.Fatalf("unexpected mainnet mirror url: ok=%v url=%q", ok, u)
	}
	if u, ok := MirrorNodeURL("testnet"); !ok || u != MirrorTestnetURL {
		t.Fatalf("unexpected testnet mirror url: ok=%v url=%q", ok, u)
	}
	if _, ok := MirrorNodeURL("devnet"); ok {
		t.Fatal("did not expect mirror url for unknown network")
	}
}

func TestSaucerSwapURL(t *testing.T) {
	if u, ok := SaucerSwapURL("testnet"); !ok || u != "https://test-api.saucerswap.finance" {
		t.Fatalf("unexpected testnet saucerswap url: ok=%v url=%q", ok, u)
	}
	if _, ok := SaucerSwapURL("previewnet"); ok {
		t.Fatal("did not expect saucerswap url for previewnet")
	}
}

func TestIsAllowedOverrideURL(t *testing.T) {
	cases := []struct {
		url  string
		want bool
	}{
		{"", true},
		{"https://mirror.example.com", true},
		{"http://mirror.example.com", false},
		{"http://127.0.0.1:5551", true},
		{"http://localhost:8080", true},
		{"ftp://localhost", false},
		{"https://mirror.example.com/?token=x", false},
		{"not a url", false},
	}
	for _, tc := range cases {
		if got := IsAllowedOverrideURL(tc.url); got != tc.want {
			t.Fatalf("IsAllowedOverrideURL(%q) = %v, want %v", tc.url, got, tc.want)
		}
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	if got := NormalizeBaseURL(" https://api.saucerswap.finance/ "); got != SaucerSwapMainnetURL {
		t.Fatalf("unexpected normalized url: %q", got)
	}
}
