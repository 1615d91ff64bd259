package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(tmp, "cache"))
	for _, key := range []string{
		"HEDERA_ACCOUNT_ID", "HEDERA_PRIVATE_KEY", "HEDERA_NETWORK",
		"LEDGERTOOLS_OUTPUT", "LEDGERTOOLS_TIMEOUT", "LEDGERTOOLS_RETRIES", "LEDGERTOOLS_NO_CACHE",
		"LEDGERTOOLS_CACHE_PATH", "LEDGERTOOLS_CACHE_LOCK_PATH", "LEDGERTOOLS_LOG_LEVEL",
		"LEDGERTOOLS_CUSTODIAL", "LEDGERTOOLS_MIRROR_URL", "LEDGERTOOLS_SAUCERSWAP_URL",
		"LEDGERTOOLS_SAUCERSWAP_API_KEY", "LEDGERTOOLS_KEYSTORE_PATH", "LEDGERTOOLS_KEYSTORE_PASSWORD",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	isolateEnv(t)
	settings, err := Load(GlobalFlags{Retries: -1})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.Network != "testnet" || !settings.Custodial || settings.Timeout != 10*time.Second {
		t.Fatalf("unexpected defaults: %+v", settings)
	}
	if settings.AccountID != "" {
		t.Fatalf("expected no operator account by default, got %q", settings.AccountID)
	}
	if filepath.Base(settings.CachePath) != "sessions.db" {
		t.Fatalf("unexpected cache path: %s", settings.CachePath)
	}
}

func TestLoadPrecedenceFlagsOverEnvOverFile(t *testing.T) {
	isolateEnv(t)
	tmp := t.TempDir()
	configPath := filepath.Join(tmp, "config.yaml")
	body := "output: plain\nretries: 1\nnetwork: mainnet\noperator:\n  account_id: 0.0.1001\nlog:\n  level: debug\n"
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("LEDGERTOOLS_OUTPUT", "json")
	t.Setenv("HEDERA_ACCOUNT_ID", "0.0.2002")
	flags := GlobalFlags{ConfigPath: configPath, Plain: true, Retries: 5}
	settings, err := Load(flags)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.OutputMode != "plain" {
		t.Fatalf("expected flag to win, got output=%s", settings.OutputMode)
	}
	if settings.Retries != 5 {
		t.Fatalf("expected retries from flags, got %d", settings.Retries)
	}
	if settings.AccountID != "0.0.2002" {
		t.Fatalf("expected env to override file account, got %s", settings.AccountID)
	}
	if settings.Network != "mainnet" || settings.LogLevel != "debug" {
		t.Fatalf("expected file values to apply, got network=%s log=%s", settings.Network, settings.LogLevel)
	}
}

func TestLoadMutuallyExclusiveOutputFlags(t *testing.T) {
	isolateEnv(t)
	_, err := Load(GlobalFlags{JSON: true, Plain: true})
	if err == nil {
		t.Fatal("expected error with --json and --plain")
	}
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	isolateEnv(t)
	if _, err := Load(GlobalFlags{Network: "devnet", Retries: -1}); err == nil {
		t.Fatal("expected invalid network to fail validation")
	}
	if _, err := Load(GlobalFlags{LogLevel: "verbose", Retries: -1}); err == nil {
		t.Fatal("expected invalid log level to fail validation")
	}
	if _, err := Load(GlobalFlags{MirrorURL: "::not-a-url", Retries: -1}); err == nil {
		t.Fatal("expected invalid mirror url to fail validation")
	}
}

func TestLoadNonCustodialAndToolAllowlist(t *testing.T) {
	isolateEnv(t)
	t.Setenv("LEDGERTOOLS_CUSTODIAL", "true")
	settings, err := Load(GlobalFlags{NonCustodial: true, EnableTools: "sauceswap_get_pools, ,hedera_get_hbar_balance", Retries: -1})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.Custodial {
		t.Fatal("expected --non-custodial to override env")
	}
	if len(settings.EnableTools) != 2 {
		t.Fatalf("unexpected allowlist: %#v", settings.EnableTools)
	}
}
