package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type GlobalFlags struct {
	ConfigPath    string
	JSON          bool
	Plain         bool
	Select        string
	ResultsOnly   bool
	EnableTools   string
	Timeout       string
	Retries       int
	NoCache       bool
	Network       string
	AccountID     string
	NonCustodial  bool
	LogLevel      string
	MirrorURL     string
	SaucerSwapURL string
}

type Settings struct {
	OutputMode       string        `validate:"oneof=json plain"`
	SelectFields     []string      `validate:"-"`
	ResultsOnly      bool          `validate:"-"`
	EnableTools      []string      `validate:"dive,required"`
	Timeout          time.Duration `validate:"gt=0"`
	Retries          int           `validate:"gte=0,lte=10"`
	CacheEnabled     bool          `validate:"-"`
	CachePath        string        `validate:"required_if=CacheEnabled true"`
	CacheLockPath    string        `validate:"required_if=CacheEnabled true"`
	LogLevel         string        `validate:"oneof=debug info warn error"`
	LogPretty        bool          `validate:"-"`
	Network          string        `validate:"oneof=mainnet testnet previewnet"`
	AccountID        string        `validate:"-"`
	PrivateKey       string        `validate:"-"`
	KeystorePath     string        `validate:"omitempty,filepath"`
	KeystorePassword string        `validate:"-"`
	Custodial        bool          `validate:"-"`
	MirrorURL        string        `validate:"omitempty,url"`
	SaucerSwapURL    string        `validate:"omitempty,url"`
	SaucerSwapAPIKey string        `validate:"-"`
}

type fileConfig struct {
	Output    string `yaml:"output"`
	Timeout   string `yaml:"timeout"`
	Retries   *int   `yaml:"retries"`
	Network   string `yaml:"network"`
	Custodial *bool  `yaml:"custodial"`
	Log       struct {
		Level  string `yaml:"level"`
		Pretty *bool  `yaml:"pretty"`
	} `yaml:"log"`
	Cache struct {
		Enabled  *bool  `yaml:"enabled"`
		Path     string `yaml:"path"`
		LockPath string `yaml:"lock_path"`
	} `yaml:"cache"`
	Operator struct {
		AccountID           string `yaml:"account_id"`
		PrivateKeyEnv       string `yaml:"private_key_env"`
		KeystorePath        string `yaml:"keystore_path"`
		KeystorePasswordEnv string `yaml:"keystore_password_env"`
	} `yaml:"operator"`
	Providers struct {
		MirrorNode struct {
			URL string `yaml:"url"`
		} `yaml:"mirror_node"`
		SaucerSwap struct {
			URL       string `yaml:"url"`
			APIKey    string `yaml:"api_key"`
			APIKeyEnv string `yaml:"api_key_env"`
		} `yaml:"saucerswap"`
	} `yaml:"providers"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func Load(flags GlobalFlags) (Settings, error) {
	settings, err := defaultSettings()
	if err != nil {
		return Settings{}, err
	}

	cfgPath, err := resolveConfigPath(flags.ConfigPath)
	if err != nil {
		return Settings{}, err
	}

	if err := applyFileConfig(cfgPath, &settings); err != nil {
		return Settings{}, err
	}

	applyEnv(&settings)

	if err := applyFlags(flags, &settings); err != nil {
		return Settings{}, err
	}

	if settings.Retries < 0 {
		settings.Retries = 0
	}
	if err := Validate(settings); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// Validate checks the resolved settings. Credentials are not checked here,
// only commands that execute tools require them.
func Validate(settings Settings) error {
	if err := validate.Struct(settings); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid setting %s: failed %q check (value %v)", fe.Field(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

func defaultSettings() (Settings, error) {
	cachePath, lockPath, err := defaultCachePaths()
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		OutputMode:    "json",
		Timeout:       10 * time.Second,
		Retries:       2,
		CacheEnabled:  true,
		CachePath:     cachePath,
		CacheLockPath: lockPath,
		LogLevel:      "info",
		Network:       "testnet",
		Custodial:     true,
	}, nil
}

func resolveConfigPath(input string) (string, error) {
	if strings.TrimSpace(input) != "" {
		return input, nil
	}
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "ledgertools", "config.yaml"), nil
}

func defaultCachePaths() (string, string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", "", err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, "ledgertools")
	return filepath.Join(dir, "sessions.db"), filepath.Join(dir, "sessions.lock"), nil
}

func applyFileConfig(path string, settings *Settings) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}

	if cfg.Output != "" {
		settings.OutputMode = strings.ToLower(cfg.Output)
	}
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return fmt.Errorf("config timeout: %w", err)
		}
		settings.Timeout = d
	}
	if cfg.Retries != nil {
		settings.Retries = *cfg.Retries
	}
	if cfg.Network != "" {
		settings.Network = strings.ToLower(cfg.Network)
	}
	if cfg.Custodial != nil {
		settings.Custodial = *cfg.Custodial
	}
	if cfg.Log.Level != "" {
		settings.LogLevel = strings.ToLower(cfg.Log.Level)
	}
	if cfg.Log.Pretty != nil {
		settings.LogPretty = *cfg.Log.Pretty
	}
	if cfg.Cache.Enabled != nil {
		settings.CacheEnabled = *cfg.Cache.Enabled
	}
	if cfg.Cache.Path != "" {
		settings.CachePath = cfg.Cache.Path
	}
	if cfg.Cache.LockPath != "" {
		settings.CacheLockPath = cfg.Cache.LockPath
	}
	if cfg.Operator.AccountID != "" {
		settings.AccountID = cfg.Operator.AccountID
	}
	if cfg.Operator.PrivateKeyEnv != "" {
		settings.PrivateKey = os.Getenv(cfg.Operator.PrivateKeyEnv)
	}
	if cfg.Operator.KeystorePath != "" {
		settings.KeystorePath = cfg.Operator.KeystorePath
	}
	if cfg.Operator.KeystorePasswordEnv != "" {
		settings.KeystorePassword = os.Getenv(cfg.Operator.KeystorePasswordEnv)
	}
	if cfg.Providers.MirrorNode.URL != "" {
		settings.MirrorURL = cfg.Providers.MirrorNode.URL
	}
	if cfg.Providers.SaucerSwap.URL != "" {
		settings.SaucerSwapURL = cfg.Providers.SaucerSwap.URL
	}
	if cfg.Providers.SaucerSwap.APIKey != "" {
		settings.SaucerSwapAPIKey = cfg.Providers.SaucerSwap.APIKey
	}
	if cfg.Providers.SaucerSwap.APIKeyEnv != "" {
		settings.SaucerSwapAPIKey = os.Getenv(cfg.Providers.SaucerSwap.APIKeyEnv)
	}

	return nil
}

func applyEnv(settings *Settings) {
	if v := os.Getenv("HEDERA_ACCOUNT_ID"); v != "" {
		settings.AccountID = v
	}
	if v := os.Getenv("HEDERA_PRIVATE_KEY"); v != "" {
		settings.PrivateKey = v
	}
	if v := os.Getenv("LEDGERTOOLS_KEYSTORE_PATH"); v != "" {
		settings.KeystorePath = v
	}
	if v := os.Getenv("LEDGERTOOLS_KEYSTORE_PASSWORD"); v != "" {
		settings.KeystorePassword = v
	}
	if v := os.Getenv("HEDERA_NETWORK"); v != "" {
		settings.Network = strings.ToLower(v)
	}
	if v := os.Getenv("LEDGERTOOLS_OUTPUT"); v != "" {
		settings.OutputMode = strings.ToLower(v)
	}
	if v := os.Getenv("LEDGERTOOLS_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			settings.Timeout = d
		}
	}
	if v := os.Getenv("LEDGERTOOLS_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			settings.Retries = n
		}
	}
	if v := os.Getenv("LEDGERTOOLS_NO_CACHE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			settings.CacheEnabled = !b
		}
	}
	if v := os.Getenv("LEDGERTOOLS_CACHE_PATH"); v != "" {
		settings.CachePath = v
	}
	if v := os.Getenv("LEDGERTOOLS_CACHE_LOCK_PATH"); v != "" {
		settings.CacheLockPath = v
	}
	if v := os.Getenv("LEDGERTOOLS_LOG_LEVEL"); v != "" {
		settings.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("LEDGERTOOLS_CUSTODIAL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			settings.Custodial = b
		}
	}
	if v := os.Getenv("LEDGERTOOLS_MIRROR_URL"); v != "" {
		settings.MirrorURL = v
	}
	if v := os.Getenv("LEDGERTOOLS_SAUCERSWAP_URL"); v != "" {
		settings.SaucerSwapURL = v
	}
	if v := os.Getenv("LEDGERTOOLS_SAUCERSWAP_API_KEY"); v != "" {
		settings.SaucerSwapAPIKey = v
	}
}

func applyFlags(flags GlobalFlags, settings *Settings) error {
	if flags.JSON && flags.Plain {
		return fmt.Errorf("cannot use --json and --plain together")
	}
	if flags.JSON {
		settings.OutputMode = "json"
	}
	if flags.Plain {
		settings.OutputMode = "plain"
	}
	if strings.TrimSpace(flags.Select) != "" {
		settings.SelectFields = splitList(flags.Select)
	}
	settings.ResultsOnly = flags.ResultsOnly

	if strings.TrimSpace(flags.EnableTools) != "" {
		settings.EnableTools = splitList(flags.EnableTools)
	}

	if flags.Timeout != "" {
		d, err := time.ParseDuration(flags.Timeout)
		if err != nil {
			return fmt.Errorf("parse --timeout: %w", err)
		}
		settings.Timeout = d
	}
	if flags.Retries >= 0 {
		settings.Retries = flags.Retries
	}
	if flags.NoCache {
		settings.CacheEnabled = false
	}
	if v := strings.TrimSpace(flags.Network); v != "" {
		settings.Network = strings.ToLower(v)
	}
	if v := strings.TrimSpace(flags.AccountID); v != "" {
		settings.AccountID = v
	}
	if flags.NonCustodial {
		settings.Custodial = false
	}
	if v := strings.TrimSpace(flags.LogLevel); v != "" {
		settings.LogLevel = strings.ToLower(v)
	}
	if v := strings.TrimSpace(flags.MirrorURL); v != "" {
		settings.MirrorURL = v
	}
	if v := strings.TrimSpace(flags.SaucerSwapURL); v != "" {
		settings.SaucerSwapURL = v
	}
	return nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
