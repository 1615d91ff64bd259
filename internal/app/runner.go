package app

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ggonzalez94/ledgertools/internal/cache"
	"github.com/ggonzalez94/ledgertools/internal/config"
	"github.com/ggonzalez94/ledgertools/internal/dispatch"
	clierr "github.com/ggonzalez94/ledgertools/internal/errors"
	"github.com/ggonzalez94/ledgertools/internal/httpx"
	"github.com/ggonzalez94/ledgertools/internal/logging"
	"github.com/ggonzalez94/ledgertools/internal/model"
	"github.com/ggonzalez94/ledgertools/internal/operator"
	"github.com/ggonzalez94/ledgertools/internal/out"
	"github.com/ggonzalez94/ledgertools/internal/policy"
	"github.com/ggonzalez94/ledgertools/internal/providers"
	"github.com/ggonzalez94/ledgertools/internal/providers/mirrornode"
	"github.com/ggonzalez94/ledgertools/internal/providers/saucerswap"
	"github.com/ggonzalez94/ledgertools/internal/registry"
	"github.com/ggonzalez94/ledgertools/internal/schema"
	"github.com/ggonzalez94/ledgertools/internal/session"
	"github.com/ggonzalez94/ledgertools/internal/tools"
	"github.com/ggonzalez94/ledgertools/internal/version"
)

const poolsNamespace = "pools"

// maxServeLine bounds a single JSON-lines request read by serve.
const maxServeLine = 4 << 20

type Runner struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func NewRunner() *Runner {
	return NewRunnerWithIO(os.Stdin, os.Stdout, os.Stderr)
}

func NewRunnerWithIO(stdin io.Reader, stdout, stderr io.Writer) *Runner {
	return &Runner{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}
}

type runtimeState struct {
	runner      *Runner
	flags       config.GlobalFlags
	settings    config.Settings
	logger      zerolog.Logger
	cache       *cache.Store
	root        *cobra.Command
	lastCommand string

	operator      *operator.Operator
	poolProvider  providers.PoolProvider
	ledgerReader  providers.LedgerReader
	providerInfos []model.ProviderInfo
}

// exitStatus ends a command whose output has already been written.
type exitStatus struct {
	code clierr.Code
}

func (e *exitStatus) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func (r *Runner) Run(args []string) int {
	state := &runtimeState{runner: r, logger: logging.Nop()}
	root := state.newRootCommand()
	state.root = root
	root.SetArgs(args)
	root.SetIn(r.stdin)
	root.SetOut(r.stdout)
	root.SetErr(r.stderr)
	root.SilenceUsage = true
	root.SilenceErrors = true

	err := root.Execute()
	if state.cache != nil {
		_ = state.cache.Close()
	}

	var status *exitStatus
	if errors.As(err, &status) {
		return int(status.code)
	}
	err = normalizeRunError(err)
	if err == nil {
		return 0
	}
	state.renderError(err)
	return clierr.ExitCode(err)
}

func (s *runtimeState) newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   version.CLIName,
		Short: "Hedera and SaucerSwap tools for LLM agents",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}
			settings, err := config.Load(s.flags)
			if err != nil {
				return clierr.Wrap(clierr.CodeUsage, "load configuration", err)
			}
			s.settings = settings
			s.lastCommand = trimRootPath(cmd.CommandPath())

			if requiresOperator(s.lastCommand) {
				if err := s.loadOperator(); err != nil {
					return err
				}
			}
			s.logger = logging.New(logging.Config{
				Level:   settings.LogLevel,
				Pretty:  settings.LogPretty,
				Out:     s.runner.stderr,
				Secrets: s.secrets(),
			})
			return s.buildProviders()
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return clierr.Wrap(clierr.CodeUsage, "parse flags", err)
	})

	flags := cmd.PersistentFlags()
	flags.BoolVar(&s.flags.JSON, "json", false, "Output JSON (default)")
	flags.BoolVar(&s.flags.Plain, "plain", false, "Output plain text")
	flags.StringVar(&s.flags.Select, "select", "", "Select fields from data (comma-separated)")
	flags.BoolVar(&s.flags.ResultsOnly, "results-only", false, "Output only data payload")
	flags.StringVar(&s.flags.EnableTools, "enable-tools", "", "Allowlist tool names (comma-separated)")
	flags.StringVar(&s.flags.Timeout, "timeout", "", "Provider request timeout")
	flags.IntVar(&s.flags.Retries, "retries", -1, "Retries per provider request")
	flags.BoolVar(&s.flags.NoCache, "no-cache", false, "Keep session snapshots in memory only")
	flags.StringVar(&s.flags.ConfigPath, "config", "", "Path to config file")
	flags.StringVar(&s.flags.Network, "network", "", "Hedera network (mainnet, testnet, previewnet)")
	flags.StringVar(&s.flags.AccountID, "account-id", "", "Operator account id (0.0.x)")
	flags.BoolVar(&s.flags.NonCustodial, "non-custodial", false, "Run tools in non-custodial mode")
	flags.StringVar(&s.flags.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&s.flags.MirrorURL, "mirror-url", "", "Override the mirror node base URL")
	flags.StringVar(&s.flags.SaucerSwapURL, "saucerswap-url", "", "Override the SaucerSwap API base URL")

	cmd.AddCommand(s.newToolsCommand())
	cmd.AddCommand(s.newCallCommand())
	cmd.AddCommand(s.newServeCommand())
	cmd.AddCommand(s.newSchemaCommand())
	cmd.AddCommand(s.newProvidersCommand())
	cmd.AddCommand(s.newOperatorCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func newVersionCommand() *cobra.Command {
	var long bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print CLI version",
		Run: func(cmd *cobra.Command, args []string) {
			if long {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.Long())
				return
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.CLIVersion)
		},
	}
	cmd.Flags().BoolVar(&long, "long", false, "Print extended build metadata")
	return cmd
}

func (s *runtimeState) newToolsCommand() *cobra.Command {
	root := &cobra.Command{Use: "tools", Short: "Tool catalog commands"}
	list := &cobra.Command{
		Use:   "list",
		Short: "List the tools available to the agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := s.newRegistry(session.NewMemory[model.Pool]())
			if err != nil {
				return err
			}
			return s.emitSuccess("Tools listed", reg.Specs())
		},
	}
	root.AddCommand(list)
	return root
}

func (s *runtimeState) newCallCommand() *cobra.Command {
	var callID string
	cmd := &cobra.Command{
		Use:     "call <tool> [json-args|-]",
		Short:   "Invoke one tool through the dispatcher",
		Example: `ledgertools call sauceswap_get_pools '{"page":1,"pageSize":10,"filter":"HBAR"}'`,
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if err := policy.CheckToolAllowed(s.settings.EnableTools, name); err != nil {
				return err
			}
			input, err := readArguments(cmd.InOrStdin(), args[1:])
			if err != nil {
				return err
			}
			if strings.TrimSpace(callID) == "" {
				callID = uuid.NewString()
			}

			reg, err := s.newRegistry(s.poolCache())
			if err != nil {
				return err
			}
			state := dispatch.State{Messages: []dispatch.Message{{
				Role:      dispatch.RoleAssistant,
				ToolCalls: []dispatch.ToolCall{{ID: callID, Name: name, Arguments: input}},
			}}}
			result, _ := s.dispatcher(reg).Invoke(cmd.Context(), state, tools.RunConfig{})
			if len(result.Messages) == 0 {
				return clierr.New(clierr.CodeDispatch, "dispatcher returned no tool message")
			}
			msg := result.Messages[0]
			if err := out.RenderToolResult(s.runner.stdout, msg.Content, s.settings); err != nil {
				return clierr.Wrap(clierr.CodeInternal, "render tool result", err)
			}
			if code := toolExitCode(msg); code != clierr.CodeSuccess {
				return &exitStatus{code: code}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&callID, "id", "", "Tool call id (generated when empty)")
	return cmd
}

func (s *runtimeState) newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Read tool calls as JSON lines on stdin and write tool messages to stdout",
		Long: "Each input line is either a tool call {\"id\",\"name\",\"arguments\"} or an agent state " +
			"{\"messages\":[...]}. Every call runs through the dispatcher and produces tool messages, " +
			"one JSON object per line. Pool snapshots live for the lifetime of the process.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := s.newRegistry(session.NewMemory[model.Pool]())
			if err != nil {
				return err
			}
			return s.serve(cmd, reg)
		},
	}
	return cmd
}

func (s *runtimeState) serve(cmd *cobra.Command, reg *tools.Registry) error {
	node := s.dispatcher(reg)
	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 0, 64*1024), maxServeLine)
	enc := json.NewEncoder(s.runner.stdout)
	s.logger.Info().Strs("tools", reg.Names()).Bool("custodial", s.settings.Custodial).Msg("serving tool calls")

	for scanner.Scan() {
		if err := cmd.Context().Err(); err != nil {
			return nil
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		state, err := decodeServeLine(line)
		if err != nil {
			s.logger.Warn().Err(err).Msg("rejected request line")
			if err := enc.Encode(rejectedLine(err)); err != nil {
				return clierr.Wrap(clierr.CodeInternal, "write tool message", err)
			}
			continue
		}
		result, _ := node.Invoke(cmd.Context(), state, tools.RunConfig{})
		for _, msg := range result.Messages {
			if err := enc.Encode(msg); err != nil {
				return clierr.Wrap(clierr.CodeInternal, "write tool message", err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return clierr.Wrap(clierr.CodeInternal, "read request lines", err)
	}
	return nil
}

func (s *runtimeState) newSchemaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema [command path]",
		Short: "Print machine-readable command and tool schema",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = strings.Join(args, " ")
			}
			reg, err := s.newRegistry(session.NewMemory[model.Pool]())
			if err != nil {
				return err
			}
			data, err := schema.BuildDocument(s.root, path, reg.Specs())
			if err != nil {
				return clierr.Wrap(clierr.CodeUsage, "build schema", err)
			}
			return s.emitSuccess("Schema built", data)
		},
	}
	return cmd
}

func (s *runtimeState) newProvidersCommand() *cobra.Command {
	root := &cobra.Command{Use: "providers", Short: "Provider commands"}
	list := &cobra.Command{
		Use:   "list",
		Short: "List upstream providers for the configured network (no keys required)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.emitSuccess("Providers listed", s.providerInfos)
		},
	}
	root.AddCommand(list)
	return root
}

func (s *runtimeState) newOperatorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "operator",
		Short: "Show the configured operator account (never prints key material)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if s.operator == nil {
				return clierr.New(clierr.CodeAuth, "no operator configured; set HEDERA_ACCOUNT_ID and HEDERA_PRIVATE_KEY")
			}
			return s.emitSuccess("Operator resolved", s.operator.Info())
		},
	}
}

func (s *runtimeState) loadOperator() error {
	cfg := operator.Config{
		AccountID:        s.settings.AccountID,
		PrivateKey:       s.settings.PrivateKey,
		KeystorePath:     s.settings.KeystorePath,
		KeystorePassword: s.settings.KeystorePassword,
		Network:          s.settings.Network,
		Custodial:        s.settings.Custodial,
	}
	if err := operator.RequireCredentials(cfg); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.AccountID) == "" {
		return nil
	}
	op, err := operator.Load(cfg)
	if err != nil {
		return err
	}
	s.operator = op
	return nil
}

func (s *runtimeState) secrets() []string {
	items := []string{s.settings.PrivateKey, s.settings.KeystorePassword, s.settings.SaucerSwapAPIKey}
	if s.operator != nil {
		items = append(items, s.operator.Secret())
	}
	return items
}

func (s *runtimeState) buildProviders() error {
	httpClient := httpx.New(s.settings.Timeout, s.settings.Retries)
	s.providerInfos = nil

	mirrorURL, err := resolveBaseURL("mirror node", s.settings.MirrorURL, s.settings.Network, registry.MirrorNodeURL)
	if err != nil {
		return err
	}
	if mirrorURL != "" {
		mirror := mirrornode.New(httpClient, mirrorURL)
		s.ledgerReader = mirror
		s.providerInfos = append(s.providerInfos, mirror.Info())
	}

	saucerURL, err := resolveBaseURL("saucerswap", s.settings.SaucerSwapURL, s.settings.Network, registry.SaucerSwapURL)
	if err != nil {
		return err
	}
	if saucerURL != "" {
		saucer := saucerswap.New(httpClient, saucerURL, s.settings.SaucerSwapAPIKey)
		s.poolProvider = saucer
		s.providerInfos = append(s.providerInfos, saucer.Info())
	} else {
		s.logger.Warn().Str("network", s.settings.Network).Msg("saucerswap is not deployed on this network; pool tools disabled")
	}
	return nil
}

// resolveBaseURL picks the override when set and the network default
// otherwise. An empty result means the provider has no deployment.
func resolveBaseURL(name, override, network string, fallback func(string) (string, bool)) (string, error) {
	if strings.TrimSpace(override) != "" {
		if !registry.IsAllowedOverrideURL(override) {
			return "", clierr.New(clierr.CodeUsage, fmt.Sprintf("%s url must use https (http is allowed for loopback hosts only)", name))
		}
		return registry.NormalizeBaseURL(override), nil
	}
	base, ok := fallback(network)
	if !ok {
		return "", nil
	}
	return base, nil
}

func (s *runtimeState) newRegistry(poolCache session.Cache[model.Pool]) (*tools.Registry, error) {
	operatorAccount := s.settings.AccountID
	if s.operator != nil {
		operatorAccount = s.operator.AccountID()
	}
	reg, err := tools.NewCatalog(tools.Deps{
		Pools:           s.poolProvider,
		Ledger:          s.ledgerReader,
		PoolCache:       poolCache,
		OperatorAccount: operatorAccount,
		Logger:          s.logger,
	})
	if err != nil {
		return nil, clierr.Wrap(clierr.CodeInternal, "build tool catalog", err)
	}
	return reg.Restrict(s.settings.EnableTools), nil
}

// poolCache returns the sqlite-backed session cache so pagination across
// separate call invocations reuses one snapshot. It falls back to memory
// when the cache is disabled or cannot be opened.
func (s *runtimeState) poolCache() session.Cache[model.Pool] {
	if !s.settings.CacheEnabled {
		return session.NewMemory[model.Pool]()
	}
	if s.cache == nil {
		store, err := cache.Open(s.settings.CachePath, s.settings.CacheLockPath)
		if err != nil {
			s.logger.Warn().Err(err).Str("path", s.settings.CachePath).Msg("session cache unavailable, using memory")
			return session.NewMemory[model.Pool]()
		}
		s.cache = store
	}
	return session.NewPersistent[model.Pool](s.cache, poolsNamespace)
}

func (s *runtimeState) dispatcher(reg *tools.Registry) dispatch.Node {
	return dispatch.ModeOverride(dispatch.NewToolNode(reg), s.settings.Custodial, s.logger)
}

func (s *runtimeState) emitSuccess(message string, data any) error {
	env := model.ToolEnvelope{
		Status:  model.StatusSuccess,
		Message: message,
		Data:    data,
	}
	return out.Render(s.runner.stdout, env, s.settings)
}

func (s *runtimeState) renderError(err error) {
	message := err.Error()
	if cErr, ok := clierr.As(err); ok {
		message = cErr.Message
		if cErr.Cause != nil {
			message = fmt.Sprintf("%s: %v", cErr.Message, cErr.Cause)
		}
	}
	settings := s.settings
	if settings.OutputMode == "" {
		settings.OutputMode = "json"
	}
	settings.ResultsOnly = false
	settings.SelectFields = nil
	env := model.ToolEnvelope{
		Status:  model.StatusError,
		Message: message,
		Code:    clierr.EnvelopeCode(err),
	}
	_ = out.Render(s.runner.stderr, env, settings)
}

func readArguments(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 {
		return "{}", nil
	}
	if args[0] != "-" {
		return args[0], nil
	}
	buf, err := io.ReadAll(stdin)
	if err != nil {
		return "", clierr.Wrap(clierr.CodeUsage, "read arguments from stdin", err)
	}
	return string(buf), nil
}

// decodeServeLine accepts either a bare tool call or a full agent state.
func decodeServeLine(line []byte) (dispatch.State, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(line, &probe); err != nil {
		return dispatch.State{}, clierr.Wrap(clierr.CodeValidation, "invalid request line", err)
	}
	if _, ok := probe["messages"]; ok {
		var state dispatch.State
		if err := json.Unmarshal(line, &state); err != nil {
			return dispatch.State{}, clierr.Wrap(clierr.CodeValidation, "invalid agent state", err)
		}
		return state, nil
	}

	var call struct {
		ID        string          `json:"id"`
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(line, &call); err != nil {
		return dispatch.State{}, clierr.Wrap(clierr.CodeValidation, "invalid tool call", err)
	}
	if strings.TrimSpace(call.Name) == "" {
		return dispatch.State{}, clierr.Validation("tool call name is required")
	}
	if strings.TrimSpace(call.ID) == "" {
		call.ID = uuid.NewString()
	}
	return dispatch.State{Messages: []dispatch.Message{{
		Role:      dispatch.RoleAssistant,
		ToolCalls: []dispatch.ToolCall{{ID: call.ID, Name: call.Name, Arguments: rawArguments(call.Arguments)}},
	}}}, nil
}

// rawArguments keeps a JSON-string arguments field as its inner text and any
// other JSON value as-is.
func rawArguments(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	return string(raw)
}

func rejectedLine(err error) dispatch.Message {
	env, _ := json.Marshal(model.ToolEnvelope{
		Status:  model.StatusError,
		Message: err.Error(),
		Code:    clierr.EnvelopeCode(err),
	})
	return dispatch.Message{Role: dispatch.RoleTool, Content: string(env)}
}

// toolExitCode maps a tool message to the process exit code of call.
func toolExitCode(msg dispatch.Message) clierr.Code {
	if dispatch.IsFailure(msg) {
		return clierr.CodeDispatch
	}
	var env model.ToolEnvelope
	if err := json.Unmarshal([]byte(msg.Content), &env); err != nil {
		return clierr.CodeDispatch
	}
	if env.Status != model.StatusError {
		return clierr.CodeSuccess
	}
	code, _ := clierr.CodeFromName(env.Code)
	return code
}

func requiresOperator(commandPath string) bool {
	switch normalizeCommandPath(commandPath) {
	case "call", "serve", "operator":
		return true
	default:
		return false
	}
}

func trimRootPath(path string) string {
	parts := strings.Fields(path)
	if len(parts) <= 1 {
		return path
	}
	return strings.Join(parts[1:], " ")
}

func normalizeCommandPath(commandPath string) string {
	return strings.ToLower(strings.TrimSpace(commandPath))
}

func normalizeRunError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := clierr.As(err); ok {
		return err
	}
	if isLikelyUsageError(err) {
		return clierr.Wrap(clierr.CodeUsage, "invalid command input", err)
	}
	return clierr.Wrap(clierr.CodeInternal, "execute command", err)
}

func isLikelyUsageError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	patterns := []string{
		"unknown command",
		"unknown flag",
		"required flag(s)",
		"flag needs an argument",
		"requires at least",
		"requires exactly",
		"accepts ",
		"invalid argument",
		"invalid args",
	}
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
