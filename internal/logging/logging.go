package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	Level   string // debug, info, warn, error
	Pretty  bool
	Out     io.Writer
	Secrets []string // literal values scrubbed from every log line
}

// New builds the process logger. Logs always go to stderr unless Out is set,
// stdout is reserved for tool output.
func New(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var writer io.Writer = os.Stderr
	if cfg.Out != nil {
		writer = cfg.Out
	}
	if cfg.Pretty {
		writer = zerolog.ConsoleWriter{Out: writer, TimeFormat: time.RFC3339}
	}
	if r := newRedactor(cfg.Secrets); r != nil {
		writer = r.wrap(writer)
	}

	return zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// Nop is used by tests and library callers that do not care about logs.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

type redactor struct {
	replacer *strings.Replacer
}

func newRedactor(secrets []string) *redactor {
	pairs := make([]string, 0, len(secrets)*2)
	for _, s := range secrets {
		// Short values would redact unrelated text.
		if len(strings.TrimSpace(s)) < 8 {
			continue
		}
		pairs = append(pairs, s, "[REDACTED]")
	}
	if len(pairs) == 0 {
		return nil
	}
	return &redactor{replacer: strings.NewReplacer(pairs...)}
}

func (r *redactor) wrap(w io.Writer) io.Writer {
	return &redactingWriter{writer: w, redactor: r}
}

type redactingWriter struct {
	writer   io.Writer
	redactor *redactor
}

func (w *redactingWriter) Write(p []byte) (int, error) {
	if _, err := io.WriteString(w.writer, w.redactor.replacer.Replace(string(p))); err != nil {
		return 0, err
	}
	return len(p), nil
}
