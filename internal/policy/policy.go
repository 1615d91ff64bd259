package policy

import (
	"fmt"
	"strings"

	clierr "github.com/ggonzalez94/ledgertools/internal/errors"
)

// CheckToolAllowed enforces the --enable-tools allowlist. An empty allowlist
// allows every tool.
func CheckToolAllowed(allowlist []string, toolName string) error {
	if len(allowlist) == 0 {
		return nil
	}
	norm := normalize(toolName)
	for _, allowed := range allowlist {
		if normalize(allowed) == norm {
			return nil
		}
	}
	return clierr.New(clierr.CodeBlocked, fmt.Sprintf("tool %s blocked by --enable-tools policy", toolName))
}

// Allowed returns the names from candidates permitted by allowlist, in order.
func Allowed(allowlist []string, candidates []string) []string {
	out := make([]string, 0, len(candidates))
	for _, name := range candidates {
		if CheckToolAllowed(allowlist, name) == nil {
			out = append(out, name)
		}
	}
	return out
}

func normalize(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
