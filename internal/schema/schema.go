package schema

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ggonzalez94/ledgertools/internal/model"
)

// Document describes the CLI surface and, for the root or tool commands, the
// agent-facing tool declarations.
type Document struct {
	Command CommandSchema    `json:"command"`
	Tools   []model.ToolSpec `json:"tools,omitempty"`
}

type CommandSchema struct {
	Path        string          `json:"path"`
	Use         string          `json:"use"`
	Short       string          `json:"short"`
	Example     string          `json:"example,omitempty"`
	Aliases     []string        `json:"aliases,omitempty"`
	Flags       []FlagSchema    `json:"flags,omitempty"`
	Subcommands []CommandSchema `json:"subcommands,omitempty"`
}

type FlagSchema struct {
	Name      string `json:"name"`
	Shorthand string `json:"shorthand,omitempty"`
	Type      string `json:"type"`
	Usage     string `json:"usage"`
	Default   string `json:"default,omitempty"`
}

func BuildDocument(root *cobra.Command, commandPath string, tools []model.ToolSpec) (Document, error) {
	cmd, err := find(root, commandPath)
	if err != nil {
		return Document{}, err
	}
	doc := Document{Command: serialize(cmd)}
	if cmd == root || cmd.Name() == "tools" || cmd.Name() == "call" || cmd.Name() == "serve" {
		doc.Tools = tools
	}
	return doc, nil
}

func Build(root *cobra.Command, commandPath string) (CommandSchema, error) {
	cmd, err := find(root, commandPath)
	if err != nil {
		return CommandSchema{}, err
	}
	return serialize(cmd), nil
}

func find(root *cobra.Command, commandPath string) (*cobra.Command, error) {
	cmd := root
	for _, p := range strings.Fields(strings.TrimSpace(commandPath)) {
		found := false
		for _, c := range cmd.Commands() {
			if c.Name() == p || contains(c.Aliases, p) {
				cmd = c
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("command not found: %s", commandPath)
		}
	}
	return cmd, nil
}

func serialize(cmd *cobra.Command) CommandSchema {
	s := CommandSchema{
		Path:    strings.TrimSpace(cmd.CommandPath()),
		Use:     cmd.Use,
		Short:   cmd.Short,
		Example: cmd.Example,
		Aliases: cmd.Aliases,
		Flags:   collectFlags(cmd),
	}
	for _, sub := range cmd.Commands() {
		if sub.Hidden {
			continue
		}
		s.Subcommands = append(s.Subcommands, serialize(sub))
	}
	return s
}

func collectFlags(cmd *cobra.Command) []FlagSchema {
	items := []FlagSchema{}
	cmd.NonInheritedFlags().VisitAll(func(f *pflag.Flag) {
		items = append(items, FlagSchema{
			Name:      f.Name,
			Shorthand: f.Shorthand,
			Type:      f.Value.Type(),
			Usage:     f.Usage,
			Default:   f.DefValue,
		})
	})
	return items
}

func contains(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
