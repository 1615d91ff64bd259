package out

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"

	"github.com/ggonzalez94/ledgertools/internal/config"
)

// Render writes doc in the configured output mode. When doc is a result
// envelope, --results-only narrows it to the envelope data and --select
// projects fields of the data.
func Render(w io.Writer, doc any, settings config.Settings) error {
	n := normalizeValue(doc)

	if env, ok := n.(map[string]any); ok {
		if data, has := env["data"]; has {
			if len(settings.SelectFields) > 0 {
				data = project(data, settings.SelectFields)
				env["data"] = data
			}
			if settings.ResultsOnly {
				n = data
			}
		}
	} else if len(settings.SelectFields) > 0 {
		n = project(n, settings.SelectFields)
	}

	if settings.OutputMode == "plain" {
		return renderPlain(w, n)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(n)
}

// RenderToolResult renders the JSON string a tool produced. Non-JSON content
// is rendered as an error envelope carrying the text.
func RenderToolResult(w io.Writer, content string, settings config.Settings) error {
	var doc any
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		doc = map[string]any{"status": "error", "message": content}
	}
	return Render(w, doc, settings)
}

func renderPlain(w io.Writer, data any) error {
	v := reflect.ValueOf(data)
	if !v.IsValid() {
		_, err := fmt.Fprintln(w, "null")
		return err
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			line, err := toLine(normalizeValue(v.Index(i).Interface()))
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
		if v.Len() == 0 {
			_, err := fmt.Fprintln(w, "[]")
			return err
		}
		return nil
	default:
		line, err := toLine(normalizeValue(data))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, line)
		return err
	}
}

func project(data any, fields []string) any {
	n := normalizeValue(data)
	switch t := n.(type) {
	case []any:
		out := make([]any, 0, len(t))
		for _, item := range t {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			out = append(out, projectMap(m, fields))
		}
		return out
	case map[string]any:
		return projectMap(t, fields)
	default:
		return n
	}
}

func projectMap(m map[string]any, fields []string) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if v, ok := lookupPath(m, f); ok {
			out[f] = v
		}
	}
	return out
}

// lookupPath resolves dotted paths such as "tokenA.symbol".
func lookupPath(m map[string]any, path string) (any, bool) {
	var cur any = m
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func normalizeValue(v any) any {
	buf, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(buf, &out); err != nil {
		return v
	}
	return out
}

func toLine(v any) (string, error) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			val := t[k]
			switch val.(type) {
			case map[string]any, []any:
				buf, err := json.Marshal(val)
				if err != nil {
					return "", err
				}
				parts = append(parts, fmt.Sprintf("%s=%s", k, buf))
			default:
				parts = append(parts, fmt.Sprintf("%s=%v", k, val))
			}
		}
		return strings.Join(parts, " "), nil
	default:
		buf, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(buf), nil
	}
}
