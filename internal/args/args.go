// Package args turns loosely typed tool-call input into typed argument
// records. Structure is checked against a JSON Schema and domain rules are
// checked by the record itself.
package args

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	clierr "github.com/ggonzalez94/ledgertools/internal/errors"
)

// Validator is implemented by argument records with domain rules.
type Validator interface {
	Validate() error
}

type Schema struct {
	raw      map[string]any
	compiled *gojsonschema.Schema
}

func Compile(raw map[string]any) (*Schema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("compile argument schema: %w", err)
	}
	return &Schema{raw: raw, compiled: compiled}, nil
}

func MustCompile(raw map[string]any) *Schema {
	s, err := Compile(raw)
	if err != nil {
		panic(err)
	}
	return s
}

// Raw returns the schema document advertised to agents.
func (s *Schema) Raw() map[string]any {
	if s == nil {
		return map[string]any{"type": "object"}
	}
	return s.raw
}

// Decode normalizes input (JSON text, raw bytes or an already decoded value),
// validates it against schema and decodes it over dst, which holds the
// defaults. Absent fields keep their defaults. All failures are validation
// errors.
func Decode(input any, schema *Schema, dst any) error {
	buf, err := normalize(input)
	if err != nil {
		return err
	}

	if schema != nil {
		result, err := schema.compiled.Validate(gojsonschema.NewBytesLoader(buf))
		if err != nil {
			return clierr.Validation(fmt.Sprintf("invalid tool input: %v", err))
		}
		if !result.Valid() {
			msgs := make([]string, 0, len(result.Errors()))
			for _, e := range result.Errors() {
				msgs = append(msgs, e.String())
			}
			return clierr.Validation("invalid tool input: " + strings.Join(msgs, "; "))
		}
	}

	if err := json.Unmarshal(integralNumbers(buf), dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return clierr.Validation(fmt.Sprintf("invalid tool input: %s: expected %s", typeErr.Field, typeErr.Type.Kind()))
		}
		return clierr.Validation(fmt.Sprintf("invalid tool input: %v", err))
	}

	if v, ok := dst.(Validator); ok {
		if err := v.Validate(); err != nil {
			if _, typed := clierr.As(err); typed {
				return err
			}
			return clierr.Validation(err.Error())
		}
	}
	return nil
}

// integralNumbers rewrites whole-number floats such as 2.0 as integers. The
// schema accepts them for integer fields but encoding/json does not.
func integralNumbers(buf []byte) []byte {
	dec := json.NewDecoder(bytes.NewReader(buf))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return buf
	}
	out, err := json.Marshal(rewriteNumbers(v))
	if err != nil {
		return buf
	}
	return out
}

func rewriteNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			t[k] = rewriteNumbers(item)
		}
	case []any:
		for i, item := range t {
			t[i] = rewriteNumbers(item)
		}
	case json.Number:
		if _, err := t.Int64(); err == nil {
			return t
		}
		f, err := t.Float64()
		if err == nil && f == math.Trunc(f) && math.Abs(f) <= 1<<53 {
			return json.Number(strconv.FormatInt(int64(f), 10))
		}
	}
	return v
}

func normalize(input any) ([]byte, error) {
	var buf []byte
	switch v := input.(type) {
	case nil:
		return []byte("{}"), nil
	case string:
		buf = []byte(v)
	case []byte:
		buf = v
	case json.RawMessage:
		buf = v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, clierr.Validation(fmt.Sprintf("invalid tool input: %v", err))
		}
		buf = encoded
	}
	buf = bytes.TrimSpace(buf)
	if len(buf) == 0 || bytes.Equal(buf, []byte("null")) {
		return []byte("{}"), nil
	}
	if !json.Valid(buf) {
		return nil, clierr.Validation("invalid tool input: input is not valid JSON")
	}
	return buf, nil
}

// Text accepts either a JSON string or a JSON number, for identifiers agents
// send in both forms (e.g. pool ids).
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", string(data))
	}
	if i, err := n.Int64(); err == nil {
		*t = Text(strconv.FormatInt(i, 10))
		return nil
	}
	*t = Text(n.String())
	return nil
}

func (t Text) String() string { return string(t) }
