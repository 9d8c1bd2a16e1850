package assertions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// DifferenceKind classifies a single mismatch found by Diff.
type DifferenceKind string

const (
	DiffValue      DifferenceKind = "value"
	DiffType       DifferenceKind = "type"
	DiffMissing    DifferenceKind = "missing"
	DiffUnexpected DifferenceKind = "unexpected"
	DiffLength     DifferenceKind = "length"
)

// rootPath labels differences found at the top level of a document.
const rootPath = "(root)"

// Difference is one place where actual diverges from expected.
type Difference struct {
	Path     string
	Kind     DifferenceKind
	Expected any
	Actual   any
}

func (d Difference) String() string {
	switch d.Kind {
	case DiffMissing:
		return fmt.Sprintf("%s: missing key (expected %s)", d.Path, compactJSON(d.Expected))
	case DiffUnexpected:
		return fmt.Sprintf("%s: unexpected key (got %s)", d.Path, compactJSON(d.Actual))
	case DiffLength:
		return fmt.Sprintf("%s: expected %v items, got %v", d.Path, d.Expected, d.Actual)
	case DiffType:
		return fmt.Sprintf("%s: expected %s, got %s", d.Path, typedValue(d.Expected), typedValue(d.Actual))
	default:
		return fmt.Sprintf("%s: expected %s, got %s", d.Path, compactJSON(d.Expected), compactJSON(d.Actual))
	}
}

// Normalize converts v into the shape decoded JSON has: map[string]any,
// []any, string, float64, bool or nil. Values that cannot be marshaled
// return an error.
func Normalize(v any) (any, error) {
	data, err := marshalJSON(v)
	if err != nil {
		return nil, err
	}
	return gjson.ParseBytes(data).Value(), nil
}

// Equal reports whether expected and actual are deep-equal JSON values.
func Equal(expected, actual any) bool {
	diffs, err := Diff(expected, actual)
	return err == nil && len(diffs) == 0
}

// Diff normalizes both values and lists every difference between them in a
// stable order. Object keys are compared as sets; arrays are compared
// position by position.
func Diff(expected, actual any) ([]Difference, error) {
	e, err := Normalize(expected)
	if err != nil {
		return nil, fmt.Errorf("normalizing expected value: %w", err)
	}
	a, err := Normalize(actual)
	if err != nil {
		return nil, fmt.Errorf("normalizing actual value: %w", err)
	}

	var diffs []Difference
	diffValues("", e, a, &diffs)
	return diffs, nil
}

func diffValues(path string, expected, actual any, out *[]Difference) {
	switch e := expected.(type) {
	case map[string]any:
		a, ok := actual.(map[string]any)
		if !ok {
			*out = append(*out, Difference{Path: displayPath(path), Kind: DiffType, Expected: expected, Actual: actual})
			return
		}
		for _, k := range sortedKeys(e) {
			av, present := a[k]
			if !present {
				*out = append(*out, Difference{Path: joinKey(path, k), Kind: DiffMissing, Expected: e[k]})
				continue
			}
			diffValues(joinKey(path, k), e[k], av, out)
		}
		for _, k := range sortedKeys(a) {
			if _, present := e[k]; !present {
				*out = append(*out, Difference{Path: joinKey(path, k), Kind: DiffUnexpected, Actual: a[k]})
			}
		}

	case []any:
		a, ok := actual.([]any)
		if !ok {
			*out = append(*out, Difference{Path: displayPath(path), Kind: DiffType, Expected: expected, Actual: actual})
			return
		}
		if len(e) != len(a) {
			*out = append(*out, Difference{Path: displayPath(path), Kind: DiffLength, Expected: len(e), Actual: len(a)})
		}
		n := min(len(e), len(a))
		for i := 0; i < n; i++ {
			diffValues(joinIndex(path, i), e[i], a[i], out)
		}

	default:
		if jsonType(expected) != jsonType(actual) {
			*out = append(*out, Difference{Path: displayPath(path), Kind: DiffType, Expected: expected, Actual: actual})
			return
		}
		if !reflect.DeepEqual(expected, actual) {
			*out = append(*out, Difference{Path: displayPath(path), Kind: DiffValue, Expected: expected, Actual: actual})
		}
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func joinKey(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func joinIndex(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}

func displayPath(path string) string {
	if path == "" {
		return rootPath
	}
	return path
}

// typedValue renders v with its JSON type; null is its own value.
func typedValue(v any) string {
	if v == nil {
		return "null"
	}
	return jsonType(v) + " " + compactJSON(v)
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64, float32, int, int64, int32:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return reflect.TypeOf(v).String()
	}
}

// marshalJSON encodes v without HTML escaping and without the trailing newline.
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func compactJSON(v any) string {
	data, err := marshalJSON(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// FormatJSON renders v as indented JSON for diagnostic output.
func FormatJSON(v any) string {
	data, err := marshalJSON(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	out := pretty.PrettyOptions(data, &pretty.Options{Width: 80, Indent: "  "})
	return string(bytes.TrimRight(out, "\n"))
}
