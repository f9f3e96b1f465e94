package pkpass

import (
	"errors"
	"log/slog"
	"math"
	"regexp"
	"time"

	"github.com/goccy/go-json"
)

// object is a JSON object of the parsed manifest. Lookups never fail, they
// return zero values for absent keys or mismatching types.
type object map[string]any

func (o object) has(key string) bool {
	_, ok := o[key]
	return ok
}

func (o object) str(key string) string {
	s, _ := o[key].(string)
	return s
}

func (o object) num(key string) (float64, bool) {
	f, ok := o[key].(float64)
	return f, ok
}

// integer returns the value of key if it is a number without a fractional part.
func (o object) integer(key string) (int, bool) {
	f, ok := o.num(key)
	if !ok || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}

func (o object) obj(key string) object {
	m, _ := o[key].(map[string]any)
	return m
}

func (o object) arr(key string) []any {
	a, _ := o[key].([]any)
	return a
}

func toObject(v any) object {
	m, _ := v.(map[string]any)
	return m
}

// Trailing comma patterns `],}` and `},}`, optionally with whitespace around
// the comma. Known producers emit these, sometimes chained as `],},}`.
var (
	arrayTrailingComma  = regexp.MustCompile(`\]\s*,(\s*})`)
	objectTrailingComma = regexp.MustCompile(`}\s*,(\s*})`)
)

// parseManifest decodes pass.json. A manifest that fails to parse gets a
// single repair attempt for the trailing comma patterns; the returned error
// always describes the first failure.
func parseManifest(data []byte) (object, error) {
	root, err := decodeJSON(data)
	if err == nil {
		return root, nil
	}

	repaired := arrayTrailingComma.ReplaceAll(data, []byte("]$1"))
	repaired = objectTrailingComma.ReplaceAll(repaired, []byte("}$1"))
	root, repairErr := decodeJSON(repaired)
	if repairErr != nil {
		slog.Warn("Error parsing pass.json", "error", err)
		return nil, toManifestParseError(err)
	}

	slog.Warn("Repaired malformed pass.json", "error", err)
	return root, nil
}

func decodeJSON(data []byte) (object, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	// a non-object top level is treated as an empty manifest
	return toObject(v), nil
}

func toManifestParseError(err error) *ManifestParseError {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &ManifestParseError{Offset: syntaxErr.Offset, Msg: syntaxErr.Error()}
	}
	return &ManifestParseError{Msg: err.Error()}
}

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04-0700",
}

var localDateTimeLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseDateTime parses an ISO 8601 timestamp. Timestamps without an offset
// are interpreted in loc.
func parseDateTime(s string, loc *time.Location) (time.Time, bool) {
	if len(s) < len("2006-01-02") {
		return time.Time{}, false
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range localDateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
