package trailhead

import (
	"log/slog"
	"net/url"
	"strings"
)

const (
	LogKindKey = "kind"
	LogMaskVal = "xxxxxx"
)

var (
	AppLogKind  = slog.StringValue("app")
	HTTPLogKind = slog.StringValue("http")

	// MaskedLogValue is a convenience [log/slog.Value]
	// to be used in implementations of [log/slog.LogValuer]
	// to hide sensitive data from log messages.
	MaskedLogValue = slog.StringValue(LogMaskVal)

	// MaskedKeys are the query and form keys whose values never reach a log line.
	MaskedKeys = []string{"password", "token", "secret"}
)

// Mask replaces every value of key in vals with a single LogMaskVal.
// Mask does nothing if key is not set.
func Mask(vals url.Values, key string) {
	if _, ok := vals[key]; !ok {
		return
	}

	vals[key] = []string{LogMaskVal}
}

// MaskAll calls Mask for each of MaskedKeys.
func MaskAll(vals url.Values) {
	for _, k := range MaskedKeys {
		Mask(vals, k)
	}
}

// NewLogLevel parses val into a [log/slog.Level], defaulting to [log/slog.LevelInfo].
func NewLogLevel(val string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(val)))); err != nil {
		return slog.LevelInfo
	}

	return lvl
}
