package trailhead_test

import (
	"log/slog"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/trailhead"
)

func TestMask(t *testing.T) {
	for _, tc := range []struct {
		name string
		vals url.Values
		key  string
		want url.Values
	}{
		{"zero", url.Values{}, "", url.Values{}},
		{
			"mismatch",
			url.Values{"password": []string{"hunter2"}},
			"passwrod",
			url.Values{"password": []string{"hunter2"}},
		},
		{
			"match",
			url.Values{"password": []string{"hunter2"}},
			"password",
			url.Values{"password": []string{trailhead.LogMaskVal}},
		},
		{
			"squash-multiple",
			url.Values{"password": []string{"hunter2", "hunter3"}},
			"password",
			url.Values{"password": []string{trailhead.LogMaskVal}},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			trailhead.Mask(tc.vals, tc.key)
			require.Equal(t, tc.want, tc.vals)
		})
	}
}

func TestMaskAll(t *testing.T) {
	// Arrange
	vals := url.Values{"token": {"abc"}, "route": {"/login"}, "secret": {"s"}}

	// Act
	trailhead.MaskAll(vals)

	// Assert
	require.Equal(t, url.Values{
		"token":  {trailhead.LogMaskVal},
		"route":  {"/login"},
		"secret": {trailhead.LogMaskVal},
	}, vals)
}

func TestNewLogLevel(t *testing.T) {
	for _, tc := range []struct {
		input    string
		expected slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"loud", slog.LevelInfo},
	} {
		t.Run(tc.input, func(t *testing.T) {
			require.Equal(t, tc.expected, trailhead.NewLogLevel(tc.input))
		})
	}
}
