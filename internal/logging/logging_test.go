package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type logEntry map[string]any

func TestNewEmitsStructuredJSON(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log, err := New(Options{Level: "info", Writer: buf})
	require.NoError(t, err)

	log.Info().Str("operation", "addMembers").Msg("executing job")

	var entry logEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "executing job", entry["message"])
	require.Equal(t, "addMembers", entry["operation"])
	require.Equal(t, "info", entry["level"])
	require.Contains(t, entry, "time")
}

func TestNewRespectsLevel(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log, err := New(Options{Level: "warn", Writer: buf})
	require.NoError(t, err)

	log.Info().Msg("suppressed")
	require.Equal(t, "", strings.TrimSpace(buf.String()))

	log.Warn().Msg("visible")
	require.NotEmpty(t, buf.String())
}

func TestNewRejectsInvalidLevel(t *testing.T) {
	t.Parallel()

	_, err := New(Options{Level: "shouty"})
	require.Error(t, err)
}
