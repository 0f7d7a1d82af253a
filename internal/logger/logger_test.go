package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextOutput(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "text", false)
	defer InitWithWriter(&buf, "INFO", "text", false)

	Info("content stored", KeyContent, "aZ3bQ9x", KeySize, 42)

	out := buf.String()
	assert.Contains(t, out, "[INFO]")
	assert.Contains(t, out, "content stored")
	assert.Contains(t, out, "key=aZ3bQ9x")
	assert.Contains(t, out, "size=42")
	assert.NotContains(t, out, "\033[", "color codes must be disabled")
}

func TestTextOutput_PromotesDomainFields(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "text", false)
	defer InitWithWriter(&buf, "INFO", "text", false)

	// The content key leads the attribute list regardless of call-site
	// order.
	Info("content posted", "user_agent", "curl/8.0", KeySize, 5, KeyContent, "aZ3bQ9x")

	out := buf.String()
	keyIdx := strings.Index(out, "key=aZ3bQ9x")
	sizeIdx := strings.Index(out, "size=5")
	agentIdx := strings.Index(out, "user_agent=")
	require.NotEqual(t, -1, keyIdx)
	require.NotEqual(t, -1, sizeIdx)
	require.NotEqual(t, -1, agentIdx)
	assert.Less(t, keyIdx, sizeIdx, "promoted key must precede size")
	assert.Less(t, sizeIdx, agentIdx, "promoted fields precede the rest")
}

func TestTextOutput_QuotesUnsafeValues(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "text", false)
	defer InitWithWriter(&buf, "INFO", "text", false)

	Info("content posted", "user_agent", "Mozilla/5.0 (X11; Linux)", KeyMediaType, "text/plain")

	out := buf.String()
	assert.Contains(t, out, `user_agent="Mozilla/5.0 (X11; Linux)"`)
	assert.Contains(t, out, "media_type=text/plain", "plain values stay unquoted")
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "json", false)
	defer InitWithWriter(&buf, "INFO", "text", false)

	Info("sweep complete", "deleted", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "sweep complete", entry["msg"])
	assert.Equal(t, float64(3), entry["deleted"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "WARN", "text", false)
	defer InitWithWriter(&buf, "INFO", "text", false)

	Debug("not visible")
	Info("not visible either")
	Warn("visible")

	out := buf.String()
	assert.NotContains(t, out, "not visible")
	assert.Contains(t, out, "visible")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestSetLevel_AppliesWithoutRebuild(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "text", false)
	defer InitWithWriter(&buf, "INFO", "text", false)

	Debug("hidden")
	SetLevel("DEBUG")
	Debug("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestSetLevelIgnoresInvalid(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "INFO", "text", false)
	defer InitWithWriter(&buf, "INFO", "text", false)

	SetLevel("VERBOSE") // no such level, must keep INFO
	Info("still logged")

	assert.Contains(t, buf.String(), "still logged")
}
