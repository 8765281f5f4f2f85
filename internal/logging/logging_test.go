package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONByDefault(t *testing.T) {
	var buf bytes.Buffer
	log := New("debug", "", &buf)

	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	WithComponent(log, "auth").WithField("user_id", "u1").Info("hello")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "auth", entry["component"])
	assert.Equal(t, "u1", entry["user_id"])
	assert.Equal(t, "info", entry["level"])
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New("warn", "TEXT", &buf)

	log.Info("dropped")
	log.Warn("kept")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "level=warning")
	assert.Contains(t, out, "msg=kept")
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	log := New("loud", "json", &bytes.Buffer{})
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}
