package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"showbridge/internal/config"
)

func TestNewLoggerLevels(t *testing.T) {
	log, err := NewLogger(config.LogConf{Level: "debug"})
	require.NoError(t, err)
	assert.Equal(t, "debug", log.GetLevel())

	_, err = NewLogger(config.LogConf{Level: "loud"})
	require.Error(t, err)

	_, err = NewLogger(config.LogConf{Level: "info", Format: "xml"})
	require.Error(t, err)
}

func TestModuleField(t *testing.T) {
	var buf bytes.Buffer
	log, err := newLogger(config.LogConf{Level: "info", Format: "json"}, &buf)
	require.NoError(t, err)

	log.Module("bridge").With(Fields{"addr": "10.0.0.2"}).Info("found")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "bridge", entry["module"])
	assert.Equal(t, "10.0.0.2", entry["addr"])
	assert.Equal(t, "found", entry["msg"])
}

func TestDiscard(t *testing.T) {
	log := Discard()
	log.Module("x").Error("nothing is written")
	assert.Equal(t, "info", log.GetLevel())
}
