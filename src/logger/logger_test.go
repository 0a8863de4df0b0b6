package logger

import (
	"testing"

	"chart-stream/src/models"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerDefaults(t *testing.T) {
	assert.NotPanics(t, func() {
		l := NewLogger(nil, "app")
		l.Info("hello %s", "world")
		l.Sync()
	})

	l := NewLogger(&models.MConfig{LogLevel: "bogus", LogFormat: "console"}, "app")
	assert.Equal(t, "app", l.name)
}

func TestNamedAndWith(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewFromZap(zap.New(core), "server").Named("session").With("session", "abc")

	l.Warning("write failed: %v", "EOF")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "server.session", entries[0].LoggerName)
		assert.Equal(t, "write failed: EOF", entries[0].Message)
		assert.Equal(t, "abc", entries[0].ContextMap()["session"])
	}
	assert.Equal(t, "server.session", l.name)
}
