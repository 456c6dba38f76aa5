package notify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRecorder(t *testing.T) {
	var r Recorder
	r.Notify(Notice{Level: LevelError, Title: "Error", Message: "save failed"})
	r.Notify(Notice{Level: LevelWarning, Title: "Warning", Message: "bad items"})
	r.Notify(Notice{Level: LevelError, Title: "Error", Message: "again"})

	assert.Len(t, r.Notices(), 3)
	assert.Equal(t, 2, r.Count(LevelError))
	assert.Equal(t, 0, r.Count(LevelSuccess))
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	n := Log(zap.New(core))

	n.Notify(Notice{Level: LevelError, Title: "Error", Message: "boom", Err: errors.New("io")})
	n.Notify(Notice{Level: LevelSuccess, Title: "Success", Message: "saved"})

	entries := logs.All()
	assert.Len(t, entries, 2)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, "boom", entries[0].ContextMap()["message"])
}
