package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestIsJSON(t *testing.T) {
	assert.True(t, isJSON([]byte(`{"level_name":"info"}`)))
	assert.True(t, isJSON([]byte(`[1, 2]`)))
	assert.False(t, isJSON([]byte(`plain text`)))
	assert.False(t, isJSON([]byte(``)))
}

func TestSupervisorRelaysJSONAndCollectsPanic(t *testing.T) {
	var out bytes.Buffer
	sup := newSupervisor(&out)
	sup.fdlLogger = zerolog.Nop()

	sup.handleLogLine([]byte(`{"message":"started"}`))
	sup.handleLogLine([]byte(`not json`))
	sup.handleLogLine(nil)
	sup.handleLogLine([]byte(`panic: boom`))
	sup.handleLogLine([]byte(`{"message":"after panic"}`))

	assert.Equal(t, "{\"message\":\"started\"}\n", out.String())
	assert.True(t, sup.foundPanic)
	assert.Equal(t, "panic: boom\n{\"message\":\"after panic\"}\n", sup.panicLogs.String())
}

func TestSupervisorExitCode(t *testing.T) {
	sup := newSupervisor(&bytes.Buffer{})
	sup.fdlLogger = zerolog.Nop()
	assert.Equal(t, 0, sup.exit(0))
	assert.Equal(t, 2, sup.exit(2))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("ERROR"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("verbose"))
}
