package framework

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerWithPrefix(t *testing.T) {
	var base CapturingLogger
	logger := LoggerWithPrefix(&base, "[run 1] ")
	logger.Printf("polled %d times", 3)

	out := base.Output()
	if assert.Len(t, out, 1) {
		assert.Equal(t, "[run 1] polled 3 times", out[0].Message)
	}
}

func TestLoggerWithPrefixOfNilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		LoggerWithPrefix(nil, "x").Printf("anything")
	})
}
