package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", DebugLevel},
		{" DEBUG ", DebugLevel},
		{"info", InfoLevel},
		{"warn", WarnLevel},
		{"warning", WarnLevel},
		{"error", ErrorLevel},
		{"fatal", FatalLevel},
		{"", InfoLevel},
		{"verbose", InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLogLevel(tt.in))
		})
	}
}

func TestLogLevel_RoundTripsThroughString(t *testing.T) {
	for _, l := range []LogLevel{DebugLevel, InfoLevel, WarnLevel, ErrorLevel, FatalLevel} {
		assert.Equal(t, l, ParseLogLevel(l.String()))
	}
}

func TestIdentifierShort(t *testing.T) {
	id := IdentifierAcquireNewID()
	assert.Len(t, IdentifierShort(id), 8)
	assert.NotEqual(t, id, IdentifierAcquireNewID())
	assert.Equal(t, "abc", IdentifierShort("abc"))
}
