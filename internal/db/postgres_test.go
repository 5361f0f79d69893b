package db

import (
	"testing"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
)

func TestTraceLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   zerolog.Level
		want tracelog.LogLevel
	}{
		{in: zerolog.TraceLevel, want: tracelog.LogLevelDebug},
		{in: zerolog.DebugLevel, want: tracelog.LogLevelDebug},
		{in: zerolog.InfoLevel, want: tracelog.LogLevelInfo},
		{in: zerolog.WarnLevel, want: tracelog.LogLevelWarn},
		{in: zerolog.ErrorLevel, want: tracelog.LogLevelError},
		{in: zerolog.Disabled, want: tracelog.LogLevelError},
	}

	for _, tt := range tests {
		if got := traceLevel(tt.in); got != tt.want {
			t.Errorf("traceLevel(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
