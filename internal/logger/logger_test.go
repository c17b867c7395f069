package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger_Environments(t *testing.T) {
	for _, env := range []string{"prod", "local", "dev", "docker"} {
		l, err := NewLogger(env)
		if err != nil {
			t.Errorf("NewLogger(%q) error = %v", env, err)
			continue
		}
		_ = l.Sync()
	}
}

func TestNewLogger_UnknownEnvironment(t *testing.T) {
	if _, err := NewLogger("staging"); err == nil {
		t.Error("unknown environment should fail")
	}
}

func TestNewLogger_LevelOverride(t *testing.T) {
	l, err := NewLogger("local", "warn")
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	if l.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be disabled with a warn override")
	}
	if !l.Core().Enabled(zapcore.WarnLevel) {
		t.Error("warn should be enabled with a warn override")
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	if _, err := NewLogger("local", "loud"); err == nil {
		t.Error("invalid level override should fail")
	}
}

func TestContextRoundTrip(t *testing.T) {
	base := zap.NewNop()
	ctx := ContextWithLogger(context.Background(), base)

	if FromContext(ctx) != base {
		t.Error("FromContext should return the attached logger")
	}
	if FromContext(context.Background()) == nil {
		t.Error("FromContext without a logger should fall back, not return nil")
	}
}
