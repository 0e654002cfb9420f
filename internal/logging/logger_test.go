package logging

import "testing"

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"", "debug", "warn"} {
		logger, err := NewLogger(level, false)
		if err != nil {
			t.Fatalf("level %q: %v", level, err)
		}
		logger.Info("hello")
	}

	dev, err := NewLogger("info", true)
	if err != nil {
		t.Fatalf("development logger: %v", err)
	}
	dev.Debug("not shown")
}

func TestNewLogger_BadLevel(t *testing.T) {
	if _, err := NewLogger("chatty", false); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
