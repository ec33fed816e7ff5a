package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNewAttachesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Component: ComponentSession, Output: &buf})

	l.Info("player loaded", FieldPlayer, "ada")

	out := buf.String()
	if !strings.Contains(out, "component=session") {
		t.Fatalf("expected component in output, got %q", out)
	}
	if !strings.Contains(out, "player=ada") {
		t.Fatalf("expected player field in output, got %q", out)
	}
}

func TestWithComponentReplacesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Output: &buf}).WithComponent(ComponentCodec)

	l.Info("exported")

	out := buf.String()
	if strings.Count(out, "component=") != 1 {
		t.Fatalf("expected exactly one component field, got %q", out)
	}
	if !strings.Contains(out, "component=codec") {
		t.Fatalf("expected codec component, got %q", out)
	}
	if l.Component() != ComponentCodec {
		t.Fatalf("Component() = %q", l.Component())
	}
}

func TestFailureAddsErrorField(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Output: &buf})

	l.Failure(context.Background(), "save failed", errors.New("quota"))

	if !strings.Contains(buf.String(), "error=quota") {
		t.Fatalf("expected error field, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
		ok   bool
	}{
		{"debug", slog.LevelDebug, true},
		{"", slog.LevelInfo, true},
		{"INFO", slog.LevelInfo, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"loud", slog.LevelInfo, false},
	}
	for _, tc := range cases {
		got, err := ParseLevel(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.want, got, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestLogFieldsBuilder(t *testing.T) {
	f := NewFields().
		WithOperation(OpImport).
		WithPlayer("ada").
		WithError(errors.New("boom")).
		WithErrorType(ErrorTypeValidation)

	if f[FieldOperation] != OpImport || f[FieldPlayer] != "ada" || f[FieldError] != "boom" {
		t.Fatalf("unexpected fields: %v", f)
	}
	if len(f.ToSlice()) != 8 {
		t.Fatalf("expected 8 slice items, got %d", len(f.ToSlice()))
	}
}
