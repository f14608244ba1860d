package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
)

func TestSetupWithoutEndpoint(t *testing.T) {
	t.Setenv(EndpointEnv, "")
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger, shutdown, err := Setup(context.Background(), Options{Service: "test", Level: slog.LevelWarn, Output: &buf})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	logger.Info("quiet")
	logger.Warn("loud", slog.String("component", "room"))
	if out := buf.String(); strings.Contains(out, "quiet") || !strings.Contains(out, "component=room") {
		t.Fatalf("output = %q", out)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestSetupWithExplicitEndpoint(t *testing.T) {
	t.Setenv(EndpointEnv, "")
	prevLog, prevTP := slog.Default(), otel.GetTracerProvider()
	t.Cleanup(func() {
		slog.SetDefault(prevLog)
		otel.SetTracerProvider(prevTP)
	})

	for _, ep := range []string{"http://127.0.0.1:4317", "127.0.0.1:4317"} {
		var buf bytes.Buffer
		_, shutdown, err := Setup(context.Background(), Options{Service: "test", Output: &buf, Endpoint: ep})
		if err != nil {
			t.Fatalf("Setup(%q): %v", ep, err)
		}
		if otel.GetTracerProvider() == prevTP {
			t.Fatalf("Setup(%q) left the tracer provider alone", ep)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		_ = shutdown(ctx) // nothing listens there
		cancel()
	}
}

func TestEndpointForms(t *testing.T) {
	for ep, want := range map[string]bool{
		"http://collector:4317": true,
		"https://otel.example":  true,
		"collector:4317":        false,
		"localhost:4317":        false,
		"":                      false,
	} {
		if got := isURL(ep); got != want {
			t.Errorf("isURL(%q) = %v", ep, got)
		}
		tr, lg := exporterOptions(ep)
		if len(tr) != 1 || len(lg) != 1 {
			t.Errorf("exporterOptions(%q) = %d, %d options", ep, len(tr), len(lg))
		}
	}
}

func TestTee(t *testing.T) {
	var debug, info bytes.Buffer
	h := Tee(
		slog.NewTextHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
	)
	logger := slog.New(h).With(slog.String("room", "main")).WithGroup("match")

	logger.Debug("tick", slog.Int("n", 1))
	logger.Info("started", slog.Int("players", 2))

	if !strings.Contains(debug.String(), "tick") || !strings.Contains(debug.String(), "started") {
		t.Errorf("debug sink = %q", debug.String())
	}
	if strings.Contains(info.String(), "tick") {
		t.Errorf("info sink got a debug record: %q", info.String())
	}
	if !strings.Contains(info.String(), "room=main") || !strings.Contains(info.String(), "match.players=2") {
		t.Errorf("info sink = %q", info.String())
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{"debug": slog.LevelDebug, "INFO": slog.LevelInfo, " warn ": slog.LevelWarn, "error": slog.LevelError} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("bad level accepted")
	}
}
