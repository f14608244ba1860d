package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Snapshot is one immutable published configuration. Readers take a
// pointer once per tick and never mutate it.
type Snapshot struct {
	Balance Balance `json:"balance"`
	Content
}

// Validate checks the whole snapshot.
func (s *Snapshot) Validate() error {
	if err := s.Balance.Validate(); err != nil {
		return err
	}
	return s.Content.Validate()
}

// Parse overlays JSON balance data on top of the built-in defaults and
// validates the result.
func Parse(data []byte) (*Snapshot, error) {
	s := defaults()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load reads and parses a balance file.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data)
}

// Provider publishes the current snapshot. Writers swap the pointer;
// nothing is mutated in place.
type Provider struct {
	path    string
	current atomic.Pointer[Snapshot]
	logger  *slog.Logger
	// tickRate, when positive, replaces Balance.TickRate in every snapshot
	// published afterwards, reloads included.
	tickRate atomic.Int64
}

// NewProvider loads path, or the defaults when path is empty.
func NewProvider(path string, logger *slog.Logger) (*Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Provider{path: path, logger: logger.With(slog.String("component", "config"))}
	snap := Default
	if path != "" {
		s, err := Load(path)
		if err != nil {
			return nil, err
		}
		snap = s
	}
	p.current.Store(snap)
	return p, nil
}

// Snapshot returns the latest published snapshot.
func (p *Provider) Snapshot() *Snapshot {
	return p.current.Load()
}

// Balance returns the latest balance values.
func (p *Provider) Balance() Balance {
	return p.current.Load().Balance
}

// Content returns the latest content tables.
func (p *Provider) Content() *Content {
	return &p.current.Load().Content
}

// OverrideTickRate pins the tick rate regardless of what the balance file
// says. Zero or less leaves later snapshots as loaded.
func (p *Provider) OverrideTickRate(rate int) error {
	p.tickRate.Store(int64(max(rate, 0)))
	return p.Publish(p.current.Load())
}

// Publish validates and atomically installs s.
func (p *Provider) Publish(s *Snapshot) error {
	if s == nil {
		return fmt.Errorf("%w: nil snapshot", ErrInvalidConfig)
	}
	s = p.withOverrides(s)
	if err := s.Validate(); err != nil {
		return err
	}
	p.current.Store(s)
	return nil
}

func (p *Provider) withOverrides(s *Snapshot) *Snapshot {
	rate := int(p.tickRate.Load())
	if rate <= 0 || s.Balance.TickRate == rate {
		return s
	}
	c := *s
	c.Balance.TickRate = rate
	return &c
}

// Reload re-reads the balance file. On failure the previous snapshot stays
// active and the error is returned.
func (p *Provider) Reload(ctx context.Context) error {
	ctx, span := otel.Tracer("github.com/automoto/dragonsons/config").Start(ctx, "config.Reload")
	defer span.End()
	span.SetAttributes(attribute.String("config.path", p.path))

	if p.path == "" {
		return nil
	}
	s, err := Load(p.path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.logger.WarnContext(ctx, "reload failed, keeping previous config", slog.Any("err", err))
		return err
	}
	if err := p.Publish(s); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.logger.WarnContext(ctx, "reload rejected, keeping previous config", slog.Any("err", err))
		return err
	}
	p.logger.InfoContext(ctx, "reloaded", slog.String("path", p.path))
	return nil
}

// Watch polls the balance file's modification time and reloads when it
// changes. It returns when ctx is done.
func (p *Provider) Watch(ctx context.Context, interval time.Duration) error {
	if p.path == "" {
		<-ctx.Done()
		return nil
	}
	last := modTime(p.path)
	p.logger.InfoContext(ctx, "watching", slog.String("path", p.path), slog.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			mt := modTime(p.path)
			if mt.IsZero() || mt.Equal(last) {
				continue
			}
			last = mt
			_ = p.Reload(ctx)
		}
	}
}

func modTime(path string) time.Time {
	fi, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return fi.ModTime()
}
