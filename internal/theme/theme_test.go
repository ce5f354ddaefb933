package theme

import (
	"context"
	"testing"

	"github.com/me/tourtrack/internal/credstore"
	"github.com/me/tourtrack/internal/logging"
)

func TestLoad_Default(t *testing.T) {
	s := Load(context.Background(), credstore.NewMemoryStore(), logging.Discard())
	if s.Current() != Light {
		t.Errorf("Current = %q, want %q", s.Current(), Light)
	}
}

func TestLoad_IgnoresUnknownValue(t *testing.T) {
	ctx := context.Background()
	creds := credstore.NewMemoryStore()
	creds.Set(ctx, credstore.ThemeKey, "solarized")

	if got := Load(ctx, creds, logging.Discard()).Current(); got != Light {
		t.Errorf("Current = %q, want %q", got, Light)
	}
}

func TestToggle_Persists(t *testing.T) {
	ctx := context.Background()
	creds := credstore.NewMemoryStore()
	s := Load(ctx, creds, logging.Discard())

	got, err := s.Toggle(ctx)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if got != Dark {
		t.Errorf("Toggle = %q, want %q", got, Dark)
	}
	if v, _ := creds.Get(ctx, credstore.ThemeKey); v != "dark" {
		t.Errorf("stored theme = %q, want dark", v)
	}

	// A fresh store picks up the persisted preference.
	s2 := Load(ctx, creds, logging.Discard())
	if s2.Current() != Dark {
		t.Errorf("reloaded Current = %q, want %q", s2.Current(), Dark)
	}
	if got, _ := s2.Toggle(ctx); got != Light {
		t.Errorf("second Toggle = %q, want %q", got, Light)
	}
}

func TestSet(t *testing.T) {
	ctx := context.Background()
	s := Load(ctx, credstore.NewMemoryStore(), logging.Discard())

	if err := s.Set(ctx, "neon"); err == nil {
		t.Error("Set accepted an unknown theme")
	}
	if err := s.Set(ctx, Dark); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if s.Current().Color() != "#1a1a1a" {
		t.Errorf("Color = %q", s.Current().Color())
	}
}
