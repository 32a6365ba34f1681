package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewDefaults(t *testing.T) {
	c := New()
	if c.Server.Addr != DefaultAddr {
		t.Errorf("Addr = %q, want %q", c.Server.Addr, DefaultAddr)
	}
	if c.Server.EventQueueSize != 256 {
		t.Errorf("EventQueueSize = %d", c.Server.EventQueueSize)
	}
	if c.Runtime.FlushCap != 32 {
		t.Errorf("FlushCap = %d", c.Runtime.FlushCap)
	}
	if c.Telemetry.Namespace != "weft" {
		t.Errorf("Namespace = %q", c.Telemetry.Namespace)
	}
	if got := c.ReadTimeout(); got != 60*time.Second {
		t.Errorf("ReadTimeout() = %v", got)
	}
	if got := c.PingInterval(); got != 30*time.Second {
		t.Errorf("PingInterval() = %v", got)
	}
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	dir := t.TempDir()
	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if c.Server.Addr != DefaultAddr {
		t.Errorf("Addr = %q, want default", c.Server.Addr)
	}
	if c.Path() != "" {
		t.Errorf("Path() = %q, want empty for defaults", c.Path())
	}
	if Exists(dir) {
		t.Error("Exists() = true for empty dir")
	}
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	dir := t.TempDir()
	raw := `{"name":"demo","server":{"addr":":9000"}}`
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte(raw), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if c.Name != "demo" {
		t.Errorf("Name = %q", c.Name)
	}
	if c.Server.Addr != ":9000" {
		t.Errorf("Addr = %q, want :9000", c.Server.Addr)
	}
	// Unset fields fall back to defaults.
	if c.Server.ReadTimeoutSec != 60 || c.Runtime.FlushCap != 32 {
		t.Errorf("defaults not applied: %+v", c)
	}
	if c.Path() != path {
		t.Errorf("Path() = %q, want %q", c.Path(), path)
	}
	if !Exists(dir) {
		t.Error("Exists() = false")
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("Load() accepted malformed JSON")
	}
}

func TestValidate(t *testing.T) {
	c := New()
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() on defaults = %v", err)
	}
	c.Runtime.FlushCap = -1
	if err := c.Validate(); err == nil {
		t.Error("Validate() accepted negative flushCap")
	}
	c = New()
	c.Server.EventQueueSize = -1
	if err := c.Validate(); err == nil {
		t.Error("Validate() accepted negative eventQueueSize")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c := New()
	c.Name = "app"
	c.Server.AllowedOrigins = []string{"https://example.com"}
	path := filepath.Join(dir, ConfigFileName)
	if err := c.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() = %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if loaded.Name != "app" {
		t.Errorf("Name = %q", loaded.Name)
	}
	if len(loaded.Server.AllowedOrigins) != 1 || loaded.Server.AllowedOrigins[0] != "https://example.com" {
		t.Errorf("AllowedOrigins = %v", loaded.Server.AllowedOrigins)
	}

	// Save without an explicit path rewrites the loaded file.
	loaded.Version = "0.2.0"
	if err := loaded.Save(); err != nil {
		t.Fatalf("Save() = %v", err)
	}
	again, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if again.Version != "0.2.0" {
		t.Errorf("Version = %q", again.Version)
	}

	// Defaults-only config has nowhere to save to.
	if err := New().Save(); err == nil {
		t.Error("Save() without a path succeeded")
	}
}
