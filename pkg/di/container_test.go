package di

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-refdata/refcache"
	"github.com/goliatone/go-refdata/store"
)

func TestNewContainer(t *testing.T) {
	config := store.Config{
		Driver:          store.DriverSQLite,
		DSN:             "file::memory:",
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
	}

	container, err := NewContainer(config)
	if err != nil {
		t.Fatalf("NewContainer() failed: %v", err)
	}
	defer container.Close()

	if container.DB() == nil {
		t.Error("Container should have a non-nil database handle")
	}

	if container.Registry() == nil {
		t.Error("Container should have a non-nil registry")
	}

	storedConfig := container.Config()
	if storedConfig.ConnMaxLifetime != config.ConnMaxLifetime {
		t.Errorf("Expected ConnMaxLifetime %v, got %v", config.ConnMaxLifetime, storedConfig.ConnMaxLifetime)
	}
}

func TestNewContainerWithDefaults(t *testing.T) {
	container, err := NewContainerWithDefaults()
	if err != nil {
		t.Fatalf("NewContainerWithDefaults() failed: %v", err)
	}
	defer container.Close()

	config := container.Config()
	defaultConfig := store.DefaultConfig()

	if config.Driver != defaultConfig.Driver {
		t.Errorf("Expected default driver %q, got %q", defaultConfig.Driver, config.Driver)
	}

	if config.DSN != defaultConfig.DSN {
		t.Errorf("Expected default DSN %q, got %q", defaultConfig.DSN, config.DSN)
	}
}

func TestNewContainer_InvalidConfig(t *testing.T) {
	invalidConfig := store.Config{
		Driver: "oracle",
		DSN:    "",
	}

	_, err := NewContainer(invalidConfig)
	if err == nil {
		t.Error("Expected NewContainer to fail with invalid config, but it succeeded")
	}
}

func TestContainers_HaveSeparateRegistries(t *testing.T) {
	first, err := NewContainerWithDefaults()
	if err != nil {
		t.Fatalf("NewContainerWithDefaults() failed: %v", err)
	}
	defer first.Close()

	second, err := NewContainerWithDefaults()
	if err != nil {
		t.Fatalf("NewContainerWithDefaults() failed: %v", err)
	}
	defer second.Close()

	statuses, err := NewReferenceCache[*OrderStatus](first, "order_status")
	if err != nil {
		t.Fatalf("NewReferenceCache() failed: %v", err)
	}
	defer statuses.Close()

	if !first.Registry().Includes("order_status") {
		t.Error("cache should be registered in its container's registry")
	}
	if second.Registry().Includes("order_status") {
		t.Error("cache must not leak into another container's registry")
	}
}

func TestContainer_LoggerIsHandedToCaches(t *testing.T) {
	container, err := NewContainerWithDefaults()
	if err != nil {
		t.Fatalf("NewContainerWithDefaults() failed: %v", err)
	}
	defer container.Close()

	var buf bytes.Buffer
	container.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	statuses, err := NewReferenceCache[*OrderStatus](container, "order_status")
	if err != nil {
		t.Fatalf("NewReferenceCache() failed: %v", err)
	}
	defer statuses.Close()

	statuses.Reset()
	if !strings.Contains(buf.String(), "type=order_status") {
		t.Errorf("expected cache logs to carry the type, got %q", buf.String())
	}
}

func TestStartup_ReportsMissingTable(t *testing.T) {
	container, err := NewContainerWithDefaults()
	if err != nil {
		t.Fatalf("NewContainerWithDefaults() failed: %v", err)
	}
	defer container.Close()

	statuses, err := NewReferenceCache[*OrderStatus](container, "order_status")
	if err != nil {
		t.Fatalf("NewReferenceCache() failed: %v", err)
	}
	defer statuses.Close()

	err = container.Startup(context.Background())
	if err == nil {
		t.Fatal("expected Startup to fail without the order_statuses table")
	}
	if !strings.Contains(err.Error(), "order_status") {
		t.Errorf("expected the failing type in the error, got %v", err)
	}
	if errors.Is(err, refcache.ErrConfiguration) {
		t.Error("a storage failure must not be reported as a configuration error")
	}
	if statuses.State() != refcache.StateEmpty {
		t.Errorf("expected the failed cache to stay empty, got %s", statuses.State())
	}
}
