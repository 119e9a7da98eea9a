package daemon_test

import (
	"context"
	"testing"

	"storyreel/internal/daemon"
	"storyreel/internal/logging"
	"storyreel/internal/testsupport"
	"storyreel/internal/workflow"
)

func newTestDaemon(t *testing.T) *daemon.Daemon {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	manager := workflow.NewManagerWithServices(cfg, store, logging.NewNop(), nil, workflow.Services{})
	d, err := daemon.New(cfg, store, logging.NewNop(), manager)
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}
	return d
}

func TestDaemonStartStop(t *testing.T) {
	d := newTestDaemon(t)
	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !d.Running() {
		t.Fatal("expected running daemon")
	}
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}
	d.Stop()
	if d.Running() {
		t.Fatal("expected stopped daemon")
	}
}

func TestDaemonRequiresDependencies(t *testing.T) {
	if _, err := daemon.New(nil, nil, nil, nil); err == nil {
		t.Fatal("expected error for missing dependencies")
	}
}

func TestDaemonLockPreventsSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()

	first, err := daemon.New(cfg, store, logger, workflow.NewManagerWithServices(cfg, store, logger, nil, workflow.Services{}))
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}
	second, err := daemon.New(cfg, store, logger, workflow.NewManagerWithServices(cfg, store, logger, nil, workflow.Services{}))
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}

	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("first start: %v", err)
	}
	defer first.Stop()
	if err := second.Start(ctx); err == nil {
		second.Stop()
		t.Fatal("expected lock contention error")
	}
}
