package server

import (
	"context"
	"net"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/yigit/registrar/internal/app/repositories"
	"github.com/yigit/registrar/internal/app/repositories/sqlite"
	"github.com/yigit/registrar/internal/bootstrap"
	"github.com/yigit/registrar/internal/config"
)

func newTestServer(t *testing.T, port string) *Server {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "server.sqlite"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	cfg := &config.Config{}
	cfg.Server.Port = port
	cfg.Server.Mode = "production"
	cfg.Server.ShutdownTimeout = "2s"
	cfg.Enrollment.ReservationMaxAttempts = 1

	lgr := zerolog.Nop()
	deps := bootstrap.BuildDependencies(cfg, store, lgr)
	return New(cfg, store, bootstrap.SetupRouter(cfg, deps, lgr), lgr)
}

func TestServeStopsOnCancelAndClosesStore(t *testing.T) {
	srv := newTestServer(t, "0")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}

	err := srv.store.InTx(context.Background(), func(ctx context.Context, q repositories.Querier) error { return nil })
	if err == nil {
		t.Fatal("store should be closed after shutdown")
	}
}

func TestServeReportsListenFailure(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	port := strconv.Itoa(ln.Addr().(*net.TCPAddr).Port)
	srv := newTestServer(t, port)

	if err := srv.Serve(context.Background()); err == nil {
		t.Fatal("Serve() should fail when the port is taken")
	}
}
