// ABOUTME: Tests for the Gateway orchestrator
// ABOUTME: Runs real HTTP and gRPC listeners on loopback ports

package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/2389/journal-gateway/internal/auth"
	"github.com/2389/journal-gateway/internal/config"
	"github.com/2389/journal-gateway/internal/store"
)

const testSecret = "gateway-test-secret-32-bytes-ok!"

// freeAddr returns a loopback address that was free a moment ago.
func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find available port: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return addr
}

// testConfig creates a minimal config for testing with available ports.
func testConfig(t *testing.T) *config.Config {
	t.Helper()

	return &config.Config{
		Server: config.ServerConfig{
			GRPCAddr:    freeAddr(t),
			HTTPAddr:    freeAddr(t),
			CORSOrigins: []string{"*"},
		},
		Database: config.DatabaseConfig{
			Driver: store.DriverModernc,
			Path:   filepath.Join(t.TempDir(), "gateway.db"),
		},
		Auth: config.AuthConfig{
			JWTSecret:  testSecret,
			BcryptCost: bcrypt.MinCost,
		},
	}
}

// testLogger creates a silent logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// runGateway starts gw in the background and stops it when the test ends.
func runGateway(t *testing.T, gw *Gateway) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = gw.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Give it time to start
	time.Sleep(100 * time.Millisecond)
}

func TestGatewayNew(t *testing.T) {
	cfg := testConfig(t)

	gw, err := New(cfg, testLogger())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer gw.Shutdown(context.Background())

	if gw.config != cfg {
		t.Error("gateway config mismatch")
	}
	if gw.store == nil {
		t.Error("store should not be nil")
	}
	if gw.healthServer == nil {
		t.Error("healthServer should not be nil")
	}
}

func TestGatewayNew_RejectsWeakSecret(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.JWTSecret = "short"

	_, err := New(cfg, testLogger())
	if !errors.Is(err, auth.ErrWeakSecret) {
		t.Fatalf("New() error = %v, want ErrWeakSecret", err)
	}
}

func TestGatewayNew_UnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Driver = "postgres"

	if _, err := New(cfg, testLogger()); err == nil {
		t.Fatal("New() should fail for an unknown driver")
	}
}

func TestGatewayRunAndShutdown(t *testing.T) {
	cfg := testConfig(t)

	gw, err := New(cfg, testLogger())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- gw.Run(ctx)
	}()

	time.Sleep(100 * time.Millisecond)

	// Shutdown via context cancel
	cancel()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("Run() returned unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Error("gateway did not shutdown in time")
	}
}

func TestGatewayRun_AddressInUse(t *testing.T) {
	cfg := testConfig(t)

	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer busy.Close()
	cfg.Server.HTTPAddr = busy.Addr().String()

	gw, err := New(cfg, testLogger())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer gw.Shutdown(context.Background())

	if err := gw.Run(context.Background()); err == nil {
		t.Fatal("Run() should fail when the HTTP address is taken")
	}
}

func TestHealthEndpoint(t *testing.T) {
	cfg := testConfig(t)

	gw, err := New(cfg, testLogger())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	runGateway(t, gw)

	resp, err := http.Get("http://" + cfg.Server.HTTPAddr + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "OK" {
		t.Errorf("health body = %q, want %q", body, "OK")
	}
}

func TestReadyEndpoint(t *testing.T) {
	tests := []struct {
		name    string
		pingErr error
		want    int
	}{
		{name: "store reachable", want: http.StatusOK},
		{name: "store down", pingErr: errors.New("database is locked"), want: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := store.NewMockStore()
			s.PingErr = tt.pingErr

			gw, err := NewWithStore(testConfig(t), s, testLogger())
			if err != nil {
				t.Fatalf("NewWithStore() failed: %v", err)
			}

			rec := httptest.NewRecorder()
			gw.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			if rec.Code != tt.want {
				t.Errorf("ready status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestGRPCHealthCheck(t *testing.T) {
	cfg := testConfig(t)

	gw, err := New(cfg, testLogger())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	runGateway(t, gw)

	conn, err := grpc.NewClient(
		cfg.Server.GRPCAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: HealthServiceName})
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("status = %v, want SERVING", resp.GetStatus())
	}
}

func TestShutdown_ReportsNotServing(t *testing.T) {
	gw, err := NewWithStore(testConfig(t), store.NewMockStore(), testLogger())
	if err != nil {
		t.Fatalf("NewWithStore() failed: %v", err)
	}

	if err := gw.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() failed: %v", err)
	}

	resp, err := gw.healthServer.Check(context.Background(), &healthpb.HealthCheckRequest{Service: HealthServiceName})
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("status = %v, want NOT_SERVING", resp.GetStatus())
	}
}

func TestGateway_RegisterAndFetchProfile(t *testing.T) {
	cfg := testConfig(t)

	gw, err := New(cfg, testLogger())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	runGateway(t, gw)

	base := "http://" + cfg.Server.HTTPAddr
	resp, err := http.Post(base+"/users", "application/json",
		strings.NewReader(`{"email":"a@example.com","password":"secret1"}`))
	if err != nil {
		t.Fatalf("register request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	token := resp.Header.Get(auth.HeaderAuth)
	if token == "" {
		t.Fatal("register response missing session token header")
	}

	req, err := http.NewRequest(http.MethodGet, base+"/users/me", nil)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set(auth.HeaderAuth, token)
	me, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("me request failed: %v", err)
	}
	defer me.Body.Close()

	if me.StatusCode != http.StatusOK {
		t.Errorf("me status = %d, want %d", me.StatusCode, http.StatusOK)
	}
	body, _ := io.ReadAll(me.Body)
	if !strings.Contains(string(body), `"a@example.com"`) {
		t.Errorf("me body = %s, want the registered email", body)
	}
}
