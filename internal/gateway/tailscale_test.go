// ABOUTME: Tests for tailnet node resolution and status logging
// ABOUTME: Exercises everything short of bringing up a real tsnet node

package gateway

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/netip"
	"path/filepath"
	"strings"
	"testing"

	"tailscale.com/ipn/ipnstate"

	"github.com/2389/journal-gateway/internal/config"
)

func fakeEnv(vars map[string]string, home string, homeErr error) nodeEnv {
	return nodeEnv{
		getenv:  func(k string) string { return vars[k] },
		homeDir: func() (string, error) { return home, homeErr },
	}
}

func TestResolveTailnetNode_StateDir(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		home       string
		homeErr    error
		want       string
		wantErr    bool
	}{
		{
			name:       "configured wins",
			configured: "/var/lib/journal/ts",
			homeErr:    errors.New("no home"),
			want:       "/var/lib/journal/ts",
		},
		{
			name: "defaults under home",
			home: "/home/alice",
			want: filepath.Join("/home/alice", ".local", "share", "journal-gateway", "tailscale"),
		},
		{
			name:    "no home and nothing configured",
			homeErr: errors.New("no home"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.TailscaleConfig{Hostname: "journal", AuthKey: "tskey-auth-x", StateDir: tt.configured}
			node, err := resolveTailnetNode(cfg, fakeEnv(nil, tt.home, tt.homeErr))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), "tailscale.state_dir") {
					t.Errorf("error %q should name the setting", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolveTailnetNode failed: %v", err)
			}
			if node.StateDir != tt.want {
				t.Errorf("StateDir = %q, want %q", node.StateDir, tt.want)
			}
		})
	}
}

func TestResolveTailnetNode_AuthKey(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		env        map[string]string
		want       string
		wantErr    error
	}{
		{
			name:       "config wins over env",
			configured: "tskey-auth-config",
			env:        map[string]string{"TS_AUTHKEY": "tskey-auth-env"},
			want:       "tskey-auth-config",
		},
		{
			name: "falls back to TS_AUTHKEY",
			env:  map[string]string{"TS_AUTHKEY": "tskey-auth-env"},
			want: "tskey-auth-env",
		},
		{
			name:    "missing everywhere",
			wantErr: errMissingAuthKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.TailscaleConfig{Hostname: "journal", AuthKey: tt.configured, StateDir: t.TempDir()}
			node, err := resolveTailnetNode(cfg, fakeEnv(tt.env, "", nil))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolveTailnetNode failed: %v", err)
			}
			if node.AuthKey != tt.want {
				t.Errorf("AuthKey = %q, want %q", node.AuthKey, tt.want)
			}
		})
	}
}

func TestResolveTailnetNode_Exposure(t *testing.T) {
	tests := []struct {
		name   string
		https  bool
		funnel bool
		want   httpExposure
	}{
		{"plain", false, false, exposePlain},
		{"https", true, false, exposeTLS},
		{"funnel", false, true, exposeFunnel},
		{"funnel wins over https", true, true, exposeFunnel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.TailscaleConfig{
				Hostname: "journal",
				AuthKey:  "tskey-auth-x",
				StateDir: t.TempDir(),
				HTTPS:    tt.https,
				Funnel:   tt.funnel,
			}
			node, err := resolveTailnetNode(cfg, fakeEnv(nil, "", nil))
			if err != nil {
				t.Fatalf("resolveTailnetNode failed: %v", err)
			}
			if node.Exposure != tt.want {
				t.Errorf("Exposure = %v, want %v", node.Exposure, tt.want)
			}
		})
	}
}

func TestIgnoredAddresses(t *testing.T) {
	tests := []struct {
		name string
		srv  config.ServerConfig
		want string
	}{
		{"none", config.ServerConfig{}, ""},
		{"http only", config.ServerConfig{HTTPAddr: "localhost:3000"}, "server.http_addr"},
		{"both", config.ServerConfig{HTTPAddr: "localhost:3000", GRPCAddr: "localhost:50051"}, "server.http_addr,server.grpc_addr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := strings.Join(ignoredAddresses(tt.srv), ","); got != tt.want {
				t.Errorf("ignoredAddresses = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRun_TailscaleWithoutAuthKeyWarnsAndFails(t *testing.T) {
	t.Setenv("TS_AUTHKEY", "")

	cfg := testConfig(t)
	cfg.Tailscale = config.TailscaleConfig{
		Enabled:  true,
		Hostname: "journal",
		StateDir: t.TempDir(),
	}

	var buf bytes.Buffer
	gw, err := New(cfg, slog.New(slog.NewTextHandler(&buf, nil)))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	err = gw.Run(context.Background())
	if !errors.Is(err, errMissingAuthKey) {
		t.Fatalf("Run err = %v, want %v", err, errMissingAuthKey)
	}
	_ = gw.Shutdown(context.Background())

	out := buf.String()
	if !strings.Contains(out, "addresses ignored while tailscale is enabled") {
		t.Errorf("expected ignored address warning, got %q", out)
	}
	if !strings.Contains(out, "server.http_addr,server.grpc_addr") {
		t.Errorf("expected both settings named, got %q", out)
	}
}

func TestLogTailnetStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   *ipnstate.Status
		contains []string
		excludes []string
	}{
		{
			name: "address and dns name",
			status: &ipnstate.Status{
				TailscaleIPs: []netip.Addr{netip.MustParseAddr("100.64.0.1"), netip.MustParseAddr("fd7a:115c:a1e0::1")},
				Self:         &ipnstate.PeerStatus{DNSName: "journal.tail1234.ts.net."},
			},
			contains: []string{"tailscale node ready", "tailscale_ip=100.64.0.1", "dns_name=journal.tail1234.ts.net"},
			excludes: []string{"level=WARN", "fd7a", "ts.net."},
		},
		{
			name:     "no addresses yet",
			status:   &ipnstate.Status{},
			contains: []string{"level=WARN", "no IP addresses assigned", "tailscale node ready"},
			excludes: []string{"tailscale_ip=", "dns_name="},
		},
		{
			name:     "nil status",
			status:   nil,
			contains: []string{"level=WARN", "tailscale node ready"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			gw := &Gateway{logger: slog.New(slog.NewTextHandler(&buf, nil))}

			gw.logTailnetStatus("journal", tt.status)

			out := buf.String()
			for _, want := range tt.contains {
				if !strings.Contains(out, want) {
					t.Errorf("log output missing %q: %s", want, out)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(out, unwanted) {
					t.Errorf("log output should not contain %q: %s", unwanted, out)
				}
			}
		})
	}
}
