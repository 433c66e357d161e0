// ABOUTME: Serves the gateway on a tailnet through an embedded tsnet node
// ABOUTME: Resolves node settings and opens the gRPC and HTTP listeners on the node

package gateway

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"tailscale.com/ipn/ipnstate"
	"tailscale.com/tsnet"

	"github.com/2389/journal-gateway/internal/config"
)

// tailnetGRPCPort is where grpc.health.v1 listens on the tailnet.
const tailnetGRPCPort = ":50051"

var errMissingAuthKey = errors.New("tailscale auth key required: set tailscale.auth_key or TS_AUTHKEY")

// httpExposure selects how the REST API is reachable on the node.
type httpExposure int

const (
	exposePlain  httpExposure = iota // :80 inside the tailnet
	exposeTLS                        // :443 with tailnet certificates
	exposeFunnel                     // :443 published to the internet
)

func (e httpExposure) String() string {
	switch e {
	case exposeTLS:
		return "https"
	case exposeFunnel:
		return "funnel"
	default:
		return "http"
	}
}

// tailnetNode is a fully resolved tsnet node description.
type tailnetNode struct {
	Hostname  string
	StateDir  string
	AuthKey   string
	Ephemeral bool
	Exposure  httpExposure
}

// nodeEnv supplies the process lookups used when resolving a node.
type nodeEnv struct {
	getenv  func(string) string
	homeDir func() (string, error)
}

var processEnv = nodeEnv{getenv: os.Getenv, homeDir: os.UserHomeDir}

// resolveTailnetNode fills in the state directory and auth key defaults.
// Funnel wins over plain HTTPS when both are set.
func resolveTailnetNode(cfg config.TailscaleConfig, env nodeEnv) (tailnetNode, error) {
	node := tailnetNode{
		Hostname:  cfg.Hostname,
		StateDir:  cfg.StateDir,
		AuthKey:   cfg.AuthKey,
		Ephemeral: cfg.Ephemeral,
	}

	if node.StateDir == "" {
		home, err := env.homeDir()
		if err != nil {
			return tailnetNode{}, fmt.Errorf("resolving tailscale state dir (set tailscale.state_dir): %w", err)
		}
		node.StateDir = filepath.Join(home, ".local", "share", "journal-gateway", "tailscale")
	}

	if node.AuthKey == "" {
		node.AuthKey = env.getenv("TS_AUTHKEY")
	}
	if node.AuthKey == "" {
		return tailnetNode{}, errMissingAuthKey
	}

	switch {
	case cfg.Funnel:
		node.Exposure = exposeFunnel
	case cfg.HTTPS:
		node.Exposure = exposeTLS
	}
	return node, nil
}

// ignoredAddresses lists the configured TCP addresses a tailnet node does not use.
func ignoredAddresses(srv config.ServerConfig) []string {
	var ignored []string
	if srv.HTTPAddr != "" {
		ignored = append(ignored, "server.http_addr")
	}
	if srv.GRPCAddr != "" {
		ignored = append(ignored, "server.grpc_addr")
	}
	return ignored
}

// setupTailnetListeners brings up the tsnet node and listens on it.
func (g *Gateway) setupTailnetListeners(ctx context.Context) (grpcLn, httpLn net.Listener, err error) {
	if ignored := ignoredAddresses(g.config.Server); len(ignored) > 0 {
		g.logger.Warn("addresses ignored while tailscale is enabled", "settings", strings.Join(ignored, ","))
	}

	node, err := resolveTailnetNode(g.config.Tailscale, processEnv)
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(node.StateDir, 0700); err != nil {
		return nil, nil, fmt.Errorf("creating tailscale state dir: %w", err)
	}

	g.tsnetServer = &tsnet.Server{
		Hostname:  node.Hostname,
		Dir:       node.StateDir,
		Ephemeral: node.Ephemeral,
		AuthKey:   node.AuthKey,
	}

	g.logger.Info("starting tailscale node",
		"hostname", node.Hostname,
		"state_dir", node.StateDir,
		"ephemeral", node.Ephemeral,
		"exposure", node.Exposure.String(),
	)
	status, err := g.tsnetServer.Up(ctx)
	if err != nil {
		_ = g.tsnetServer.Close()
		return nil, nil, fmt.Errorf("starting tailscale: %w", err)
	}
	g.logTailnetStatus(node.Hostname, status)

	grpcLn, err = g.tsnetServer.Listen("tcp", tailnetGRPCPort)
	if err != nil {
		_ = g.tsnetServer.Close()
		return nil, nil, fmt.Errorf("listening on tailnet gRPC port: %w", err)
	}

	httpLn, err = g.listenTailnetHTTP(node.Exposure)
	if err != nil {
		_ = grpcLn.Close()
		_ = g.tsnetServer.Close()
		return nil, nil, err
	}
	return grpcLn, httpLn, nil
}

// listenTailnetHTTP opens the API listener for the given exposure.
func (g *Gateway) listenTailnetHTTP(exposure httpExposure) (net.Listener, error) {
	switch exposure {
	case exposeFunnel:
		g.logger.Info("publishing API through tailscale funnel", "port", 443)
		ln, err := g.tsnetServer.ListenFunnel("tcp", ":443")
		if err != nil {
			return nil, fmt.Errorf("listening on tailnet funnel: %w", err)
		}
		return ln, nil

	case exposeTLS:
		lc, err := g.tsnetServer.LocalClient()
		if err != nil {
			return nil, fmt.Errorf("getting tailscale local client: %w", err)
		}
		ln, err := g.tsnetServer.Listen("tcp", ":443")
		if err != nil {
			return nil, fmt.Errorf("listening on tailnet HTTPS port: %w", err)
		}
		g.logger.Info("serving API over tailnet TLS", "port", 443)
		return tls.NewListener(ln, &tls.Config{
			GetCertificate: lc.GetCertificate,
			MinVersion:     tls.VersionTLS12,
		}), nil

	default:
		ln, err := g.tsnetServer.Listen("tcp", ":80")
		if err != nil {
			return nil, fmt.Errorf("listening on tailnet HTTP port: %w", err)
		}
		return ln, nil
	}
}

// logTailnetStatus reports the node's first address and MagicDNS name.
func (g *Gateway) logTailnetStatus(hostname string, status *ipnstate.Status) {
	attrs := []any{"hostname", hostname}
	if status == nil || len(status.TailscaleIPs) == 0 {
		g.logger.Warn("tailscale node has no IP addresses assigned", "hostname", hostname)
	} else {
		attrs = append(attrs, "tailscale_ip", status.TailscaleIPs[0].String())
	}
	if status != nil && status.Self != nil && status.Self.DNSName != "" {
		attrs = append(attrs, "dns_name", strings.TrimSuffix(status.Self.DNSName, "."))
	}
	g.logger.Info("tailscale node ready", attrs...)
}
