// ABOUTME: Interactive config file creation for journal-gateway init
// ABOUTME: Generates a random JWT secret and writes the file with owner-only permissions

package main

import (
	"bufio"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// initAnswers holds everything runInit asks for.
type initAnswers struct {
	HTTPAddr   string
	GRPCAddr   string
	DBDriver   string
	DBPath     string
	JWTSecret  string
	BcryptCost int
	TokenTTL   string

	TailscaleEnabled bool
	TSHostname       string
	TSAuthKey        string
	TSEphemeral      bool
	TSHTTPS          bool
	TSFunnel         bool

	LogLevel  string
	LogFormat string
}

// generateSecret returns 32 random bytes, base64 encoded.
func generateSecret() (string, error) {
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", fmt.Errorf("generating JWT secret: %w", err)
	}
	return base64.StdEncoding.EncodeToString(secretBytes), nil
}

func isYes(s string) bool {
	s = strings.ToLower(s)
	return s == "yes" || s == "y"
}

// runInit walks through the config sections on in and writes the result.
// An existing file is only replaced when args contains --force.
func runInit(args []string, in io.Reader, out io.Writer) error {
	force := false
	for _, arg := range args {
		switch arg {
		case "--force", "-f":
			force = true
		default:
			return fmt.Errorf("unknown flag: %s", arg)
		}
	}

	reader := bufio.NewReader(in)

	fmt.Fprintln(out, "journal-gateway configuration setup")
	fmt.Fprintln(out, "===================================")
	fmt.Fprintln(out)

	defaultDBPath := filepath.Join(getDataPath(), "journal.db")

	outputFile := prompt(reader, out, "Config file path", getConfigPath())
	if _, err := os.Stat(outputFile); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", outputFile)
	}

	secret, err := generateSecret()
	if err != nil {
		return err
	}

	var a initAnswers
	a.JWTSecret = secret

	fmt.Fprintln(out, "\n--- Server Configuration ---")
	a.HTTPAddr = prompt(reader, out, "HTTP address", "localhost:3000")
	a.GRPCAddr = prompt(reader, out, "gRPC health address (empty to disable)", "")

	fmt.Fprintln(out, "\n--- Database Configuration ---")
	a.DBDriver = prompt(reader, out, "SQLite driver (sqlite/sqlite3)", "sqlite")
	a.DBPath = prompt(reader, out, "SQLite database path", defaultDBPath)

	fmt.Fprintln(out, "\n--- Auth Configuration ---")
	costStr := prompt(reader, out, "bcrypt cost", strconv.Itoa(bcrypt.DefaultCost))
	a.BcryptCost, err = strconv.Atoi(costStr)
	if err != nil {
		return fmt.Errorf("bcrypt cost must be a number: %w", err)
	}
	a.TokenTTL = prompt(reader, out, "Session token lifetime (empty for no expiry)", "")

	fmt.Fprintln(out, "\n--- Tailscale Configuration ---")
	a.TailscaleEnabled = isYes(prompt(reader, out, "Enable Tailscale?", "no"))
	if a.TailscaleEnabled {
		a.TSHostname = prompt(reader, out, "Tailscale hostname", "journal")
		a.TSAuthKey = prompt(reader, out, "Tailscale auth key (leave empty to use TS_AUTHKEY)", "")
		a.TSEphemeral = isYes(prompt(reader, out, "Ephemeral node?", "no"))
		a.TSHTTPS = isYes(prompt(reader, out, "Serve HTTPS with tailnet certificates?", "yes"))
		a.TSFunnel = isYes(prompt(reader, out, "Enable Funnel (public HTTPS)?", "no"))
	}

	fmt.Fprintln(out, "\n--- Logging Configuration ---")
	a.LogLevel = prompt(reader, out, "Log level (debug/info/warn/error)", "info")
	a.LogFormat = prompt(reader, out, "Log format (text/json)", "text")

	configDir := filepath.Dir(outputFile)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	// The file holds the JWT secret.
	if err := os.WriteFile(outputFile, []byte(renderConfig(a)), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	if err := os.Chmod(outputFile, 0600); err != nil {
		return fmt.Errorf("restricting config file permissions: %w", err)
	}

	dataDir := filepath.Dir(a.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	fmt.Fprintf(out, "\nConfig written to %s\n", outputFile)
	fmt.Fprintf(out, "Data directory: %s\n", dataDir)
	fmt.Fprintln(out, "\nTo start the server:")
	fmt.Fprintln(out, "  journal-gateway serve")

	return nil
}

// renderConfig produces the YAML config file for a.
func renderConfig(a initAnswers) string {
	var cfg strings.Builder
	cfg.WriteString("# journal-gateway configuration\n")
	cfg.WriteString("# Generated by journal-gateway init\n\n")

	cfg.WriteString("server:\n")
	cfg.WriteString(fmt.Sprintf("  http_addr: %q\n", a.HTTPAddr))
	if a.GRPCAddr != "" {
		cfg.WriteString(fmt.Sprintf("  grpc_addr: %q\n", a.GRPCAddr))
	}
	cfg.WriteString("  cors_origins: [\"*\"]\n")
	cfg.WriteString("\n")

	cfg.WriteString("database:\n")
	cfg.WriteString(fmt.Sprintf("  driver: %q\n", a.DBDriver))
	cfg.WriteString(fmt.Sprintf("  path: %q\n", a.DBPath))
	cfg.WriteString("\n")

	cfg.WriteString("auth:\n")
	cfg.WriteString(fmt.Sprintf("  jwt_secret: %q\n", a.JWTSecret))
	cfg.WriteString(fmt.Sprintf("  bcrypt_cost: %d\n", a.BcryptCost))
	if a.TokenTTL != "" {
		cfg.WriteString(fmt.Sprintf("  token_ttl: %q\n", a.TokenTTL))
	}
	cfg.WriteString("\n")

	cfg.WriteString("tailscale:\n")
	cfg.WriteString(fmt.Sprintf("  enabled: %t\n", a.TailscaleEnabled))
	if a.TailscaleEnabled {
		cfg.WriteString(fmt.Sprintf("  hostname: %q\n", a.TSHostname))
		if a.TSAuthKey != "" {
			cfg.WriteString(fmt.Sprintf("  auth_key: %q\n", a.TSAuthKey))
		}
		cfg.WriteString(fmt.Sprintf("  ephemeral: %t\n", a.TSEphemeral))
		cfg.WriteString(fmt.Sprintf("  https: %t\n", a.TSHTTPS))
		cfg.WriteString(fmt.Sprintf("  funnel: %t\n", a.TSFunnel))
	}
	cfg.WriteString("\n")

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: %q\n", a.LogLevel))
	cfg.WriteString(fmt.Sprintf("  format: %q\n", a.LogFormat))

	return cfg.String()
}

func prompt(reader *bufio.Reader, out io.Writer, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Fprintf(out, "%s [%s]: ", question, defaultVal)
	} else {
		fmt.Fprintf(out, "%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		// On EOF or error, return default
		fmt.Fprintln(out)
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
