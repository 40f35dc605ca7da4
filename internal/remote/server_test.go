package remote

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/Obvman/obv-Omega-Mouse/internal/actions"
	"github.com/Obvman/obv-Omega-Mouse/internal/host"
)

func newSigner(t *testing.T) ssh.Signer {
	t.Helper()
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	signer, err := ssh.NewSignerFromKey(privateKey)
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	return signer
}

func startServer(t *testing.T, authorized ...ssh.Signer) *Server {
	t.Helper()

	tempDir := t.TempDir()
	keysPath := filepath.Join(tempDir, "authorized_keys")
	var keys []byte
	for _, s := range authorized {
		keys = append(keys, ssh.MarshalAuthorizedKey(s.PublicKey())...)
	}
	if err := os.WriteFile(keysPath, keys, 0600); err != nil {
		t.Fatalf("write authorized keys: %v", err)
	}

	registry := actions.NewRegistry(host.NewSim(nil))
	registry.Register("user.ping", "", func(context.Context) (any, error) { return "pong", nil })
	registry.Register("user.noop", "", func(context.Context) (any, error) { return nil, nil })
	registry.Register("user.report", "", func(context.Context) (any, error) {
		return map[string]bool{"enabled": true}, nil
	})
	registry.Register("user.broken", "", func(context.Context) (any, error) {
		return nil, errors.New("tracker offline")
	})

	server, err := NewServer(Config{
		Addr:               "127.0.0.1:0",
		HostKeyPath:        filepath.Join(tempDir, "omega_host_key"),
		AuthorizedKeysPath: keysPath,
		Invoker:            registry,
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	if err := server.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	t.Cleanup(func() { server.Close() })
	return server
}

func dial(addr string, signer ssh.Signer) (*ssh.Client, error) {
	return ssh.Dial("tcp", addr, &ssh.ClientConfig{
		User:            "tester",
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         5 * time.Second,
	})
}

func TestRemoteExec(t *testing.T) {
	signer := newSigner(t)
	server := startServer(t, signer)

	client, err := dial(server.Addr(), signer)
	if err != nil {
		t.Fatalf("ssh dial: %v", err)
	}
	defer client.Close()

	tests := []struct {
		name       string
		command    string
		wantOut    string
		wantStatus int
	}{
		{"string result", "ping", "pong\n", 0},
		{"qualified name", "user.ping", "pong\n", 0},
		{"nil result", "noop", "ok\n", 0},
		{"json result", "report", "{\"enabled\":true}\n", 0},
		{"unknown action", "missing", "", 1},
		{"failing action", "broken", "", 1},
		{"empty command", "  ", "", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := client.NewSession()
			if err != nil {
				t.Fatalf("new session: %v", err)
			}
			defer session.Close()

			var stdout, stderr bytes.Buffer
			session.Stdout = &stdout
			session.Stderr = &stderr
			err = session.Run(tt.command)

			status := 0
			if err != nil {
				var exitErr *ssh.ExitError
				if !errors.As(err, &exitErr) {
					t.Fatalf("run %q: %v", tt.command, err)
				}
				status = exitErr.ExitStatus()
			}
			if status != tt.wantStatus {
				t.Errorf("exit status = %d, want %d (stderr %q)", status, tt.wantStatus, stderr.String())
			}
			if stdout.String() != tt.wantOut {
				t.Errorf("stdout = %q, want %q", stdout.String(), tt.wantOut)
			}
			if tt.wantStatus != 0 && stderr.Len() == 0 {
				t.Error("expected an error on stderr")
			}
		})
	}
}

func TestRemoteRejectsUnauthorizedKey(t *testing.T) {
	server := startServer(t, newSigner(t))

	client, err := dial(server.Addr(), newSigner(t))
	if err == nil {
		client.Close()
		t.Fatal("expected handshake to fail for an unknown key")
	}
}

func TestRemoteRejectsAllWithoutAuthorizedKeys(t *testing.T) {
	server := startServer(t)

	client, err := dial(server.Addr(), newSigner(t))
	if err == nil {
		client.Close()
		t.Fatal("expected handshake to fail with no authorized keys")
	}
}

func TestNewServer_Validation(t *testing.T) {
	registry := actions.NewRegistry(host.NewSim(nil))
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing addr", Config{Invoker: registry}},
		{"missing invoker", Config{Addr: "127.0.0.1:0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.HostKeyPath = filepath.Join(t.TempDir(), "key")
			if _, err := NewServer(tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadOrCreateHostKey_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "omega_host_key")

	first, err := loadOrCreateHostKey(path)
	if err != nil {
		t.Fatalf("create host key: %v", err)
	}
	second, err := loadOrCreateHostKey(path)
	if err != nil {
		t.Fatalf("load host key: %v", err)
	}
	if !bytes.Equal(first.PublicKey().Marshal(), second.PublicKey().Marshal()) {
		t.Error("host key changed between loads")
	}
}

func TestLoadAuthorizedKeys_TrailingBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "authorized_keys")
	data := append(ssh.MarshalAuthorizedKey(newSigner(t).PublicKey()), "\n\n"...)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}

	keys, err := loadAuthorizedKeys(path)
	if err != nil {
		t.Fatalf("loadAuthorizedKeys() error = %v", err)
	}
	if len(keys) != 1 {
		t.Errorf("expected 1 key, got %d", len(keys))
	}
}
