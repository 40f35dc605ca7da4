// Package remote exposes the action registry over SSH. Each exec request
// names one action; its result is written to the session and the exit
// status reports success.
package remote

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/crypto/ssh"

	"github.com/Obvman/obv-Omega-Mouse/internal/actions"
)

const defaultHostKeyPath = "omega_host_key"

// Invoker runs a named action.
type Invoker interface {
	Invoke(ctx context.Context, name string) (any, error)
}

type Config struct {
	Addr               string
	HostKeyPath        string
	AuthorizedKeysPath string
	Invoker            Invoker
	Logger             *slog.Logger
}

type Server struct {
	config    Config
	sshConfig *ssh.ServerConfig
	listener  net.Listener
	closed    bool
	mu        sync.Mutex
	invoker   Invoker
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewServer(config Config) (*Server, error) {
	if config.Addr == "" {
		return nil, errors.New("remote address required")
	}
	if config.Invoker == nil {
		return nil, errors.New("remote invoker required")
	}
	if config.HostKeyPath == "" {
		config.HostKeyPath = defaultHostKeyPath
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	signer, err := loadOrCreateHostKey(config.HostKeyPath)
	if err != nil {
		return nil, fmt.Errorf("load host key: %w", err)
	}

	authorizedKeys, err := loadAuthorizedKeys(config.AuthorizedKeysPath)
	if err != nil {
		return nil, fmt.Errorf("load authorized keys: %w", err)
	}

	sshConfig := &ssh.ServerConfig{
		PublicKeyCallback: func(conn ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			if len(authorizedKeys) == 0 {
				return nil, errors.New("no authorized keys configured")
			}
			if _, ok := authorizedKeys[string(key.Marshal())]; ok {
				return nil, nil
			}
			return nil, fmt.Errorf("unauthorized key for %s", conn.User())
		},
	}
	sshConfig.AddHostKey(signer)

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		config:    config,
		sshConfig: sshConfig,
		invoker:   config.Invoker,
		logger:    config.Logger,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.listener = listener
	s.logger.Info("starting remote shell", "addr", listener.Addr().String())
	go s.serve()
	return nil
}

func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Addr
}

func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.cancel()
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

func (s *Server) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.isClosed() {
				return
			}
			s.logger.Warn("remote accept error", "error", err)
			continue
		}
		go s.handleConn(conn)
	}
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Server) handleConn(netConn net.Conn) {
	defer netConn.Close()
	sshConn, channels, requests, err := ssh.NewServerConn(netConn, s.sshConfig)
	if err != nil {
		s.logger.Debug("remote ssh handshake failed", "remote", netConn.RemoteAddr().String(), "error", err)
		return
	}
	defer sshConn.Close()

	go ssh.DiscardRequests(requests)

	for newChannel := range channels {
		if newChannel.ChannelType() != "session" {
			newChannel.Reject(ssh.UnknownChannelType, "unsupported channel type")
			continue
		}
		channel, reqs, err := newChannel.Accept()
		if err != nil {
			s.logger.Warn("remote channel accept failed", "error", err)
			continue
		}
		go s.handleSession(sshConn.User(), channel, reqs)
	}
}

func (s *Server) handleSession(user string, channel ssh.Channel, reqs <-chan *ssh.Request) {
	defer channel.Close()

	for req := range reqs {
		if req.Type != "exec" {
			if req.WantReply {
				req.Reply(false, nil)
			}
			continue
		}

		var payload struct{ Command string }
		if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
			req.Reply(false, nil)
			continue
		}
		req.Reply(true, nil)

		status := s.exec(user, payload.Command, channel)
		channel.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{status}))
		return
	}
}

func (s *Server) exec(user, command string, channel ssh.Channel) uint32 {
	name := actions.Qualify(strings.TrimSpace(command))
	if name == "" {
		fmt.Fprintln(channel.Stderr(), "error: action name required")
		return 1
	}

	result, err := s.invoker.Invoke(s.ctx, name)
	s.logger.Info("remote action", "user", user, "action", name, "ok", err == nil)
	if err != nil {
		fmt.Fprintf(channel.Stderr(), "error: %v\n", err)
		return 1
	}

	out, err := formatResult(result)
	if err != nil {
		fmt.Fprintf(channel.Stderr(), "error: encode result: %v\n", err)
		return 1
	}
	fmt.Fprintln(channel, out)
	return 0
}

func formatResult(result any) (string, error) {
	switch v := result.(type) {
	case nil:
		return "ok", nil
	case string:
		return v, nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func loadOrCreateHostKey(path string) (ssh.Signer, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return ssh.ParsePrivateKey(data)
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}

	pemBlock := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privateKey)}
	pemBytes := pem.EncodeToMemory(pemBlock)
	if err := os.WriteFile(path, pemBytes, 0600); err != nil {
		return nil, err
	}
	return ssh.ParsePrivateKey(pemBytes)
}

func loadAuthorizedKeys(path string) (map[string]struct{}, error) {
	authorized := make(map[string]struct{})
	if path == "" {
		return authorized, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	for len(bytes.TrimSpace(data)) > 0 {
		pubKey, _, _, rest, err := ssh.ParseAuthorizedKey(data)
		if err != nil {
			return nil, err
		}
		authorized[string(pubKey.Marshal())] = struct{}{}
		data = rest
	}
	return authorized, nil
}
