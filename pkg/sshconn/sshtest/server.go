// SPDX-License-Identifier: GPL-3.0-or-later

// Package sshtest provides an in-process SSH server for tests of SSH based device sessions.
package sshtest

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"io"
	"net"
	"sync"

	"golang.org/x/crypto/ssh"
)

// Server answers exec requests from a fixed command table and runs subsystem handlers.
type Server struct {
	Addr     string
	Username string
	Password string

	// Commands maps an exec command to its output. Unknown commands get "% Invalid input detected".
	Commands map[string]string
	// Subsystems maps a subsystem name to a handler that owns the channel until it returns.
	Subsystems map[string]func(rw io.ReadWriter)

	ln     net.Listener
	config *ssh.ServerConfig
	wg     sync.WaitGroup

	mu       sync.Mutex
	executed []string
	conns    int
}

// NewServer starts a server on a loopback port.
func NewServer(username, password string) (*Server, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		return nil, err
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}

	srv := &Server{
		Addr:       ln.Addr().String(),
		Username:   username,
		Password:   password,
		Commands:   make(map[string]string),
		Subsystems: make(map[string]func(rw io.ReadWriter)),
		ln:         ln,
	}

	srv.config = &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if c.User() == srv.Username && string(pass) == srv.Password {
				return nil, nil
			}
			return nil, fmt.Errorf("password rejected for %s", c.User())
		},
	}
	srv.config.AddHostKey(signer)

	srv.wg.Add(1)
	go srv.serve()

	return srv, nil
}

// Executed returns the exec commands received so far.
func (s *Server) Executed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.executed...)
}

// Connections returns the number of accepted TCP connections.
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns
}

func (s *Server) Close() {
	_ = s.ln.Close()
	s.wg.Wait()
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns++
		s.mu.Unlock()

		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer func() { _ = conn.Close() }()

	_, chans, reqs, err := ssh.NewServerConn(conn, s.config)
	if err != nil {
		return
	}
	go ssh.DiscardRequests(reqs)

	for nc := range chans {
		if nc.ChannelType() != "session" {
			_ = nc.Reject(ssh.UnknownChannelType, "unsupported channel type")
			continue
		}
		ch, chReqs, err := nc.Accept()
		if err != nil {
			continue
		}
		go s.handleSession(ch, chReqs)
	}
}

func (s *Server) handleSession(ch ssh.Channel, reqs <-chan *ssh.Request) {
	defer func() { _ = ch.Close() }()

	for req := range reqs {
		switch req.Type {
		case "exec":
			var payload struct{ Command string }
			if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
				_ = req.Reply(false, nil)
				continue
			}
			_ = req.Reply(true, nil)

			s.mu.Lock()
			s.executed = append(s.executed, payload.Command)
			s.mu.Unlock()

			out, ok := s.Commands[payload.Command]
			if !ok {
				out = "                    ^\n% Invalid input detected at '^' marker.\n"
			}
			_, _ = io.WriteString(ch, out)
			_, _ = ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{0}))
			return
		case "subsystem":
			var payload struct{ Name string }
			if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
				_ = req.Reply(false, nil)
				continue
			}
			handler, ok := s.Subsystems[payload.Name]
			_ = req.Reply(ok, nil)
			if !ok {
				continue
			}
			go ssh.DiscardRequests(reqs)
			handler(ch)
			return
		default:
			_ = req.Reply(false, nil)
		}
	}
}
