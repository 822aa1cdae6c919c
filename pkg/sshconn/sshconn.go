// SPDX-License-Identifier: GPL-3.0-or-later

package sshconn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const DefaultPort = 22

// Config describes how to reach and authenticate to a device.
type Config struct {
	Address  string
	Username string
	Password string
	Timeout  time.Duration
	// KnownHosts is an OpenSSH known_hosts file. When empty, any host key is accepted.
	KnownHosts string
}

// Client is an authenticated SSH connection to a device.
type Client struct {
	conn    net.Conn
	client  *ssh.Client
	timeout time.Duration
}

// Dial connects and authenticates. The whole handshake is bounded by cfg.Timeout.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if cfg.KnownHosts != "" {
		cb, err := knownhosts.New(cfg.KnownHosts)
		if err != nil {
			return nil, fmt.Errorf("known hosts: %v", err)
		}
		hostKeyCallback = cb
	}

	clientConfig := &ssh.ClientConfig{
		User: cfg.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(cfg.Password),
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = cfg.Password
				}
				return answers, nil
			}),
		},
		HostKeyCallback: hostKeyCallback,
		Timeout:         cfg.Timeout,
	}

	d := net.Dialer{Timeout: cfg.Timeout}
	conn, err := d.DialContext(ctx, "tcp", cfg.Address)
	if err != nil {
		return nil, err
	}

	if cfg.Timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(cfg.Timeout))
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, cfg.Address, clientConfig)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	_ = conn.SetDeadline(time.Time{})

	return &Client{
		conn:    conn,
		client:  ssh.NewClient(sshConn, chans, reqs),
		timeout: cfg.Timeout,
	}, nil
}

// Run executes cmd in its own exec channel and returns the combined output.
// Devices that close the channel without an exit status are treated as successful.
func (c *Client) Run(ctx context.Context, cmd string) (string, error) {
	sess, err := c.client.NewSession()
	if err != nil {
		return "", err
	}
	defer func() { _ = sess.Close() }()

	stop := c.watch(ctx, sess)
	defer stop()

	out, err := sess.CombinedOutput(cmd)
	if err != nil {
		var missing *ssh.ExitMissingError
		if !errors.As(err, &missing) {
			return string(out), err
		}
	}
	return string(out), nil
}

// Subsystem starts the named subsystem (e.g. "netconf") and returns its stream.
func (c *Client) Subsystem(ctx context.Context, name string) (*Stream, error) {
	sess, err := c.client.NewSession()
	if err != nil {
		return nil, err
	}

	w, err := sess.StdinPipe()
	if err != nil {
		_ = sess.Close()
		return nil, err
	}
	r, err := sess.StdoutPipe()
	if err != nil {
		_ = sess.Close()
		return nil, err
	}
	if err := sess.RequestSubsystem(name); err != nil {
		_ = sess.Close()
		return nil, fmt.Errorf("subsystem '%s': %v", name, err)
	}

	return &Stream{Reader: r, w: w, sess: sess, stop: c.watch(ctx, sess)}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// watch bounds the session by the client timeout and by ctx.
func (c *Client) watch(ctx context.Context, sess *ssh.Session) (stop func()) {
	var timer *time.Timer
	if c.timeout > 0 {
		timer = time.AfterFunc(c.timeout, func() { _ = sess.Close() })
	}
	stopCtx := context.AfterFunc(ctx, func() { _ = sess.Close() })

	return func() {
		if timer != nil {
			timer.Stop()
		}
		stopCtx()
	}
}

// Stream is a running subsystem.
type Stream struct {
	io.Reader
	w    io.WriteCloser
	sess *ssh.Session
	stop func()
}

func (s *Stream) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

func (s *Stream) Close() error {
	s.stop()
	_ = s.w.Close()
	if err := s.sess.Close(); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
