// SPDX-License-Identifier: GPL-3.0-or-later

// Package netconf implements a minimal NETCONF 1.0 client (RFC 6241) over an SSH subsystem.
// Only the end-of-message framing of base:1.0 is supported; the client never advertises base:1.1.
package netconf

import (
	"bufio"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/netchecks/netchecks/pkg/sshconn"
)

const (
	DefaultPort = 830

	capBase10 = "urn:ietf:params:netconf:base:1.0"
	nsBase    = "urn:ietf:params:xml:ns:netconf:base:1.0"
	delimiter = "]]>]]>"
)

// Session is an established NETCONF session.
type Session struct {
	transport io.ReadWriteCloser
	reader    *bufio.Reader
	closer    io.Closer
	msgID     int

	ID           int
	Capabilities []string
}

type hello struct {
	XMLName      xml.Name `xml:"hello"`
	Capabilities []string `xml:"capabilities>capability"`
	SessionID    int      `xml:"session-id,omitempty"`
}

type rpcReply struct {
	XMLName   xml.Name   `xml:"rpc-reply"`
	MessageID string     `xml:"message-id,attr"`
	Errors    []RPCError `xml:"rpc-error"`
	Inner     []byte     `xml:",innerxml"`
}

// RPCError is an <rpc-error> returned by the server.
type RPCError struct {
	Type     string `xml:"error-type"`
	Tag      string `xml:"error-tag"`
	Severity string `xml:"error-severity"`
	Path     string `xml:"error-path"`
	Message  string `xml:"error-message"`
}

func (e *RPCError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = e.Tag
	}
	return fmt.Sprintf("rpc error (%s): %s", e.Type, msg)
}

// Dial opens an SSH connection to the device, starts the "netconf" subsystem and exchanges hellos.
func Dial(ctx context.Context, cfg sshconn.Config) (*Session, error) {
	client, err := sshconn.Dial(ctx, cfg)
	if err != nil {
		return nil, err
	}

	stream, err := client.Subsystem(ctx, "netconf")
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	sess, err := NewSession(stream)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	sess.closer = client

	return sess, nil
}

// NewSession exchanges hello messages over transport.
func NewSession(transport io.ReadWriteCloser) (*Session, error) {
	s := &Session{
		transport: transport,
		reader:    bufio.NewReader(transport),
	}

	bs, err := xml.Marshal(hello{Capabilities: []string{capBase10}})
	if err != nil {
		return nil, err
	}
	if err := s.send(bs); err != nil {
		_ = transport.Close()
		return nil, fmt.Errorf("send hello: %v", err)
	}

	msg, err := s.receive()
	if err != nil {
		_ = transport.Close()
		return nil, fmt.Errorf("receive hello: %v", err)
	}

	var h hello
	if err := xml.Unmarshal(msg, &h); err != nil {
		_ = transport.Close()
		return nil, fmt.Errorf("parse server hello: %v", err)
	}
	s.ID = h.SessionID
	s.Capabilities = h.Capabilities

	return s, nil
}

// Exec sends an <rpc> wrapping operation and returns the content of <rpc-reply>.
// rpc-errors of severity "error" are returned as *RPCError.
func (s *Session) Exec(operation string) ([]byte, error) {
	s.msgID++
	id := strconv.Itoa(s.msgID)

	req := fmt.Sprintf(`<rpc message-id="%s" xmlns="%s">%s</rpc>`, id, nsBase, operation)
	if err := s.send([]byte(req)); err != nil {
		return nil, err
	}

	msg, err := s.receive()
	if err != nil {
		return nil, err
	}

	var reply rpcReply
	if err := xml.Unmarshal(msg, &reply); err != nil {
		return nil, fmt.Errorf("parse rpc-reply: %v", err)
	}
	if reply.MessageID != "" && reply.MessageID != id {
		return nil, fmt.Errorf("rpc-reply message-id '%s' does not match request '%s'", reply.MessageID, id)
	}
	for i := range reply.Errors {
		if e := &reply.Errors[i]; e.Severity != "warning" {
			return nil, e
		}
	}

	return reply.Inner, nil
}

// Close ends the session with <close-session/> and releases the transport.
func (s *Session) Close() error {
	_, _ = s.Exec("<close-session/>")

	err := s.transport.Close()
	if s.closer != nil {
		err = errors.Join(err, s.closer.Close())
	}
	return err
}

func (s *Session) send(msg []byte) error {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.Write(msg)
	buf.WriteString(delimiter)
	_, err := s.transport.Write(buf.Bytes())
	return err
}

func (s *Session) receive() ([]byte, error) {
	var buf bytes.Buffer
	for {
		chunk, err := s.reader.ReadBytes('>')
		buf.Write(chunk)
		if bytes.HasSuffix(buf.Bytes(), []byte(delimiter)) {
			msg := bytes.TrimSuffix(buf.Bytes(), []byte(delimiter))
			return bytes.TrimSpace(msg), nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
	}
}
