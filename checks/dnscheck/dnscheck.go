// SPDX-License-Identifier: GPL-3.0-or-later

// Package dnscheck reports whether a DNS record exists and what it resolves to.
package dnscheck

import (
	"context"
	"crypto/tls"
	"log/slog"
	"time"

	"github.com/miekg/dns"

	"github.com/netchecks/netchecks/logger"
	"github.com/netchecks/netchecks/pkg/check"
	"github.com/netchecks/netchecks/pkg/cli"
	"github.com/netchecks/netchecks/pkg/confopt"
	"github.com/netchecks/netchecks/pkg/tlscfg"
)

const Name = "dns-check"

const defaultResolvConf = "/etc/resolv.conf"

func New() *Check {
	return &Check{
		Logger: logger.New().With(slog.String("check", Name)),
		Config: Config{
			Network:    "udp",
			RecordType: "A",
			Timeout:    confopt.Duration(time.Second * 5),
		},
		newDNSSession: dialDNS,
		resolvConf:    defaultResolvConf,
		now:           time.Now,
	}
}

type Config struct {
	cli.Common       `yaml:",inline" json:""`
	tlscfg.TLSConfig `group:"TLS Options" yaml:",inline" json:""`

	Domain     string           `short:"H" long:"domain" description:"name to resolve (an IP address for PTR)" yaml:"domain" json:"domain"`
	RecordType string           `short:"r" long:"record-type" choice:"A" choice:"AAAA" choice:"ANY" choice:"CNAME" choice:"MX" choice:"NS" choice:"PTR" choice:"SOA" choice:"SPF" choice:"SRV" choice:"TXT" description:"record type to query" yaml:"record_type,omitempty" json:"record_type"`
	Server     string           `short:"s" long:"server" description:"DNS server (default: first nameserver of /etc/resolv.conf)" yaml:"server,omitempty" json:"server"`
	Port       int              `short:"P" long:"port" description:"DNS server port (0 means 53, 853 for tcp-tls)" yaml:"port,omitempty" json:"port"`
	Network    string           `long:"network" choice:"udp" choice:"tcp" choice:"tcp-tls" description:"transport used to reach the server" yaml:"network,omitempty" json:"network"`
	Timeout    confopt.Duration `short:"t" long:"timeout" description:"query timeout" yaml:"timeout,omitempty" json:"timeout"`
	Expect     string           `short:"e" long:"expect" description:"value the answer must contain" yaml:"expect,omitempty" json:"expect"`
}

type (
	Check struct {
		*logger.Logger
		Config `yaml:",inline" json:""`

		qtype uint16

		newDNSSession func(ctx context.Context, cfg sessionConfig) (dnsSession, error)
		resolvConf    string
		now           func() time.Time
	}
	dnsSession interface {
		Exchange(msg *dns.Msg) (response *dns.Msg, rtt time.Duration, err error)
		Close() error
	}
	sessionConfig struct {
		network string
		address string
		timeout time.Duration
		tls     *tls.Config
	}
)

// Init validates the configuration. It does not contact the server.
func (c *Check) Init() error {
	return c.validateConfig()
}

// Target names the configured server. It is empty when the server comes from resolv.conf.
func (c *Check) Target() string {
	if c.Server == "" {
		return ""
	}
	addr, _ := c.serverAddress()
	return addr
}

func (c *Check) Run(ctx context.Context) *check.Report {
	addr, err := c.serverAddress()
	if err != nil {
		c.Error(err)
		return check.ErrorReport(Name, c.Server, c.now(), err)
	}

	c.Debugf("querying %s %s at %s over %s", c.Domain, c.RecordType, addr, c.Network)

	open := func(ctx context.Context) (dnsSession, error) { return c.openSession(ctx, addr) }
	query := func(ctx context.Context, sess dnsSession) (*Answer, error) { return c.query(ctx, sess, addr) }
	ans, err := check.Execute(ctx, addr, open, query)
	if err != nil {
		c.Error(err)
		return check.ErrorReport(Name, addr, c.now(), err)
	}
	ans.Server = addr

	rep := check.NewReport(Name, addr, c.now())
	classify(rep, ans, c.Expect)

	return rep
}

// dnsConn is a dns.Client bound to one connection.
type dnsConn struct {
	client *dns.Client
	conn   *dns.Conn
}

func dialDNS(ctx context.Context, cfg sessionConfig) (dnsSession, error) {
	client := &dns.Client{
		Net:       cfg.network,
		Timeout:   cfg.timeout,
		TLSConfig: cfg.tls,
	}
	conn, err := client.DialContext(ctx, cfg.address)
	if err != nil {
		return nil, err
	}
	return &dnsConn{client: client, conn: conn}, nil
}

func (s *dnsConn) Exchange(msg *dns.Msg) (*dns.Msg, time.Duration, error) {
	return s.client.ExchangeWithConn(msg, s.conn)
}

func (s *dnsConn) Close() error {
	return s.conn.Close()
}
