// SPDX-License-Identifier: GPL-3.0-or-later

// Package bgpstatus reports whether the BGP sessions of a router are established.
package bgpstatus

import (
	"context"
	"log/slog"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/netchecks/netchecks/logger"
	"github.com/netchecks/netchecks/pkg/check"
	"github.com/netchecks/netchecks/pkg/cli"
	"github.com/netchecks/netchecks/pkg/confopt"
	"github.com/netchecks/netchecks/pkg/snmputils"
	"github.com/netchecks/netchecks/pkg/sshconn"
)

const Name = "bgp-status"

const (
	transportSSH  = "ssh"
	transportSNMP = "snmp"
)

func New() *Check {
	return &Check{
		Logger: logger.New().With(slog.String("check", Name)),
		Config: Config{
			Device: cli.Device{
				Timeout: confopt.Duration(time.Second * 10),
			},
			Config:    snmputils.DefaultConfig(),
			Transport: transportSSH,
		},
		newCLISession: func(ctx context.Context, cfg sshconn.Config) (cliSession, error) {
			return sshconn.Dial(ctx, cfg)
		},
		newSnmpClient: gosnmp.NewHandler,
		now:           time.Now,
	}
}

type Config struct {
	cli.Common       `yaml:",inline" json:""`
	cli.Device       `yaml:",inline" json:""`
	snmputils.Config `group:"SNMP Options" yaml:",inline" json:""`

	Transport  string `long:"transport" choice:"ssh" choice:"snmp" description:"how to query the router" yaml:"transport,omitempty" json:"transport"`
	Neighbor   string `short:"n" long:"neighbor" description:"check only this BGP neighbor (IP address)" yaml:"neighbor,omitempty" json:"neighbor"`
	RemoteAS   string `long:"remote-as" description:"check only neighbors in this remote AS" yaml:"remote_as,omitempty" json:"remote_as"`
	KnownHosts string `long:"known-hosts" description:"OpenSSH known_hosts file used to verify the router host key" yaml:"known_hosts,omitempty" json:"known_hosts"`
}

type (
	Check struct {
		*logger.Logger
		Config `yaml:",inline" json:""`

		newCLISession func(ctx context.Context, cfg sshconn.Config) (cliSession, error)
		newSnmpClient func() gosnmp.Handler
		now           func() time.Time
	}
	cliSession interface {
		Run(ctx context.Context, cmd string) (string, error)
		Close() error
	}
)

// Init validates the configuration. It does not contact the router.
func (c *Check) Init() error {
	return c.validateConfig()
}

func (c *Check) Target() string {
	if c.Transport == transportSNMP {
		return c.Address(snmputils.DefaultPort)
	}
	return c.Address(sshconn.DefaultPort)
}

func (c *Check) Run(ctx context.Context) *check.Report {
	var (
		res *Result
		err error
	)

	c.Debugf("querying %s over %s", c.Target(), c.Transport)

	switch c.Transport {
	case transportSNMP:
		res, err = check.Execute(ctx, c.Target(), c.openSNMP, c.querySNMP)
	default:
		res, err = check.Execute(ctx, c.Target(), c.openCLI, c.queryCLI)
	}
	if err != nil {
		c.Error(err)
		return check.ErrorReport(Name, c.Target(), c.now(), err)
	}

	rep := check.NewReport(Name, c.Target(), c.now())
	classify(rep, res, filter{neighbor: c.Neighbor, remoteAS: c.RemoteAS})

	return rep
}
