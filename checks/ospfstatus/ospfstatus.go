// SPDX-License-Identifier: GPL-3.0-or-later

// Package ospfstatus reports whether the OSPF adjacencies of a router are Full.
package ospfstatus

import (
	"context"
	"log/slog"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/netchecks/netchecks/logger"
	"github.com/netchecks/netchecks/pkg/check"
	"github.com/netchecks/netchecks/pkg/cli"
	"github.com/netchecks/netchecks/pkg/confopt"
	"github.com/netchecks/netchecks/pkg/netconf"
	"github.com/netchecks/netchecks/pkg/snmputils"
	"github.com/netchecks/netchecks/pkg/sshconn"
)

const Name = "ospf-status"

const (
	transportNETCONF = "netconf"
	transportSNMP    = "snmp"

	defaultInstance = "master"
)

func New() *Check {
	return &Check{
		Logger: logger.New().With(slog.String("check", Name)),
		Config: Config{
			Device: cli.Device{
				Timeout: confopt.Duration(time.Second * 10),
			},
			Config:    snmputils.DefaultConfig(),
			Transport: transportNETCONF,
			Instance:  defaultInstance,
		},
		newNETCONFSession: func(ctx context.Context, cfg sshconn.Config) (netconfSession, error) {
			return netconf.Dial(ctx, cfg)
		},
		newSnmpClient: gosnmp.NewHandler,
		now:           time.Now,
	}
}

type Config struct {
	cli.Common       `yaml:",inline" json:""`
	cli.Device       `yaml:",inline" json:""`
	snmputils.Config `group:"SNMP Options" yaml:",inline" json:""`

	Transport   string `long:"transport" choice:"netconf" choice:"snmp" description:"how to query the router" yaml:"transport,omitempty" json:"transport"`
	Instance    string `short:"i" long:"instance" description:"OSPF routing instance" yaml:"instance,omitempty" json:"instance"`
	Area        string `short:"a" long:"area" description:"check only neighbors in this OSPF area (netconf only)" yaml:"area,omitempty" json:"area"`
	AllowTwoWay bool   `long:"allow-two-way" description:"treat neighbors in 2Way state as healthy (DROther peers)" yaml:"allow_two_way,omitempty" json:"allow_two_way"`
	KnownHosts  string `long:"known-hosts" description:"OpenSSH known_hosts file used to verify the router host key" yaml:"known_hosts,omitempty" json:"known_hosts"`
}

type (
	Check struct {
		*logger.Logger
		Config `yaml:",inline" json:""`

		newNETCONFSession func(ctx context.Context, cfg sshconn.Config) (netconfSession, error)
		newSnmpClient     func() gosnmp.Handler
		now               func() time.Time
	}
	netconfSession interface {
		Exec(operation string) ([]byte, error)
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
	return c.Address(netconf.DefaultPort)
}

func (c *Check) Run(ctx context.Context) *check.Report {
	var (
		res *Result
		err error
	)

	c.Debugf("querying %s over %s, instance '%s'", c.Target(), c.Transport, c.Instance)

	switch c.Transport {
	case transportSNMP:
		res, err = check.Execute(ctx, c.Target(), c.openSNMP, c.querySNMP)
	default:
		res, err = check.Execute(ctx, c.Target(), c.openNETCONF, c.queryNETCONF)
	}
	if err != nil {
		c.Error(err)
		return check.ErrorReport(Name, c.Target(), c.now(), err)
	}

	rep := check.NewReport(Name, c.Target(), c.now())
	classify(rep, res, c.AllowTwoWay)

	return rep
}
