// SPDX-License-Identifier: GPL-3.0-or-later

// Package portutil reports interface utilization of a switch, measured as the
// counter delta over a fixed sampling interval.
package portutil

import (
	"context"
	"log/slog"
	"time"

	"github.com/gosnmp/gosnmp"
	"github.com/tidwall/gjson"

	"github.com/netchecks/netchecks/logger"
	"github.com/netchecks/netchecks/pkg/check"
	"github.com/netchecks/netchecks/pkg/cli"
	"github.com/netchecks/netchecks/pkg/confopt"
	"github.com/netchecks/netchecks/pkg/eapi"
	"github.com/netchecks/netchecks/pkg/snmputils"
	"github.com/netchecks/netchecks/pkg/tlscfg"
)

const Name = "port-utilization"

const (
	transportEAPI = "eapi"
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
			Transport: transportEAPI,
			Protocol:  eapi.ProtocolHTTPS,
			Threshold: 70,
			Interval:  confopt.Duration(time.Second * 5),
		},
		newEAPIClient: func(cfg eapi.Config) (eapiClient, error) {
			return eapi.New(cfg)
		},
		newSnmpClient: gosnmp.NewHandler,
		sleep:         sleepContext,
		now:           time.Now,
	}
}

type Config struct {
	cli.Common       `yaml:",inline" json:""`
	cli.Device       `yaml:",inline" json:""`
	snmputils.Config `group:"SNMP Options" yaml:",inline" json:""`
	tlscfg.TLSConfig `group:"TLS Options" yaml:",inline" json:""`

	Transport  string           `long:"transport" choice:"eapi" choice:"snmp" description:"how to query the switch" yaml:"transport,omitempty" json:"transport"`
	Protocol   string           `long:"protocol" choice:"https" choice:"http" description:"eAPI protocol" yaml:"protocol,omitempty" json:"protocol"`
	Interfaces []string         `short:"i" long:"interface" description:"check only this interface (repeatable)" yaml:"interfaces,omitempty" json:"interfaces"`
	Threshold  float64          `short:"T" long:"threshold" description:"utilization percentage above which an interface is reported" yaml:"threshold,omitempty" json:"threshold"`
	Interval   confopt.Duration `long:"interval" description:"time between the two counter samples" yaml:"interval,omitempty" json:"interval"`
}

type (
	Check struct {
		*logger.Logger
		Config `yaml:",inline" json:""`

		newEAPIClient func(cfg eapi.Config) (eapiClient, error)
		newSnmpClient func() gosnmp.Handler
		sleep         func(ctx context.Context, d time.Duration) error
		now           func() time.Time
	}
	eapiClient interface {
		RunCmds(ctx context.Context, cmds ...string) ([]gjson.Result, error)
		Close() error
	}
)

// Init validates the configuration. It does not contact the switch.
func (c *Check) Init() error {
	return c.validateConfig()
}

func (c *Check) Target() string {
	if c.Transport == transportSNMP {
		return c.Address(snmputils.DefaultPort)
	}
	return c.Address(eapi.DefaultPort(c.Protocol))
}

func (c *Check) Run(ctx context.Context) *check.Report {
	var (
		m   *measurement
		err error
	)

	c.Debugf("sampling %s over %s every %s", c.Target(), c.Transport, c.Interval)

	switch c.Transport {
	case transportSNMP:
		m, err = check.Execute(ctx, c.Target(), c.openSNMP, c.querySNMP)
	default:
		m, err = check.Execute(ctx, c.Target(), c.openEAPI, c.queryEAPI)
	}
	if err != nil {
		c.Error(err)
		return check.ErrorReport(Name, c.Target(), c.now(), err)
	}

	rep := check.NewReport(Name, c.Target(), c.now())
	classify(rep, m, c.Interfaces, c.Threshold)

	return rep
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
