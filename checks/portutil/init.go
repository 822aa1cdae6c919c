// SPDX-License-Identifier: GPL-3.0-or-later

package portutil

import (
	"slices"
	"strings"
	"time"

	"github.com/netchecks/netchecks/pkg/check"
)

const maxInterval = 5 * time.Minute

func (c *Check) validateConfig() error {
	if c.Transport != transportEAPI && c.Transport != transportSNMP {
		return check.NewConfigError("transport", "unknown transport '%s'", c.Transport)
	}
	if err := check.ValidateDevice(c.Device, c.Transport == transportEAPI); err != nil {
		return err
	}
	if c.Transport == transportSNMP {
		if err := c.Config.Config.Validate(); err != nil {
			return check.NewConfigError("snmp", "%v", err)
		}
	}
	if c.Threshold <= 0 || c.Threshold > 100 {
		return check.NewConfigError("threshold", "%g is not a percentage in (0, 100]", c.Threshold)
	}
	if iv := c.Interval.Duration(); iv < time.Second || iv > maxInterval {
		return check.NewConfigError("interval", "%s is outside [1s, %s]", iv, maxInterval)
	}
	var names []string
	for _, name := range c.Interfaces {
		name = strings.TrimSpace(name)
		if name == "" {
			return check.NewConfigError("interface", "empty interface name")
		}
		if !slices.ContainsFunc(names, func(v string) bool { return strings.EqualFold(v, name) }) {
			names = append(names, name)
		}
	}
	c.Interfaces = names
	return nil
}
