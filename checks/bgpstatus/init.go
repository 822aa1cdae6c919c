// SPDX-License-Identifier: GPL-3.0-or-later

package bgpstatus

import (
	"net/netip"
	"regexp"

	"github.com/netchecks/netchecks/pkg/check"
)

var reASNumber = regexp.MustCompile(`^\d+(\.\d+)?$`)

func (c *Check) validateConfig() error {
	if c.Transport != transportSSH && c.Transport != transportSNMP {
		return check.NewConfigError("transport", "unknown transport '%s'", c.Transport)
	}
	if err := check.ValidateDevice(c.Device, c.Transport == transportSSH); err != nil {
		return err
	}
	if c.Transport == transportSNMP {
		if err := c.Config.Config.Validate(); err != nil {
			return check.NewConfigError("snmp", "%v", err)
		}
	}
	if c.Neighbor != "" {
		if _, err := netip.ParseAddr(c.Neighbor); err != nil {
			return check.NewConfigError("neighbor", "'%s' is not an IP address", c.Neighbor)
		}
	}
	if c.RemoteAS != "" && !reASNumber.MatchString(c.RemoteAS) {
		return check.NewConfigError("remote-as", "'%s' is not an AS number", c.RemoteAS)
	}
	return nil
}
