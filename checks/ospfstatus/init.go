// SPDX-License-Identifier: GPL-3.0-or-later

package ospfstatus

import (
	"net/netip"
	"strconv"
	"strings"

	"github.com/netchecks/netchecks/pkg/check"
)

func (c *Check) validateConfig() error {
	if c.Transport != transportNETCONF && c.Transport != transportSNMP {
		return check.NewConfigError("transport", "unknown transport '%s'", c.Transport)
	}
	if err := check.ValidateDevice(c.Device, c.Transport == transportNETCONF); err != nil {
		return err
	}
	if c.Transport == transportSNMP {
		if err := c.Config.Config.Validate(); err != nil {
			return check.NewConfigError("snmp", "%v", err)
		}
		if c.Area != "" {
			return check.NewConfigError("area", "area filter is not supported with the snmp transport")
		}
		if c.Instance != defaultInstance {
			return check.NewConfigError("instance", "routing instances are not supported with the snmp transport")
		}
	}
	if strings.TrimSpace(c.Instance) == "" {
		return check.NewConfigError("instance", "required")
	}
	if strings.ContainsAny(c.Instance, "<>&\"' ") {
		return check.NewConfigError("instance", "'%s' is not a routing instance name", c.Instance)
	}
	if c.Area != "" && !isAreaID(c.Area) {
		return check.NewConfigError("area", "'%s' is not an area ID (dotted quad or number)", c.Area)
	}
	return nil
}

func isAreaID(s string) bool {
	if addr, err := netip.ParseAddr(s); err == nil {
		return addr.Is4()
	}
	_, err := strconv.ParseUint(s, 10, 32)
	return err == nil
}
