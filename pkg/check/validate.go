// SPDX-License-Identifier: GPL-3.0-or-later

package check

import (
	"strings"

	"github.com/netchecks/netchecks/pkg/cli"
)

// ValidateDevice checks the device options. Credentials are required when withCredentials is set.
func ValidateDevice(d cli.Device, withCredentials bool) error {
	if strings.TrimSpace(d.Host) == "" {
		return NewConfigError("host", "required")
	}
	if strings.ContainsAny(d.Host, " /") {
		return NewConfigError("host", "'%s' is not a hostname or IP address", d.Host)
	}
	if d.Port < 0 || d.Port > 65535 {
		return NewConfigError("port", "%d is out of range", d.Port)
	}
	if d.Timeout.Duration() <= 0 {
		return NewConfigError("timeout", "must be positive")
	}
	if withCredentials {
		if d.Username == "" {
			return NewConfigError("username", "required")
		}
		if d.Password == "" {
			return NewConfigError("password", "required (flag or NETCHECK_PASSWORD)")
		}
	}
	return nil
}
