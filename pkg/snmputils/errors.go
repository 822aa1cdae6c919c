// SPDX-License-Identifier: GPL-3.0-or-later

package snmputils

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/gosnmp/gosnmp"
)

// USM report errors: the agent answered but rejected the SNMPv3 credentials.
var usmErrors = []error{
	gosnmp.ErrUnknownUsername,
	gosnmp.ErrWrongDigest,
	gosnmp.ErrDecryption,
	gosnmp.ErrNotInTimeWindow,
	gosnmp.ErrUnknownEngineID,
	gosnmp.ErrUnknownSecurityLevel,
}

// IsSessionFailure reports whether err, returned by the first request of a
// session, means the agent was never reached or refused the credentials.
// UDP has no handshake, so this is where an unreachable agent shows up.
func IsSessionFailure(err error) bool {
	if err == nil {
		return false
	}

	var (
		opErr  *net.OpError
		netErr net.Error
	)
	switch {
	case errors.As(err, &opErr):
		return true
	case errors.As(err, &netErr) && netErr.Timeout():
		return true
	case errors.Is(err, context.DeadlineExceeded):
		return true
	}
	for _, e := range usmErrors {
		if errors.Is(err, e) {
			return true
		}
	}

	// gosnmp reports an unanswered request only as text
	return strings.Contains(err.Error(), "request timeout")
}
