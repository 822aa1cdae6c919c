// SPDX-License-Identifier: GPL-3.0-or-later

package snmputils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gosnmp/gosnmp"
)

const (
	OidSysDescr    = "1.3.6.1.2.1.1.1.0"
	OidSysObjectID = "1.3.6.1.2.1.1.2.0"
	OidSysName     = "1.3.6.1.2.1.1.5.0"
)

// SysInfo is the subset of the SNMPv2-MIB system group used in reports.
type SysInfo struct {
	Descr    string
	ObjectID string
	Name     string
}

var (
	valueSanitizer = strings.NewReplacer("'", "", "\n", " ", "\r", " ", "\x00", "")
	reVersion      = regexp.MustCompile(`(?i)version\s+([^\s,]+)`)
)

func GetSysInfo(client gosnmp.Handler) (*SysInfo, error) {
	pdus, err := GetScalars(client, OidSysDescr, OidSysObjectID, OidSysName)
	if err != nil {
		return nil, err
	}

	si := &SysInfo{}
	for oid, pdu := range pdus {
		var v string
		if v, err = PduToString(pdu); err != nil {
			return nil, fmt.Errorf("OID '%s': %v", oid, err)
		}
		v = strings.TrimSpace(valueSanitizer.Replace(v))

		switch oid {
		case OidSysDescr:
			si.Descr = v
		case OidSysObjectID:
			si.ObjectID = v
		case OidSysName:
			si.Name = v
		}
	}

	return si, nil
}

// Platform returns the first sentence of sysDescr, e.g. "Cisco IOS Software [Amsterdam]".
func (si *SysInfo) Platform() string {
	s := si.Descr
	if i := strings.IndexAny(s, ",;"); i > 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// Version returns the software version found in sysDescr, if any.
func (si *SysInfo) Version() string {
	if m := reVersion.FindStringSubmatch(si.Descr); m != nil {
		return m[1]
	}
	return ""
}
