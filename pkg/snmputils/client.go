// SPDX-License-Identifier: GPL-3.0-or-later

package snmputils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"
)

const DefaultPort = 161

// NewClient configures handler for host. It does not send anything.
func NewClient(handler gosnmp.Handler, host string, port int, timeout time.Duration, cfg Config) (gosnmp.Handler, error) {
	if port == 0 {
		port = DefaultPort
	}

	handler.SetTarget(strings.Trim(host, "[]"))
	handler.SetPort(uint16(port))
	handler.SetRetries(0)
	handler.SetTimeout(timeout)
	handler.SetMaxRepetitions(uint32(cfg.MaxRepetitions))

	switch ver := ParseSNMPVersion(cfg.Version); ver {
	case gosnmp.Version1, gosnmp.Version2c:
		handler.SetCommunity(cfg.Community)
		handler.SetVersion(ver)
	case gosnmp.Version3:
		if cfg.User.Name == "" {
			return nil, fmt.Errorf("username is required for SNMPv3")
		}
		handler.SetVersion(gosnmp.Version3)
		handler.SetSecurityModel(gosnmp.UserSecurityModel)
		handler.SetMsgFlags(ParseSNMPv3SecurityLevel(cfg.User.SecurityLevel))
		handler.SetSecurityParameters(&gosnmp.UsmSecurityParameters{
			UserName:                 cfg.User.Name,
			AuthenticationProtocol:   ParseSNMPv3AuthProtocol(cfg.User.AuthProto),
			AuthenticationPassphrase: cfg.User.AuthKey,
			PrivacyProtocol:          ParseSNMPv3PrivProtocol(cfg.User.PrivProto),
			PrivacyPassphrase:        cfg.User.PrivKey,
		})
	}

	return handler, nil
}

// WalkAll walks the subtree under rootOid, with GETBULK unless the client speaks SNMPv1.
func WalkAll(client gosnmp.Handler, rootOid string) ([]gosnmp.SnmpPDU, error) {
	if client.Version() == gosnmp.Version1 {
		return client.WalkAll(rootOid)
	}
	return client.BulkWalkAll(rootOid)
}

// Row maps a table column number to its value.
type Row map[int]gosnmp.SnmpPDU

// Table is a walked conceptual table: rows keyed by instance index.
type Table struct {
	Index []string
	Rows  map[string]Row
}

// WalkTable walks entryOid (the xxxEntry OID of a table) and groups the values by row.
// The row index keeps every sub-identifier after the column, e.g. "192.0.2.1" for
// tables indexed by an IP address.
func WalkTable(client gosnmp.Handler, entryOid string) (*Table, error) {
	pdus, err := WalkAll(client, entryOid)
	if err != nil {
		return nil, err
	}

	tbl := &Table{Rows: make(map[string]Row)}
	prefix := strings.TrimPrefix(entryOid, ".") + "."

	for _, pdu := range pdus {
		name := strings.TrimPrefix(pdu.Name, ".")
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		col, idx, ok := strings.Cut(strings.TrimPrefix(name, prefix), ".")
		if !ok {
			continue
		}
		column, err := strconv.Atoi(col)
		if err != nil {
			continue
		}

		row, ok := tbl.Rows[idx]
		if !ok {
			row = make(Row)
			tbl.Rows[idx] = row
			tbl.Index = append(tbl.Index, idx)
		}
		row[column] = pdu
	}

	return tbl, nil
}

// Int returns the integer value of column, 0 when the column is missing.
func (r Row) Int(column int) (int64, error) {
	pdu, ok := r[column]
	if !ok {
		return 0, nil
	}
	return PduToInt(pdu)
}

// String returns the string value of column, "" when the column is missing.
func (r Row) String(column int) (string, error) {
	pdu, ok := r[column]
	if !ok {
		return "", nil
	}
	return PduToString(pdu)
}

// GetScalars fetches oids with a single GET. Objects the agent does not implement are left out.
func GetScalars(client gosnmp.Handler, oids ...string) (map[string]gosnmp.SnmpPDU, error) {
	pkt, err := client.Get(oids)
	if err != nil {
		return nil, err
	}
	if pkt.Error != gosnmp.NoError {
		return nil, fmt.Errorf("get %s: %v", strings.Join(oids, ","), pkt.Error)
	}

	res := make(map[string]gosnmp.SnmpPDU, len(pkt.Variables))
	for _, pdu := range pkt.Variables {
		switch pdu.Type {
		case gosnmp.NoSuchObject, gosnmp.NoSuchInstance, gosnmp.Null:
			continue
		}
		res[strings.TrimPrefix(pdu.Name, ".")] = pdu
	}
	return res, nil
}
