// SPDX-License-Identifier: GPL-3.0-or-later

package portutil

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/gosnmp/gosnmp"

	"github.com/netchecks/netchecks/pkg/check"
	"github.com/netchecks/netchecks/pkg/snmputils"
)

// IF-MIB (RFC 2863)
const (
	oidIfEntry  = "1.3.6.1.2.1.2.2.1"
	oidIfXEntry = "1.3.6.1.2.1.31.1.1.1"

	colIfDescr      = 2
	colIfSpeed      = 5
	colIfOperStatus = 8
	colIfInOctets   = 10
	colIfInErrors   = 14
	colIfOutOctets  = 16
	colIfOutErrors  = 20

	colIfName        = 1
	colIfHCInOctets  = 6
	colIfHCOutOctets = 10
	colIfHighSpeed   = 15
	colIfAlias       = 18
)

var ifOperStatusMapping = map[int64]string{
	1: "up",
	2: "down",
	3: "testing",
	4: "unknown",
	5: "dormant",
	6: "notPresent",
	7: "lowerLayerDown",
}

func (c *Check) openSNMP(context.Context) (gosnmp.Handler, error) {
	client, err := snmputils.NewClient(c.newSnmpClient(), c.Host, c.Port, c.Timeout.Duration(), c.Config.Config)
	if err != nil {
		return nil, check.NewConfigError("snmp", "%v", err)
	}

	c.Debug(snmputils.ConnInfo(client))

	if err := client.Connect(); err != nil {
		return nil, err
	}
	return client, nil
}

func (c *Check) querySNMP(ctx context.Context, client gosnmp.Handler) (*measurement, error) {
	si, err := snmputils.GetSysInfo(client)
	if err != nil {
		if snmputils.IsSessionFailure(err) {
			return nil, &check.ConnectionError{Target: c.Target(), Err: err}
		}
		return nil, check.NewQueryError("SNMPv2-MIB::system", err)
	}

	ifTable, err := snmputils.WalkTable(client, oidIfEntry)
	if err != nil {
		return nil, check.NewQueryError("IF-MIB::ifTable", err)
	}
	ifXTable, err := snmputils.WalkTable(client, oidIfXEntry)
	if err != nil {
		return nil, check.NewQueryError("IF-MIB::ifXTable", err)
	}
	if len(ifTable.Index) == 0 {
		return nil, check.NewQueryError("IF-MIB::ifTable", fmt.Errorf("no IF-MIB data returned"))
	}

	rows, err := snmpInterfaces(ifTable, ifXTable, c.Interfaces)
	if err != nil {
		return nil, check.NewQueryError("IF-MIB", err)
	}
	ifaces := make([]ifaceState, 0, len(rows))
	for _, r := range rows {
		ifaces = append(ifaces, r.ifaceState)
	}

	hostname := si.Name
	if hostname == "" {
		hostname = c.Host
	}
	m := &measurement{
		device: check.Device{
			Hostname: hostname,
			Platform: check.OrUnknown(si.Platform()),
			Version:  si.Version(),
		},
		ifaces:   ifaces,
		interval: c.Interval.Duration(),
	}

	c.Debugf("first sample: %d interfaces, waiting %s", len(m.ifaces), m.interval)

	if err := c.sleep(ctx, m.interval); err != nil {
		return nil, check.NewQueryError("sampling interval", err)
	}

	// Counters only; names are taken from the first sample.
	hc := len(ifXTable.Index) > 0
	entry, name := oidIfXEntry, "IF-MIB::ifXTable"
	if !hc {
		entry, name = oidIfEntry, "IF-MIB::ifTable"
	}
	tbl, err := snmputils.WalkTable(client, entry)
	if err != nil {
		return nil, check.NewQueryError(name, err)
	}

	m.second = make(map[string]octets)
	for _, r := range rows {
		row, ok := tbl.Rows[r.index]
		if !ok {
			continue
		}
		o, err := rowOctets(row, hc)
		if err != nil {
			return nil, check.NewQueryError(name, err)
		}
		m.second[r.name] = o
	}

	return m, nil
}

type snmpIface struct {
	ifaceState
	index string
}

// snmpInterfaces joins ifTable and ifXTable rows. Without requested names,
// interfaces that report no speed are skipped.
func snmpInterfaces(ifTable, ifXTable *snmputils.Table, requested []string) ([]snmpIface, error) {
	var ifaces []snmpIface

	for _, idx := range ifTable.Index {
		row := ifTable.Rows[idx]
		xrow := ifXTable.Rows[idx]

		descr, err := row.String(colIfDescr)
		if err != nil {
			return nil, fmt.Errorf("ifDescr.%s: %v", idx, err)
		}
		name, err := xrow.String(colIfName)
		if err != nil {
			return nil, fmt.Errorf("ifName.%s: %v", idx, err)
		}
		if name == "" {
			name = descr
		}
		alias, err := xrow.String(colIfAlias)
		if err != nil {
			return nil, fmt.Errorf("ifAlias.%s: %v", idx, err)
		}

		speed, err := ifSpeed(row, xrow)
		if err != nil {
			return nil, fmt.Errorf("speed of %s: %v", name, err)
		}
		if !wanted(cleanValue(name), requested, speed > 0) {
			continue
		}

		oper, err := row.Int(colIfOperStatus)
		if err != nil {
			return nil, fmt.Errorf("ifOperStatus.%s: %v", idx, err)
		}
		inErrs, err := row.Int(colIfInErrors)
		if err != nil {
			return nil, fmt.Errorf("ifInErrors.%s: %v", idx, err)
		}
		outErrs, err := row.Int(colIfOutErrors)
		if err != nil {
			return nil, fmt.Errorf("ifOutErrors.%s: %v", idx, err)
		}

		o, err := ifOctets(row, xrow)
		if err != nil {
			return nil, fmt.Errorf("octets of %s: %v", name, err)
		}

		ifaces = append(ifaces, snmpIface{
			index: idx,
			ifaceState: ifaceState{
				name:        cleanValue(name),
				description: cleanValue(alias),
				status:      check.OrUnknown(ifOperStatusMapping[oper]),
				up:          oper == 1,
				speedBps:    speed,
				inErrors:    inErrs,
				outErrors:   outErrs,
				octets:      o,
			},
		})
	}

	slices.SortFunc(ifaces, func(a, b snmpIface) int { return strings.Compare(a.name, b.name) })

	return ifaces, nil
}

// ifSpeed returns bits per second. ifHighSpeed (Mb/s) wins, ifSpeed saturates at 4.29 Gb/s.
func ifSpeed(row, xrow snmputils.Row) (int64, error) {
	high, err := xrow.Int(colIfHighSpeed)
	if err != nil {
		return 0, err
	}
	if high > 0 {
		return high * 1_000_000, nil
	}
	return row.Int(colIfSpeed)
}

// ifOctets prefers the 64-bit ifHC counters when the agent has ifXTable.
func ifOctets(row, xrow snmputils.Row) (octets, error) {
	if len(xrow) > 0 {
		return rowOctets(xrow, true)
	}
	return rowOctets(row, false)
}

func rowOctets(row snmputils.Row, hc bool) (octets, error) {
	inCol, outCol := colIfInOctets, colIfOutOctets
	if hc {
		inCol, outCol = colIfHCInOctets, colIfHCOutOctets
	}

	in, err := rowCounter(row, inCol)
	if err != nil {
		return octets{}, err
	}
	out, err := rowCounter(row, outCol)
	if err != nil {
		return octets{}, err
	}
	return octets{in: in, out: out}, nil
}

func rowCounter(row snmputils.Row, col int) (uint64, error) {
	pdu, ok := row[col]
	if !ok {
		return 0, nil
	}
	switch pdu.Type {
	case gosnmp.Counter32, gosnmp.Counter64, gosnmp.Gauge32:
		return gosnmp.ToBigInt(pdu.Value).Uint64(), nil
	default:
		return 0, fmt.Errorf("OID '%s': unsupported type '%v'", pdu.Name, pdu.Type)
	}
}

var valReplacer = strings.NewReplacer("'", "", "\n", " ", "\r", " ", "\x00", "")

func cleanValue(s string) string {
	return strings.TrimSpace(valReplacer.Replace(s))
}
