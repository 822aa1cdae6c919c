// SPDX-License-Identifier: GPL-3.0-or-later

package ospfstatus

import (
	"context"
	"fmt"

	"github.com/gosnmp/gosnmp"

	"github.com/netchecks/netchecks/pkg/check"
	"github.com/netchecks/netchecks/pkg/snmputils"
)

// OSPF-MIB (RFC 4750)
const (
	oidOspfRouterID  = "1.3.6.1.2.1.14.1.1.0"
	oidOspfAdminStat = "1.3.6.1.2.1.14.1.2.0"
	oidOspfNbrEntry  = "1.3.6.1.2.1.14.10.1"

	colOspfNbrIPAddr = 1
	colOspfNbrRtrID  = 3
	colOspfNbrState  = 6

	ospfAdminEnabled = 1
)

// Neighbor states as JUNOS names them.
var ospfNbrStates = map[int64]string{
	1: "Down",
	2: "Attempt",
	3: "Init",
	4: stateTwoWay,
	5: "ExStart",
	6: "Exchange",
	7: "Loading",
	8: stateFull,
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

func (c *Check) querySNMP(_ context.Context, client gosnmp.Handler) (*Result, error) {
	si, err := snmputils.GetSysInfo(client)
	if err != nil {
		if snmputils.IsSessionFailure(err) {
			return nil, &check.ConnectionError{Target: c.Target(), Err: err}
		}
		return nil, check.NewQueryError("SNMPv2-MIB::system", err)
	}

	res := &Result{
		Device: check.Device{
			Hostname: si.Name,
			Platform: check.OrUnknown(si.Platform()),
			Version:  si.Version(),
		},
		Instance:   c.Instance,
		Configured: true,
	}
	if res.Device.Hostname == "" {
		res.Device.Hostname = c.Host
	}

	scalars, err := snmputils.GetScalars(client, oidOspfRouterID, oidOspfAdminStat)
	if err != nil {
		return nil, check.NewQueryError("OSPF-MIB::ospfGeneralGroup", err)
	}
	admin, ok := scalars[oidOspfAdminStat]
	if !ok {
		res.Configured = false
		return res, nil
	}
	if v, err := snmputils.PduToInt(admin); err != nil {
		return nil, check.NewQueryError("OSPF-MIB::ospfAdminStat", err)
	} else if v != ospfAdminEnabled {
		res.Configured = false
		return res, nil
	}
	if rid, ok := scalars[oidOspfRouterID]; ok {
		if res.RouterID, err = snmputils.PduToString(rid); err != nil {
			return nil, check.NewQueryError("OSPF-MIB::ospfRouterId", err)
		}
	}

	tbl, err := snmputils.WalkTable(client, oidOspfNbrEntry)
	if err != nil {
		return nil, check.NewQueryError("OSPF-MIB::ospfNbrTable", err)
	}

	for _, idx := range tbl.Index {
		adj, err := adjacencyFromRow(tbl.Rows[idx])
		if err != nil {
			return nil, check.NewQueryError("OSPF-MIB::ospfNbrTable", fmt.Errorf("row %s: %v", idx, err))
		}
		res.Neighbors = append(res.Neighbors, adj)
	}

	return res, nil
}

func adjacencyFromRow(row snmputils.Row) (Adjacency, error) {
	addr, err := row.String(colOspfNbrIPAddr)
	if err != nil {
		return Adjacency{}, err
	}
	rid, err := row.String(colOspfNbrRtrID)
	if err != nil {
		return Adjacency{}, err
	}
	st, err := row.Int(colOspfNbrState)
	if err != nil {
		return Adjacency{}, err
	}
	state, ok := ospfNbrStates[st]
	if !ok {
		state = fmt.Sprintf("unknown(%d)", st)
	}
	return Adjacency{NeighborID: rid, Address: addr, State: state}, nil
}
