// SPDX-License-Identifier: GPL-3.0-or-later

package bgpstatus

import (
	"context"
	"fmt"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/netchecks/netchecks/pkg/check"
	"github.com/netchecks/netchecks/pkg/snmputils"
)

// BGP4-MIB (RFC 4273)
const (
	oidBgpLocalAs    = "1.3.6.1.2.1.15.2.0"
	oidBgpIdentifier = "1.3.6.1.2.1.15.4.0"
	oidBgpPeerEntry  = "1.3.6.1.2.1.15.3.1"

	colBgpPeerState              = 2
	colBgpPeerRemoteAddr         = 7
	colBgpPeerRemoteAs           = 9
	colBgpPeerFsmEstablishedTime = 16
)

var bgpPeerStates = map[int64]string{
	1: "Idle",
	2: "Connect",
	3: "Active",
	4: "OpenSent",
	5: "OpenConfirm",
	6: stateEstablished,
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
			Platform: si.Platform(),
			Version:  si.Version(),
		},
		Configured: true,
	}
	if res.Device.Hostname == "" {
		res.Device.Hostname = c.Host
	}

	scalars, err := snmputils.GetScalars(client, oidBgpLocalAs, oidBgpIdentifier)
	if err != nil {
		return nil, check.NewQueryError("BGP4-MIB::bgp", err)
	}

	localAS, ok := scalars[oidBgpLocalAs]
	if !ok {
		res.Configured = false
		return res, nil
	}
	as, err := snmputils.PduToInt(localAS)
	if err != nil {
		return nil, check.NewQueryError("BGP4-MIB::bgpLocalAs", err)
	}
	if as == 0 {
		res.Configured = false
		return res, nil
	}
	res.LocalAS = fmt.Sprint(as)

	res.RouterID = check.OrUnknown("")
	if pdu, ok := scalars[oidBgpIdentifier]; ok {
		if v, err := snmputils.PduToString(pdu); err == nil {
			res.RouterID = v
		}
	}

	tbl, err := snmputils.WalkTable(client, oidBgpPeerEntry)
	if err != nil {
		return nil, check.NewQueryError("BGP4-MIB::bgpPeerTable", err)
	}

	for _, idx := range tbl.Index {
		n, err := peerFromRow(idx, tbl.Rows[idx])
		if err != nil {
			return nil, check.NewQueryError("BGP4-MIB::bgpPeerTable", err)
		}
		res.Neighbors = append(res.Neighbors, n)
	}

	return res, nil
}

func peerFromRow(idx string, row snmputils.Row) (Neighbor, error) {
	n := Neighbor{Address: idx}

	if addr, err := row.String(colBgpPeerRemoteAddr); err != nil {
		return n, err
	} else if addr != "" {
		n.Address = addr
	}

	state, err := row.Int(colBgpPeerState)
	if err != nil {
		return n, err
	}
	n.State = check.OrUnknown(bgpPeerStates[state])

	as, err := row.Int(colBgpPeerRemoteAs)
	if err != nil {
		return n, err
	}
	n.RemoteAS = fmt.Sprint(as)

	if n.State == stateEstablished {
		secs, err := row.Int(colBgpPeerFsmEstablishedTime)
		if err != nil {
			return n, err
		}
		n.Uptime = formatUptime(time.Duration(secs) * time.Second)
	}

	return n, nil
}

// formatUptime renders d the way IOS does: hh:mm:ss below a day, then 1d02h, then 2w3d.
func formatUptime(d time.Duration) string {
	days := int64(d.Hours()) / 24
	switch {
	case days == 0:
		h := int64(d.Hours())
		m := int64(d.Minutes()) % 60
		s := int64(d.Seconds()) % 60
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	case days < 7:
		return fmt.Sprintf("%dd%02dh", days, int64(d.Hours())%24)
	default:
		return fmt.Sprintf("%dw%dd", days/7, days%7)
	}
}
