// SPDX-License-Identifier: GPL-3.0-or-later

package bgpstatus

import (
	"fmt"
	"strconv"

	"github.com/netchecks/netchecks/pkg/check"
)

const stateEstablished = "Established"

// Result is what a router reports about its BGP process.
type Result struct {
	Device     check.Device
	Configured bool
	LocalAS    string
	RouterID   string
	Neighbors  []Neighbor
}

type Neighbor struct {
	Address          string `json:"neighbor_ip"`
	RemoteAS         string `json:"remote_as"`
	State            string `json:"state"`
	Uptime           string `json:"uptime"`
	PrefixesReceived int64  `json:"prefixes_received"`
	PrefixesSent     int64  `json:"prefixes_sent"`
	Description      string `json:"description"`
}

type filter struct {
	neighbor string
	remoteAS string
}

func (f filter) match(n Neighbor) bool {
	if f.neighbor != "" && n.Address != f.neighbor {
		return false
	}
	if f.remoteAS != "" && n.RemoteAS != f.remoteAS {
		return false
	}
	return true
}

// classify fills rep from res. A neighbor that is not Established is a failure,
// and so is a neighbor that was asked for but not found.
func classify(rep *check.Report, res *Result, f filter) {
	dev := res.Device
	rep.Device = &dev

	if !res.Configured {
		rep.Result["bgp"] = map[string]any{"local_as": "Not configured", "router_id": "Not configured"}
		rep.Result["neighbors"] = []Neighbor{}
		rep.Result["summary"] = summary(0, 0)
		if f.neighbor != "" {
			rep.Fail("BGP neighbor %s not found: BGP is not configured", f.neighbor)
			rep.Summary = fmt.Sprintf("BGP neighbor %s not found", f.neighbor)
			return
		}
		rep.Note("BGP not configured or not active on this device")
		rep.Summary = "BGP not configured"
		return
	}

	var neighbors []Neighbor
	for _, n := range res.Neighbors {
		if f.match(n) {
			neighbors = append(neighbors, n)
		}
	}

	established := 0
	for _, n := range neighbors {
		if n.State == stateEstablished {
			established++
			continue
		}
		rep.Fail("neighbor %s (AS %s) is %s", n.Address, n.RemoteAS, n.State)
	}

	if neighbors == nil {
		neighbors = []Neighbor{}
	}
	rep.Result["bgp"] = map[string]any{"local_as": res.LocalAS, "router_id": res.RouterID}
	rep.Result["neighbors"] = neighbors
	rep.Result["summary"] = summary(len(neighbors), established)
	rep.Table = neighborTable(neighbors)

	switch {
	case f.neighbor != "" && len(neighbors) == 0:
		rep.Fail("BGP neighbor %s not found", f.neighbor)
		rep.Summary = fmt.Sprintf("BGP neighbor %s not found", f.neighbor)
	case f.remoteAS != "" && len(neighbors) == 0:
		rep.Fail("no BGP neighbors in AS %s", f.remoteAS)
		rep.Summary = fmt.Sprintf("no BGP neighbors in AS %s", f.remoteAS)
	case len(neighbors) == 0:
		rep.Note("no BGP neighbors configured")
		rep.Summary = "no BGP neighbors configured"
	case established == len(neighbors):
		rep.Summary = fmt.Sprintf("%d of %d BGP neighbors established", established, len(neighbors))
	default:
		rep.Summary = fmt.Sprintf("%d of %d BGP neighbors not established", len(neighbors)-established, len(neighbors))
	}
}

func summary(total, established int) map[string]int {
	return map[string]int{
		"total_neighbors":      total,
		"established_sessions": established,
		"down_sessions":        total - established,
	}
}

func neighborTable(neighbors []Neighbor) *check.Table {
	t := &check.Table{
		Header: []string{"NEIGHBOR", "AS", "STATE", "UPTIME", "PFX RCVD", "PFX SENT", "DESCRIPTION"},
	}
	for _, n := range neighbors {
		t.Rows = append(t.Rows, []string{
			n.Address,
			n.RemoteAS,
			n.State,
			orDash(n.Uptime),
			strconv.FormatInt(n.PrefixesReceived, 10),
			strconv.FormatInt(n.PrefixesSent, 10),
			orDash(n.Description),
		})
	}
	return t
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
