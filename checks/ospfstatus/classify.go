// SPDX-License-Identifier: GPL-3.0-or-later

package ospfstatus

import (
	"fmt"
	"slices"
	"strings"

	"github.com/netchecks/netchecks/pkg/check"
)

const (
	stateFull   = "Full"
	stateTwoWay = "2Way"
)

// Result is what a router reports about one OSPF instance.
type Result struct {
	Device     check.Device
	Instance   string
	Area       string
	Configured bool
	RouterID   string
	Neighbors  []Adjacency
}

type Adjacency struct {
	NeighborID    string `json:"neighbor_id"`
	Address       string `json:"neighbor_address"`
	Interface     string `json:"interface"`
	State         string `json:"state"`
	Area          string `json:"area"`
	AdjacencyTime string `json:"adjacency_time"`
	DeadTime      string `json:"dead_time"`
}

func (a Adjacency) isFull() bool { return strings.EqualFold(a.State, stateFull) }

func (a Adjacency) isTwoWay() bool {
	s := strings.NewReplacer("-", "", " ", "").Replace(strings.ToLower(a.State))
	return s == "2way"
}

func (a Adjacency) String() string {
	if a.Interface == "" {
		return fmt.Sprintf("%s (%s)", a.NeighborID, a.Address)
	}
	return fmt.Sprintf("%s (%s on %s)", a.NeighborID, a.Address, a.Interface)
}

// classify fills rep from res. A neighbor that is not Full is a failure, 2Way is
// accepted when allowTwoWay is set. No neighbors at all is a warning.
func classify(rep *check.Report, res *Result, allowTwoWay bool) {
	dev := res.Device
	rep.Device = &dev

	neighbors := res.Neighbors
	if neighbors == nil {
		neighbors = []Adjacency{}
	}

	rep.Result["ospf_instance"] = res.Instance
	if res.Area != "" {
		rep.Result["area"] = res.Area
	}
	if res.RouterID != "" {
		rep.Result["router_id"] = res.RouterID
	}
	rep.Result["neighbors"] = neighbors

	var full, twoWay, unhealthy int
	areas := []string{}
	for _, n := range neighbors {
		if n.Area != "" && !slices.Contains(areas, n.Area) {
			areas = append(areas, n.Area)
		}
		switch {
		case n.isFull():
			full++
		case allowTwoWay && n.isTwoWay():
			twoWay++
		default:
			unhealthy++
			rep.Fail("neighbor %s is %s", n, n.State)
		}
	}
	slices.Sort(areas)

	rep.Result["summary"] = map[string]any{
		"total_neighbors":          len(neighbors),
		"full_state_neighbors":     full,
		"non_full_state_neighbors": len(neighbors) - full,
		"areas":                    areas,
	}
	rep.Table = adjacencyTable(neighbors)

	scope := "instance " + res.Instance
	if res.Area != "" {
		scope += ", area " + res.Area
	}

	switch {
	case !res.Configured:
		rep.Warn("OSPF is not running in %s", scope)
		rep.Summary = "OSPF not running"
	case len(neighbors) == 0:
		rep.Warn("no OSPF neighbors in %s", scope)
		rep.Summary = "no OSPF neighbors"
	case unhealthy > 0:
		rep.Summary = fmt.Sprintf("%d of %d OSPF neighbors not full", unhealthy, len(neighbors))
	case twoWay > 0:
		rep.Summary = fmt.Sprintf("%d of %d OSPF neighbors full, %d 2Way", full, len(neighbors), twoWay)
	default:
		rep.Summary = fmt.Sprintf("%d of %d OSPF neighbors full", full, len(neighbors))
	}
}

func adjacencyTable(neighbors []Adjacency) *check.Table {
	t := &check.Table{
		Header: []string{"NEIGHBOR ID", "ADDRESS", "INTERFACE", "STATE", "AREA", "ADJACENCY", "DEAD"},
	}
	for _, n := range neighbors {
		t.Rows = append(t.Rows, []string{
			orDash(n.NeighborID),
			orDash(n.Address),
			orDash(n.Interface),
			n.State,
			orDash(n.Area),
			orDash(n.AdjacencyTime),
			orDash(n.DeadTime),
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
