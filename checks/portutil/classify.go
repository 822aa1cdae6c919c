// SPDX-License-Identifier: GPL-3.0-or-later

package portutil

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/netchecks/netchecks/pkg/check"
)

// classify fills rep from m. Utilization above threshold is a warning. An
// interface that was asked for by name and is down or missing is a failure.
func classify(rep *check.Report, m *measurement, requested []string, threshold float64) {
	dev := m.device
	rep.Device = &dev

	all := m.interfaces()

	var (
		ifaces      []Interface
		unavailable int
	)
	if len(requested) == 0 {
		ifaces = all
	} else {
		for _, name := range requested {
			i := slices.IndexFunc(all, func(v Interface) bool { return strings.EqualFold(v.Name, name) })
			if i == -1 {
				rep.Fail("interface %s not found", name)
				unavailable++
				continue
			}
			if !all[i].Up {
				rep.Fail("interface %s is down (%s)", all[i].Name, all[i].Status)
				unavailable++
			}
			ifaces = append(ifaces, all[i])
		}
	}

	var active, high, withErrors int
	for i := range ifaces {
		v := &ifaces[i]
		if v.Up {
			active++
		}
		if v.InputErrors > 0 || v.OutputErrors > 0 {
			withErrors++
		}
		if v.InputUtilization > threshold || v.OutputUtilization > threshold {
			v.HighUtilization = true
			high++
		}
	}

	slices.SortStableFunc(ifaces, func(a, b Interface) int {
		switch {
		case a.maxUtilization() > b.maxUtilization():
			return -1
		case a.maxUtilization() < b.maxUtilization():
			return 1
		default:
			return strings.Compare(a.Name, b.Name)
		}
	})

	for _, v := range ifaces {
		if v.HighUtilization {
			rep.Warn("%s utilization in %.2f%% out %.2f%% exceeds %g%%", v.Name, v.InputUtilization, v.OutputUtilization, threshold)
		}
	}

	if ifaces == nil {
		ifaces = []Interface{}
	}
	rep.Result["interfaces"] = ifaces
	rep.Result["threshold"] = threshold
	rep.Result["interval_seconds"] = m.interval.Seconds()
	rep.Result["summary"] = map[string]int{
		"total_interfaces":            len(ifaces),
		"active_interfaces":           active,
		"high_utilization_interfaces": high,
		"error_interfaces":            withErrors,
	}
	rep.Table = interfaceTable(ifaces)

	switch {
	case unavailable > 0:
		rep.Summary = fmt.Sprintf("%d of %d requested interfaces unavailable", unavailable, len(requested))
	case high > 0:
		rep.Summary = fmt.Sprintf("%d of %d interfaces above %g%% utilization", high, len(ifaces), threshold)
	case len(ifaces) == 0:
		rep.Note("no interfaces to check")
		rep.Summary = "no interfaces found"
	default:
		rep.Summary = fmt.Sprintf("%d interfaces below %g%% utilization", len(ifaces), threshold)
	}
}

func interfaceTable(ifaces []Interface) *check.Table {
	t := &check.Table{
		Header: []string{"INTERFACE", "STATUS", "SPEED", "IN %", "OUT %", "IN Mbps", "OUT Mbps", "ERRORS", "DESCRIPTION"},
	}
	for _, v := range ifaces {
		t.Rows = append(t.Rows, []string{
			v.Name,
			v.Status,
			formatSpeed(v.BandwidthMbps),
			strconv.FormatFloat(v.InputUtilization, 'f', 2, 64),
			strconv.FormatFloat(v.OutputUtilization, 'f', 2, 64),
			strconv.FormatFloat(v.InputRateMbps, 'f', 2, 64),
			strconv.FormatFloat(v.OutputRateMbps, 'f', 2, 64),
			fmt.Sprintf("%d/%d", v.InputErrors, v.OutputErrors),
			orDash(v.Description),
		})
	}
	return t
}

func formatSpeed(mbps float64) string {
	switch {
	case mbps <= 0:
		return "-"
	case mbps >= 1000:
		return strconv.FormatFloat(mbps/1000, 'f', -1, 64) + "G"
	default:
		return strconv.FormatFloat(mbps, 'f', -1, 64) + "M"
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
