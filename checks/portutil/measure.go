// SPDX-License-Identifier: GPL-3.0-or-later

package portutil

import (
	"slices"
	"strings"
	"time"

	"github.com/netchecks/netchecks/pkg/check"
)

// ifaceState is one interface as seen in the first sample.
type ifaceState struct {
	name        string
	description string
	status      string
	up          bool
	speedBps    int64
	inErrors    int64
	outErrors   int64
	octets      octets
}

type octets struct {
	in  uint64
	out uint64
}

// measurement holds both samples of a run.
type measurement struct {
	device   check.Device
	ifaces   []ifaceState
	second   map[string]octets
	interval time.Duration
}

// Interface is the measured utilization of one interface.
type Interface struct {
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	Status            string  `json:"status"`
	Up                bool    `json:"up"`
	BandwidthMbps     float64 `json:"bandwidth_mbps"`
	InputRateMbps     float64 `json:"input_rate_mbps"`
	OutputRateMbps    float64 `json:"output_rate_mbps"`
	InputUtilization  float64 `json:"input_utilization"`
	OutputUtilization float64 `json:"output_utilization"`
	InputErrors       int64   `json:"input_errors"`
	OutputErrors      int64   `json:"output_errors"`
	HighUtilization   bool    `json:"high_utilization"`
}

func (i Interface) maxUtilization() float64 {
	return max(i.InputUtilization, i.OutputUtilization)
}

// interfaces computes per interface rates from the two samples.
// Interfaces missing from the second sample are left out.
func (m *measurement) interfaces() []Interface {
	secs := m.interval.Seconds()

	var res []Interface
	for _, st := range m.ifaces {
		next, ok := m.second[st.name]
		if !ok {
			continue
		}

		inBytes := counterDelta(st.octets.in, next.in)
		outBytes := counterDelta(st.octets.out, next.out)

		res = append(res, Interface{
			Name:              st.name,
			Description:       st.description,
			Status:            st.status,
			Up:                st.up,
			BandwidthMbps:     round2(float64(st.speedBps) / 1e6),
			InputRateMbps:     round2(float64(inBytes) / secs * 8 / 1e6),
			OutputRateMbps:    round2(float64(outBytes) / secs * 8 / 1e6),
			InputUtilization:  round2(utilization(inBytes, secs, st.speedBps)),
			OutputUtilization: round2(utilization(outBytes, secs, st.speedBps)),
			InputErrors:       st.inErrors,
			OutputErrors:      st.outErrors,
		})
	}
	return res
}

// utilization returns the percentage of speedBps used by deltaBytes transferred in secs.
func utilization(deltaBytes uint64, secs float64, speedBps int64) float64 {
	if speedBps <= 0 || secs <= 0 {
		return 0
	}
	return float64(deltaBytes) / secs * 8 / float64(speedBps) * 100
}

// counterDelta returns next-prev. A counter that went backwards was reset or wrapped: 0.
func counterDelta(prev, next uint64) uint64 {
	if next < prev {
		return 0
	}
	return next - prev
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

func sortByName(ifaces []ifaceState) {
	slices.SortFunc(ifaces, func(a, b ifaceState) int { return strings.Compare(a.name, b.name) })
}

// wanted reports whether the interface is measured. Requested interfaces are
// measured whatever their type or speed; without a request isDefault decides.
func wanted(name string, requested []string, isDefault bool) bool {
	if len(requested) == 0 {
		return isDefault
	}
	return slices.ContainsFunc(requested, func(r string) bool { return strings.EqualFold(r, name) })
}
