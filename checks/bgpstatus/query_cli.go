// SPDX-License-Identifier: GPL-3.0-or-later

package bgpstatus

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/netchecks/netchecks/pkg/check"
	"github.com/netchecks/netchecks/pkg/sshconn"
)

const (
	cmdShowVersion   = "show version | include Software"
	cmdShowHostname  = "show running-config | include hostname"
	cmdShowSummary   = "show ip bgp summary"
	cmdShowNeighbors = "show ip bgp neighbors"
)

var (
	reHostname    = regexp.MustCompile(`(?m)^hostname\s+(\S+)`)
	reVersion     = regexp.MustCompile(`Version\s+([^\s,]+)`)
	reRouterID    = regexp.MustCompile(`BGP router identifier (\S+?),`)
	reLocalAS     = regexp.MustCompile(`local AS number (\S+)`)
	reNeighbor    = regexp.MustCompile(`^BGP neighbor is (\S+?),\s+(?:vrf \S+,\s+)?remote AS (\S+?),`)
	reState       = regexp.MustCompile(`BGP state = (\w+)`)
	reUptime      = regexp.MustCompile(`(?i)\bup for (\S+)`)
	reDescription = regexp.MustCompile(`(?m)^\s*Description: (.*?)\s*$`)
	rePfxCurrent  = regexp.MustCompile(`Prefixes Current:\s+(\d+)\s+(\d+)`)
	rePfxAccepted = regexp.MustCompile(`(\d+) accepted prefixes`)
	rePfxSent     = regexp.MustCompile(`(\d+) announced prefixes`)
)

var errBGPNotActive = errors.New("BGP not active")

func (c *Check) openCLI(ctx context.Context) (cliSession, error) {
	addr := c.Address(sshconn.DefaultPort)
	if c.KnownHosts == "" {
		c.Warningf("host key of %s is not verified, use --known-hosts to pin it", addr)
	}
	return c.newCLISession(ctx, sshconn.Config{
		Address:    addr,
		Username:   c.Username,
		Password:   c.Password,
		Timeout:    c.Timeout.Duration(),
		KnownHosts: c.KnownHosts,
	})
}

func (c *Check) queryCLI(ctx context.Context, sess cliSession) (*Result, error) {
	res := &Result{Configured: true}

	out, err := runCommand(ctx, sess, cmdShowVersion)
	if err != nil {
		return nil, err
	}
	res.Device.Platform, res.Device.Version = parsePlatform(out)

	res.Device.Hostname = c.Host
	if out, err := runCommand(ctx, sess, cmdShowHostname); err != nil {
		c.Debugf("hostname lookup failed, using '%s': %v", c.Host, err)
	} else if m := reHostname.FindStringSubmatch(out); m != nil {
		res.Device.Hostname = m[1]
	}

	if out, err = runCommand(ctx, sess, cmdShowSummary); err != nil {
		if errors.Is(err, errBGPNotActive) {
			c.Debugf("'%s': %v", cmdShowSummary, err)
			res.Configured = false
			return res, nil
		}
		return nil, err
	}
	res.LocalAS, res.RouterID = parseSummary(out)

	cmd := cmdShowNeighbors
	if c.Neighbor != "" {
		cmd += " " + c.Neighbor
	}
	if out, err = runCommand(ctx, sess, cmd); err != nil {
		if errors.Is(err, errBGPNotActive) {
			res.Configured = false
			return res, nil
		}
		return nil, err
	}
	res.Neighbors = parseNeighbors(out)

	return res, nil
}

// runCommand runs cmd and turns IOS error banners into errors.
func runCommand(ctx context.Context, sess cliSession, cmd string) (string, error) {
	out, err := sess.Run(ctx, cmd)
	if err != nil {
		return "", check.NewQueryError(cmd, err)
	}

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "% BGP not active"), strings.HasPrefix(line, "%BGP"):
			return "", errBGPNotActive
		case strings.HasPrefix(line, "% No such neighbor"):
			return "", nil
		case strings.HasPrefix(line, "% Invalid input"),
			strings.HasPrefix(line, "% Incomplete command"),
			strings.HasPrefix(line, "% Ambiguous command"),
			strings.HasPrefix(line, "% Authorization failed"):
			return "", check.NewQueryError(cmd, errors.New(line))
		}
	}

	return out, nil
}

func parsePlatform(out string) (platform, version string) {
	platform = "Cisco IOS"
	if strings.Contains(out, "IOS-XE") || strings.Contains(out, "IOS XE") {
		platform = "Cisco IOS-XE"
	}
	if m := reVersion.FindStringSubmatch(out); m != nil {
		version = m[1]
	}
	return platform, version
}

func parseSummary(out string) (localAS, routerID string) {
	if m := reLocalAS.FindStringSubmatch(out); m != nil {
		localAS = m[1]
	}
	if m := reRouterID.FindStringSubmatch(out); m != nil {
		routerID = m[1]
	}
	return check.OrUnknown(localAS), check.OrUnknown(routerID)
}

// parseNeighbors parses "show ip bgp neighbors" output, one section per "BGP neighbor is" line.
func parseNeighbors(out string) []Neighbor {
	var neighbors []Neighbor

	for _, section := range splitSections(out) {
		m := reNeighbor.FindStringSubmatch(section)
		if m == nil {
			continue
		}

		n := Neighbor{
			Address:  m[1],
			RemoteAS: m[2],
			State:    "Unknown",
		}
		if m := reState.FindStringSubmatch(section); m != nil {
			n.State = m[1]
		}
		if m := reUptime.FindStringSubmatch(section); m != nil && n.State == stateEstablished {
			n.Uptime = m[1]
		}
		if m := reDescription.FindStringSubmatch(section); m != nil {
			n.Description = m[1]
		}
		if m := rePfxCurrent.FindStringSubmatch(section); m != nil {
			n.PrefixesSent, _ = strconv.ParseInt(m[1], 10, 64)
			n.PrefixesReceived, _ = strconv.ParseInt(m[2], 10, 64)
		} else {
			if m := rePfxAccepted.FindStringSubmatch(section); m != nil {
				n.PrefixesReceived, _ = strconv.ParseInt(m[1], 10, 64)
			}
			if m := rePfxSent.FindStringSubmatch(section); m != nil {
				n.PrefixesSent, _ = strconv.ParseInt(m[1], 10, 64)
			}
		}

		neighbors = append(neighbors, n)
	}

	return neighbors
}

func splitSections(out string) []string {
	var (
		sections []string
		cur      strings.Builder
	)
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "BGP neighbor is ") && cur.Len() > 0 {
			sections = append(sections, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 || strings.HasPrefix(line, "BGP neighbor is ") {
			cur.WriteString(line)
			cur.WriteByte('\n')
		}
	}
	if cur.Len() > 0 {
		sections = append(sections, cur.String())
	}
	return sections
}
