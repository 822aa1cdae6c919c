// SPDX-License-Identifier: GPL-3.0-or-later

package ospfstatus

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/netchecks/netchecks/pkg/check"
	"github.com/netchecks/netchecks/pkg/netconf"
	"github.com/netchecks/netchecks/pkg/sshconn"
)

const rpcGetSoftwareInformation = "<get-software-information/>"

var rePackageVersion = regexp.MustCompile(`\[([^\]]+)\]`)

type (
	softwareInformation struct {
		HostName     string `xml:"host-name"`
		ProductModel string `xml:"product-model"`
		JunosVersion string `xml:"junos-version"`
		Packages     []struct {
			Name    string `xml:"name"`
			Comment string `xml:"comment"`
		} `xml:"package-information"`
	}
	ospfNeighborInformation struct {
		Neighbors []ospfNeighbor `xml:"ospf-neighbor"`
	}
	ospfNeighbor struct {
		Address       string `xml:"neighbor-address"`
		Interface     string `xml:"interface-name"`
		State         string `xml:"ospf-neighbor-state"`
		ID            string `xml:"neighbor-id"`
		ActivityTimer string `xml:"activity-timer"`
		Area          string `xml:"ospf-area"`
		AdjacencyTime string `xml:"neighbor-adjacency-time"`
		UpTime        string `xml:"neighbor-up-time"`
	}
)

func (c *Check) openNETCONF(ctx context.Context) (netconfSession, error) {
	addr := c.Address(netconf.DefaultPort)
	if c.KnownHosts == "" {
		c.Warningf("host key of %s is not verified, use --known-hosts to pin it", addr)
	}
	return c.newNETCONFSession(ctx, sshconn.Config{
		Address:    addr,
		Username:   c.Username,
		Password:   c.Password,
		Timeout:    c.Timeout.Duration(),
		KnownHosts: c.KnownHosts,
	})
}

func (c *Check) queryNETCONF(_ context.Context, sess netconfSession) (*Result, error) {
	res := &Result{Instance: c.Instance, Area: c.Area, Configured: true}

	reply, err := sess.Exec(rpcGetSoftwareInformation)
	if err != nil {
		return nil, check.NewQueryError(rpcGetSoftwareInformation, err)
	}
	var si softwareInformation
	if err := findElement(reply, "software-information", &si); err != nil {
		return nil, check.NewQueryError(rpcGetSoftwareInformation, err)
	}
	res.Device = si.device(c.Host)

	rpc := neighborRPC(c.Instance, c.Area)
	if reply, err = sess.Exec(rpc); err != nil {
		var rpcErr *netconf.RPCError
		if errors.As(err, &rpcErr) && strings.Contains(strings.ToLower(rpcErr.Message), "not running") {
			c.Debugf("'%s': %v", rpc, err)
			res.Configured = false
			return res, nil
		}
		return nil, check.NewQueryError(rpc, err)
	}

	var info ospfNeighborInformation
	if err := findElement(reply, "ospf-neighbor-information", &info); err != nil && !errors.Is(err, errElementNotFound) {
		return nil, check.NewQueryError(rpc, err)
	}
	for _, n := range info.Neighbors {
		res.Neighbors = append(res.Neighbors, n.adjacency())
	}

	return res, nil
}

func neighborRPC(instance, area string) string {
	var b strings.Builder
	b.WriteString("<get-ospf-neighbor-information><extensive/>")
	if instance != "" {
		fmt.Fprintf(&b, "<instance>%s</instance>", instance)
	}
	if area != "" {
		fmt.Fprintf(&b, "<area>%s</area>", area)
	}
	b.WriteString("</get-ospf-neighbor-information>")
	return b.String()
}

func (si softwareInformation) device(host string) check.Device {
	d := check.Device{
		Hostname: strings.TrimSpace(si.HostName),
		Platform: "Juniper JUNOS",
		Model:    check.OrUnknown(strings.TrimSpace(si.ProductModel)),
		Version:  strings.TrimSpace(si.JunosVersion),
	}
	if d.Hostname == "" {
		d.Hostname = host
	}
	if d.Version == "" {
		for _, p := range si.Packages {
			if m := rePackageVersion.FindStringSubmatch(p.Comment); m != nil {
				d.Version = m[1]
				break
			}
		}
	}
	d.Version = check.OrUnknown(d.Version)
	return d
}

func (n ospfNeighbor) adjacency() Adjacency {
	adjTime := strings.TrimSpace(n.AdjacencyTime)
	if adjTime == "" {
		adjTime = strings.TrimSpace(n.UpTime)
	}
	return Adjacency{
		NeighborID:    strings.TrimSpace(n.ID),
		Address:       strings.TrimSpace(n.Address),
		Interface:     strings.TrimSpace(n.Interface),
		State:         strings.TrimSpace(n.State),
		Area:          strings.TrimSpace(n.Area),
		AdjacencyTime: adjTime,
		DeadTime:      formatDeadTime(strings.TrimSpace(n.ActivityTimer)),
	}
}

// formatDeadTime renders the activity timer (seconds) as hh:mm:ss.
func formatDeadTime(s string) string {
	secs, err := strconv.Atoi(s)
	if err != nil || secs < 0 {
		return s
	}
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs/60%60, secs%60)
}

var errElementNotFound = errors.New("element not found")

// findElement decodes the first element named local found anywhere in data into v.
// Namespaces are ignored: JUNOS versions its reply namespaces.
func findElement(data []byte, local string, v any) error {
	d := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := d.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("<%s>: %w", local, errElementNotFound)
			}
			return err
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == local {
			return d.DecodeElement(v, &se)
		}
	}
}
