// SPDX-License-Identifier: GPL-3.0-or-later

package portutil

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/netchecks/netchecks/pkg/check"
	"github.com/netchecks/netchecks/pkg/eapi"
	"github.com/netchecks/netchecks/pkg/web"
)

const (
	cmdShowVersion      = "show version"
	cmdShowHostname     = "show hostname"
	cmdShowDescriptions = "show interfaces description"
	cmdShowStatus       = "show interfaces status"
	cmdShowErrors       = "show interfaces counters errors"
	cmdShowCounters     = "show interfaces counters"
)

func (c *Check) openEAPI(context.Context) (eapiClient, error) {
	client, err := c.newEAPIClient(eapi.Config{
		Protocol: c.Protocol,
		Host:     c.Host,
		Port:     c.Port,
		Username: c.Username,
		Password: c.Password,
		Timeout:  c.Timeout.Duration(),
		TLS:      c.TLSConfig,
	})
	if err != nil {
		return nil, check.NewConfigError("tls", "%v", err)
	}
	return client, nil
}

func (c *Check) queryEAPI(ctx context.Context, client eapiClient) (*measurement, error) {
	cmds := []string{cmdShowVersion, cmdShowHostname, cmdShowDescriptions, cmdShowStatus, cmdShowErrors, cmdShowCounters}

	res, err := client.RunCmds(ctx, cmds...)
	if err != nil {
		// Nothing has been exchanged with the switch yet, so transport and
		// authentication failures belong to session establishment.
		if isSessionFailure(err) {
			return nil, &check.ConnectionError{Target: c.Target(), Err: err}
		}
		return nil, check.NewQueryError(strings.Join(cmds, "; "), err)
	}

	m := &measurement{
		device:   eapiDevice(res[0], res[1], c.Host),
		ifaces:   eapiInterfaces(res[2], res[3], res[4], res[5], c.Interfaces),
		interval: c.Interval.Duration(),
	}

	c.Debugf("first sample: %d interfaces, waiting %s", len(m.ifaces), m.interval)

	if err := c.sleep(ctx, m.interval); err != nil {
		return nil, check.NewQueryError("sampling interval", err)
	}

	res, err = client.RunCmds(ctx, cmdShowCounters)
	if err != nil {
		return nil, check.NewQueryError(cmdShowCounters, err)
	}
	m.second = eapiCounters(res[0])

	return m, nil
}

func eapiDevice(version, hostname gjson.Result, host string) check.Device {
	name := hostname.Get("hostname").String()
	if name == "" {
		name = host
	}
	return check.Device{
		Hostname:     name,
		Platform:     "Arista EOS",
		Model:        check.OrUnknown(version.Get("modelName").String()),
		SerialNumber: check.OrUnknown(version.Get("serialNumber").String()),
		Version:      check.OrUnknown(version.Get("version").String()),
	}
}

// eapiInterfaces returns the interfaces of "show interfaces status" to measure, in name order:
// the requested ones, or every Ethernet interface when none was requested.
func eapiInterfaces(descriptions, statuses, errs, counters gjson.Result, requested []string) []ifaceState {
	descs := descriptions.Get("interfaceDescriptions")
	errCounters := errs.Get("interfaceErrorCounters")
	if !errCounters.Exists() {
		errCounters = errs.Get("interfaceCounters")
	}
	octs := eapiCounters(counters)

	var ifaces []ifaceState
	statuses.Get("interfaceStatuses").ForEach(func(key, st gjson.Result) bool {
		name := key.String()
		if !wanted(name, requested, strings.HasPrefix(name, "Ethernet")) {
			return true
		}

		e := errCounters.Get(gjson.Escape(name))
		link := st.Get("linkStatus").String()

		ifaces = append(ifaces, ifaceState{
			name:        name,
			description: descs.Get(gjson.Escape(name) + ".description").String(),
			status:      check.OrUnknown(link),
			up:          link == "connected" || link == "up",
			speedBps:    st.Get("bandwidth").Int(),
			inErrors:    e.Get("inErrors").Int(),
			outErrors:   e.Get("outErrors").Int(),
			octets:      octs[name],
		})
		return true
	})

	sortByName(ifaces)
	return ifaces
}

func eapiCounters(counters gjson.Result) map[string]octets {
	res := make(map[string]octets)
	counters.Get("interfaces").ForEach(func(key, v gjson.Result) bool {
		res[key.String()] = octets{
			in:  v.Get("inOctets").Uint(),
			out: v.Get("outOctets").Uint(),
		}
		return true
	})
	return res
}

func isSessionFailure(err error) bool {
	var (
		opErr     *net.OpError
		dnsErr    *net.DNSError
		certErr   *tls.CertificateVerificationError
		unknownCA x509.UnknownAuthorityError
		hostErr   x509.HostnameError
		statusErr *web.StatusError
	)
	switch {
	case errors.As(err, &opErr), errors.As(err, &dnsErr), errors.As(err, &certErr),
		errors.As(err, &unknownCA), errors.As(err, &hostErr):
		return true
	case errors.As(err, &statusErr):
		return statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden
	default:
		return false
	}
}
