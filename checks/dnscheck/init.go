// SPDX-License-Identifier: GPL-3.0-or-later

package dnscheck

import (
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"

	"github.com/miekg/dns"

	"github.com/netchecks/netchecks/pkg/check"
)

func (c *Check) validateConfig() error {
	if c.Domain == "" {
		return check.NewConfigError("domain", "required")
	}
	rtype, err := parseRecordType(c.RecordType)
	if err != nil {
		return check.NewConfigError("record-type", "%v", err)
	}
	c.qtype = rtype

	if !c.isReverseLookup() {
		if _, ok := dns.IsDomainName(c.Domain); !ok || strings.ContainsAny(c.Domain, " \t") {
			return check.NewConfigError("domain", "'%s' is not a domain name", c.Domain)
		}
	}

	if !(c.Network == "udp" || c.Network == "tcp" || c.Network == "tcp-tls") {
		return check.NewConfigError("network", "wrong network transport: %s", c.Network)
	}
	if strings.ContainsAny(c.Server, " /") {
		return check.NewConfigError("server", "'%s' is not a hostname or IP address", c.Server)
	}
	if c.Port < 0 || c.Port > 65535 {
		return check.NewConfigError("port", "%d is out of range", c.Port)
	}
	if c.Timeout.Duration() <= 0 {
		return check.NewConfigError("timeout", "must be positive")
	}
	return nil
}

// isReverseLookup reports whether the domain is an IP address to look up in in-addr.arpa or ip6.arpa.
func (c *Check) isReverseLookup() bool {
	_, err := netip.ParseAddr(c.Domain)
	return c.qtype == dns.TypePTR && err == nil
}

// serverAddress returns host:port of the server to query. Without --server
// the first nameserver of resolv.conf is used.
func (c *Check) serverAddress() (string, error) {
	server := c.Server
	if server == "" {
		conf, err := dns.ClientConfigFromFile(c.resolvConf)
		if err != nil {
			return "", check.NewConfigError("server", "no server given and %v", err)
		}
		if len(conf.Servers) == 0 {
			return "", check.NewConfigError("server", "no server given and no nameserver in %s", c.resolvConf)
		}
		c.Debugf("resolv conf nameservers: %v", conf.Servers)
		server = conf.Servers[0]
	}

	port := c.Port
	if port == 0 {
		port = 53
		if c.Network == "tcp-tls" {
			port = 853
		}
	}
	return net.JoinHostPort(strings.Trim(server, "[]"), strconv.Itoa(port)), nil
}

func parseRecordType(recordType string) (uint16, error) {
	var rtype uint16

	switch recordType {
	case "A":
		rtype = dns.TypeA
	case "AAAA":
		rtype = dns.TypeAAAA
	case "ANY":
		rtype = dns.TypeANY
	case "CNAME":
		rtype = dns.TypeCNAME
	case "MX":
		rtype = dns.TypeMX
	case "NS":
		rtype = dns.TypeNS
	case "PTR":
		rtype = dns.TypePTR
	case "SOA":
		rtype = dns.TypeSOA
	case "SPF":
		rtype = dns.TypeSPF
	case "SRV":
		rtype = dns.TypeSRV
	case "TXT":
		rtype = dns.TypeTXT
	default:
		return 0, fmt.Errorf("unknown record type: %s", recordType)
	}

	return rtype, nil
}
