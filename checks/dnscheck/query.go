// SPDX-License-Identifier: GPL-3.0-or-later

package dnscheck

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/netchecks/netchecks/pkg/check"
	"github.com/netchecks/netchecks/pkg/tlscfg"
)

// Answer is the response of the server to one question.
type Answer struct {
	Name       string
	RecordType string
	Server     string
	Rcode      string
	RTT        time.Duration
	Truncated  bool
	Records    []Record
}

type Record struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	TTL   uint32 `json:"ttl"`
	Value string `json:"value"`
}

func (c *Check) openSession(ctx context.Context, addr string) (dnsSession, error) {
	cfg := sessionConfig{
		network: c.Network,
		address: addr,
		timeout: c.Timeout.Duration(),
	}
	if c.Network == "tcp-tls" {
		tlsConfig, err := tlscfg.NewTLSConfig(c.TLSConfig)
		if err != nil {
			return nil, check.NewConfigError("tls", "%v", err)
		}
		cfg.tls = tlsConfig
	}
	return c.newDNSSession(ctx, cfg)
}

func (c *Check) query(_ context.Context, sess dnsSession, addr string) (*Answer, error) {
	name := dns.Fqdn(c.Domain)
	if c.isReverseLookup() {
		arpa, err := dns.ReverseAddr(c.Domain)
		if err != nil {
			return nil, check.NewConfigError("domain", "%v", err)
		}
		name = arpa
	}

	msg := new(dns.Msg)
	msg.SetQuestion(name, c.qtype)
	msg.RecursionDesired = true

	question := fmt.Sprintf("%s %s", name, c.RecordType)

	resp, rtt, err := sess.Exchange(msg)
	if err != nil {
		// over udp nothing reaches the server before the first exchange
		if isUnreachable(err) {
			return nil, &check.ConnectionError{Target: addr, Err: err}
		}
		return nil, check.NewQueryError(question, err)
	}

	switch resp.Rcode {
	case dns.RcodeSuccess, dns.RcodeNameError:
	default:
		return nil, check.NewQueryError(question, fmt.Errorf("server answered %s", dns.RcodeToString[resp.Rcode]))
	}

	ans := &Answer{
		Name:       name,
		RecordType: c.RecordType,
		Rcode:      dns.RcodeToString[resp.Rcode],
		RTT:        rtt,
		Truncated:  resp.Truncated,
	}
	for _, rr := range resp.Answer {
		hdr := rr.Header()
		ans.Records = append(ans.Records, Record{
			Name:  hdr.Name,
			Type:  dns.TypeToString[hdr.Rrtype],
			TTL:   hdr.Ttl,
			Value: recordValue(rr),
		})
	}

	return ans, nil
}

func isUnreachable(err error) bool {
	var (
		opErr  *net.OpError
		netErr net.Error
	)
	return errors.As(err, &opErr) || (errors.As(err, &netErr) && netErr.Timeout())
}

func recordValue(rr dns.RR) string {
	switch rr := rr.(type) {
	case *dns.A:
		return rr.A.String()
	case *dns.AAAA:
		return rr.AAAA.String()
	case *dns.CNAME:
		return rr.Target
	case *dns.NS:
		return rr.Ns
	case *dns.PTR:
		return rr.Ptr
	case *dns.MX:
		return fmt.Sprintf("%d %s", rr.Preference, rr.Mx)
	case *dns.SRV:
		return fmt.Sprintf("%d %d %d %s", rr.Priority, rr.Weight, rr.Port, rr.Target)
	case *dns.TXT:
		return strings.Join(rr.Txt, "")
	case *dns.SPF:
		return strings.Join(rr.Txt, "")
	case *dns.SOA:
		return fmt.Sprintf("%s %s %d", rr.Ns, rr.Mbox, rr.Serial)
	default:
		return strings.TrimSpace(strings.TrimPrefix(rr.String(), rr.Header().String()))
	}
}
