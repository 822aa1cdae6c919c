// SPDX-License-Identifier: GPL-3.0-or-later

package portutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/gosnmp/gosnmp"
	snmpmock "github.com/gosnmp/gosnmp/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/netchecks/netchecks/pkg/check"
	"github.com/netchecks/netchecks/pkg/snmputils"
	"github.com/netchecks/netchecks/pkg/web"
)

func TestUtilization(t *testing.T) {
	tests := map[string]struct {
		deltaBytes uint64
		secs       float64
		speedBps   int64
		want       float64
	}{
		"line rate on 1G":     {deltaBytes: 125_000_000 * 5, secs: 5, speedBps: 1_000_000_000, want: 100},
		"half rate on 10G":    {deltaBytes: 625_000_000 * 10, secs: 10, speedBps: 10_000_000_000, want: 50},
		"one percent on 100M": {deltaBytes: 125_000 * 5, secs: 5, speedBps: 100_000_000, want: 1},
		"idle":                {deltaBytes: 0, secs: 5, speedBps: 1_000_000_000, want: 0},
		"unknown speed":       {deltaBytes: 1000, secs: 5, speedBps: 0, want: 0},
		"zero interval":       {deltaBytes: 1000, secs: 0, speedBps: 1_000_000_000, want: 0},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.InDelta(t, test.want, utilization(test.deltaBytes, test.secs, test.speedBps), 1e-9)
		})
	}
}

func TestCounterDelta(t *testing.T) {
	assert.Equal(t, uint64(500), counterDelta(1000, 1500))
	assert.Equal(t, uint64(0), counterDelta(1000, 1000))
	assert.Equal(t, uint64(0), counterDelta(4294967000, 200))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 5.0, round2(5.000000000000001))
	assert.Equal(t, 33.33, round2(100.0/3))
	assert.Equal(t, 66.67, round2(200.0/3))
}

func TestFormatSpeed(t *testing.T) {
	assert.Equal(t, "-", formatSpeed(0))
	assert.Equal(t, "100M", formatSpeed(100))
	assert.Equal(t, "1G", formatSpeed(1000))
	assert.Equal(t, "2.5G", formatSpeed(2500))
	assert.Equal(t, "100G", formatSpeed(100000))
}

func TestIsSessionFailure(t *testing.T) {
	tests := map[string]struct {
		err  error
		want bool
	}{
		"dial error": {
			err: &url.Error{Op: "Post", URL: "https://192.0.2.10:443/command-api",
				Err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connect: connection refused")}},
			want: true,
		},
		"unknown host": {
			err:  &url.Error{Op: "Post", URL: "https://leaf9:443/command-api", Err: &net.DNSError{Err: "no such host", Name: "leaf9"}},
			want: true,
		},
		"unauthorized": {
			err:  fmt.Errorf("request failed: %w", &web.StatusError{StatusCode: http.StatusUnauthorized}),
			want: true,
		},
		"server error": {
			err:  &web.StatusError{StatusCode: http.StatusInternalServerError},
			want: false,
		},
		"result count mismatch": {
			err:  errors.New("expected 6 results, got 5"),
			want: false,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.want, isSessionFailure(test.err))
		})
	}
}

func TestEAPIInterfaces_ErrorCountersFallback(t *testing.T) {
	statuses := gjson.Parse(`{"interfaceStatuses":{"Ethernet1":{"bandwidth":1000000000,"linkStatus":"connected"},"Port-Channel1":{"bandwidth":2000000000,"linkStatus":"connected"}}}`)
	errs := gjson.Parse(`{"interfaceCounters":{"Ethernet1":{"inErrors":7,"outErrors":2}}}`)
	counters := gjson.Parse(`{"interfaces":{"Ethernet1":{"inOctets":10,"outOctets":20}}}`)

	ifaces := eapiInterfaces(gjson.Parse(`{}`), statuses, errs, counters, nil)

	require.Len(t, ifaces, 1)
	assert.Equal(t, ifaceState{
		name:      "Ethernet1",
		status:    "connected",
		up:        true,
		speedBps:  1_000_000_000,
		inErrors:  7,
		outErrors: 2,
		octets:    octets{in: 10, out: 20},
	}, ifaces[0])
}

func TestEAPIInterfaces_Requested(t *testing.T) {
	statuses := gjson.Parse(`{"interfaceStatuses":{"Ethernet1":{"bandwidth":1000000000,"linkStatus":"connected"},"Port-Channel1":{"bandwidth":2000000000,"linkStatus":"connected"}}}`)
	counters := gjson.Parse(`{"interfaces":{"Port-Channel1":{"inOctets":10,"outOctets":20}}}`)

	ifaces := eapiInterfaces(gjson.Parse(`{}`), statuses, gjson.Parse(`{}`), counters, []string{"port-channel1"})

	require.Len(t, ifaces, 1)
	assert.Equal(t, "Port-Channel1", ifaces[0].name)
	assert.Equal(t, int64(2_000_000_000), ifaces[0].speedBps)
}

func TestCheck_Run_EAPIOverHTTP(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, _ := io.ReadAll(r.Body)
		req := gjson.ParseBytes(body)

		var results []string
		for _, cmd := range req.Get("params.cmds").Array() {
			data := map[string][]byte{
				cmdShowVersion:      dataShowVersion,
				cmdShowHostname:     dataShowHostname,
				cmdShowDescriptions: dataShowDescriptions,
				cmdShowStatus:       dataShowStatus,
				cmdShowErrors:       dataShowErrors,
				cmdShowCounters:     dataShowCounters,
			}[cmd.String()]
			if requests > 1 {
				data = dataShowCountersSecond
			}
			results = append(results, string(data))
		}
		_, _ = fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%q,"result":[%s]}`, req.Get("id").String(), strings.Join(results, ","))
	}))
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	c := New()
	c.Host = u.Hostname()
	c.Port, err = strconv.Atoi(u.Port())
	require.NoError(t, err)
	c.Username = "admin"
	c.Password = "secret"
	c.Protocol = "http"
	c.Interfaces = []string{"Ethernet1"}
	c.Threshold = 90
	c.sleep = func(context.Context, time.Duration) error { return nil }
	require.NoError(t, c.Init())

	rep := c.Run(context.Background())

	require.Nil(t, rep.Error)
	assert.Equal(t, 2, requests)
	assert.Equal(t, check.StatusWarning, rep.Status)
	assert.Equal(t, check.ExitWarning, rep.ExitCode())
	assert.Equal(t, []string{"Ethernet1 utilization in 100.00% out 10.00% exceeds 90%"}, rep.Problems)
}

func TestCheck_Run_EAPIUnauthorizedIsConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	c := New()
	c.Host = u.Hostname()
	c.Port, err = strconv.Atoi(u.Port())
	require.NoError(t, err)
	c.Username = "admin"
	c.Password = "wrong"
	c.Protocol = "http"
	require.NoError(t, c.Init())

	rep := c.Run(context.Background())

	require.NotNil(t, rep.Error)
	assert.Equal(t, check.KindConnection, rep.Error.Kind)
}

func setMockClientInitExpect(m *snmpmock.MockHandler) {
	m.EXPECT().SetTarget(gomock.Any()).AnyTimes()
	m.EXPECT().SetPort(gomock.Any()).AnyTimes()
	m.EXPECT().SetRetries(gomock.Any()).AnyTimes()
	m.EXPECT().SetTimeout(gomock.Any()).AnyTimes()
	m.EXPECT().SetMaxRepetitions(gomock.Any()).AnyTimes()
	m.EXPECT().SetCommunity(gomock.Any()).AnyTimes()
	m.EXPECT().SetVersion(gomock.Any()).AnyTimes()
	m.EXPECT().Target().Return("192.0.2.20").AnyTimes()
	m.EXPECT().Port().Return(uint16(161)).AnyTimes()
	m.EXPECT().Version().Return(gosnmp.Version2c).AnyTimes()
	m.EXPECT().Connect().Return(nil).AnyTimes()
}

func setMockClientSysInfoExpect(m *snmpmock.MockHandler) {
	m.EXPECT().Get([]string{snmputils.OidSysDescr, snmputils.OidSysObjectID, snmputils.OidSysName}).Return(&gosnmp.SnmpPacket{
		Variables: []gosnmp.SnmpPDU{
			{Name: "." + snmputils.OidSysDescr, Type: gosnmp.OctetString, Value: []byte("Cisco IOS Software [Amsterdam], Catalyst L3 Switch Software (CAT9K_IOSXE), Version 17.3.4a, RELEASE SOFTWARE (fc3)")},
			{Name: "." + snmputils.OidSysName, Type: gosnmp.OctetString, Value: []byte("access-sw1")},
		},
	}, nil)
}

func ifTablePDUs() []gosnmp.SnmpPDU {
	return []gosnmp.SnmpPDU{
		{Name: ".1.3.6.1.2.1.2.2.1.2.1", Type: gosnmp.OctetString, Value: []byte("GigabitEthernet1/0/1")},
		{Name: ".1.3.6.1.2.1.2.2.1.2.2", Type: gosnmp.OctetString, Value: []byte("GigabitEthernet1/0/2")},
		{Name: ".1.3.6.1.2.1.2.2.1.2.3", Type: gosnmp.OctetString, Value: []byte("Null0")},
		{Name: ".1.3.6.1.2.1.2.2.1.5.1", Type: gosnmp.Gauge32, Value: uint(1_000_000_000)},
		{Name: ".1.3.6.1.2.1.2.2.1.5.2", Type: gosnmp.Gauge32, Value: uint(1_000_000_000)},
		{Name: ".1.3.6.1.2.1.2.2.1.5.3", Type: gosnmp.Gauge32, Value: uint(0)},
		{Name: ".1.3.6.1.2.1.2.2.1.8.1", Type: gosnmp.Integer, Value: 1},
		{Name: ".1.3.6.1.2.1.2.2.1.8.2", Type: gosnmp.Integer, Value: 2},
		{Name: ".1.3.6.1.2.1.2.2.1.8.3", Type: gosnmp.Integer, Value: 1},
		{Name: ".1.3.6.1.2.1.2.2.1.14.1", Type: gosnmp.Counter32, Value: uint(0)},
		{Name: ".1.3.6.1.2.1.2.2.1.14.2", Type: gosnmp.Counter32, Value: uint(4)},
		{Name: ".1.3.6.1.2.1.2.2.1.20.1", Type: gosnmp.Counter32, Value: uint(0)},
		{Name: ".1.3.6.1.2.1.2.2.1.20.2", Type: gosnmp.Counter32, Value: uint(0)},
	}
}

func ifXTablePDUs(in1, out1 uint64) []gosnmp.SnmpPDU {
	return []gosnmp.SnmpPDU{
		{Name: ".1.3.6.1.2.1.31.1.1.1.1.1", Type: gosnmp.OctetString, Value: []byte("Gi1/0/1")},
		{Name: ".1.3.6.1.2.1.31.1.1.1.1.2", Type: gosnmp.OctetString, Value: []byte("Gi1/0/2")},
		{Name: ".1.3.6.1.2.1.31.1.1.1.1.3", Type: gosnmp.OctetString, Value: []byte("Nu0")},
		{Name: ".1.3.6.1.2.1.31.1.1.1.6.1", Type: gosnmp.Counter64, Value: in1},
		{Name: ".1.3.6.1.2.1.31.1.1.1.6.2", Type: gosnmp.Counter64, Value: uint64(0)},
		{Name: ".1.3.6.1.2.1.31.1.1.1.10.1", Type: gosnmp.Counter64, Value: out1},
		{Name: ".1.3.6.1.2.1.31.1.1.1.10.2", Type: gosnmp.Counter64, Value: uint64(0)},
		{Name: ".1.3.6.1.2.1.31.1.1.1.15.1", Type: gosnmp.Gauge32, Value: uint(1000)},
		{Name: ".1.3.6.1.2.1.31.1.1.1.15.2", Type: gosnmp.Gauge32, Value: uint(1000)},
		{Name: ".1.3.6.1.2.1.31.1.1.1.15.3", Type: gosnmp.Gauge32, Value: uint(0)},
		{Name: ".1.3.6.1.2.1.31.1.1.1.18.1", Type: gosnmp.OctetString, Value: []byte("uplink core1")},
		{Name: ".1.3.6.1.2.1.31.1.1.1.18.2", Type: gosnmp.OctetString, Value: []byte("")},
	}
}

func TestCheck_Run_SNMP(t *testing.T) {
	tests := map[string]struct {
		prepare      func(m *snmpmock.MockHandler)
		interfaces   []string
		wantStatus   check.Status
		wantSummary  string
		wantProblems []string
		wantErrKind  check.ErrorKind
	}{
		"line rate on 1G above threshold 90": {
			prepare: func(m *snmpmock.MockHandler) {
				setMockClientSysInfoExpect(m)
				m.EXPECT().BulkWalkAll(oidIfEntry).Return(ifTablePDUs(), nil)
				gomock.InOrder(
					m.EXPECT().BulkWalkAll(oidIfXEntry).Return(ifXTablePDUs(1000, 2000), nil),
					m.EXPECT().BulkWalkAll(oidIfXEntry).Return(ifXTablePDUs(1000+625_000_000, 2000+62_500_000), nil),
				)
			},
			wantStatus:   check.StatusWarning,
			wantSummary:  "1 of 2 interfaces above 90% utilization",
			wantProblems: []string{"Gi1/0/1 utilization in 100.00% out 10.00% exceeds 90%"},
		},
		"requested interface down": {
			prepare: func(m *snmpmock.MockHandler) {
				setMockClientSysInfoExpect(m)
				m.EXPECT().BulkWalkAll(oidIfEntry).Return(ifTablePDUs(), nil)
				gomock.InOrder(
					m.EXPECT().BulkWalkAll(oidIfXEntry).Return(ifXTablePDUs(1000, 2000), nil),
					m.EXPECT().BulkWalkAll(oidIfXEntry).Return(ifXTablePDUs(1000, 2000), nil),
				)
			},
			interfaces:   []string{"Gi1/0/2"},
			wantStatus:   check.StatusFailure,
			wantSummary:  "1 of 1 requested interfaces unavailable",
			wantProblems: []string{"interface Gi1/0/2 is down (down)"},
		},
		"requested interface without speed": {
			prepare: func(m *snmpmock.MockHandler) {
				setMockClientSysInfoExpect(m)
				m.EXPECT().BulkWalkAll(oidIfEntry).Return(ifTablePDUs(), nil)
				m.EXPECT().BulkWalkAll(oidIfXEntry).Return(ifXTablePDUs(1000, 2000), nil).Times(2)
			},
			interfaces:  []string{"Nu0"},
			wantStatus:  check.StatusSuccess,
			wantSummary: "1 interfaces below 90% utilization",
		},
		"agent without ifXTable": {
			prepare: func(m *snmpmock.MockHandler) {
				setMockClientSysInfoExpect(m)
				first := append(ifTablePDUs(),
					gosnmp.SnmpPDU{Name: ".1.3.6.1.2.1.2.2.1.10.1", Type: gosnmp.Counter32, Value: uint(1000)},
					gosnmp.SnmpPDU{Name: ".1.3.6.1.2.1.2.2.1.16.1", Type: gosnmp.Counter32, Value: uint(1000)},
				)
				second := append(ifTablePDUs(),
					gosnmp.SnmpPDU{Name: ".1.3.6.1.2.1.2.2.1.10.1", Type: gosnmp.Counter32, Value: uint(1000 + 6_250_000)},
					gosnmp.SnmpPDU{Name: ".1.3.6.1.2.1.2.2.1.16.1", Type: gosnmp.Counter32, Value: uint(1000)},
				)
				m.EXPECT().BulkWalkAll(oidIfXEntry).Return(nil, nil)
				gomock.InOrder(
					m.EXPECT().BulkWalkAll(oidIfEntry).Return(first, nil),
					m.EXPECT().BulkWalkAll(oidIfEntry).Return(second, nil),
				)
			},
			wantStatus:  check.StatusSuccess,
			wantSummary: "2 interfaces below 90% utilization",
		},
		"agent does not answer": {
			prepare: func(m *snmpmock.MockHandler) {
				m.EXPECT().Get(gomock.Any()).Return(nil, &net.OpError{Op: "read", Net: "udp", Err: syscall.ECONNREFUSED})
			},
			wantStatus:  check.StatusFailure,
			wantErrKind: check.KindConnection,
		},
		"walk fails": {
			prepare: func(m *snmpmock.MockHandler) {
				setMockClientSysInfoExpect(m)
				m.EXPECT().BulkWalkAll(oidIfEntry).Return(nil, errors.New("request timeout (after 0 retries)"))
			},
			wantStatus:  check.StatusFailure,
			wantErrKind: check.KindQuery,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockSNMP := snmpmock.NewMockHandler(ctrl)
			setMockClientInitExpect(mockSNMP)
			test.prepare(mockSNMP)
			mockSNMP.EXPECT().Close().Return(nil).Times(1)

			c := New()
			c.Host = "192.0.2.20"
			c.Transport = transportSNMP
			c.Threshold = 90
			c.Interfaces = test.interfaces
			c.newSnmpClient = func() gosnmp.Handler { return mockSNMP }
			c.sleep = func(context.Context, time.Duration) error { return nil }
			c.now = func() time.Time { return testNow }
			require.NoError(t, c.Init())

			rep := c.Run(context.Background())

			assert.Equal(t, test.wantStatus, rep.Status)
			if test.wantErrKind != "" {
				require.NotNil(t, rep.Error)
				assert.Equal(t, test.wantErrKind, rep.Error.Kind)
				return
			}
			require.Nil(t, rep.Error)
			assert.Equal(t, test.wantSummary, rep.Summary)
			assert.Equal(t, test.wantProblems, rep.Problems)
			assert.Equal(t, "access-sw1", rep.Device.Hostname)
			assert.Equal(t, "17.3.4a", rep.Device.Version)
		})
	}
}
