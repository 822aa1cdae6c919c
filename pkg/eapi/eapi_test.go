// SPDX-License-Identifier: GPL-3.0-or-later

package eapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netchecks/netchecks/pkg/web"
)

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)

	client, err := New(Config{
		Protocol: ProtocolHTTP,
		Host:     u.Hostname(),
		Port:     port,
		Username: "admin",
		Password: "arista",
		Timeout:  5 * time.Second,
	})
	require.NoError(t, err)
	return client
}

func TestClient_RunCmds(t *testing.T) {
	var got request

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "arista" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Path != "/command-api" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":"` + got.ID + `","result":[
			{"hostname":"leaf1","modelName":"DCS-7050SX3-48YC8","serialNumber":"JPE12345678","version":"4.28.3M"},
			{"interfaceStatuses":{"Ethernet1":{"bandwidth":10000000000,"linkStatus":"connected"}}}
		]}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	defer func() { _ = client.Close() }()

	res, err := client.RunCmds(context.Background(), "show version", "show interfaces status")
	require.NoError(t, err)
	require.Len(t, res, 2)

	assert.Equal(t, "runCmds", got.Method)
	assert.Equal(t, []string{"show version", "show interfaces status"}, got.Params.Cmds)
	assert.Equal(t, "json", got.Params.Format)
	assert.Equal(t, "leaf1", res[0].Get("hostname").String())
	assert.Equal(t, int64(10000000000), res[1].Get("interfaceStatuses.Ethernet1.bandwidth").Int())
}

func TestClient_RunCmds_Errors(t *testing.T) {
	tests := map[string]struct {
		status     int
		body       string
		wantCmdErr string
		wantStatus int
	}{
		"command error": {
			status: http.StatusOK,
			body: `{"jsonrpc":"2.0","id":"1","error":{"code":1002,"message":"CLI command 1 of 1 'show bogus' failed: invalid command",
				"data":[{"errors":["Invalid input (at token 1: 'bogus')"]}]}}`,
			wantCmdErr: "eAPI error 1002: CLI command 1 of 1 'show bogus' failed: invalid command: Invalid input (at token 1: 'bogus')",
		},
		"unauthorized": {
			status:     http.StatusUnauthorized,
			wantStatus: http.StatusUnauthorized,
		},
		"not json": {
			status: http.StatusOK,
			body:   `<html>`,
		},
		"result count mismatch": {
			status: http.StatusOK,
			body:   `{"jsonrpc":"2.0","id":"1","result":[]}`,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(test.status)
				_, _ = w.Write([]byte(test.body))
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv).RunCmds(context.Background(), "show bogus")
			require.Error(t, err)

			if test.wantCmdErr != "" {
				var ce *CommandError
				require.ErrorAs(t, err, &ce)
				assert.Equal(t, test.wantCmdErr, ce.Error())
			}
			if test.wantStatus != 0 {
				var se *web.StatusError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, test.wantStatus, se.StatusCode)
			}
		})
	}
}

func TestNew(t *testing.T) {
	client, err := New(Config{Host: "2001:db8::7"})
	require.NoError(t, err)
	assert.Equal(t, "https://[2001:db8::7]:443/command-api", client.URL())

	_, err = New(Config{Host: "192.0.2.1", Protocol: "ftp"})
	assert.Error(t, err)
}
