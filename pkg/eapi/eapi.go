// SPDX-License-Identifier: GPL-3.0-or-later

// Package eapi is a client for the Arista EOS command API (JSON-RPC 2.0 over HTTP).
package eapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/netchecks/netchecks/pkg/confopt"
	"github.com/netchecks/netchecks/pkg/tlscfg"
	"github.com/netchecks/netchecks/pkg/web"
)

const (
	ProtocolHTTPS = "https"
	ProtocolHTTP  = "http"

	path = "/command-api"
)

type Config struct {
	Protocol string
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
	TLS      tlscfg.TLSConfig
}

// Client sends runCmds requests. Creating it does not contact the device.
type Client struct {
	httpClient *http.Client
	request    web.RequestConfig
	id         int
}

func New(cfg Config) (*Client, error) {
	proto := cfg.Protocol
	if proto == "" {
		proto = ProtocolHTTPS
	}
	if proto != ProtocolHTTPS && proto != ProtocolHTTP {
		return nil, fmt.Errorf("unknown eAPI protocol '%s'", proto)
	}

	port := cfg.Port
	if port == 0 {
		port = DefaultPort(proto)
	}

	httpClient, err := web.NewHTTPClient(web.ClientConfig{
		Timeout:           confopt.Duration(cfg.Timeout),
		NotFollowRedirect: true,
		TLSConfig:         cfg.TLS,
	})
	if err != nil {
		return nil, err
	}

	host := strings.Trim(cfg.Host, "[]")
	return &Client{
		httpClient: httpClient,
		request: web.RequestConfig{
			URL:      fmt.Sprintf("%s://%s%s", proto, net.JoinHostPort(host, strconv.Itoa(port)), path),
			Username: cfg.Username,
			Password: cfg.Password,
			Method:   http.MethodPost,
			Headers:  map[string]string{"Content-Type": "application/json"},
		},
	}, nil
}

func DefaultPort(protocol string) int {
	if protocol == ProtocolHTTP {
		return 80
	}
	return 443
}

func (c *Client) URL() string { return c.request.URL }

type request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  params `json:"params"`
	ID      string `json:"id"`
}

type params struct {
	Version int      `json:"version"`
	Cmds    []string `json:"cmds"`
	Format  string   `json:"format"`
}

// CommandError is a JSON-RPC error returned by the device, e.g. for an invalid command.
type CommandError struct {
	Code    int64
	Message string
	Detail  string
}

func (e *CommandError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("eAPI error %d: %s: %s", e.Code, e.Message, e.Detail)
	}
	return fmt.Sprintf("eAPI error %d: %s", e.Code, e.Message)
}

// RunCmds runs cmds in one request and returns one result per command, in order.
func (c *Client) RunCmds(ctx context.Context, cmds ...string) ([]gjson.Result, error) {
	c.id++

	body, err := json.Marshal(request{
		JSONRPC: "2.0",
		Method:  "runCmds",
		Params:  params{Version: 1, Cmds: cmds, Format: "json"},
		ID:      strconv.Itoa(c.id),
	})
	if err != nil {
		return nil, err
	}

	cfg := c.request.Copy()
	cfg.Body = string(body)

	req, err := web.NewHTTPRequest(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request '%s': %v", cfg.URL, err)
	}

	var resp gjson.Result
	err = web.DoHTTP(c.httpClient).Request(req, func(r io.Reader) error {
		bs, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		if !gjson.ValidBytes(bs) {
			return fmt.Errorf("invalid JSON response from '%s'", cfg.URL)
		}
		resp = gjson.ParseBytes(bs)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if e := resp.Get("error"); e.Exists() {
		return nil, &CommandError{
			Code:    e.Get("code").Int(),
			Message: e.Get("message").String(),
			Detail:  commandErrorDetail(e.Get("data")),
		}
	}

	results := resp.Get("result").Array()
	if len(results) != len(cmds) {
		return nil, fmt.Errorf("expected %d results, got %d", len(cmds), len(results))
	}

	return results, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// commandErrorDetail returns the first per-command error message, the reason a batch failed.
func commandErrorDetail(data gjson.Result) string {
	for _, d := range data.Array() {
		if e := d.Get("errors.0"); e.Exists() {
			return e.String()
		}
	}
	return ""
}
