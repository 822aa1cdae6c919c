// SPDX-License-Identifier: GPL-3.0-or-later

package web

import (
	"context"
	"fmt"
	"io"
	"maps"
	"net/http"
	"strings"

	"github.com/netchecks/netchecks/pkg/buildinfo"
)

// RequestConfig describes one request to a management API.
type RequestConfig struct {
	URL      string            `yaml:"url" json:"url"`
	Username string            `yaml:"username,omitempty" json:"username"`
	Password string            `yaml:"password,omitempty" json:"password"`
	Method   string            `yaml:"method,omitempty" json:"method"`
	Headers  map[string]string `yaml:"headers,omitempty" json:"headers"`
	Body     string            `yaml:"body,omitempty" json:"body"`
}

// Copy returns a RequestConfig that shares no headers map with r.
func (r RequestConfig) Copy() RequestConfig {
	r.Headers = maps.Clone(r.Headers)
	return r
}

var userAgent = fmt.Sprintf("netchecks/%s", buildinfo.Version)

// NewHTTPRequest builds the request with basic auth when credentials are set.
// A "Host" header overrides the request host. GET is used when Method is empty.
func NewHTTPRequest(ctx context.Context, cfg RequestConfig) (*http.Request, error) {
	method := cfg.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if cfg.Body != "" {
		body = strings.NewReader(cfg.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, cfg.URL, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", userAgent)
	if cfg.Username != "" || cfg.Password != "" {
		req.SetBasicAuth(cfg.Username, cfg.Password)
	}
	for k, v := range cfg.Headers {
		if strings.EqualFold(k, "host") {
			req.Host = v
			continue
		}
		req.Header.Set(k, v)
	}

	return req, nil
}
