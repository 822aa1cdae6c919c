// SPDX-License-Identifier: GPL-3.0-or-later

package web

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_Copy(t *testing.T) {
	tests := map[string]struct {
		orig   RequestConfig
		change func(req *RequestConfig)
		verify func(t *testing.T, orig, copy RequestConfig)
	}{
		"change headers": {
			orig: RequestConfig{
				URL:     "https://192.0.2.10/command-api",
				Method:  "POST",
				Headers: map[string]string{"Content-Type": "application/json"},
			},
			change: func(req *RequestConfig) {
				req.Headers["X-Trace"] = "1"
			},
			verify: func(t *testing.T, orig, copy RequestConfig) {
				assert.Equal(t, 1, len(orig.Headers))
				assert.Equal(t, 2, len(copy.Headers))
			},
		},
		"nil headers": {
			orig: RequestConfig{URL: "https://192.0.2.10/command-api"},
			change: func(req *RequestConfig) {
				req.Headers = map[string]string{"new": "header"}
			},
			verify: func(t *testing.T, orig, copy RequestConfig) {
				assert.Nil(t, orig.Headers)
				assert.NotNil(t, copy.Headers)
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			reqCopy := test.orig.Copy()

			assert.Equal(t, test.orig, reqCopy)
			test.change(&reqCopy)
			test.verify(t, test.orig, reqCopy)
		})
	}
}

func TestNewHTTPRequest(t *testing.T) {
	cfg := RequestConfig{
		URL:      "https://192.0.2.10/command-api",
		Method:   http.MethodPost,
		Username: "admin",
		Password: "secret",
		Headers: map[string]string{
			"Content-Type": "application/json",
			"host":         "switch1.example.test",
		},
		Body: `{"jsonrpc":"2.0"}`,
	}

	req, err := NewHTTPRequest(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "switch1.example.test", req.Host)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(req.Header.Get("User-Agent"), "netchecks/"))

	wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("admin:secret"))
	assert.Equal(t, wantAuth, req.Header.Get("Authorization"))

	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, cfg.Body, string(body))
}

func TestNewHTTPRequest_DefaultMethod(t *testing.T) {
	req, err := NewHTTPRequest(context.Background(), RequestConfig{URL: "http://192.0.2.10/"})
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, req.Method)
	assert.Empty(t, req.Header.Get("Authorization"))
}
