// SPDX-License-Identifier: GPL-3.0-or-later

package web

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/netchecks/netchecks/pkg/confopt"
	"github.com/netchecks/netchecks/pkg/tlscfg"
)

// ErrRedirectAttempted is returned when the device answers with a redirect and
// NotFollowRedirect is set.
var ErrRedirectAttempted = errors.New("redirect")

type ClientConfig struct {
	// Timeout bounds dialing, the TLS handshake and the whole request.
	Timeout confopt.Duration `yaml:"timeout,omitempty" json:"timeout"`

	// NotFollowRedirect makes the client fail on a 3xx instead of following it.
	NotFollowRedirect bool `yaml:"not_follow_redirects,omitempty" json:"not_follow_redirects"`

	tlscfg.TLSConfig `yaml:",inline" json:""`
}

// NewHTTPClient returns a client that talks to the device directly, ignoring
// proxy environment variables.
func NewHTTPClient(cfg ClientConfig) (*http.Client, error) {
	tlsConfig, err := tlscfg.NewTLSConfig(cfg.TLSConfig)
	if err != nil {
		return nil, fmt.Errorf("error on creating TLS config: %v", err)
	}

	timeout := cfg.Timeout.Duration()
	dialer := &net.Dialer{Timeout: timeout}

	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext:         dialer.DialContext,
			TLSClientConfig:     tlsConfig,
			TLSHandshakeTimeout: timeout,
			MaxIdleConnsPerHost: 1,
		},
	}
	if cfg.NotFollowRedirect {
		client.CheckRedirect = func(*http.Request, []*http.Request) error { return ErrRedirectAttempted }
	}

	return client, nil
}
