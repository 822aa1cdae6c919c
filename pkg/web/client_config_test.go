// SPDX-License-Identifier: GPL-3.0-or-later

package web

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netchecks/netchecks/pkg/confopt"
	"github.com/netchecks/netchecks/pkg/tlscfg"
)

func TestNewHTTPClient(t *testing.T) {
	client, err := NewHTTPClient(ClientConfig{
		Timeout:           confopt.Duration(time.Second * 5),
		NotFollowRedirect: true,
		TLSConfig:         tlscfg.TLSConfig{InsecureSkipVerify: true},
	})
	require.NoError(t, err)

	assert.IsType(t, &http.Client{}, client)
	assert.Equal(t, time.Second*5, client.Timeout)
	assert.NotNil(t, client.CheckRedirect)

	tr, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	require.NotNil(t, tr.TLSClientConfig)
	assert.True(t, tr.TLSClientConfig.InsecureSkipVerify)
	assert.Nil(t, tr.Proxy)
}

func TestNewHTTPClient_FollowRedirect(t *testing.T) {
	client, err := NewHTTPClient(ClientConfig{})
	require.NoError(t, err)

	assert.Nil(t, client.CheckRedirect)
}

func TestNewHTTPClient_BadTLS(t *testing.T) {
	_, err := NewHTTPClient(ClientConfig{
		TLSConfig: tlscfg.TLSConfig{TLSCA: "testdata/missing-ca.pem"},
	})
	assert.Error(t, err)
}
