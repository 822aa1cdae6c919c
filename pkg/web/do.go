// SPDX-License-Identifier: GPL-3.0-or-later

package web

import (
	"fmt"
	"io"
	"net/http"
)

// DoHTTP wraps client for one-shot requests that expect 200 OK.
func DoHTTP(client *http.Client) *HTTPDoer {
	return &HTTPDoer{client: client}
}

type HTTPDoer struct {
	client *http.Client
}

// Request performs req and hands the body of a 200 OK response to parse.
func (d *HTTPDoer) Request(req *http.Request, parse func(body io.Reader) error) error {
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("error on HTTP request to '%s': %w", req.URL, err)
	}
	defer closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		return &StatusError{URL: req.URL.String(), StatusCode: resp.StatusCode, Status: resp.Status}
	}

	if parse == nil {
		return nil
	}
	return parse(resp.Body)
}

// StatusError is returned for responses other than 200 OK.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("'%s' returned HTTP status code: %s", e.URL, e.Status)
}

func closeBody(resp *http.Response) {
	if resp != nil && resp.Body != nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}
}
