// SPDX-License-Identifier: GPL-3.0-or-later

package check

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// Result is the normalized query result: observed field name to value.
type Result map[string]any

// Device holds the facts a device reports about itself.
type Device struct {
	Hostname     string `json:"hostname"`
	Platform     string `json:"platform"`
	Model        string `json:"model,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
	Version      string `json:"version,omitempty"`
}

// Table is the tabular part of the text report.
type Table struct {
	Header []string
	Rows   [][]string
}

type ErrorInfo struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Report is the output of one check invocation.
type Report struct {
	Check     string     `json:"check"`
	Target    string     `json:"target"`
	Status    Status     `json:"status"`
	Success   bool       `json:"success"`
	Summary   string     `json:"summary"`
	Problems  []string   `json:"problems,omitempty"`
	Notes     []string   `json:"notes,omitempty"`
	Device    *Device    `json:"device,omitempty"`
	Result    Result     `json:"result,omitempty"`
	Error     *ErrorInfo `json:"error,omitempty"`
	Timestamp time.Time  `json:"timestamp"`

	Table *Table `json:"-"`
}

// NewReport returns a SUCCESS report; Warn and Fail escalate it.
func NewReport(check, target string, now time.Time) *Report {
	return &Report{
		Check:     check,
		Target:    target,
		Status:    StatusSuccess,
		Result:    Result{},
		Timestamp: now,
	}
}

// ErrorReport returns a FAILURE report describing err.
func ErrorReport(check, target string, now time.Time, err error) *Report {
	kind := KindOf(err)
	r := NewReport(check, target, now)
	r.Result = nil
	r.Status = StatusFailure
	r.Summary = fmt.Sprintf("%s error: %v", kind, err)
	r.Error = &ErrorInfo{Kind: kind, Message: err.Error()}
	return r
}

// Warn records a non-fatal problem.
func (r *Report) Warn(format string, a ...any) {
	r.Status = Worst(r.Status, StatusWarning)
	r.Problems = append(r.Problems, fmt.Sprintf(format, a...))
}

// Fail records an unhealthy condition.
func (r *Report) Fail(format string, a ...any) {
	r.Status = Worst(r.Status, StatusFailure)
	r.Problems = append(r.Problems, fmt.Sprintf(format, a...))
}

// Note records an informational line that does not change the status.
func (r *Report) Note(format string, a ...any) {
	r.Notes = append(r.Notes, fmt.Sprintf(format, a...))
}

func (r *Report) ExitCode() int {
	if r.Error != nil && r.Error.Kind == KindConfiguration {
		return ExitConfiguration
	}
	return r.Status.ExitCode()
}

// Write renders the report in the given format, text when format is empty.
func (r *Report) Write(w io.Writer, format string) error {
	switch format {
	case "", FormatText:
		return r.WriteText(w)
	case FormatJSON:
		return r.WriteJSON(w)
	default:
		return fmt.Errorf("unknown report format '%s'", format)
	}
}

func (r *Report) WriteJSON(w io.Writer) error {
	r.Success = r.Status == StatusSuccess
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteText writes the human-readable report. It does not include the
// timestamp, so the same result always renders the same text.
func (r *Report) WriteText(w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s - %s\n", strings.ToUpper(r.Check), r.Status, r.Summary)

	if d := r.Device; d != nil {
		fmt.Fprintf(&b, "device: %s\n", d.String())
	}
	for _, p := range r.Problems {
		fmt.Fprintf(&b, "  ! %s\n", p)
	}
	for _, n := range r.Notes {
		fmt.Fprintf(&b, "  * %s\n", n)
	}

	if t := r.Table; t != nil && len(t.Rows) > 0 {
		b.WriteString("\n")
		tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(t.Header, "\t"))
		for _, row := range t.Rows {
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (d *Device) String() string {
	var parts []string
	for _, v := range []string{d.Platform, d.Model, d.Version} {
		if v != "" && v != unknown {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return d.Hostname
	}
	return fmt.Sprintf("%s (%s)", d.Hostname, strings.Join(parts, ", "))
}

const unknown = "Unknown"

// OrUnknown returns s, or "Unknown" when s is empty.
func OrUnknown(s string) string {
	if s == "" {
		return unknown
	}
	return s
}
