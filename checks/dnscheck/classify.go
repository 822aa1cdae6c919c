// SPDX-License-Identifier: GPL-3.0-or-later

package dnscheck

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/netchecks/netchecks/pkg/check"
)

// values returns the data of the records of the requested type. ANY accepts every record.
func (a *Answer) values() []string {
	values := []string{}
	for _, r := range a.Records {
		if a.RecordType == "ANY" || r.Type == a.RecordType {
			values = append(values, r.Value)
		}
	}
	return values
}

// classify fills rep from ans. No record of the requested type is a failure,
// a record without the expected value is a warning.
func classify(rep *check.Report, ans *Answer, expect string) {
	values := ans.values()
	exists := len(values) > 0

	records := ans.Records
	if records == nil {
		records = []Record{}
	}

	rep.Result["domain"] = ans.Name
	rep.Result["record_type"] = ans.RecordType
	rep.Result["server"] = ans.Server
	rep.Result["exists"] = exists
	rep.Result["values"] = values
	rep.Result["rcode"] = ans.Rcode
	rep.Result["rtt_ms"] = float64(ans.RTT.Microseconds()) / 1000
	rep.Result["records"] = records
	rep.Table = recordTable(records)

	if ans.Truncated {
		rep.Note("response truncated, use --network tcp for the full answer")
	}

	switch {
	case !exists:
		rep.Fail("no %s record found for %s (%s)", ans.RecordType, ans.Name, ans.Rcode)
		rep.Summary = "no record found"
	case expect != "" && !containsValue(values, expect):
		rep.Warn("%s %s does not contain '%s'", ans.Name, ans.RecordType, expect)
		rep.Summary = fmt.Sprintf("%s record found, expected value missing", ans.RecordType)
	default:
		rep.Summary = fmt.Sprintf("%s %s %s", ans.Name, ans.RecordType, strings.Join(values, ", "))
	}
}

// containsValue matches expect against values ignoring case and the trailing
// dot of names. For MX and SRV the target alone matches too.
func containsValue(values []string, expect string) bool {
	want := normalize(expect)
	return slices.ContainsFunc(values, func(v string) bool {
		v = normalize(v)
		if v == want {
			return true
		}
		fields := strings.Fields(v)
		return len(fields) > 1 && fields[len(fields)-1] == want
	})
}

func normalize(s string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), ".")
}

func recordTable(records []Record) *check.Table {
	t := &check.Table{Header: []string{"NAME", "TYPE", "TTL", "VALUE"}}
	for _, r := range records {
		t.Rows = append(t.Rows, []string{r.Name, r.Type, strconv.FormatUint(uint64(r.TTL), 10), r.Value})
	}
	return t
}
