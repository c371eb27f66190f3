// Package diag turns raw compiler stderr into structured diagnostics.
package diag

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/programme-lv/runterm/api"
)

var lineRe = regexp.MustCompile(`^[^:]+:(\d+):(\d+):\s*(error|warning):\s*(.+)$`)

// Parse never fails. Lines of the form "file:line:col: severity: message"
// become diagnostics in order of appearance; if none match, the whole
// trimmed text is returned as one line-0 diagnostic.
func Parse(raw string) []api.Diagnostic {
	res := []api.Diagnostic{}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return res
	}

	for _, line := range strings.Split(raw, "\n") {
		if d, ok := parseLine(strings.TrimSuffix(line, "\r")); ok {
			res = append(res, d)
		}
	}

	if len(res) == 0 {
		res = append(res, api.Diagnostic{Line: 0, Column: 0, Message: trimmed})
	}
	return res
}

func parseLine(line string) (api.Diagnostic, bool) {
	m := lineRe.FindStringSubmatch(line)
	if m == nil {
		return api.Diagnostic{}, false
	}
	ln, err := strconv.Atoi(m[1])
	if err != nil {
		return api.Diagnostic{}, false
	}
	col, err := strconv.Atoi(m[2])
	if err != nil {
		return api.Diagnostic{}, false
	}
	return api.Diagnostic{
		Line:    ln,
		Column:  col,
		Message: fmt.Sprintf("%s: %s", m[3], m[4]),
	}, true
}

// Lines renders diagnostics the way the terminal panel shows them.
func Lines(diags []api.Diagnostic) []string {
	out := make([]string, 0, len(diags))
	for _, d := range diags {
		if d.Line > 0 {
			out = append(out, fmt.Sprintf("Line %d: %s", d.Line, d.Message))
		} else {
			out = append(out, d.Message)
		}
	}
	return out
}
