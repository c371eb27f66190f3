package natsgath

import (
	"strings"
	"unicode/utf8"

	"github.com/programme-lv/runterm/api"
)

// Unstructured diagnostics can carry the whole linker output
const (
	MaxDiagnosticHeight = 40
	MaxDiagnosticWidth  = 80
)

func trimDiagnostics(diags []api.Diagnostic) []api.Diagnostic {
	if diags == nil {
		return nil
	}
	res := make([]api.Diagnostic, len(diags))
	for i, d := range diags {
		d.Message = trimStrToRect(d.Message, MaxDiagnosticHeight, MaxDiagnosticWidth)
		res[i] = d
	}
	return res
}

func trimStrToRect(s string, maxHeight int, maxWidth int) string {
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
		lines = append(lines, "[...]")
	}
	var sb strings.Builder
	for i, line := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		if len(line) > maxWidth {
			cut := maxWidth
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			sb.WriteString(line[:cut])
			sb.WriteString("[...]")
		} else {
			sb.WriteString(line)
		}
	}
	return sb.String()
}
