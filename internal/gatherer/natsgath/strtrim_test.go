package natsgath

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTrimStrToRectKeepsRunesWhole(t *testing.T) {
	// each quote is three bytes, so a byte cut at 10 lands inside one
	line := "abcdefghi‘x’ was not declared"
	got := trimStrToRect(line, 5, 10)
	assert.True(t, utf8.ValidString(got), got)
	assert.Equal(t, "abcdefghi[...]", got)
}

func TestTrimStrToRectLimitsHeight(t *testing.T) {
	s := strings.Repeat("line\n", 10) + "last"
	got := trimStrToRect(s, 3, 80)
	assert.Equal(t, "line\nline\nline\n[...]", got)
}

func TestTrimStrToRectShortLineUntouched(t *testing.T) {
	assert.Equal(t, "error: ‘x’", trimStrToRect("error: ‘x’", 40, 80))
}
