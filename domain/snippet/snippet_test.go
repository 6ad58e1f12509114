package snippet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeSHA_FormattingDoesNotForkIdentity(t *testing.T) {
	base := ComputeSHA("func add(a, b int) int {\n\treturn a + b\n}", "go")

	// CRLF line endings hash the same.
	crlf := ComputeSHA("func add(a, b int) int {\r\n\treturn a + b\r\n}", "go")
	assert.Equal(t, base, crlf)

	// Trailing whitespace hashes the same.
	trailing := ComputeSHA("func add(a, b int) int {  \n\treturn a + b\t\n}\n\n", "go")
	assert.Equal(t, base, trailing)
}

func TestComputeSHA_LanguageIsPartOfIdentity(t *testing.T) {
	content := "print('hello')"
	assert.NotEqual(t, ComputeSHA(content, "python"), ComputeSHA(content, "ruby"))
}

func TestNormalizeContent(t *testing.T) {
	assert.Equal(t, "a\nb", NormalizeContent("a  \r\nb\t\n\n"))
	assert.Equal(t, "", NormalizeContent("\n\n\n"))
	assert.Equal(t, "x", NormalizeContent("x"))
}

func TestTruncate(t *testing.T) {
	short := "small snippet"
	assert.Equal(t, short, Truncate(short))

	// Oversized content is cut at a line boundary below the cap.
	line := strings.Repeat("x", 100) + "\n"
	big := strings.Repeat(line, MaxContentBytes/len(line)+10)
	got := Truncate(big)

	require.LessOrEqual(t, len(got), MaxContentBytes)
	assert.False(t, strings.HasSuffix(got, "\n"))
	assert.Equal(t, strings.Repeat("x", 100), got[len(got)-100:])
}

func TestNewSnippet_SHAMatchesContent(t *testing.T) {
	s := NewSnippet("def f(): pass", "python", "f", nil)
	assert.Equal(t, ComputeSHA("def f(): pass", "python"), s.SHA())
	assert.Equal(t, "f", s.Name())
	assert.Zero(t, s.ID())
}

func TestSnippet_DerivesFromIsCopied(t *testing.T) {
	s := NewSnippet("x = 1", "python", "x", nil)

	files := s.DerivesFrom()
	assert.Empty(t, files)

	s2 := s.WithID(5)
	assert.Equal(t, int64(5), s2.ID())
	assert.Zero(t, s.ID())
}
