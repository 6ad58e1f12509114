package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitIdentifier(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"parseConfigFile", []string{"parse", "Config", "File"}},
		{"parse_config_file", []string{"parse", "config", "file"}},
		{"parse-config-file", []string{"parse", "config", "file"}},
		{"parseHTTPResponse", []string{"parse", "HTTP", "Response"}},
		{"HTTPServer", []string{"HTTP", "Server"}},
		{"simple", []string{"simple"}},
		{"net/http.Client", []string{"net", "http", "Client"}},
		{"__init__", []string{"init"}},
		{"", nil},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, SplitIdentifier(tc.in), "input %q", tc.in)
	}
}

func TestExpandIdentifiers(t *testing.T) {
	got := ExpandIdentifiers("func parseConfigFile(path string)")
	assert.Equal(t, "func parseConfigFile parse Config File path string", got)
}

func TestExpandIdentifiers_KeepsOriginalIdentifier(t *testing.T) {
	got := ExpandIdentifiers("snake_case_name = 1")
	assert.Contains(t, got, "snake_case_name")
	assert.Contains(t, got, "snake case name")
}

func TestExpandIdentifiers_SimpleWordsUnchanged(t *testing.T) {
	assert.Equal(t, "return nil", ExpandIdentifiers("return nil;"))
	assert.Equal(t, "", ExpandIdentifiers("!@#$"))
}
