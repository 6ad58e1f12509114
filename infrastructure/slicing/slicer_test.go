package slicing

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repolens/repolens/domain/repository"
	"github.com/repolens/repolens/domain/snippet"
)

func sliceOne(t *testing.T, name, language, content string) []snippet.Snippet {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))

	file := repository.NewFile(1, "blob-1", name, "text/plain", int64(len(content)), language)
	snippets, err := NewSlicer(nil).Slice(context.Background(), dir, []repository.File{file})
	require.NoError(t, err)
	return snippets
}

func snippetByName(t *testing.T, snippets []snippet.Snippet, name string) snippet.Snippet {
	t.Helper()
	for _, snip := range snippets {
		if snip.Name() == name {
			return snip
		}
	}
	names := make([]string, len(snippets))
	for i, snip := range snippets {
		names[i] = snip.Name()
	}
	t.Fatalf("no snippet named %q, have %v", name, names)
	return snippet.Snippet{}
}

func TestSlicer_GoDefinitionsCarryCallerLines(t *testing.T) {
	snippets := sliceOne(t, "demo.go", "go", `package demo

func helper() int { return 1 }

func caller() int {
	return helper() + 2
}
`)
	require.Len(t, snippets, 2)

	// The callee's snippet shows how it is used: the literal line of the
	// call site.
	helper := snippetByName(t, snippets, "demo.helper")
	assert.Contains(t, helper.Content(), "return helper() + 2")

	// The caller's snippet carries the callee's body for context.
	caller := snippetByName(t, snippets, "demo.caller")
	assert.Contains(t, caller.Content(), "func helper() int { return 1 }")
}

func TestSlicer_CallerLinesAreCapped(t *testing.T) {
	snippets := sliceOne(t, "demo.go", "go", `package demo

func helper() int { return 1 }

func a() int {
	x := helper()
	return x
}

func b() int {
	y := helper()
	return y
}

func c() int {
	z := helper()
	return z
}
`)
	helper := snippetByName(t, snippets, "demo.helper")
	assert.Equal(t, 2, strings.Count(helper.Content(), ":= helper()"))
}

func TestSlicer_CSSRulesSliceBySelector(t *testing.T) {
	snippets := sliceOne(t, "site.css", "css", `.button, .button:hover {
  color: red;
}

#nav {
  display: flex;
}
`)
	require.Len(t, snippets, 2)

	button := snippetByName(t, snippets, ".button, .button:hover")
	assert.Contains(t, button.Content(), "color: red")
	nav := snippetByName(t, snippets, "#nav")
	assert.Contains(t, nav.Content(), "display: flex")
}

func TestSlicer_HTMLElementsSliceBySelector(t *testing.T) {
	snippets := sliceOne(t, "index.html", "html", `<html>
<body>
<div id="hero">
  <p class="lead">Welcome</p>
  <span>untagged</span>
</div>
</body>
</html>
`)
	hero := snippetByName(t, snippets, "div#hero")
	assert.Contains(t, hero.Content(), "Welcome")
	lead := snippetByName(t, snippets, "p.lead")
	assert.Contains(t, lead.Content(), "Welcome")

	// Elements without an id or class carry no stable selector.
	for _, snip := range snippets {
		assert.NotContains(t, snip.Name(), "span")
	}
}

func TestSlicer_ShellFunctions(t *testing.T) {
	snippets := sliceOne(t, "deploy.sh", "shell", `#!/bin/sh

greet() {
  echo "hello"
}
`)
	greet := snippetByName(t, snippets, "deploy.greet")
	assert.Contains(t, greet.Content(), `echo "hello"`)
}

func TestSlicer_RubyMethods(t *testing.T) {
	snippets := sliceOne(t, "app.rb", "ruby", `def greet
  "hello"
end
`)
	greet := snippetByName(t, snippets, "app.greet")
	assert.Contains(t, greet.Content(), `"hello"`)
}

func TestSlicer_UnsupportedLanguageFallsThrough(t *testing.T) {
	snippets := sliceOne(t, "stats.r", "r", `mean(c(1, 2, 3))
`)
	require.Len(t, snippets, 1)
	assert.Equal(t, "stats.r", snippets[0].Name())
	assert.Contains(t, snippets[0].Content(), "mean")
}
