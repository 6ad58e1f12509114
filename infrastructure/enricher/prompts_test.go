package enricher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/repolens/repolens/domain/enrichment"
)

func TestUserTemplatesCarryNamedPlaceholders(t *testing.T) {
	assert.Contains(t, databaseSchemaUserTemplate, "{schema_report}")
	assert.Contains(t, architectureUserTemplate, "{repository_context}")
	assert.Contains(t, architectureUserTemplate, "{repository_tree}")
	assert.Contains(t, cookbookUserTemplate, "{architecture_narrative}")
	assert.Contains(t, cookbookUserTemplate, "{repository_context}")
	assert.Contains(t, cookbookUserTemplate, "{repository_tree}")
}

func TestFillTemplate(t *testing.T) {
	out := fillTemplate("a {x} b {y}", map[string]string{"x": "1", "y": "2"})
	assert.Equal(t, "a 1 b 2\n", out)

	// Unknown placeholders survive untouched so a bad override is visible.
	out = fillTemplate("{x} {unknown}", map[string]string{"x": "1"})
	assert.Equal(t, "1 {unknown}\n", out)
}

func TestDatabaseSchemaRequest_SubstitutesReport(t *testing.T) {
	req := DatabaseSchemaRequest("commit-1", "### schema.sql\nCREATE TABLE users (id int);")

	assert.Equal(t, "commit-1", req.ID)
	assert.Contains(t, req.UserPrompt, "CREATE TABLE users")
	assert.NotContains(t, req.UserPrompt, "{schema_report}")
}

func TestArchitectureRequest_SubstitutesContext(t *testing.T) {
	req := ArchitectureRequest("commit-1", Context{
		Readme:   "A widget service.",
		FileTree: "cmd/widget/main.go\ninternal/server/server.go",
	})

	assert.Contains(t, req.UserPrompt, "A widget service.")
	assert.Contains(t, req.UserPrompt, "internal/server/server.go")
	assert.NotContains(t, req.UserPrompt, "{repository_context}")
	assert.NotContains(t, req.UserPrompt, "{repository_tree}")
}

func TestCookbookRequest_FeedsArchitectureBack(t *testing.T) {
	prior := []enrichment.Enrichment{
		enrichment.NewEnrichment(enrichment.KindArchitecture, enrichment.TargetCommit,
			"commit-1", "Layered around a task queue."),
		enrichment.NewEnrichment(enrichment.KindAPIDocs, enrichment.TargetCommit,
			"commit-1", "Public HTTP API under /api/v1."),
	}
	req := CookbookRequest("commit-1", Context{
		Readme:   "A widget service.",
		FileTree: "cmd/widget/main.go",
	}, prior)

	assert.Contains(t, req.UserPrompt, "Layered around a task queue.")
	assert.Contains(t, req.UserPrompt, "Public HTTP API under /api/v1.")
	assert.Contains(t, req.UserPrompt, "A widget service.")
	assert.Contains(t, req.UserPrompt, "cmd/widget/main.go")
	assert.False(t, strings.Contains(req.UserPrompt, "{architecture_narrative}"))
	assert.False(t, strings.Contains(req.UserPrompt, "{repository_context}"))
	assert.False(t, strings.Contains(req.UserPrompt, "{repository_tree}"))
}
