package enricher

import (
	"fmt"
	"strings"

	"github.com/repolens/repolens/domain/enrichment"
	"github.com/repolens/repolens/domain/repository"
	"github.com/repolens/repolens/domain/snippet"
)

// System prompts per enrichment kind. User prompts carry the actual code or
// repository context.
const (
	snippetSummarySystemPrompt = `You are a senior software engineer writing search metadata.
Summarize the given code snippet in two or three sentences: what it does,
what it operates on, and any notable behavior. Do not repeat the code.
Answer with the summary only.`

	commitDescriptionSystemPrompt = `You are a senior software engineer reviewing a commit.
Given a commit message and its diff, describe what the change does and why
it matters in a short paragraph. Answer with the description only.`

	architectureSystemPrompt = `You are a software architect documenting a codebase.
Given a repository's file tree and README, describe its architecture: the
major components, how they are layered, and how data flows between them.
Answer in markdown.`

	apiDocsSystemPrompt = `You are a technical writer producing API documentation.
Given extracted public declarations from a codebase, document the public
API surface: group related functions and types, and describe what each
group is for. Answer in markdown.`

	databaseSchemaSystemPrompt = `You are a database engineer documenting storage.
Given schema definitions found in a repository, describe the data model:
tables or collections, their key fields, and relationships between them.
Answer in markdown. If no schema is present, say so in one sentence.`

	cookbookSystemPrompt = `You are writing a practical usage guide for a codebase.
Given the repository's architecture notes and context, write a short
cookbook: common tasks a developer would perform with this code and how to
accomplish each. Answer in markdown.`
)

// User prompt templates for the commit-scoped enrichments. The placeholder
// names are part of the template contract: anyone overriding a template
// keeps {schema_report}, {architecture_narrative}, {repository_context},
// and {repository_tree} and they are substituted by name.
const (
	architectureUserTemplate = `{repository_context}

File tree:
{repository_tree}
`

	databaseSchemaUserTemplate = `{schema_report}`

	cookbookUserTemplate = `{architecture_narrative}

{repository_context}

### file tree
{repository_tree}
`
)

// fillTemplate substitutes {name} placeholders by name.
func fillTemplate(template string, values map[string]string) string {
	out := template
	for name, value := range values {
		out = strings.ReplaceAll(out, "{"+name+"}", value)
	}
	return strings.TrimSpace(out) + "\n"
}

// SnippetSummaryRequest builds a summary request for one snippet. The
// request ID is the snippet SHA so the response maps back to its target.
func SnippetSummaryRequest(s snippet.Snippet) Request {
	var prompt strings.Builder
	if s.Name() != "" {
		fmt.Fprintf(&prompt, "Name: %s\n", s.Name())
	}
	if s.Language() != "" {
		fmt.Fprintf(&prompt, "Language: %s\n", s.Language())
	}
	prompt.WriteString("\n```")
	prompt.WriteString(s.Language())
	prompt.WriteString("\n")
	prompt.WriteString(s.Content())
	prompt.WriteString("\n```\n")

	return Request{
		ID:           s.SHA(),
		SystemPrompt: snippetSummarySystemPrompt,
		UserPrompt:   prompt.String(),
	}
}

// SnippetSummaryRequests builds summary requests for a batch of snippets.
func SnippetSummaryRequests(snippets []snippet.Snippet) []Request {
	requests := make([]Request, 0, len(snippets))
	for _, s := range snippets {
		requests = append(requests, SnippetSummaryRequest(s))
	}
	return requests
}

// CommitDescriptionRequest builds a request describing a commit from its
// message and diff. The diff is truncated to keep the prompt within model
// context limits.
func CommitDescriptionRequest(commit repository.Commit, diff string) Request {
	const maxDiffLen = 20000
	if len(diff) > maxDiffLen {
		diff = diff[:maxDiffLen] + "\n...[truncated]"
	}

	prompt := fmt.Sprintf("Commit message:\n%s\n\nDiff:\n```diff\n%s\n```\n",
		commit.Message(), diff)

	return Request{
		ID:           commit.SHA(),
		SystemPrompt: commitDescriptionSystemPrompt,
		UserPrompt:   prompt,
	}
}

// ArchitectureRequest builds a request describing the repository's
// architecture from its tree and README.
func ArchitectureRequest(commitSHA string, repoCtx Context) Request {
	var repoContext string
	if repoCtx.Readme != "" {
		repoContext = "README:\n" + repoCtx.Readme
	}

	return Request{
		ID:           commitSHA,
		SystemPrompt: architectureSystemPrompt,
		UserPrompt: fillTemplate(architectureUserTemplate, map[string]string{
			"repository_context": repoContext,
			"repository_tree":    repoCtx.FileTree,
		}),
	}
}

// APIDocsRequest builds a request documenting the public API from extracted
// declarations.
func APIDocsRequest(commitSHA, apiReport string) Request {
	return Request{
		ID:           commitSHA,
		SystemPrompt: apiDocsSystemPrompt,
		UserPrompt:   apiReport,
	}
}

// DatabaseSchemaRequest builds a request documenting the data model from a
// schema report.
func DatabaseSchemaRequest(commitSHA, schemaReport string) Request {
	return Request{
		ID:           commitSHA,
		SystemPrompt: databaseSchemaSystemPrompt,
		UserPrompt: fillTemplate(databaseSchemaUserTemplate, map[string]string{
			"schema_report": schemaReport,
		}),
	}
}

// CookbookRequest builds a usage-guide request from previously generated
// enrichments and repository context. The architecture narrative is fed
// back in so the cookbook stays consistent with it.
func CookbookRequest(commitSHA string, repoCtx Context, priorEnrichments []enrichment.Enrichment) Request {
	var architecture string
	var contextParts []string
	for _, e := range priorEnrichments {
		if e.IsEmpty() {
			continue
		}
		content := e.Content()
		if len(content) > 2000 {
			content = content[:2000] + "\n...[truncated]"
		}
		if e.Kind() == enrichment.KindArchitecture {
			architecture = content
			continue
		}
		contextParts = append(contextParts, fmt.Sprintf("### %s\n%s", e.Kind(), content))
	}
	if repoCtx.Readme != "" {
		contextParts = append(contextParts, "### readme\n"+repoCtx.Readme)
	}

	return Request{
		ID:           commitSHA,
		SystemPrompt: cookbookSystemPrompt,
		UserPrompt: fillTemplate(cookbookUserTemplate, map[string]string{
			"architecture_narrative": architecture,
			"repository_context":     strings.Join(contextParts, "\n\n"),
			"repository_tree":        repoCtx.FileTree,
		}),
	}
}
