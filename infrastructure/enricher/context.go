package enricher

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/repolens/repolens/domain/repository"
)

// Context is repository-level material fed into commit-scoped enrichment
// prompts.
type Context struct {
	Readme   string
	FileTree string
}

const (
	maxReadmeLen   = 3000
	maxTreePaths   = 200
	maxReportLen   = 10000
	maxSnippetLen  = 2000
	maxSchemaFiles = 5
)

// GatherContext collects the README and a capped file-tree listing from a
// working copy.
func GatherContext(workingCopyPath string, files []repository.File) Context {
	return Context{
		Readme:   extractReadme(workingCopyPath),
		FileTree: buildFileTree(files),
	}
}

func extractReadme(workingCopyPath string) string {
	for _, name := range []string{"README.md", "README.rst", "README.txt", "README"} {
		data, err := os.ReadFile(filepath.Join(workingCopyPath, name))
		if err != nil {
			continue
		}
		return truncate(string(data), maxReadmeLen)
	}
	return ""
}

func buildFileTree(files []repository.File) string {
	if len(files) == 0 {
		return ""
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path())
	}
	if len(paths) > maxTreePaths {
		paths = append(paths[:maxTreePaths], "... and more files")
	}
	return strings.Join(paths, "\n")
}

// SchemaReport scans a working copy for database schema definitions and
// returns them as a markdown report. Migration directories and schema-like
// files are the usual suspects across ecosystems.
func SchemaReport(workingCopyPath string) string {
	var sections []string

	patterns := []string{
		"migrations",
		"db/migrations",
		"database/migrations",
		"sql",
		"schema",
		"db/schema.rb",
		"prisma/schema.prisma",
		"alembic/versions",
	}
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(workingCopyPath, pattern))
		if err != nil {
			continue
		}
		for _, match := range matches {
			if section := schemaSection(match); section != "" {
				sections = append(sections, section)
			}
		}
	}

	_ = filepath.WalkDir(workingCopyPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			name := d.Name()
			if name == ".git" || name == "node_modules" || name == "vendor" {
				return filepath.SkipDir
			}
			return nil
		}
		ext := filepath.Ext(path)
		if ext == ".sql" || ext == ".prisma" {
			if section := schemaSection(path); section != "" {
				sections = append(sections, section)
			}
		}
		return nil
	})

	if len(sections) == 0 {
		return ""
	}
	return truncate(strings.Join(sections, "\n\n---\n\n"), maxReportLen)
}

func schemaSection(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}
	if info.IsDir() {
		return schemaDirSection(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return "### " + filepath.Base(path) + "\n```\n" + truncate(string(data), maxSnippetLen) + "\n```"
}

func schemaDirSection(dirPath string) string {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return ""
	}

	var sections []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".sql" && ext != ".prisma" && ext != ".rb" && ext != ".py" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dirPath, entry.Name()))
		if err != nil {
			continue
		}
		sections = append(sections, "### "+entry.Name()+"\n```\n"+truncate(string(data), 500)+"\n```")
		if len(sections) >= maxSchemaFiles {
			break
		}
	}
	return strings.Join(sections, "\n\n")
}

// PublicAPIReport extracts a rough public-API listing from source files for
// the api_docs prompt. Heuristic by language; files with fewer than three
// public declarations are skipped as noise.
func PublicAPIReport(workingCopyPath string, files []repository.File) string {
	var sections []string

	for _, file := range files {
		base := filepath.Base(file.Path())
		if strings.Contains(base, "_test") || strings.Contains(base, ".test.") || strings.Contains(base, ".spec.") {
			continue
		}

		indicators := apiIndicators(file.Language())
		if len(indicators) == 0 {
			continue
		}

		data, err := os.ReadFile(filepath.Join(workingCopyPath, file.Path()))
		if err != nil {
			continue
		}

		var apiLines []string
		for _, line := range strings.Split(string(data), "\n") {
			trimmed := strings.TrimSpace(line)
			for _, indicator := range indicators {
				if strings.HasPrefix(trimmed, indicator) {
					apiLines = append(apiLines, trimmed)
					break
				}
			}
		}
		if len(apiLines) < 3 {
			continue
		}
		if len(apiLines) > 100 {
			apiLines = apiLines[:100]
		}

		sections = append(sections,
			"### "+file.Path()+" ("+file.Language()+")\n```"+file.Language()+"\n"+
				strings.Join(apiLines, "\n")+"\n```")
	}

	if len(sections) == 0 {
		return ""
	}
	return truncate(strings.Join(sections, "\n\n"), maxReportLen)
}

func apiIndicators(language string) []string {
	switch language {
	case "python":
		return []string{"def ", "class ", "async def "}
	case "go":
		return []string{"func ", "type ", "var ", "const "}
	case "javascript", "typescript", "tsx":
		return []string{"export ", "function ", "class ", "async function "}
	case "java", "kotlin", "scala", "c#":
		return []string{"public ", "class ", "interface "}
	case "rust":
		return []string{"pub fn ", "pub struct ", "pub enum ", "pub trait "}
	default:
		return nil
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "\n...[truncated]"
}
