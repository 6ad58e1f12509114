package task

import "strings"

// Operation represents the type of task operation.
type Operation string

// Operation values for the task queue system.
const (
	OperationRefreshWorkingCopy   Operation = "repolens.index.refresh_working_copy"
	OperationExtractSnippets      Operation = "repolens.index.extract_snippets"
	OperationCreateBM25Index      Operation = "repolens.index.create_bm25_index"
	OperationCreateCodeEmbeddings Operation = "repolens.index.create_code_embeddings"
	OperationEnrichSnippets       Operation = "repolens.index.enrich_snippets"

	OperationCreateCommitDescription     Operation = "repolens.commit.create_commit_description"
	OperationCreateArchitectureDoc       Operation = "repolens.commit.create_architecture_doc"
	OperationCreateAPIDocs               Operation = "repolens.commit.create_api_docs"
	OperationCreateDatabaseSchemaDoc     Operation = "repolens.commit.create_database_schema_doc"
	OperationCreateCookbook              Operation = "repolens.commit.create_cookbook"

	OperationSyncRepository   Operation = "repolens.repository.sync"
	OperationDeleteRepository Operation = "repolens.repository.delete"
)

// String returns the string representation of the operation.
func (o Operation) String() string {
	return string(o)
}

// IsIndexOperation returns true for repository indexing phases.
func (o Operation) IsIndexOperation() bool {
	return strings.HasPrefix(string(o), "repolens.index.")
}

// IsCommitOperation returns true for commit-scoped operations.
func (o Operation) IsCommitOperation() bool {
	return strings.HasPrefix(string(o), "repolens.commit.")
}

// IndexWorkflow returns the ordered indexing phases for one repository
// cycle. Order matters: each phase consumes the previous phase's output.
func IndexWorkflow() []Operation {
	return []Operation{
		OperationRefreshWorkingCopy,
		OperationExtractSnippets,
		OperationCreateBM25Index,
		OperationCreateCodeEmbeddings,
		OperationEnrichSnippets,
	}
}

// CommitEnrichmentWorkflow returns the commit-scoped enrichment
// operations generated once per commit.
func CommitEnrichmentWorkflow() []Operation {
	return []Operation{
		OperationCreateCommitDescription,
		OperationCreateArchitectureDoc,
		OperationCreateAPIDocs,
		OperationCreateDatabaseSchemaDoc,
		OperationCreateCookbook,
	}
}

// AllOperations returns every operation that appears in any workflow.
// Used at startup to validate that all required handlers are registered.
func AllOperations() []Operation {
	seen := make(map[Operation]struct{})
	var all []Operation
	for _, ops := range [][]Operation{
		IndexWorkflow(),
		CommitEnrichmentWorkflow(),
		{OperationSyncRepository, OperationDeleteRepository},
	} {
		for _, op := range ops {
			if _, ok := seen[op]; !ok {
				seen[op] = struct{}{}
				all = append(all, op)
			}
		}
	}
	return all
}
