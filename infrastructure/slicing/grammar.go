// Package slicing extracts code snippets from source files with
// tree-sitter. Each supported language carries a grammar plus the node
// types that mark function, method, and type definitions.
package slicing

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/css"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/html"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/kotlin"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/scala"
	"github.com/smacker/go-tree-sitter/swift"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Grammar describes how to slice one language: the tree-sitter grammar and
// the node types that carry definitions and calls.
type Grammar struct {
	language      *sitter.Language
	functionNodes []string
	methodNodes   []string
	typeNodes     []string
	callNode      string
	commentNodes  []string
	selectorNodes []string
}

// Language returns the tree-sitter grammar.
func (g Grammar) Language() *sitter.Language { return g.language }

// FunctionNodes returns node types for free functions.
func (g Grammar) FunctionNodes() []string { return g.functionNodes }

// MethodNodes returns node types for methods.
func (g Grammar) MethodNodes() []string { return g.methodNodes }

// TypeNodes returns node types for type definitions.
func (g Grammar) TypeNodes() []string { return g.typeNodes }

// CallNode returns the node type for call expressions.
func (g Grammar) CallNode() string { return g.callNode }

// CommentNodes returns node types for comments, used for docstring capture.
func (g Grammar) CommentNodes() []string { return g.commentNodes }

// SelectorNodes returns node types sliced by selector instead of by
// definition name. Set for markup and stylesheet grammars only.
func (g Grammar) SelectorNodes() []string { return g.selectorNodes }

// DefinitionNodes returns function and method node types combined.
func (g Grammar) DefinitionNodes() []string {
	nodes := make([]string, 0, len(g.functionNodes)+len(g.methodNodes))
	nodes = append(nodes, g.functionNodes...)
	nodes = append(nodes, g.methodNodes...)
	return nodes
}

// grammars maps scanner language names (lowercase, per enry) to grammar
// configurations. Languages absent from this table are sliced as
// passthrough.
var grammars = map[string]Grammar{
	"go": {
		language:      golang.GetLanguage(),
		functionNodes: []string{"function_declaration"},
		methodNodes:   []string{"method_declaration"},
		typeNodes:     []string{"type_declaration"},
		callNode:      "call_expression",
		commentNodes:  []string{"comment"},
	},
	"python": {
		language:      python.GetLanguage(),
		functionNodes: []string{"function_definition"},
		typeNodes:     []string{"class_definition"},
		callNode:      "call",
		commentNodes:  []string{"comment"},
	},
	"javascript": {
		language:      javascript.GetLanguage(),
		functionNodes: []string{"function_declaration", "generator_function_declaration"},
		methodNodes:   []string{"method_definition"},
		typeNodes:     []string{"class_declaration"},
		callNode:      "call_expression",
		commentNodes:  []string{"comment"},
	},
	"typescript": {
		language:      typescript.GetLanguage(),
		functionNodes: []string{"function_declaration", "generator_function_declaration"},
		methodNodes:   []string{"method_definition"},
		typeNodes:     []string{"class_declaration", "interface_declaration", "type_alias_declaration", "enum_declaration"},
		callNode:      "call_expression",
		commentNodes:  []string{"comment"},
	},
	"tsx": {
		language:      tsx.GetLanguage(),
		functionNodes: []string{"function_declaration", "generator_function_declaration"},
		methodNodes:   []string{"method_definition"},
		typeNodes:     []string{"class_declaration", "interface_declaration", "type_alias_declaration", "enum_declaration"},
		callNode:      "call_expression",
		commentNodes:  []string{"comment"},
	},
	"java": {
		language:      java.GetLanguage(),
		functionNodes: []string{"method_declaration", "constructor_declaration"},
		typeNodes:     []string{"class_declaration", "interface_declaration", "enum_declaration", "record_declaration"},
		callNode:      "method_invocation",
		commentNodes:  []string{"line_comment", "block_comment"},
	},
	"c": {
		language:      c.GetLanguage(),
		functionNodes: []string{"function_definition"},
		typeNodes:     []string{"struct_specifier", "enum_specifier", "type_definition"},
		callNode:      "call_expression",
		commentNodes:  []string{"comment"},
	},
	"c++": {
		language:      cpp.GetLanguage(),
		functionNodes: []string{"function_definition"},
		typeNodes:     []string{"class_specifier", "struct_specifier", "enum_specifier", "type_definition"},
		callNode:      "call_expression",
		commentNodes:  []string{"comment"},
	},
	"rust": {
		language:      rust.GetLanguage(),
		functionNodes: []string{"function_item"},
		typeNodes:     []string{"struct_item", "enum_item", "trait_item", "type_item"},
		callNode:      "call_expression",
		commentNodes:  []string{"line_comment", "block_comment"},
	},
	"c#": {
		language:      csharp.GetLanguage(),
		functionNodes: []string{"method_declaration", "constructor_declaration"},
		typeNodes:     []string{"class_declaration", "interface_declaration", "struct_declaration", "enum_declaration", "record_declaration"},
		callNode:      "invocation_expression",
		commentNodes:  []string{"comment"},
	},
	"ruby": {
		language:      ruby.GetLanguage(),
		functionNodes: []string{"method"},
		methodNodes:   []string{"singleton_method"},
		typeNodes:     []string{"class", "module"},
		callNode:      "call",
		commentNodes:  []string{"comment"},
	},
	"php": {
		language:      php.GetLanguage(),
		functionNodes: []string{"function_definition"},
		methodNodes:   []string{"method_declaration"},
		typeNodes:     []string{"class_declaration", "interface_declaration", "trait_declaration", "enum_declaration"},
		callNode:      "function_call_expression",
		commentNodes:  []string{"comment"},
	},
	"scala": {
		language:      scala.GetLanguage(),
		functionNodes: []string{"function_definition"},
		typeNodes:     []string{"class_definition", "object_definition", "trait_definition"},
		callNode:      "call_expression",
		commentNodes:  []string{"comment", "block_comment"},
	},
	"kotlin": {
		language:      kotlin.GetLanguage(),
		functionNodes: []string{"function_declaration"},
		typeNodes:     []string{"class_declaration", "object_declaration"},
		callNode:      "call_expression",
		commentNodes:  []string{"line_comment", "multiline_comment"},
	},
	"swift": {
		language:      swift.GetLanguage(),
		functionNodes: []string{"function_declaration", "init_declaration"},
		typeNodes:     []string{"class_declaration", "protocol_declaration"},
		callNode:      "call_expression",
		commentNodes:  []string{"comment", "multiline_comment"},
	},
	"shell": {
		language:      bash.GetLanguage(),
		functionNodes: []string{"function_definition"},
		callNode:      "command",
		commentNodes:  []string{"comment"},
	},
	// Markup and stylesheets slice by selector: every HTML element with an
	// id or class attribute and every CSS rule becomes one snippet.
	"html": {
		language:      html.GetLanguage(),
		selectorNodes: []string{"element"},
	},
	"css": {
		language:      css.GetLanguage(),
		selectorNodes: []string{"rule_set"},
		commentNodes:  []string{"comment"},
	},
}

// GrammarFor returns the grammar for a scanner language name. The second
// return is false for languages sliced as passthrough.
func GrammarFor(language string) (Grammar, bool) {
	g, ok := grammars[normalizeLanguage(language)]
	return g, ok
}

// SupportedLanguages returns the languages with a wired grammar.
func SupportedLanguages() []string {
	names := make([]string, 0, len(grammars))
	for name := range grammars {
		names = append(names, name)
	}
	return names
}

func normalizeLanguage(language string) string {
	switch language {
	case "cpp":
		return "c++"
	case "csharp":
		return "c#"
	case "bash", "sh":
		return "shell"
	default:
		return language
	}
}
