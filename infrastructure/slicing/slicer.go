package slicing

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/repolens/repolens/domain/repository"
	"github.com/repolens/repolens/domain/snippet"
)

const (
	defaultDependencyDepth = 2
	defaultDependencyCount = 8
	maxCallerSites         = 2
)

// Slicer turns source files into snippets. Files in a supported language
// are parsed and sliced per definition, with transitive in-file callees
// appended for context; everything else becomes a single passthrough
// snippet. Files that fail to parse are skipped.
type Slicer struct {
	dependencyDepth int
	dependencyCount int
	logger          *slog.Logger
}

// NewSlicer creates a slicer with default dependency limits.
func NewSlicer(logger *slog.Logger) *Slicer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Slicer{
		dependencyDepth: defaultDependencyDepth,
		dependencyCount: defaultDependencyCount,
		logger:          logger,
	}
}

// definition is one sliceable declaration found in a file.
type definition struct {
	qualifiedName string
	simpleName    string
	node          *sitter.Node
	docstring     string
}

// Slice extracts snippets from the given files under a working copy root.
func (s *Slicer) Slice(ctx context.Context, workingCopyPath string, files []repository.File) ([]snippet.Snippet, error) {
	var snippets []snippet.Snippet

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return snippets, err
		}

		source, err := os.ReadFile(filepath.Join(workingCopyPath, file.Path()))
		if err != nil {
			s.logger.Debug("skipping unreadable file",
				slog.String("path", file.Path()),
				slog.String("error", err.Error()),
			)
			continue
		}

		grammar, ok := GrammarFor(file.Language())
		if !ok {
			snippets = append(snippets, passthroughSnippet(file, source))
			continue
		}

		fileSnippets, err := s.sliceFile(ctx, file, source, grammar)
		if err != nil {
			s.logger.Debug("skipping unparseable file",
				slog.String("path", file.Path()),
				slog.String("error", err.Error()),
			)
			continue
		}
		snippets = append(snippets, fileSnippets...)
	}

	return snippets, nil
}

func (s *Slicer) sliceFile(ctx context.Context, file repository.File, source []byte, grammar Grammar) ([]snippet.Snippet, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(grammar.Language())

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, err
	}
	root := tree.RootNode()

	if len(grammar.SelectorNodes()) > 0 {
		return s.sliceSelectors(file, root, source, grammar), nil
	}

	module := modulePath(file.Path())
	defs := s.collectDefinitions(root, source, grammar, module)
	if len(defs) == 0 {
		// Source with no recognizable declarations still carries
		// searchable content.
		return []snippet.Snippet{passthroughSnippet(file, source)}, nil
	}

	graph, callSites := s.buildCallGraph(defs, source, grammar)

	snippets := make([]snippet.Snippet, 0, len(defs))
	for _, def := range defs {
		content := s.snippetContent(def, defs, graph, callSites, source)
		snippets = append(snippets, snippet.NewSnippet(
			snippet.Truncate(content),
			file.Language(),
			def.qualifiedName,
			[]repository.File{file},
		))
	}
	return snippets, nil
}

// sliceSelectors extracts snippets from markup and stylesheet files. Each
// matched node becomes one snippet named by its selector: the selector
// list of a CSS rule, or tag#id / tag.class for an HTML element. Elements
// without an id or class carry no stable selector and are skipped.
func (s *Slicer) sliceSelectors(file repository.File, root *sitter.Node, source []byte, grammar Grammar) []snippet.Snippet {
	var snippets []snippet.Snippet
	for _, node := range collectNodes(root, grammar.SelectorNodes()) {
		name := selectorName(node, source)
		if name == "" {
			continue
		}
		snippets = append(snippets, snippet.NewSnippet(
			snippet.Truncate(nodeText(node, source)),
			file.Language(),
			name,
			[]repository.File{file},
		))
	}
	if len(snippets) == 0 {
		return []snippet.Snippet{passthroughSnippet(file, source)}
	}
	return snippets
}

func (s *Slicer) collectDefinitions(root *sitter.Node, source []byte, grammar Grammar, module string) map[string]definition {
	defs := make(map[string]definition)

	record := func(node *sitter.Node) {
		name := definitionName(node, source)
		if name == "" {
			return
		}
		qualified := qualify(module, receiverName(node, source), name)
		defs[qualified] = definition{
			qualifiedName: qualified,
			simpleName:    name,
			node:          node,
			docstring:     precedingComment(node, source, grammar),
		}
	}

	for _, node := range collectNodes(root, grammar.DefinitionNodes()) {
		record(node)
	}
	for _, node := range collectNodes(root, grammar.TypeNodes()) {
		record(node)
	}
	return defs
}

// buildCallGraph links in-file definitions through their call expressions.
// Alongside the graph it collects the literal source line of each call
// site, capped at maxCallerSites per callee, so definitions can show how
// they are used.
func (s *Slicer) buildCallGraph(defs map[string]definition, source []byte, grammar Grammar) (*CallGraph, map[string][]string) {
	graph := NewCallGraph()
	callSites := make(map[string][]string)
	if grammar.CallNode() == "" {
		return graph, callSites
	}

	for _, def := range defs {
		for _, call := range collectNodes(def.node, []string{grammar.CallNode()}) {
			callee := calleeName(call, source)
			if callee == "" {
				continue
			}
			resolved, ok := resolveCallee(callee, defs)
			if !ok || resolved == def.qualifiedName {
				continue
			}
			graph.AddCall(def.qualifiedName, resolved)
			if len(callSites[resolved]) < maxCallerSites {
				if line := sourceLine(source, call.StartByte()); line != "" {
					callSites[resolved] = append(callSites[resolved], line)
				}
			}
		}
	}
	return graph, callSites
}

// snippetContent renders a definition with its docstring, up to
// dependencyCount in-file callees, and the call-site lines of its in-file
// callers appended for context.
func (s *Slicer) snippetContent(def definition, defs map[string]definition, graph *CallGraph, callSites map[string][]string, source []byte) string {
	var parts []string
	if def.docstring != "" {
		parts = append(parts, def.docstring)
	}
	parts = append(parts, nodeText(def.node, source))

	for _, depName := range graph.Dependencies(def.qualifiedName, s.dependencyDepth, s.dependencyCount) {
		dep, ok := defs[depName]
		if !ok {
			continue
		}
		parts = append(parts, nodeText(dep.node, source))
	}

	if sites := callSites[def.qualifiedName]; len(sites) > 0 {
		parts = append(parts, strings.Join(sites, "\n"))
	}

	return strings.Join(parts, "\n\n")
}

func passthroughSnippet(file repository.File, source []byte) snippet.Snippet {
	return snippet.NewSnippet(
		snippet.Truncate(string(source)),
		file.Language(),
		filepath.Base(file.Path()),
		[]repository.File{file},
	)
}

// definitionName reads the name field of a declaration node. Go type
// declarations nest the name one level down in a type_spec; grammars
// without field names (kotlin) expose the name as a bare identifier child.
func definitionName(node *sitter.Node, source []byte) string {
	if name := node.ChildByFieldName("name"); name != nil {
		return nodeText(name, source)
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if name := child.ChildByFieldName("name"); name != nil {
			return nodeText(name, source)
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "identifier", "simple_identifier", "type_identifier", "constant", "word":
			return nodeText(child, source)
		}
	}
	return ""
}

// sourceLine returns the trimmed source line containing the byte offset.
func sourceLine(source []byte, offset uint32) string {
	if offset >= uint32(len(source)) {
		return ""
	}
	start := strings.LastIndexByte(string(source[:offset]), '\n') + 1
	end := int(offset)
	for end < len(source) && source[end] != '\n' {
		end++
	}
	return strings.TrimSpace(string(source[start:end]))
}

// selectorName names a selector-sliced node: the selector list of a CSS
// rule, or tag#id / tag.class for an HTML element.
func selectorName(node *sitter.Node, source []byte) string {
	switch node.Type() {
	case "rule_set":
		for i := 0; i < int(node.ChildCount()); i++ {
			if child := node.Child(i); child != nil && child.Type() == "selectors" {
				return strings.TrimSpace(nodeText(child, source))
			}
		}
		return ""
	case "element":
		return elementSelector(node, source)
	}
	return ""
}

// elementSelector renders an HTML element's selector from its start tag.
// Elements carrying an id win over class; the first class wins over the
// rest.
func elementSelector(node *sitter.Node, source []byte) string {
	var start *sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(i); child != nil && (child.Type() == "start_tag" || child.Type() == "self_closing_tag") {
			start = child
			break
		}
	}
	if start == nil {
		return ""
	}

	var tag, id, class string
	for i := 0; i < int(start.ChildCount()); i++ {
		child := start.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "tag_name":
			tag = nodeText(child, source)
		case "attribute":
			name, value := attributeParts(child, source)
			switch name {
			case "id":
				id = value
			case "class":
				class = value
			}
		}
	}

	switch {
	case tag == "":
		return ""
	case id != "":
		return tag + "#" + id
	case class != "":
		if fields := strings.Fields(class); len(fields) > 0 {
			return tag + "." + fields[0]
		}
	}
	return ""
}

func attributeParts(attr *sitter.Node, source []byte) (name, value string) {
	for i := 0; i < int(attr.ChildCount()); i++ {
		child := attr.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "attribute_name":
			name = nodeText(child, source)
		case "quoted_attribute_value", "attribute_value":
			value = strings.Trim(nodeText(child, source), `"'`)
		}
	}
	return name, value
}

// receiverName extracts the receiver or enclosing class name so methods
// qualify as Type.Method.
func receiverName(node *sitter.Node, source []byte) string {
	if recv := node.ChildByFieldName("receiver"); recv != nil {
		var typeName string
		walk(recv, func(n *sitter.Node) bool {
			if n.Type() == "type_identifier" {
				typeName = nodeText(n, source)
				return false
			}
			return true
		})
		return typeName
	}

	for parent := node.Parent(); parent != nil; parent = parent.Parent() {
		switch parent.Type() {
		case "class_declaration", "class_definition", "class_specifier", "impl_item", "class_body":
			if name := parent.ChildByFieldName("name"); name != nil {
				return nodeText(name, source)
			}
			if t := parent.ChildByFieldName("type"); t != nil {
				return nodeText(t, source)
			}
		}
	}
	return ""
}

func calleeName(call *sitter.Node, source []byte) string {
	target := call.ChildByFieldName("function")
	if target == nil {
		target = call.ChildByFieldName("name")
	}
	if target == nil {
		return ""
	}

	name := nodeText(target, source)
	// x.y.f() resolves on the final segment.
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[idx+1:]
	}
	return name
}

func resolveCallee(name string, defs map[string]definition) (string, bool) {
	for qualified, def := range defs {
		if def.simpleName == name {
			return qualified, true
		}
	}
	return "", false
}

// precedingComment gathers the run of comment siblings immediately before a
// definition.
func precedingComment(node *sitter.Node, source []byte, grammar Grammar) string {
	commentTypes := make(map[string]struct{}, len(grammar.CommentNodes()))
	for _, t := range grammar.CommentNodes() {
		commentTypes[t] = struct{}{}
	}

	var lines []string
	for prev := node.PrevSibling(); prev != nil; prev = prev.PrevSibling() {
		if _, ok := commentTypes[prev.Type()]; !ok {
			break
		}
		lines = append([]string{nodeText(prev, source)}, lines...)
	}
	return strings.Join(lines, "\n")
}

func modulePath(filePath string) string {
	trimmed := strings.TrimSuffix(filePath, filepath.Ext(filePath))
	return strings.ReplaceAll(trimmed, "/", ".")
}

func qualify(module, receiver, name string) string {
	parts := make([]string, 0, 3)
	if module != "" {
		parts = append(parts, module)
	}
	if receiver != "" {
		parts = append(parts, receiver)
	}
	parts = append(parts, name)
	return strings.Join(parts, ".")
}

func walk(root *sitter.Node, fn func(*sitter.Node) bool) bool {
	if root == nil {
		return true
	}
	if !fn(root) {
		return false
	}
	for i := 0; i < int(root.ChildCount()); i++ {
		if !walk(root.Child(i), fn) {
			return false
		}
	}
	return true
}

func collectNodes(root *sitter.Node, types []string) []*sitter.Node {
	typeSet := make(map[string]struct{}, len(types))
	for _, t := range types {
		typeSet[t] = struct{}{}
	}

	var nodes []*sitter.Node
	walk(root, func(n *sitter.Node) bool {
		if _, ok := typeSet[n.Type()]; ok {
			nodes = append(nodes, n)
		}
		return true
	})
	return nodes
}

func nodeText(node *sitter.Node, source []byte) string {
	start, end := node.StartByte(), node.EndByte()
	if start >= uint32(len(source)) || end > uint32(len(source)) || start >= end {
		return ""
	}
	return string(source[start:end])
}
