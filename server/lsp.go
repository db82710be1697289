// Package server implements the Kestrel language server. Every open
// document is parsed, resolved and type checked on a worker goroutine, and
// editor requests are answered from the latest analysis.
package server

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/chazu/kestrel/ast"
	"github.com/chazu/kestrel/session"
	"github.com/chazu/kestrel/typecheck"

	_ "github.com/tliron/commonlog/simple"
)

const lspName = "kestrel-lsp"

var errStopped = errors.New("server: worker stopped")

var log = commonlog.GetLogger("kestrel.server")

// LspServer bridges LSP editor features to the static passes via Worker.
type LspServer struct {
	worker *Worker

	mu   sync.Mutex
	docs map[string]string // URI → full document content

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// NewLSP creates a new language server.
func NewLSP(version string) *LspServer {
	s := &LspServer{
		worker:  NewWorker(),
		docs:    make(map[string]string),
		version: version,
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion: s.textDocumentCompletion,
		TextDocumentHover:      s.textDocumentHover,
		TextDocumentDefinition: s.textDocumentDefinition,
		TextDocumentReferences: s.textDocumentReferences,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)

	return s
}

// Run starts the LSP server on stdio. Blocks until the client disconnects.
func (s *LspServer) Run() error {
	return s.server.RunStdio()
}

// --- LSP lifecycle handlers ---

func (s *LspServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	commonlog.NewInfoMessage(0, "Kestrel LSP initializing")

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{"."},
	}

	capabilities.HoverProvider = true
	capabilities.DefinitionProvider = true
	capabilities.ReferencesProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *LspServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *LspServer) shutdown(ctx *glsp.Context) error {
	s.worker.Stop()
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// --- Document synchronization ---

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	text := params.TextDocument.Text

	s.mu.Lock()
	s.docs[string(uri)] = text
	s.mu.Unlock()

	s.publishDiagnostics(ctx, uri, text)
	return nil
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	// With Full sync, the last change event contains the full text
	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.mu.Lock()
			s.docs[string(uri)] = whole.Text
			s.mu.Unlock()

			s.publishDiagnostics(ctx, uri, whole.Text)
		}
	}
	return nil
}

func (s *LspServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	s.worker.Do(func(ws *workspace) any {
		ws.forget(uri)
		return nil
	})

	// Clear diagnostics for the closed document
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

// --- Language features ---

// document returns the text and latest analysis of uri.
func (s *LspServer) document(uri protocol.DocumentUri) (string, *session.Analysis, bool) {
	s.mu.Lock()
	text, ok := s.docs[string(uri)]
	s.mu.Unlock()
	if !ok {
		return "", nil, false
	}
	result, err := s.worker.Do(func(ws *workspace) any {
		if a := ws.analysis(uri); a != nil {
			return a
		}
		return ws.analyze(uri, text)
	})
	if err != nil {
		log.Errorf("analysis of %s failed: %s", uri, err)
		return "", nil, false
	}
	return text, result.(*session.Analysis), true
}

func (s *LspServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	text, a, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	result, err := s.worker.Do(func(*workspace) any {
		return complete(a, text, params.Position)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	text, a, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	result, err := s.worker.Do(func(*workspace) any {
		return hover(a, text, params.Position)
	})
	if err != nil || result == nil {
		return nil, nil
	}
	return result.(*protocol.Hover), nil
}

func (s *LspServer) textDocumentDefinition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	uri := params.TextDocument.URI
	text, a, ok := s.document(uri)
	if !ok {
		return nil, nil
	}
	word := extractWord(text, params.Position)
	if word == "" {
		return nil, nil
	}
	result, err := s.worker.Do(func(*workspace) any {
		return locations(uri, declarations(a.Statements, word))
	})
	if err != nil || result == nil {
		return nil, nil
	}
	return result, nil
}

func (s *LspServer) textDocumentReferences(ctx *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	uri := params.TextDocument.URI
	text, a, ok := s.document(uri)
	if !ok {
		return nil, nil
	}
	word := extractWord(text, params.Position)
	if word == "" {
		return nil, nil
	}
	result, err := s.worker.Do(func(*workspace) any {
		return locations(uri, references(a.Statements, word, params.Context.IncludeDeclaration))
	})
	if err != nil || result == nil {
		return nil, nil
	}
	return result.([]protocol.Location), nil
}

// --- Analysis-backed logic (called on worker goroutine) ---

func complete(a *session.Analysis, text string, pos protocol.Position) []protocol.CompletionItem {
	prefix, receiver := extractPrefix(text, pos), extractReceiver(text, pos)
	lowerPrefix := strings.ToLower(prefix)

	var items []protocol.CompletionItem
	add := func(label string, kind protocol.CompletionItemKind, detail string) {
		if !strings.HasPrefix(strings.ToLower(label), lowerPrefix) {
			return
		}
		items = append(items, protocol.CompletionItem{
			Label:      label,
			Kind:       &kind,
			Detail:     &detail,
			InsertText: &label,
		})
	}

	if receiver != "" {
		t := typeOfName(a, receiver)
		for _, name := range t.MemberNames() {
			add(name, protocol.CompletionItemKindMethod, t.String())
		}
		return items
	}
	if prefix == "" {
		return nil
	}

	seen := make(map[string]bool)
	for name, t := range a.Checker.Globals() {
		seen[name] = true
		add(name, completionKind(t), t.String())
	}
	for _, tok := range declarations(a.Statements, "") {
		if !seen[tok.Lexeme] {
			seen[tok.Lexeme] = true
			add(tok.Lexeme, protocol.CompletionItemKindVariable, "local")
		}
	}
	for kw := range ast.Keywords {
		add(kw, protocol.CompletionItemKindKeyword, "keyword")
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Label < items[j].Label })

	// Limit results
	const maxItems = 100
	if len(items) > maxItems {
		items = items[:maxItems]
	}
	return items
}

func completionKind(t *typecheck.Type) protocol.CompletionItemKind {
	switch {
	case t == nil:
		return protocol.CompletionItemKindVariable
	case t.Kind == typecheck.KindClass:
		return protocol.CompletionItemKindClass
	case t.Kind == typecheck.KindFunction:
		return protocol.CompletionItemKindFunction
	}
	return protocol.CompletionItemKindVariable
}

func hover(a *session.Analysis, text string, pos protocol.Position) *protocol.Hover {
	var label string
	var t *typecheck.Type
	if n := nodeAt(a, pos); n != nil {
		label, t = nodeLabel(n), a.Checker.TypeOf(n)
	} else {
		word := extractWord(text, pos)
		if word == "" {
			return nil
		}
		gt, ok := a.Checker.Lookup(word)
		if !ok {
			return nil
		}
		label, t = word, gt
	}

	var b strings.Builder
	fmt.Fprintf(&b, "```kestrel\n%s: %s\n```", label, describeType(t))
	if t != nil && t.Kind == typecheck.KindInstance && t.Class != nil && t.Class.Native == nil {
		if members := t.MemberNames(); len(members) > 0 {
			fmt.Fprintf(&b, "\n\nMembers: `%s`", strings.Join(members, "`, `"))
		}
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: b.String(),
		},
	}
}

// describeType renders t, listing superclasses for class types.
func describeType(t *typecheck.Type) string {
	if t == nil || t.Kind != typecheck.KindClass || len(t.Supers) == 0 {
		return t.String()
	}
	names := make([]string, len(t.Supers))
	for i, s := range t.Supers {
		names[i] = s.Name
	}
	return fmt.Sprintf("%s < %s", t, strings.Join(names, ", "))
}

// nodeLabel is the source text a hovered node stands for.
func nodeLabel(n ast.Node) string {
	switch n := n.(type) {
	case *ast.Binary:
		return ast.Sprint(n)
	case *ast.Function:
		return n.Lambda.FunctionName()
	case *ast.Lambda:
		return n.FunctionName()
	case *ast.Super:
		return ast.Sprint(n)
	}
	return n.Pos().Lexeme
}

// nodeAt returns the innermost typed node whose token covers pos.
func nodeAt(a *session.Analysis, pos protocol.Position) ast.Node {
	var found, typed ast.Node
	ast.InspectAll(a.Statements, func(n ast.Node) bool {
		switch n.(type) {
		case *ast.Call, *ast.Grouping, *ast.List, *ast.Block, *ast.Expression,
			*ast.If, *ast.While, *ast.Return:
			return true
		}
		if covers(n.Pos(), pos) {
			found = n
			if a.Checker.TypeOf(n) != nil {
				typed = n
			}
		}
		return true
	})
	if typed != nil {
		return typed
	}
	return found
}

// typeOfName returns the type of the last typed occurrence of a variable
// named name, falling back to globals.
func typeOfName(a *session.Analysis, name string) *typecheck.Type {
	var t *typecheck.Type
	ast.InspectAll(a.Statements, func(n ast.Node) bool {
		var tok ast.Token
		switch n := n.(type) {
		case *ast.Variable:
			tok = n.Name
		case *ast.Var:
			tok = n.Name
		case *ast.Assign:
			tok = n.Name
		default:
			return true
		}
		if tok.Lexeme == name {
			if nt := a.Checker.TypeOf(n); nt != nil {
				t = nt
			}
		}
		return true
	})
	if t == nil {
		t, _ = a.Checker.Lookup(name)
	}
	return t
}

// declarations returns the tokens declaring name: classes, functions,
// methods, variables, parameters and loop variables. An empty name matches
// every declaration.
func declarations(stmts []ast.Stmt, name string) []ast.Token {
	var toks []ast.Token
	add := func(tok ast.Token) {
		if name == "" || tok.Lexeme == name {
			toks = append(toks, tok)
		}
	}
	ast.InspectAll(stmts, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.ClassDecl:
			add(n.Name)
		case *ast.Lambda:
			if n.Name != nil {
				add(*n.Name)
			}
			for _, p := range n.Params {
				add(p.Name)
			}
		case *ast.Var:
			add(n.Name)
		case *ast.For:
			add(n.Name)
		}
		return true
	})
	return toks
}

// references returns every token naming name, optionally without the
// declarations.
func references(stmts []ast.Stmt, name string, includeDeclaration bool) []ast.Token {
	var toks []ast.Token
	add := func(tok ast.Token) {
		if tok.Lexeme == name {
			toks = append(toks, tok)
		}
	}
	ast.InspectAll(stmts, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.Variable:
			add(n.Name)
		case *ast.Assign:
			add(n.Name)
		case *ast.Get:
			add(n.Name)
		case *ast.Set:
			add(n.Name)
		case *ast.Super:
			if n.Method != nil {
				add(*n.Method)
			}
		case *ast.Call:
			for _, na := range n.Named {
				add(na.Name)
			}
		}
		return true
	})
	if includeDeclaration {
		toks = append(toks, declarations(stmts, name)...)
	}
	sort.Slice(toks, func(i, j int) bool {
		if toks[i].Line != toks[j].Line {
			return toks[i].Line < toks[j].Line
		}
		return toks[i].Column < toks[j].Column
	})
	return toks
}

func locations(uri protocol.DocumentUri, toks []ast.Token) []protocol.Location {
	if len(toks) == 0 {
		return nil
	}
	locs := make([]protocol.Location, len(toks))
	for i, tok := range toks {
		locs[i] = protocol.Location{URI: uri, Range: tokenRange(tok.Line, tok.Column, tok.Lexeme)}
	}
	return locs
}

// --- Diagnostics ---

func (s *LspServer) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	result, err := s.worker.Do(func(ws *workspace) any {
		return diagnostics(ws.analyze(uri, text))
	})
	if err != nil {
		log.Errorf("analysis of %s failed: %s", uri, err)
		return
	}

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: result.([]protocol.Diagnostic),
	})
}

// diagnostics converts analysis diagnostics to LSP form.
func diagnostics(a *session.Analysis) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(a.Diagnostics))
	for _, d := range a.Diagnostics {
		severity := protocol.DiagnosticSeverityError
		source := lspName
		code := protocol.IntegerOrString{Value: d.Kind.String()}
		lexeme := d.Lexeme
		if d.AtEnd {
			lexeme = ""
		}
		out = append(out, protocol.Diagnostic{
			Range:    tokenRange(d.Line, d.Column, lexeme),
			Severity: &severity,
			Code:     &code,
			Source:   &source,
			Message:  d.Message,
		})
	}
	return out
}

// --- Position helpers ---

// tokenRange converts a 1-based token position to an LSP range spanning
// the lexeme.
func tokenRange(line, column int, lexeme string) protocol.Range {
	start := protocol.Position{
		Line:      protocol.UInteger(max(line-1, 0)),
		Character: protocol.UInteger(max(column-1, 0)),
	}
	end := start
	end.Character += protocol.UInteger(utf8.RuneCountInString(lexeme))
	return protocol.Range{Start: start, End: end}
}

// covers reports whether the cursor at pos touches tok.
func covers(tok ast.Token, pos protocol.Position) bool {
	if tok.Line != int(pos.Line)+1 || tok.Lexeme == "" {
		return false
	}
	col := int(pos.Character) + 1
	return col >= tok.Column && col <= tok.Column+utf8.RuneCountInString(tok.Lexeme)
}

// --- Text extraction helpers ---

func isIdentRune(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}

// cursorLine returns the runes of the cursor's line and the clamped column.
func cursorLine(text string, pos protocol.Position) ([]rune, int, bool) {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return nil, 0, false
	}
	line := []rune(lines[pos.Line])
	return line, min(int(pos.Character), len(line)), true
}

// extractPrefix returns the identifier fragment before the cursor.
func extractPrefix(text string, pos protocol.Position) string {
	line, col, ok := cursorLine(text, pos)
	if !ok {
		return ""
	}
	start := col
	for start > 0 && isIdentRune(line[start-1]) {
		start--
	}
	return string(line[start:col])
}

// extractReceiver returns the identifier before a dot that precedes the
// prefix under the cursor, as in "name.pre|".
func extractReceiver(text string, pos protocol.Position) string {
	line, col, ok := cursorLine(text, pos)
	if !ok {
		return ""
	}
	start := col
	for start > 0 && isIdentRune(line[start-1]) {
		start--
	}
	if start == 0 || line[start-1] != '.' {
		return ""
	}
	end := start - 1
	begin := end
	for begin > 0 && isIdentRune(line[begin-1]) {
		begin--
	}
	return string(line[begin:end])
}

// extractWord returns the full identifier under the cursor.
func extractWord(text string, pos protocol.Position) string {
	line, col, ok := cursorLine(text, pos)
	if !ok {
		return ""
	}
	start := col
	for start > 0 && isIdentRune(line[start-1]) {
		start--
	}
	end := col
	for end < len(line) && isIdentRune(line[end]) {
		end++
	}
	return string(line[start:end])
}

func boolPtr(b bool) *bool {
	return &b
}
