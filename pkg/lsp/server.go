package lsp

import (
	"context"
	"encoding/json"
	"strings"
	"unicode"
	"unicode/utf8"

	lsp "github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"
	"github.com/lore-lang/lore/pkg/core"
	"github.com/lore-lang/lore/pkg/scan"
)

var (
	errMethodNotFound = &jsonrpc2.Error{
		Code: jsonrpc2.CodeMethodNotFound, Message: "method not found"}
	errInvalidParams = &jsonrpc2.Error{
		Code: jsonrpc2.CodeInvalidParams, Message: "invalid params"}
)

type server struct {
	content map[lsp.DocumentURI]string
}

func newServer() *server {
	return &server{make(map[lsp.DocumentURI]string)}
}

func handler(s *server) jsonrpc2.Handler {
	return routingHandler(map[string]method{
		"initialize":              s.initialize,
		"textDocument/didOpen":    s.didOpen,
		"textDocument/didChange":  s.didChange,
		"textDocument/hover":      s.hover,
		"textDocument/completion": s.completion,

		"textDocument/didClose": noop,
		// Required by spec.
		"initialized": noop,
		// Called by clients even when server doesn't advertise support:
		// https://microsoft.github.io/language-server-protocol/specification#workspace_didChangeWatchedFiles
		"workspace/didChangeWatchedFiles": noop,
	})
}

type method func(context.Context, jsonrpc2.JSONRPC2, json.RawMessage) (any, error)

func noop(_ context.Context, _ jsonrpc2.JSONRPC2, _ json.RawMessage) (any, error) {
	return nil, nil
}

func routingHandler(methods map[string]method) jsonrpc2.Handler {
	return jsonrpc2.HandlerWithError(func(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
		fn, ok := methods[req.Method]
		if !ok {
			return nil, errMethodNotFound
		}
		return fn(ctx, conn, *req.Params)
	})
}

// Handler implementations. These are all called synchronously.

func (s *server) initialize(_ context.Context, _ jsonrpc2.JSONRPC2, _ json.RawMessage) (any, error) {
	return &lsp.InitializeResult{
		Capabilities: lsp.ServerCapabilities{
			TextDocumentSync: &lsp.TextDocumentSyncOptionsOrKind{
				Options: &lsp.TextDocumentSyncOptions{
					OpenClose: true,
					Change:    lsp.TDSKFull,
				},
			},
			CompletionProvider: &lsp.CompletionOptions{},
			HoverProvider:      true,
		},
	}, nil
}

func (s *server) didOpen(ctx context.Context, conn jsonrpc2.JSONRPC2, rawParams json.RawMessage) (any, error) {
	var params lsp.DidOpenTextDocumentParams
	if json.Unmarshal(rawParams, &params) != nil {
		return nil, errInvalidParams
	}

	uri, content := params.TextDocument.URI, params.TextDocument.Text
	s.content[uri] = content
	go publishDiagnostics(ctx, conn, uri, content)
	return nil, nil
}

func (s *server) didChange(ctx context.Context, conn jsonrpc2.JSONRPC2, rawParams json.RawMessage) (any, error) {
	var params lsp.DidChangeTextDocumentParams
	if json.Unmarshal(rawParams, &params) != nil {
		return nil, errInvalidParams
	}

	// ContentChanges includes full text since the server is only advertised to
	// support that; see the initialize method.
	uri, content := params.TextDocument.URI, params.ContentChanges[0].Text
	s.content[uri] = content
	go publishDiagnostics(ctx, conn, uri, content)
	return nil, nil
}

func (s *server) hover(_ context.Context, _ jsonrpc2.JSONRPC2, rawParams json.RawMessage) (any, error) {
	var params lsp.TextDocumentPositionParams
	if json.Unmarshal(rawParams, &params) != nil {
		return nil, errInvalidParams
	}

	content := s.content[params.TextDocument.URI]
	word, from, to := wordAt(content, lspPositionToIdx(content, params.Position))
	if word == "" {
		return lsp.Hover{}, nil
	}
	v := lookup(word)
	if v == nil {
		return lsp.Hover{}, nil
	}
	text := word + ": " + core.Mold(v)
	return lsp.Hover{
		Contents: []lsp.MarkedString{{Language: "lore", Value: text}},
		Range: &lsp.Range{
			Start: lspPositionFromIdx(content, from),
			End:   lspPositionFromIdx(content, to),
		},
	}, nil
}

func (s *server) completion(_ context.Context, _ jsonrpc2.JSONRPC2, rawParams json.RawMessage) (any, error) {
	var params lsp.CompletionParams
	if json.Unmarshal(rawParams, &params) != nil {
		return nil, errInvalidParams
	}

	content := s.content[params.TextDocument.URI]
	idx := lspPositionToIdx(content, params.Position)
	seed, from := completionSeed(content, idx)
	lspRange := lsp.Range{
		Start: lspPositionFromIdx(content, from),
		End:   lspPositionFromIdx(content, idx),
	}

	var items []lsp.CompletionItem
	seen := make(map[string]bool)
	collect := func(ctx *core.Context) {
		for i := 1; i <= ctx.Len(); i++ {
			key := ctx.Key(i)
			if key.HasFlag(core.FlagHidden) {
				continue
			}
			name := key.Spelling().Text()
			if seen[name] || !strings.HasPrefix(name, seed) {
				continue
			}
			seen[name] = true
			kind := lsp.CIKVariable
			if v := ctx.Var(i); v != nil && v.Kind() == core.KindFunction {
				kind = lsp.CIKFunction
			}
			items = append(items, lsp.CompletionItem{
				Label: name,
				Kind:  kind,
				TextEdit: &lsp.TextEdit{
					Range:   lspRange,
					NewText: name,
				},
			})
		}
	}
	collect(core.User())
	collect(core.Lib())
	if items == nil {
		items = []lsp.CompletionItem{}
	}
	return items, nil
}

// lookup resolves a word in the user context, falling back to lib.
func lookup(word string) *core.Cell {
	sp := core.Intern(word)
	for _, ctx := range []*core.Context{core.User(), core.Lib()} {
		if i := ctx.Find(sp); i > 0 {
			return ctx.Var(i)
		}
	}
	return nil
}

func isWordRune(r rune) bool {
	switch r {
	case '-', '?', '!', '*', '+', '.', '~', '&', '=', '_', '\'':
		return true
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// wordAt returns the word containing idx and its byte extent.
func wordAt(s string, idx int) (string, int, int) {
	if idx > len(s) {
		idx = len(s)
	}
	from := idx
	for from > 0 {
		r, sz := utf8.DecodeLastRuneInString(s[:from])
		if !isWordRune(r) {
			break
		}
		from -= sz
	}
	to := idx
	for to < len(s) {
		r, sz := utf8.DecodeRuneInString(s[to:])
		if !isWordRune(r) {
			break
		}
		to += sz
	}
	if from == to {
		return "", idx, idx
	}
	return s[from:to], from, to
}

// completionSeed returns the partial word ending at idx and its start.
func completionSeed(s string, idx int) (string, int) {
	if idx > len(s) {
		idx = len(s)
	}
	from := idx
	for from > 0 {
		r, sz := utf8.DecodeLastRuneInString(s[:from])
		if !isWordRune(r) {
			break
		}
		from -= sz
	}
	return s[from:idx], from
}

func publishDiagnostics(ctx context.Context, conn jsonrpc2.JSONRPC2, uri lsp.DocumentURI, content string) {
	conn.Notify(ctx, "textDocument/publishDiagnostics",
		lsp.PublishDiagnosticsParams{URI: uri, Diagnostics: diagnostics(uri, content)})
}

func diagnostics(uri lsp.DocumentURI, content string) []lsp.Diagnostic {
	_, errs := scan.ScanRelax([]byte(content), string(uri))
	diags := make([]lsp.Diagnostic, len(errs))
	for i, e := range errs {
		diags[i] = lsp.Diagnostic{
			Range:    lspRangeFromLine(content, e.Line),
			Severity: lsp.Error,
			Source:   "scan",
			Message:  e.Message(),
		}
	}
	return diags
}

// lspRangeFromLine covers the whole 1-based source line, which is the
// granularity scan errors are reported at.
func lspRangeFromLine(s string, line int) lsp.Range {
	if line < 1 {
		line = 1
	}
	from, to := 0, len(s)
	cur := 1
	for i := 0; i < len(s); i++ {
		if s[i] != '\n' {
			continue
		}
		cur++
		if cur == line {
			from = i + 1
		} else if cur == line+1 {
			to = i
			break
		}
	}
	if line == 1 {
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			to = nl
		}
	}
	if from > to {
		from = to
	}
	return lsp.Range{
		Start: lspPositionFromIdx(s, from),
		End:   lspPositionFromIdx(s, to),
	}
}

func lspPositionToIdx(s string, pos lsp.Position) int {
	var idx int
	walkString(s, func(i int, p lsp.Position) bool {
		idx = i
		return p.Line < pos.Line || (p.Line == pos.Line && p.Character < pos.Character)
	})
	return idx
}

func lspPositionFromIdx(s string, idx int) lsp.Position {
	var pos lsp.Position
	walkString(s, func(i int, p lsp.Position) bool {
		pos = p
		return i < idx
	})
	return pos
}

// Generates (index, lspPosition) pairs in s, stopping if f returns false.
func walkString(s string, f func(i int, p lsp.Position) bool) {
	var p lsp.Position
	lastCR := false

	for i, r := range s {
		if !f(i, p) {
			return
		}
		switch {
		case r == '\r':
			p.Line++
			p.Character = 0
		case r == '\n':
			if lastCR {
				// Ignore \n if it's part of a \r\n sequence
			} else {
				p.Line++
				p.Character = 0
			}
		case r <= 0xFFFF:
			// Encoded in UTF-16 with one unit
			p.Character++
		default:
			// Encoded in UTF-16 with two units
			p.Character += 2
		}
		lastCR = r == '\r'
	}
	f(len(s), p)
}
