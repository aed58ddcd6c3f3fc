package lsp

import (
	"context"
	"encoding/json"
	"strings"

	lsp "github.com/sourcegraph/go-lsp"
	"github.com/sourcegraph/jsonrpc2"

	"github.com/orchidlang/orchid/pkg/intern"
	"github.com/orchidlang/orchid/pkg/lex"
	"github.com/orchidlang/orchid/pkg/parse"
)

var (
	errMethodNotFound = &jsonrpc2.Error{
		Code: jsonrpc2.CodeMethodNotFound, Message: "method not found"}
	errInvalidParams = &jsonrpc2.Error{
		Code: jsonrpc2.CodeInvalidParams, Message: "invalid params"}
)

type server struct {
	in      *intern.Interner
	content map[lsp.DocumentURI]string
}

func newServer() *server {
	return &server{intern.New(), make(map[lsp.DocumentURI]string)}
}

func handler(s *server) jsonrpc2.Handler {
	return routingHandler(map[string]method{
		"initialize":             s.initialize,
		"textDocument/didOpen":   s.didOpen,
		"textDocument/didChange": s.didChange,

		"textDocument/didClose": noop,
		// Required by the LSP spec.
		"initialized": noop,
		// Called by clients even when the server doesn't advertise support.
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
		if req.Params == nil {
			return fn(ctx, conn, nil)
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
	go publishDiags(ctx, conn, uri, s.diags(uri, content))
	return nil, nil
}

func (s *server) didChange(ctx context.Context, conn jsonrpc2.JSONRPC2, rawParams json.RawMessage) (any, error) {
	var params lsp.DidChangeTextDocumentParams
	if json.Unmarshal(rawParams, &params) != nil {
		return nil, errInvalidParams
	}
	// ContentChanges includes full text (TDSKFull); take the last one.
	uri := params.TextDocument.URI
	content := params.ContentChanges[len(params.ContentChanges)-1].Text
	s.content[uri] = content
	go publishDiags(ctx, conn, uri, s.diags(uri, content))
	return nil, nil
}

// diags parses a document and converts the errors into LSP diagnostics. The
// parse runs with an empty operator set, so operator splits from imports are
// not reproduced; spans of the reported errors are exact.
func (s *server) diags(uri lsp.DocumentURI, content string) []lsp.Diagnostic {
	src := lex.Source{Name: string(uri), Code: content}
	_, err := parse.Parse(s.in, src, nil)
	if err == nil {
		return []lsp.Diagnostic{}
	}
	var diags []lsp.Diagnostic
	for _, e := range parse.UnpackErrors(err) {
		diags = append(diags, diagnostic(content, e.Range().From, e.Range().To, e.Message))
	}
	for _, e := range lex.UnpackErrors(err) {
		diags = append(diags, diagnostic(content, e.Range().From, e.Range().To, e.Message))
	}
	return diags
}

func diagnostic(content string, from, to int, message string) lsp.Diagnostic {
	return lsp.Diagnostic{
		Range: lsp.Range{
			Start: position(content, from),
			End:   position(content, to),
		},
		Severity: lsp.Error,
		Source:   "orchid",
		Message:  message,
	}
}

// position converts a byte offset into an LSP position. Characters count
// UTF-16 units per the protocol; Orchid sources are overwhelmingly ASCII and
// rune count is used as the approximation, like the line-based excerpts of
// pkg/diag.
func position(content string, offset int) lsp.Position {
	if offset > len(content) {
		offset = len(content)
	}
	before := content[:offset]
	line := strings.Count(before, "\n")
	lineStart := strings.LastIndexByte(before, '\n') + 1
	return lsp.Position{
		Line:      line,
		Character: len([]rune(before[lineStart:])),
	}
}

func publishDiags(ctx context.Context, conn jsonrpc2.JSONRPC2, uri lsp.DocumentURI, diags []lsp.Diagnostic) {
	conn.Notify(ctx, "textDocument/publishDiagnostics",
		lsp.PublishDiagnosticsParams{URI: uri, Diagnostics: diags})
}
