package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/jsonrpc2"
	"go.lsp.dev/protocol"

	"github.com/lexcodex/lspboost/booster"
	"github.com/lexcodex/lspboost/persistence"
)

// Config defines how a language server session is spawned.
type Config struct {
	Command    string
	Args       []string
	RootDir    string
	LanguageID string

	// Feature wires the booster seams into the session. A nil feature runs
	// the session over the plain JSON codec, untouched.
	Feature *booster.Feature
	// Ledger records the session when set. The ledger is shared; the client
	// never closes it.
	Ledger *persistence.Ledger
	Logger *log.Logger
	// Stderr receives the server's stderr; defaults to os.Stderr.
	Stderr io.Writer
}

// Client is a language server session running over a (possibly boosted)
// stdio stream.
type Client struct {
	cfg     Config
	id      string
	cmd     *exec.Cmd
	conn    *jsonrpc2.Conn
	channel *booster.Channel
	cancel  context.CancelFunc
	started time.Time
	logger  *log.Logger

	mu          sync.Mutex
	closed      bool
	openedFiles map[protocol.DocumentURI]bool
	diagnostics map[protocol.DocumentURI][]protocol.Diagnostic
}

// NewClient launches the configured language server, classifies the spawned
// command line, and performs the LSP handshake.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Command == "" {
		return nil, errors.New("command is required for session client")
	}
	if cfg.LanguageID == "" {
		return nil, errors.New("language id is required for session client")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	root := cfg.RootDir
	if root == "" {
		root = "."
	}
	remote := booster.IsRemoteDir(root)
	if !remote {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, err
		}
		root = abs
	}

	argv := append([]string{cfg.Command}, cfg.Args...)
	if cfg.Feature != nil {
		argv = cfg.Feature.RewriteCommand(argv, remote)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if !remote {
		cmd.Dir = root
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return nil, err
	}

	channel := booster.NewChannel()
	var codec jsonrpc2.ObjectCodec = jsonrpc2.VSCodeObjectCodec{}
	if cfg.Feature != nil {
		codec = cfg.Feature.Codec(channel)
	}
	rwc := &stdioReadWriteCloser{reader: stdout, writer: stdin}
	stream := jsonrpc2.NewBufferedStream(rwc, codec)

	client := &Client{
		cfg:         cfg,
		id:          fmt.Sprintf("sess-%d", time.Now().UnixNano()),
		cmd:         cmd,
		channel:     channel,
		cancel:      cancel,
		started:     time.Now(),
		logger:      logger,
		openedFiles: make(map[protocol.DocumentURI]bool),
		diagnostics: make(map[protocol.DocumentURI][]protocol.Diagnostic),
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, err
	}

	// Classify the spawned argv before the connection starts reading, so the
	// boosted tag is in place for the very first frame.
	if cfg.Feature != nil {
		cfg.Feature.Observe(cmd.Args, channel)
	}
	client.recordStart(ctx)

	sink := cfg.Stderr
	if sink == nil {
		sink = os.Stderr
	}
	go io.Copy(sink, stderr)

	client.conn = jsonrpc2.NewConn(ctx, stream, client.notificationHandler())

	if err := client.initialize(ctx, root); err != nil {
		client.teardown()
		return nil, err
	}
	return client, nil
}

// ID returns the session identifier used in the ledger.
func (c *Client) ID() string {
	return c.id
}

// Boosted reports whether this session's stream runs through the booster.
func (c *Client) Boosted() bool {
	return c.channel.Boosted()
}

// Stats snapshots the channel counters.
func (c *Client) Stats() booster.Stats {
	return c.channel.Stats()
}

func (c *Client) recordStart(ctx context.Context) {
	if c.cfg.Ledger == nil {
		return
	}
	profile := ""
	if c.channel.Boosted() && c.cfg.Feature != nil {
		profile = c.cfg.Feature.Profile().Name
	}
	err := c.cfg.Ledger.Begin(ctx, persistence.SessionRecord{
		ID:        c.id,
		Command:   persistence.CommandString(c.cmd.Args),
		Profile:   profile,
		Boosted:   c.channel.Boosted(),
		StartedAt: c.started,
	})
	if err != nil {
		c.logger.Printf("session ledger begin failed: %v", err)
	}
}

func (c *Client) notificationHandler() jsonrpc2.Handler {
	return jsonrpc2.HandlerWithError(func(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
		if !req.Notif {
			return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "method not handled"}
		}
		switch req.Method {
		case "textDocument/publishDiagnostics":
			var params protocol.PublishDiagnosticsParams
			if err := json.Unmarshal(*req.Params, &params); err != nil {
				return nil, err
			}
			c.mu.Lock()
			c.diagnostics[params.URI] = params.Diagnostics
			c.mu.Unlock()
			return nil, nil
		default:
			return nil, nil
		}
	})
}

func (c *Client) initialize(ctx context.Context, root string) error {
	params := &protocol.InitializeParams{
		ProcessID: int32(os.Getpid()),
		RootURI:   protocol.DocumentURI(pathToURI(root)),
		ClientInfo: &protocol.ClientInfo{
			Name:    "lspboost",
			Version: "0.1",
		},
		Capabilities: protocol.ClientCapabilities{
			TextDocument: &protocol.TextDocumentClientCapabilities{
				Hover:              &protocol.HoverTextDocumentClientCapabilities{},
				Definition:         &protocol.DefinitionTextDocumentClientCapabilities{},
				DocumentSymbol:     &protocol.DocumentSymbolClientCapabilities{},
				PublishDiagnostics: &protocol.PublishDiagnosticsClientCapabilities{},
			},
			Workspace: &protocol.WorkspaceClientCapabilities{
				Symbol: &protocol.WorkspaceClientCapabilitiesSymbol{},
			},
		},
	}
	var result protocol.InitializeResult
	if err := c.conn.Call(ctx, "initialize", params, &result); err != nil {
		return err
	}
	return c.conn.Notify(ctx, "initialized", &protocol.InitializedParams{})
}

// Close terminates the session, flushing the final counters to the ledger.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	if c.cfg.Ledger != nil {
		err := c.cfg.Ledger.Finish(context.Background(), c.id, time.Now(), c.channel.Stats())
		if err != nil {
			c.logger.Printf("session ledger finish failed: %v", err)
		}
	}
	c.teardown()
	return nil
}

func (c *Client) teardown() {
	if c.cancel != nil {
		c.cancel()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
	if c.cmd != nil && c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
		_, _ = c.cmd.Process.Wait()
	}
}

func (c *Client) ensureOpen(ctx context.Context, file string) error {
	uri := protocol.DocumentURI(pathToURI(file))
	c.mu.Lock()
	if c.openedFiles[uri] {
		c.mu.Unlock()
		return nil
	}
	c.openedFiles[uri] = true
	c.mu.Unlock()

	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	params := protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        uri,
			LanguageID: protocol.LanguageIdentifier(c.cfg.LanguageID),
			Version:    1,
			Text:       string(data),
		},
	}
	return c.conn.Notify(ctx, "textDocument/didOpen", params)
}

// Position addresses a point in a file.
type Position struct {
	Line      int
	Character int
}

// Location is a resolved source position range.
type Location struct {
	URI   string
	Range [2]int64
}

// Hover returns type/doc info at a position.
func (c *Client) Hover(ctx context.Context, file string, pos Position) (string, error) {
	if err := c.ensureOpen(ctx, file); err != nil {
		return "", err
	}
	params := protocol.HoverParams{
		TextDocumentPositionParams: textDocumentPosition(file, pos),
	}
	var resp protocol.Hover
	if err := c.conn.Call(ctx, "textDocument/hover", params, &resp); err != nil {
		return "", err
	}
	return resp.Contents.Value, nil
}

// Definition resolves the definition location of the symbol at a position.
func (c *Client) Definition(ctx context.Context, file string, pos Position) (Location, string, error) {
	if err := c.ensureOpen(ctx, file); err != nil {
		return Location{}, "", err
	}
	params := protocol.DefinitionParams{
		TextDocumentPositionParams: textDocumentPosition(file, pos),
	}
	var resp []protocol.Location
	if err := c.conn.Call(ctx, "textDocument/definition", params, &resp); err != nil {
		return Location{}, "", err
	}
	if len(resp) == 0 {
		return Location{}, "", errors.New("definition not found")
	}
	loc := resp[0]
	snippet, _ := readSnippet(uriToPath(string(loc.URI)), loc.Range)
	return Location{
		URI:   string(loc.URI),
		Range: [2]int64{int64(loc.Range.Start.Line), int64(loc.Range.End.Line)},
	}, snippet, nil
}

// Diagnostic is a single reported problem.
type Diagnostic struct {
	Severity string
	Message  string
	Source   string
	Line     int
}

// Diagnostics waits for the server to publish diagnostics for file.
func (c *Client) Diagnostics(ctx context.Context, file string) ([]Diagnostic, error) {
	if err := c.ensureOpen(ctx, file); err != nil {
		return nil, err
	}
	uri := protocol.DocumentURI(pathToURI(file))
	deadline := time.After(3 * time.Second)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		c.mu.Lock()
		if diags, ok := c.diagnostics[uri]; ok {
			c.mu.Unlock()
			return convertDiagnostics(diags), nil
		}
		c.mu.Unlock()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline:
			return nil, errors.New("diagnostics timeout")
		case <-ticker.C:
		}
	}
}

// Symbol is a simplified workspace/document symbol.
type Symbol struct {
	Name     string
	Kind     string
	Location string
}

// SearchSymbols queries workspace symbols.
func (c *Client) SearchSymbols(ctx context.Context, query string) ([]Symbol, error) {
	params := protocol.WorkspaceSymbolParams{Query: query}
	var resp []protocol.SymbolInformation
	if err := c.conn.Call(ctx, "workspace/symbol", params, &resp); err != nil {
		return nil, err
	}
	symbols := make([]Symbol, 0, len(resp))
	for _, sym := range resp {
		symbols = append(symbols, Symbol{
			Name:     sym.Name,
			Kind:     fmt.Sprintf("%d", int(sym.Kind)),
			Location: fmt.Sprintf("%s:%d", string(sym.Location.URI), int(sym.Location.Range.Start.Line)),
		})
	}
	return symbols, nil
}

func textDocumentPosition(file string, pos Position) protocol.TextDocumentPositionParams {
	return protocol.TextDocumentPositionParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: protocol.DocumentURI(pathToURI(file))},
		Position:     protocol.Position{Line: uint32(pos.Line), Character: uint32(pos.Character)},
	}
}

func convertDiagnostics(diags []protocol.Diagnostic) []Diagnostic {
	result := make([]Diagnostic, 0, len(diags))
	for _, d := range diags {
		result = append(result, Diagnostic{
			Severity: fmt.Sprintf("%d", int(d.Severity)),
			Message:  d.Message,
			Source:   d.Source,
			Line:     int(d.Range.Start.Line),
		})
	}
	return result
}

type stdioReadWriteCloser struct {
	reader io.ReadCloser
	writer io.WriteCloser
}

func (s *stdioReadWriteCloser) Read(p []byte) (int, error)  { return s.reader.Read(p) }
func (s *stdioReadWriteCloser) Write(p []byte) (int, error) { return s.writer.Write(p) }
func (s *stdioReadWriteCloser) Close() error {
	_ = s.reader.Close()
	return s.writer.Close()
}

func pathToURI(path string) string {
	path = filepath.Clean(path)
	if runtime.GOOS == "windows" {
		path = strings.ReplaceAll(path, "\\", "/")
		return "file:///" + strings.ReplaceAll(path, ":", "%3A")
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "file://" + path
}

func uriToPath(uri string) string {
	uri = strings.TrimPrefix(uri, "file://")
	uri = strings.ReplaceAll(uri, "%3A", ":")
	return filepath.FromSlash(uri)
}

func readSnippet(path string, rng protocol.Range) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	lines := strings.Split(string(data), "\n")
	start := int(rng.Start.Line)
	if start >= len(lines) {
		return "", nil
	}
	end := int(rng.End.Line)
	if end >= len(lines) {
		end = len(lines) - 1
	}
	return strings.Join(lines[start:end+1], "\n"), nil
}
