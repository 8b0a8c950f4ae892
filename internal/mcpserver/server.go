// Package mcpserver exposes the scanner over the Model Context Protocol so
// agent hosts can drive scans and read findings through stdio tools.
package mcpserver

import (
	"context"
	"errors"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bmltera/codescanner/internal/finding"
	"github.com/bmltera/codescanner/internal/logging"
	"github.com/bmltera/codescanner/internal/scan"
	"github.com/bmltera/codescanner/internal/store"
)

// Scanner is the slice of the orchestrator the server needs.
type Scanner interface {
	Scan(ctx context.Context) error
	Scanning() bool
}

// Server wraps the MCP SDK server around a scanner and its finding store.
type Server struct {
	MCPServer *sdkmcp.Server

	scanner  Scanner
	findings *store.Store
}

// NewServer creates an MCP server with scan and finding tools.
func NewServer(scanner Scanner, findings *store.Store, version string) *Server {
	s := &Server{scanner: scanner, findings: findings}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "codescanner", Version: version},
		nil,
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "start_scan",
		Description: "Start a workspace scan. Fails if a scan is already running. With wait=true, blocks until the scan completes and reports the finding count.",
	}, s.handleStartScan)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_scan_state",
		Description: "Report whether a scan is running and how many findings are currently held.",
	}, s.handleGetScanState)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_findings",
		Description: "List current findings in arrival order, optionally filtered by risk score (low, medium, high).",
	}, s.handleListFindings)
}

// --- Tool input/output types ---

type startScanInput struct {
	Wait bool `json:"wait,omitempty" jsonschema:"block until the scan completes"`
}

type startScanOutput struct {
	Status   string `json:"status"`
	Findings int    `json:"findings,omitempty"`
}

type getScanStateInput struct{}

type getScanStateOutput struct {
	Scanning bool `json:"scanning"`
	Findings int  `json:"findings"`
}

type listFindingsInput struct {
	Risk string `json:"risk,omitempty" jsonschema:"filter by risk score (low, medium, high)"`
}

type listFindingsOutput struct {
	Findings []finding.Finding `json:"findings"`
	Total    int               `json:"total"`
}

// --- Tool handlers ---

func (s *Server) handleStartScan(ctx context.Context, _ *sdkmcp.CallToolRequest, input startScanInput) (*sdkmcp.CallToolResult, startScanOutput, error) {
	logger := logging.New("mcp")

	if input.Wait {
		if err := s.scanner.Scan(ctx); err != nil {
			if errors.Is(err, scan.ErrScanInProgress) {
				return nil, startScanOutput{}, fmt.Errorf("a scan is already running")
			}
			return nil, startScanOutput{}, fmt.Errorf("start_scan: %w", err)
		}
		return nil, startScanOutput{
			Status:   "completed",
			Findings: s.findings.Len(),
		}, nil
	}

	if s.scanner.Scanning() {
		return nil, startScanOutput{}, fmt.Errorf("a scan is already running")
	}
	// Detached from the tool-call context: the scan outlives this request.
	go func() {
		if err := s.scanner.Scan(context.Background()); err != nil {
			logger.Warn("background scan rejected", "error", err)
		}
	}()
	return nil, startScanOutput{Status: "started"}, nil
}

func (s *Server) handleGetScanState(_ context.Context, _ *sdkmcp.CallToolRequest, _ getScanStateInput) (*sdkmcp.CallToolResult, getScanStateOutput, error) {
	return nil, getScanStateOutput{
		Scanning: s.scanner.Scanning(),
		Findings: s.findings.Len(),
	}, nil
}

func (s *Server) handleListFindings(_ context.Context, _ *sdkmcp.CallToolRequest, input listFindingsInput) (*sdkmcp.CallToolResult, listFindingsOutput, error) {
	all := s.findings.Findings()
	if input.Risk == "" {
		return nil, listFindingsOutput{Findings: all, Total: len(all)}, nil
	}

	risk := finding.ParseRiskScore(input.Risk)
	filtered := make([]finding.Finding, 0, len(all))
	for _, f := range all {
		if f.RiskScore == risk {
			filtered = append(filtered, f)
		}
	}
	return nil, listFindingsOutput{Findings: filtered, Total: len(all)}, nil
}

// Run serves MCP over stdio until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	return s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}
