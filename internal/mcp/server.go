// Package mcp exposes the pipeline as Model Context Protocol tools.
package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/metalagman/atlas/internal/batch"
	"github.com/metalagman/atlas/internal/model"
	"github.com/metalagman/atlas/internal/records"
	"github.com/metalagman/atlas/internal/report"
	"github.com/metalagman/atlas/internal/route"
	"github.com/metalagman/atlas/internal/snapshot"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// Tool names.
const (
	ToolRunPipeline = "run_pipeline"
	ToolParseIssues = "parse_issues"
	ToolAsk         = "ask"
)

// SourceMCP marks runs submitted through MCP.
const SourceMCP = "mcp"

// Server wraps the MCP SDK server with the atlas tools registered.
type Server struct {
	MCPServer *sdkmcp.Server
	runner    *batch.Runner
}

// NewServer creates an MCP server. Runs are saved when runner has a store.
func NewServer(runner *batch.Runner, version string) *Server {
	s := &Server{
		MCPServer: sdkmcp.NewServer(&sdkmcp.Implementation{Name: "atlas", Version: version}, nil),
		runner:    runner,
	}
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        ToolRunPipeline,
		Description: "Scan a project-status document (emails, site_logs, inspection_reports) and return tagged issues, routes, mitigations, the unified plan and its evaluation.",
	}, s.handleRunPipeline)
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        ToolParseIssues,
		Description: "Parse tagged-issue text (one \"[type_<issue>] <detail>\" per line) and route each issue to its agent.",
	}, s.handleParseIssues)
	if runner != nil && runner.Store != nil {
		sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
			Name:        ToolAsk,
			Description: "Answer a free-text question about a saved run (latest by default) with the matching stage sections: schedule, safety, QA/QC, dispatch, scan, plan or score.",
		}, s.handleAsk)
	}
	return s
}

// Run serves over stdio until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

type runPipelineInput struct {
	Document map[string]any `json:"document" jsonschema:"project-status document with optional emails, site_logs and inspection_reports arrays"`
}

type runPipelineOutput struct {
	RunID  string       `json:"run_id,omitempty"`
	Result model.Result `json:"result"`
}

type parseIssuesInput struct {
	Text string `json:"text" jsonschema:"tagged-issue text, one issue per line"`
}

type parseIssuesOutput struct {
	Issues []model.TaggedIssue `json:"issues"`
	Routes []model.Route       `json:"routes"`
}

type askInput struct {
	Question string `json:"question" jsonschema:"free-text question, e.g. any QA issues?"`
	RunID    string `json:"run_id,omitempty" jsonschema:"saved run id; the latest run when empty"`
}

type askOutput struct {
	RunID    string   `json:"run_id"`
	Sections []string `json:"sections"`
	Answer   string   `json:"answer"`
}

func (s *Server) handleRunPipeline(ctx context.Context, _ *sdkmcp.CallToolRequest, in runPipelineInput) (*sdkmcp.CallToolResult, runPipelineOutput, error) {
	doc, err := records.FromMap(in.Document)
	if err != nil {
		return nil, runPipelineOutput{}, err
	}
	out := s.runner.RunDocument(ctx, SourceMCP, doc)
	if out.Err != nil {
		if out.RunID != "" {
			return nil, runPipelineOutput{}, fmt.Errorf("run %s: %w", out.RunID, out.Err)
		}
		return nil, runPipelineOutput{}, out.Err
	}
	log.Debug().Str("run_id", out.RunID).Str("tool", ToolRunPipeline).Msg("tool call done")
	return nil, runPipelineOutput{RunID: out.RunID, Result: out.Result}, nil
}

func (s *Server) handleParseIssues(_ context.Context, _ *sdkmcp.CallToolRequest, in parseIssuesInput) (*sdkmcp.CallToolResult, parseIssuesOutput, error) {
	issues := route.ParseIssues(in.Text)
	if issues == nil {
		issues = []model.TaggedIssue{}
	}
	return nil, parseIssuesOutput{Issues: issues, Routes: route.Route(issues)}, nil
}

func (s *Server) handleAsk(_ context.Context, _ *sdkmcp.CallToolRequest, in askInput) (*sdkmcp.CallToolResult, askOutput, error) {
	var (
		run snapshot.Run
		err error
	)
	if in.RunID == "" {
		run, err = s.runner.Store.Latest()
	} else {
		run, err = s.runner.Store.Load(in.RunID)
	}
	if err != nil {
		return nil, askOutput{}, err
	}
	if run.Result == nil {
		return nil, askOutput{}, fmt.Errorf("run %s is %s", run.Meta.ID, run.Meta.Status)
	}

	out := askOutput{RunID: run.Meta.ID, Sections: report.Topics(in.Question)}
	out.Answer, err = report.Ask(in.Question, *run.Result)
	if errors.Is(err, report.ErrUnclearQuestion) {
		out.Sections = []string{}
		out.Answer = err.Error()
		return nil, out, nil
	}
	if err != nil {
		return nil, askOutput{}, err
	}
	return nil, out, nil
}
