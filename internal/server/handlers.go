package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"gopkg.in/yaml.v3"

	"github.com/mj1618/desktop-replay/internal/model"
	"github.com/mj1618/desktop-replay/internal/output"
	"github.com/mj1618/desktop-replay/internal/platform"
	"github.com/mj1618/desktop-replay/internal/recording"
	"github.com/mj1618/desktop-replay/internal/resolve"
)

// ResolveResponse is the text body of the resolve tool.
type ResolveResponse struct {
	File   string          `yaml:"file"            json:"file"`
	Index  int             `yaml:"index"           json:"index"`
	Total  int             `yaml:"total"           json:"total"`
	Result *resolve.Result `yaml:"result"          json:"result"`
	Error  string          `yaml:"error,omitempty" json:"error,omitempty"`
}

// InspectResponse is the text body of the inspect tool.
type InspectResponse struct {
	Signature *model.RecordedSignature `yaml:"signature"          json:"signature"`
	Buffered  int                      `yaml:"buffered,omitempty" json:"buffered,omitempty"`
}

// resultToText serializes a tool response to YAML.
func resultToText(v interface{}) string {
	b, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("error: %s", err)
	}
	return string(b)
}

func (s *Server) handleResolve(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	file := StringParam(params, "file", "")
	if file == "" {
		return mcp.NewToolResultError("file parameter is required"), nil
	}
	index := IntParam(params, "index", -1)

	steps, err := s.cache.Load(file)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	step, err := recording.Select(steps, index)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	opts := s.engine.DefaultOptions()
	opts.Execute = BoolParam(params, "click", false)
	opts.DryHover = BoolParam(params, "hover", false)
	opts.SafeClick = BoolParam(params, "safe-click", opts.SafeClick)
	opts.MaxAttempts = IntParam(params, "retries", opts.MaxAttempts)

	s.providerMu.Lock()
	defer s.providerMu.Unlock()

	res, err := s.engine.ResolveAndExecute(ctx, step.Signature, opts)
	resp := ResolveResponse{File: file, Index: step.Index, Total: step.Total, Result: res}
	if err != nil {
		resp.Error = err.Error()
		return mcp.NewToolResultError(resultToText(resp)), nil
	}
	return mcp.NewToolResultText(resultToText(resp)), nil
}

func (s *Server) handleInspect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	x, okX := FloatParam(params, "x")
	y, okY := FloatParam(params, "y")
	if !okX || !okY {
		return mcp.NewToolResultError("x and y parameters are required"), nil
	}
	save := BoolParam(params, "save", false)

	s.providerMu.Lock()
	defer s.providerMu.Unlock()

	sig, err := s.session.Inspect(ctx, x, y, save)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resp := InspectResponse{Signature: sig}
	if save {
		resp.Buffered = s.session.Len()
	}
	return mcp.NewToolResultText(resultToText(resp)), nil
}

func (s *Server) handleSaveBuffer(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := StringParam(request.GetArguments(), "path", "")
	if path == "" {
		return mcp.NewToolResultError("path parameter is required"), nil
	}
	n := s.session.Len()
	if err := s.session.Save(path); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.cache.Invalidate(path)
	return mcp.NewToolResultText(resultToText(map[string]interface{}{"path": path, "saved": n})), nil
}

func (s *Server) handleClearBuffer(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n := s.session.Len()
	s.session.Clear()
	return mcp.NewToolResultText(resultToText(map[string]interface{}{"cleared": n})), nil
}

func (s *Server) handleSteps(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	file := StringParam(request.GetArguments(), "file", "")
	if file == "" {
		return mcp.NewToolResultError("file parameter is required"), nil
	}
	steps, err := s.cache.Load(file)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(resultToText(output.Summarize(file, steps))), nil
}

func (s *Server) handleList(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	apps := BoolParam(params, "apps", false)
	appName := StringParam(params, "app", "")

	s.providerMu.Lock()
	defer s.providerMu.Unlock()

	if s.provider.Apps == nil {
		return mcp.NewToolResultError("app directory not available on this platform"), nil
	}

	if apps {
		running, err := s.provider.Apps.RunningApps()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		entries := output.AppEntries(running, platform.FrontmostPID(s.provider.Apps))
		return mcp.NewToolResultText(resultToText(entries)), nil
	}

	windows, err := platform.ListWindows(s.provider.Apps, appName)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(resultToText(windows)), nil
}
