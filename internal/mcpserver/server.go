// Package mcpserver exposes the task lifecycle as MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/tgienger/taskmate/internal/models"
	"github.com/tgienger/taskmate/internal/task"
)

const serverName = "taskmate"

// Server is the MCP server for task management.
type Server struct {
	mcpServer *server.MCPServer
	svc       *task.Service
	log       *zap.Logger
	loc       *time.Location
}

// NewServer creates a new MCP server backed by the given service.
func NewServer(svc *task.Service, version string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		svc: svc,
		log: log.With(zap.String("component", "mcp")),
		loc: time.Local,
	}

	s.mcpServer = server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()
	return s
}

// MCPServer returns the underlying MCP server for serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves the tools over stdin/stdout until the client leaves.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("list_tasks",
			mcp.WithDescription("List tasks in creation order. Filters combine: priority AND category AND completion AND search."),
			mcp.WithString("priority", mcp.Description("High, Medium, Low or All (default All)")),
			mcp.WithString("category", mcp.Description("Work, Personal, School, Other or All (default All)")),
			mcp.WithBoolean("completed", mcp.Description("List completed tasks instead of open ones (default false)")),
			mcp.WithString("search", mcp.Description("Case-insensitive text matched against title or description")),
		),
		s.handleListTasks,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("add_task",
			mcp.WithDescription("Create a task. A reminder is scheduled 30 minutes before the due date when there is time for it."),
			mcp.WithString("title", mcp.Required(), mcp.Description("Title, at most 50 characters")),
			mcp.WithString("description", mcp.Description("Optional description, at most 200 characters")),
			mcp.WithString("priority", mcp.Required(), mcp.Description("High, Medium or Low")),
			mcp.WithString("category", mcp.Required(), mcp.Description("Work, Personal, School or Other")),
			mcp.WithString("due_date", mcp.Required(), mcp.Description("Due date in RFC3339 format or 'YYYY-MM-DD HH:MM' local time")),
		),
		s.handleAddTask,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("update_task",
			mcp.WithDescription("Update a task. Omitted fields keep their current value."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Task ID")),
			mcp.WithString("title", mcp.Description("New title")),
			mcp.WithString("description", mcp.Description("New description")),
			mcp.WithString("priority", mcp.Description("New priority: High, Medium, Low")),
			mcp.WithString("category", mcp.Description("New category: Work, Personal, School, Other")),
			mcp.WithString("due_date", mcp.Description("New due date")),
			mcp.WithBoolean("completed", mcp.Description("Completion state")),
		),
		s.handleUpdateTask,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("complete_task",
			mcp.WithDescription("Mark a task as completed"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Task ID")),
		),
		s.handleCompleteTask,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("delete_task",
			mcp.WithDescription("Delete a task permanently. Requires confirm=true."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Task ID")),
			mcp.WithBoolean("confirm", mcp.Required(), mcp.Description("Must be true to delete")),
		),
		s.handleDeleteTask,
	)
}

func (s *Server) handleListTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f := task.Filter{
		Priority:  task.All,
		Category:  task.All,
		Completed: req.GetBool("completed", false),
		Search:    req.GetString("search", ""),
	}
	if raw := req.GetString("priority", ""); raw != "" && !strings.EqualFold(raw, task.All) {
		p, ok := models.ParsePriority(raw)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown priority %q", raw)), nil
		}
		f.Priority = string(p)
	}
	if raw := req.GetString("category", ""); raw != "" && !strings.EqualFold(raw, task.All) {
		c, ok := models.ParseCategory(raw)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown category %q", raw)), nil
		}
		f.Category = string(c)
	}

	tasks, err := s.svc.Snapshot(ctx)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(task.Apply(tasks, f))
}

func (s *Server) handleAddTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var d models.Draft
	if err := s.applyArgs(&d, req); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	created, err := s.svc.Create(ctx, d)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(created)
}

func (s *Server) handleUpdateTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	cur, err := s.svc.Get(ctx, id)
	if err != nil {
		return toolError(err), nil
	}

	d := models.DraftFrom(*cur)
	if err := s.applyArgs(&d, req); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	updated, err := s.svc.Update(ctx, id, d, req.GetBool("completed", cur.Completed))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(updated)
}

func (s *Server) handleCompleteTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	cur, err := s.svc.Get(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	done, err := s.svc.Complete(ctx, *cur)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(done)
}

func (s *Server) handleDeleteTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	confirmed := req.GetBool("confirm", false)
	deleted, err := s.svc.Delete(ctx, id, task.ConfirmFunc(func(context.Context, string) (bool, error) {
		return confirmed, nil
	}))
	if err != nil {
		return toolError(err), nil
	}
	if !deleted {
		return mcp.NewToolResultError("not deleted: pass confirm=true to delete"), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Task %s deleted.", id)), nil
}

// applyArgs overwrites draft fields with whichever arguments were supplied.
func (s *Server) applyArgs(d *models.Draft, req mcp.CallToolRequest) error {
	args := req.GetArguments()

	if _, ok := args["title"]; ok {
		d.Title = req.GetString("title", "")
	}
	if _, ok := args["description"]; ok {
		d.Description = req.GetString("description", "")
	}
	if _, ok := args["priority"]; ok {
		raw := req.GetString("priority", "")
		p, ok := models.ParsePriority(raw)
		if !ok && raw != "" {
			return fmt.Errorf("unknown priority %q (use High, Medium or Low)", raw)
		}
		d.Priority = p
	}
	if _, ok := args["category"]; ok {
		raw := req.GetString("category", "")
		c, ok := models.ParseCategory(raw)
		if !ok && raw != "" {
			return fmt.Errorf("unknown category %q (use Work, Personal, School or Other)", raw)
		}
		d.Category = c
	}
	if _, ok := args["due_date"]; ok {
		due, err := task.ParseDue(req.GetString("due_date", ""), s.loc)
		if err != nil {
			return err
		}
		d.DueDate = due
	}
	return nil
}

func toolError(err error) *mcp.CallToolResult {
	if errors.Is(err, task.ErrNotFound) {
		return mcp.NewToolResultError("task not found")
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(output)), nil
}
