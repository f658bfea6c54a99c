// Package viewer serves the dependency graph of a snapshot over HTTP so a
// browser front end can render it with critical path highlighting.
package viewer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/renexus/taskdeps/internal/engine"
	"github.com/renexus/taskdeps/internal/export"
	"github.com/renexus/taskdeps/internal/graph"
	"github.com/renexus/taskdeps/internal/model"
	"github.com/renexus/taskdeps/internal/snapshot"
)

// --- Graph types (what the front end renders) ---

type Node struct {
	export.Node
	IsCritical bool    `json:"is_critical"`
	WaveIndex  int     `json:"wave_index"`
	SlackHours float64 `json:"slack_hours"`
}

type Metadata struct {
	ProjectID   string  `json:"project_id,omitempty"`
	GeneratedAt string  `json:"generated_at"`
	TotalTasks  int     `json:"total_tasks"`
	TotalWaves  int     `json:"total_waves"`
	TotalHours  float64 `json:"total_hours"`
}

type Graph struct {
	Nodes        []Node        `json:"nodes"`
	Edges        []export.Edge `json:"edges"`
	CriticalPath []string      `json:"critical_path"`
	Metadata     Metadata      `json:"metadata"`
}

// Analyzer is the part of the engine the server needs.
type Analyzer interface {
	Analyze(ctx context.Context, tasks []model.Task, deps []model.Dependency) (*engine.Analysis, error)
}

// toGraph joins the export view with the schedule in a.
func toGraph(projectID string, tasks []model.Task, deps []model.Dependency, a *engine.Analysis) *Graph {
	view := export.GenerateDependencyGraph(tasks, deps)

	nodes := make([]Node, 0, len(view.Nodes))
	for _, n := range view.Nodes {
		node := Node{Node: n}
		if ts, ok := a.CPM.Tasks[n.ID]; ok {
			node.IsCritical = ts.IsCritical
			node.WaveIndex = ts.Wave
			node.SlackHours = ts.Slack.Hours()
		}
		nodes = append(nodes, node)
	}

	return &Graph{
		Nodes:        nodes,
		Edges:        view.Edges,
		CriticalPath: a.CPM.CriticalPath,
		Metadata: Metadata{
			ProjectID:   projectID,
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
			TotalTasks:  len(nodes),
			TotalWaves:  len(a.CPM.Waves),
			TotalHours:  a.CPM.TotalDuration.Hours(),
		},
	}
}

// --- HTTP server ---

// DefaultMaxBodyBytes caps a posted snapshot when NewServer is given no limit.
const DefaultMaxBodyBytes = 8 << 20

type Server struct {
	analyzer Analyzer
	logger   *slog.Logger
	maxBody  int64

	mu    sync.RWMutex
	graph *Graph
	dot   []byte
}

// NewServer returns a Server with no graph loaded. Posted snapshots larger
// than maxBodyBytes are refused; zero or less means DefaultMaxBodyBytes.
func NewServer(analyzer Analyzer, maxBodyBytes int64, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &Server{
		analyzer: analyzer,
		logger:   logger.With("component", "viewer"),
		maxBody:  maxBodyBytes,
	}
}

// Load analyzes snap and makes it the graph the server returns.
func (s *Server) Load(ctx context.Context, snap *snapshot.Snapshot) (*Graph, error) {
	a, err := s.analyzer.Analyze(ctx, snap.Tasks, snap.Dependencies)
	if err != nil {
		return nil, err
	}
	g := toGraph(snap.ProjectID, snap.Tasks, snap.Dependencies, a)

	var buf bytes.Buffer
	view := &export.GraphView{Edges: g.Edges}
	for _, n := range g.Nodes {
		view.Nodes = append(view.Nodes, n.Node)
	}
	if err := export.WriteDOT(&buf, view, a.CPM.IsCriticalTask); err != nil {
		return nil, fmt.Errorf("render dot: %w", err)
	}

	s.mu.Lock()
	s.graph = g
	s.dot = buf.Bytes()
	s.mu.Unlock()

	s.logger.Info("graph loaded", "project", snap.ProjectID, "tasks", len(g.Nodes), "edges", len(g.Edges))
	return g, nil
}

func (s *Server) handlePostGraph(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("snapshot exceeds %d bytes", tooLarge.Limit)})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snap, err := snapshot.ParseJSON(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	g, err := s.Load(c.Request.Context(), snap)
	if err != nil {
		var cycleErr *graph.CycleDetectedError
		switch {
		case errors.As(err, &cycleErr):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "cycle": cycleErr.Cycle})
		case errors.Is(err, engine.ErrInvalidSnapshot), errors.Is(err, engine.ErrSnapshotTooLarge):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, g)
}

func (s *Server) handleGetGraph(c *gin.Context) {
	s.mu.RLock()
	g := s.graph
	s.mu.RUnlock()

	if g == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no graph loaded"})
		return
	}
	c.JSON(http.StatusOK, g)
}

func (s *Server) handleGetDOT(c *gin.Context) {
	s.mu.RLock()
	dot := s.dot
	s.mu.RUnlock()

	if dot == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no graph loaded"})
		return
	}
	c.Data(http.StatusOK, "text/vnd.graphviz; charset=utf-8", dot)
}

// Handler returns the router: GET/POST /graph, GET /graph.dot, GET /healthz.
func (s *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/graph", s.handleGetGraph)
	router.POST("/graph", s.handlePostGraph)
	router.GET("/graph.dot", s.handleGetDOT)
	return router
}

// Serve listens on addr until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("viewer listening", "addr", addr)

	select {
	case err := <-errCh:
		return fmt.Errorf("listen on %s: %w", addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
