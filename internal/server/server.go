package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/lexatlas/citegraph/internal/config"
	"github.com/lexatlas/citegraph/internal/core"
	"github.com/lexatlas/citegraph/internal/core/model"
	"github.com/lexatlas/citegraph/internal/core/subgraph"
	"github.com/lexatlas/citegraph/internal/driver"
	"github.com/lexatlas/citegraph/internal/llm"
)

type Server struct {
	Engine   *core.Engine
	Embedder llm.EmbedderClient
	Config   *config.Config
}

func NewServer() *Server {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Printf("Could not load %s: %v. Using defaults", cfgPath, err)
		cfg = config.Default()
	}

	// Env overrides for the deployment-specific bits.
	if uri := os.Getenv("GRAPH_STORE_URI"); uri != "" {
		cfg.GraphStore.URI = uri
	}
	if user := os.Getenv("GRAPH_STORE_USER"); user != "" {
		cfg.GraphStore.User = user
	}
	if pass := os.Getenv("GRAPH_STORE_PASSWORD"); pass != "" {
		cfg.GraphStore.Password = pass
	}
	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		cfg.LLM.Provider = provider
	}
	if model := os.Getenv("LLM_EMBEDDING_MODEL"); model != "" {
		cfg.LLM.EmbeddingModel = model
	}
	if key := os.Getenv("LLM_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	}
	if base := os.Getenv("LLM_BASE_URL"); base != "" {
		cfg.LLM.BaseURL = base
	}

	var store driver.GraphStore
	if cfg.GraphStore.URI == "memory" {
		// Dev mode: empty in-memory graph, useful for smoke testing the
		// API without a running Memgraph.
		store = driver.NewMemStore()
		log.Println("Using in-memory graph store")
	} else {
		neoStore, err := driver.NewNeo4jStore(cfg.GraphStore.URI, cfg.GraphStore.User, cfg.GraphStore.Password)
		if err != nil {
			log.Fatalf("Failed to connect to graph store: %v", err)
		}
		if err := neoStore.BuildIndices(context.Background()); err != nil {
			log.Printf("Failed to build indices: %v", err)
		}
		store = neoStore
	}

	embedder, err := llm.NewEmbedder(context.Background(), cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to initialize embedder: %v", err)
	}

	engine, err := core.NewEngine(store, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize engine: %v", err)
	}

	return &Server{
		Engine:   engine,
		Embedder: embedder,
		Config:   cfg,
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.POST("/resolve", s.Resolve)
	r.POST("/resolve/batch", s.ResolveBatch)
	r.POST("/graph/subgraph", s.BuildSubgraph)
	r.POST("/graph/rank", s.Rank)
	r.POST("/graph/conflict", s.DetectConflict)
	r.POST("/graph/conflicts", s.DetectConflicts)
	r.POST("/search", s.Search)

	return r
}

// respondError maps the engine error taxonomy onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidParameter):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		log.Printf("Internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

type ResolveRequest struct {
	Citation string `json:"citation"`
}

func (s *Server) Resolve(c *gin.Context) {
	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	res, err := s.Engine.Resolve(c.Request.Context(), req.Citation)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type ResolveBatchRequest struct {
	Citations []string `json:"citations"`
}

func (s *Server) ResolveBatch(c *gin.Context) {
	var req ResolveBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	results, stats, err := s.Engine.ResolveBatch(c.Request.Context(), req.Citations)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "stats": stats})
}

type SubgraphRequest struct {
	RootID            string `json:"root_id"`
	Depth             int    `json:"depth"`
	Direction         string `json:"direction"`
	IncludeUnresolved bool   `json:"include_unresolved"`
}

func (r SubgraphRequest) options() subgraph.Options {
	dir := model.Direction(r.Direction)
	if r.Direction == "" {
		dir = model.DirectionBoth
	}
	return subgraph.Options{
		Depth:             r.Depth,
		Direction:         dir,
		IncludeUnresolved: r.IncludeUnresolved,
	}
}

func (s *Server) BuildSubgraph(c *gin.Context) {
	var req SubgraphRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	g, err := s.Engine.BuildSubgraph(c.Request.Context(), req.RootID, req.options())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (s *Server) Rank(c *gin.Context) {
	var req SubgraphRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	g, ranked, err := s.Engine.RankSubgraph(c.Request.Context(), req.RootID, req.options())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"root_id": g.RootID, "truncated": g.Truncated, "ranked": ranked})
}

type ConflictRequest struct {
	OpinionA string `json:"opinion_a"`
	OpinionB string `json:"opinion_b"`
}

func (s *Server) DetectConflict(c *gin.Context) {
	var req ConflictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	conflict, err := s.Engine.DetectConflict(c.Request.Context(), req.OpinionA, req.OpinionB)
	if err != nil {
		respondError(c, err)
		return
	}
	if conflict == nil {
		c.JSON(http.StatusOK, gin.H{"conflict": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conflict": conflict})
}

type ConflictScanRequest struct {
	RootID string `json:"root_id"`
	Depth  int    `json:"depth"`
}

func (s *Server) DetectConflicts(c *gin.Context) {
	var req ConflictScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	depth := req.Depth
	if depth == 0 {
		depth = 2
	}

	conflicts, err := s.Engine.DetectConflicts(c.Request.Context(), req.RootID, depth)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conflicts": conflicts})
}

type SearchRequest struct {
	Query          string            `json:"query"`
	QueryEmbedding []float32         `json:"query_embedding"`
	Candidates     []model.Candidate `json:"candidates"`
	K              int               `json:"k"`
	Lambda         *float64          `json:"lambda"`
	Strategy       string            `json:"strategy"`
}

// Search reranks a pre-fetched candidate set. The query embedding may be
// given directly, or as text when an embedding provider is configured.
// Strategy "similarity" is the pure-relevance boundary case (lambda 1);
// the default is MMR with the configured lambda.
func (s *Server) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	queryVec := req.QueryEmbedding
	if len(queryVec) == 0 {
		if req.Query == "" || s.Embedder == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "query_embedding required (no embedding provider configured)"})
			return
		}
		vec, err := s.Embedder.Embed(c.Request.Context(), req.Query)
		if err != nil {
			log.Printf("Failed to embed query: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "embedding provider failure"})
			return
		}
		queryVec = vec
	}

	lambda := s.Config.Search.Lambda
	if req.Lambda != nil {
		lambda = *req.Lambda
	}
	if req.Strategy == "similarity" {
		lambda = 1.0
	}

	k := req.K
	if k == 0 {
		k = 10
	}

	selected, metrics, err := s.Engine.Rerank(c.Request.Context(), queryVec, req.Candidates, k, lambda)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": selected, "metrics": metrics})
}
