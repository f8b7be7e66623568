package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type GraphStoreConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type LLMConfig struct {
	Provider       string `toml:"provider"`
	EmbeddingModel string `toml:"embedding_model"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
}

type ResolverConfig struct {
	MinSimilarity   float64 `toml:"min_similarity"`
	CacheTTLSeconds int     `toml:"cache_ttl_seconds"`
}

type TraversalConfig struct {
	FanOut              int     `toml:"fan_out"`
	ResolutionThreshold float64 `toml:"resolution_threshold"`
}

type RankingConfig struct {
	InDegreeWeight      float64 `toml:"in_degree_weight"`
	CourtLevelWeight    float64 `toml:"court_level_weight"`
	RecencyWeight       float64 `toml:"recency_weight"`
	RecencyHalfLifeDays float64 `toml:"recency_half_life_days"`
}

type ConflictConfig struct {
	AuthorityOverlapWeight float64 `toml:"authority_overlap_weight"`
	DispositionWeight      float64 `toml:"disposition_weight"`
	CitationTensionWeight  float64 `toml:"citation_tension_weight"`
	MinConfidence          float64 `toml:"min_confidence"`
}

type SearchConfig struct {
	Metric    string  `toml:"metric"`
	Lambda    float64 `toml:"lambda"`
	FetchSize int     `toml:"fetch_size"`
}

type Config struct {
	GraphStore GraphStoreConfig `toml:"graph_store"`
	LLM        LLMConfig        `toml:"llm"`
	Resolver   ResolverConfig   `toml:"resolver"`
	Traversal  TraversalConfig  `toml:"traversal"`
	Ranking    RankingConfig    `toml:"ranking"`
	Conflict   ConflictConfig   `toml:"conflict"`
	Search     SearchConfig     `toml:"search"`
}

// Default returns the tuning defaults. Weight values are deliberately
// configuration, not constants: they are pending empirical calibration.
func Default() *Config {
	return &Config{
		GraphStore: GraphStoreConfig{URI: "bolt://localhost:7687"},
		Resolver: ResolverConfig{
			MinSimilarity:   0.8,
			CacheTTLSeconds: 300,
		},
		Traversal: TraversalConfig{
			FanOut:              8,
			ResolutionThreshold: 0.75,
		},
		Ranking: RankingConfig{
			InDegreeWeight:      0.5,
			CourtLevelWeight:    0.3,
			RecencyWeight:       0.2,
			RecencyHalfLifeDays: 3650,
		},
		Conflict: ConflictConfig{
			AuthorityOverlapWeight: 0.4,
			DispositionWeight:      0.35,
			CitationTensionWeight:  0.25,
			MinConfidence:          0.5,
		},
		Search: SearchConfig{
			Metric:    "cosine",
			Lambda:    0.7,
			FetchSize: 50,
		},
	}
}

// Load reads a TOML config file over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}
