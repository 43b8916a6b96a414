package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	OpenAIAPIKey        string `envconfig:"OPENAI_API_KEY"`
	EmbeddingModel      string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	EmbeddingDimensions int    `envconfig:"EMBEDDING_DIMENSIONS" default:"1536"`
	ChatModel           string `envconfig:"CHAT_MODEL" default:"gpt-4o-mini"`

	// Chunking
	MaxChunkChars int `envconfig:"MAX_CHUNK_CHARS" default:"1200"`
	MinChunkChars int `envconfig:"MIN_CHUNK_CHARS" default:"400"`
	ChunkOverlap  int `envconfig:"CHUNK_OVERLAP" default:"200"`

	// Indexing
	EmbedBatchSize int           `envconfig:"EMBED_BATCH_SIZE" default:"16"`
	IndexWorkers   int           `envconfig:"INDEX_WORKERS" default:"4"`
	MaxAttempts    int           `envconfig:"PROVIDER_MAX_ATTEMPTS" default:"3"`
	RetryBaseDelay time.Duration `envconfig:"RETRY_BASE_DELAY" default:"500ms"`

	// Retrieval
	TopK           int           `envconfig:"TOP_K" default:"5"`
	ScoreThreshold float64       `envconfig:"SCORE_THRESHOLD" default:"0.35"`
	StoreTimeout   time.Duration `envconfig:"STORE_TIMEOUT" default:"10s"`
	EmbedTimeout   time.Duration `envconfig:"EMBED_TIMEOUT" default:"30s"`

	// Orchestration
	MaxRounds    int           `envconfig:"MAX_ROUNDS" default:"5"`
	AgentTimeout time.Duration `envconfig:"AGENT_TIMEOUT" default:"60s"`

	// Ingest worker
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"5s"`

	// Optional S3 document source (extracted text objects)
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"askhr-documents"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Prefix    string `envconfig:"S3_PREFIX" default:"extracted/"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("ASKHR", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// Validate fails fast on configuration the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.MaxChunkChars <= 0 {
		return fmt.Errorf("MAX_CHUNK_CHARS must be positive, got %d", c.MaxChunkChars)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.MaxChunkChars {
		return fmt.Errorf("CHUNK_OVERLAP must be in [0, MAX_CHUNK_CHARS), got %d", c.ChunkOverlap)
	}
	if c.MinChunkChars < 0 || c.MinChunkChars > c.MaxChunkChars {
		return fmt.Errorf("MIN_CHUNK_CHARS must be in [0, MAX_CHUNK_CHARS], got %d", c.MinChunkChars)
	}
	if c.EmbeddingDimensions <= 0 {
		return fmt.Errorf("EMBEDDING_DIMENSIONS must be positive, got %d", c.EmbeddingDimensions)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("TOP_K must be positive, got %d", c.TopK)
	}
	if c.MaxRounds <= 0 {
		return fmt.Errorf("MAX_ROUNDS must be positive, got %d", c.MaxRounds)
	}
	return nil
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}
