package core

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/helioscrm/cognition-go/pkg/autonomy"
	"github.com/helioscrm/cognition-go/pkg/extraction"
	"github.com/helioscrm/cognition-go/pkg/llm"
	openaiLLM "github.com/helioscrm/cognition-go/pkg/llm/openai"
	"github.com/helioscrm/cognition-go/pkg/memory"
	"github.com/helioscrm/cognition-go/pkg/store"
	postgresStore "github.com/helioscrm/cognition-go/pkg/store/postgres"
	ristrettoStore "github.com/helioscrm/cognition-go/pkg/store/ristretto"
	sqliteStore "github.com/helioscrm/cognition-go/pkg/store/sqlite"
)

// Client is the assistant-loop entry point into the cognitive core.
//
// The outer assistant turn loop calls IngestTurn once per inbound message,
// RenderContext when building the next prompt, Decide when the assistant
// proposes a tool call, and RecordOutcome after the action resolves. The
// memory and autonomy components never call each other; they share nothing
// but the state store.
//
// Memory and autonomy are enhancements to the conversation, not its critical
// path: no method here fails the enclosing turn because an extraction call or
// a store write failed. Worst case is degraded personalization.
type Client struct {
	config    *Config
	store     store.Store
	llm       llm.Provider
	extractor extraction.Extractor
	memory    *memory.Manager
	autonomy  *autonomy.Engine
	logger    zerolog.Logger
}

// Option configures a Client beyond its Config.
type Option func(*clientOptions)

type clientOptions struct {
	logger    zerolog.Logger
	store     store.Store
	extractor extraction.Extractor
}

// WithLogger sets the logger used by all components.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// WithStore injects a pre-built state store, bypassing Config.Store.
func WithStore(st store.Store) Option {
	return func(o *clientOptions) {
		o.store = st
	}
}

// WithExtractor injects a pre-built extractor, bypassing the LLM-backed one.
func WithExtractor(ex extraction.Extractor) Option {
	return func(o *clientOptions) {
		o.extractor = ex
	}
}

// NewClient creates a cognition client from the given configuration.
func NewClient(cfg *Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &clientOptions{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(options)
	}

	st := options.store
	if st == nil {
		var err error
		st, err = initStore(cfg.Store)
		if err != nil {
			return nil, NewCoreError("NewClient", err)
		}
	}

	var provider llm.Provider
	extractor := options.extractor
	if extractor == nil {
		var err error
		provider, err = openaiLLM.NewClient(&openaiLLM.Config{
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.Model,
			BaseURL: cfg.LLM.BaseURL,
		})
		if err != nil {
			return nil, NewCoreError("NewClient", err)
		}
		extractor = extraction.NewLLMExtractor(provider, &extraction.Config{
			Timeout: cfg.LLM.Timeout,
			Logger:  options.logger.With().Str("component", "extraction").Logger(),
		})
	}

	catalog := autonomy.DefaultCatalog()
	if cfg.Autonomy.CatalogPath != "" {
		var err error
		catalog, err = autonomy.LoadCatalogFile(cfg.Autonomy.CatalogPath)
		if err != nil {
			return nil, NewCoreError("NewClient", err)
		}
	}

	mem := memory.NewManager(st, extractor, &memory.Config{
		TTL:    cfg.Memory.TTL,
		Logger: options.logger.With().Str("component", "memory").Logger(),
	})

	engine, err := autonomy.NewEngine(st, catalog, &autonomy.Config{
		AuditRetention: cfg.Autonomy.AuditRetention,
		Logger:         options.logger.With().Str("component", "autonomy").Logger(),
	})
	if err != nil {
		return nil, NewCoreError("NewClient", err)
	}

	return &Client{
		config:    cfg,
		store:     st,
		llm:       provider,
		extractor: extractor,
		memory:    mem,
		autonomy:  engine,
		logger:    options.logger,
	}, nil
}

// initStore builds the configured state store backend.
func initStore(cfg StoreConfig) (store.Store, error) {
	switch cfg.Provider {
	case "ristretto":
		return ristrettoStore.New(nil)
	case "sqlite":
		return sqliteStore.New(&sqliteStore.Config{
			DBPath:    cfg.DBPath,
			TableName: cfg.TableName,
		})
	case "postgres":
		return postgresStore.New(&postgresStore.Config{
			Host:      cfg.Host,
			Port:      cfg.Port,
			User:      cfg.User,
			Password:  cfg.Password,
			DBName:    cfg.DBName,
			SSLMode:   cfg.SSLMode,
			TableName: cfg.TableName,
		})
	default:
		return nil, fmt.Errorf("unknown store provider %q", cfg.Provider)
	}
}

// InitializeConversation loads or creates the memory record for a
// conversation, refreshing its sliding expiry.
func (c *Client) InitializeConversation(ctx context.Context, workspaceID, userID, conversationID string) (*memory.MemoryRecord, error) {
	rec, err := c.memory.Initialize(ctx, workspaceID, userID, conversationID)
	return rec, NewCoreError("InitializeConversation", err)
}

// IngestTurn folds one new turn into the conversation's memory.
func (c *Client) IngestTurn(ctx context.Context, conversationID string, newTurn memory.Turn, fullHistory []memory.Turn) (*memory.MemoryRecord, error) {
	rec, err := c.memory.Ingest(ctx, conversationID, newTurn, fullHistory)
	return rec, NewCoreError("IngestTurn", err)
}

// RenderContext formats a memory record into the block injected into model
// prompts.
func (c *Client) RenderContext(rec *memory.MemoryRecord) string {
	return c.memory.RenderContext(rec)
}

// WindowedHistory returns the turns not yet folded into the record's
// summary.
func (c *Client) WindowedHistory(rec *memory.MemoryRecord, fullHistory []memory.Turn) []memory.Turn {
	return c.memory.WindowedHistory(rec, fullHistory)
}

// ResetConversation explicitly forgets a conversation's memory.
func (c *Client) ResetConversation(ctx context.Context, conversationID string) error {
	return NewCoreError("ResetConversation", c.memory.Reset(ctx, conversationID))
}

// Decide determines whether a proposed tool action may run unattended.
func (c *Client) Decide(ctx context.Context, toolName, userID, workspaceID string) autonomy.Decision {
	return c.autonomy.Decide(ctx, toolName, userID, workspaceID)
}

// RecordOutcome records a resolved tool action and feeds any explicit user
// feedback into the learning update.
func (c *Client) RecordOutcome(ctx context.Context, outcome autonomy.Outcome) error {
	return NewCoreError("RecordOutcome", c.autonomy.RecordOutcome(ctx, outcome))
}

// AutonomySummary aggregates a user's learned tool preferences.
func (c *Client) AutonomySummary(ctx context.Context, workspaceID, userID string) (*autonomy.UserSummary, error) {
	summary, err := c.autonomy.Summary(ctx, workspaceID, userID)
	return summary, NewCoreError("AutonomySummary", err)
}

// Close releases the client's resources.
func (c *Client) Close() error {
	var firstErr error
	if c.llm != nil {
		if err := c.llm.Close(); err != nil {
			firstErr = err
		}
	}
	if err := c.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return NewCoreError("Close", firstErr)
}
