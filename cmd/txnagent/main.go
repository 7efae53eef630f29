package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dineshram0212/bank-transaction-agent/internal/agent"
	"github.com/dineshram0212/bank-transaction-agent/internal/config"
	"github.com/dineshram0212/bank-transaction-agent/internal/ingest"
	"github.com/dineshram0212/bank-transaction-agent/internal/llm/openai"
	"github.com/dineshram0212/bank-transaction-agent/internal/logger"
	"github.com/dineshram0212/bank-transaction-agent/internal/mcp"
	"github.com/dineshram0212/bank-transaction-agent/internal/retrieval"
	"github.com/dineshram0212/bank-transaction-agent/internal/server"
	"github.com/dineshram0212/bank-transaction-agent/internal/store"
	"github.com/dineshram0212/bank-transaction-agent/internal/tool"
	"github.com/dineshram0212/bank-transaction-agent/internal/tool/finance"
	"github.com/dineshram0212/bank-transaction-agent/internal/vector"
)

var (
	configPath string
	clientID   string
	chartOut   string
	listenAddr string
	verbose    bool
	noColor    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "txnagent",
		Short: "Conversational agent over bank transactions",
		Long:  "An LLM-driven assistant that answers natural-language questions about bank transactions via a structured query tool and a visualization tool.",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config (default: txnagent.yaml search path)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	chatCmd := &cobra.Command{
		Use:   "chat [question]",
		Short: "Ask a question about a client's transactions",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runChat,
	}
	chatCmd.Flags().StringVar(&clientID, "client", "", "Client identifier (required)")
	chatCmd.Flags().StringVar(&chartOut, "chart-out", "", "Write the chart artifact, if any, to this HTML file")
	_ = chatCmd.MarkFlagRequired("client")

	indexCmd := &cobra.Command{
		Use:   "index [transactions.csv]",
		Short: "Load a transactions CSV into the store and build the vector index",
		Args:  cobra.ExactArgs(1),
		RunE:  runIndex,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the agent over HTTP with per-client sessions",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "Listen address (default from config)")

	rootCmd.AddCommand(chatCmd, indexCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, *config.Env, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return nil, nil, err
	}

	var cfg *config.Config
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadWithDefaults()
	}
	if err != nil {
		return nil, nil, err
	}

	if env.OpenAIAPIKey == "" {
		return nil, nil, fmt.Errorf("OpenAI API key required (set OPENAI_API_KEY)")
	}
	return cfg, env, nil
}

func buildIndex(cfg *config.Config, env *config.Env) (vector.Index, error) {
	switch cfg.Vector.Backend {
	case "qdrant":
		return vector.NewQdrantIndex(vector.QdrantOptions{
			Host:       cfg.Vector.Qdrant.Host,
			Port:       cfg.Vector.Qdrant.Port,
			APIKey:     env.QdrantAPIKey,
			Collection: cfg.Vector.Qdrant.Collection,
			UseTLS:     cfg.Vector.Qdrant.UseTLS,
		})
	default:
		return vector.NewMemoryIndex(), nil
	}
}

// runtime is the shared wiring behind the chat and serve commands.
type runtime struct {
	store *store.Store
	agent *agent.Agent

	mcpManager *mcp.Manager
}

func (r *runtime) Close() {
	if r.mcpManager != nil {
		r.mcpManager.Close()
	}
	r.store.Close()
}

func buildRuntime(ctx context.Context, cfg *config.Config, env *config.Env) (*runtime, error) {
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	llmClient := openai.NewClient(env.OpenAIAPIKey, cfg.Model.Name, cfg.Model.EmbeddingModel, env.OpenAIBaseURL)

	index, err := buildIndex(cfg, env)
	if err != nil {
		st.Close()
		return nil, err
	}

	// The in-memory backend does not persist, so rebuild it from the store.
	if mem, ok := index.(*vector.MemoryIndex); ok {
		logger.Info().Msg("building in-memory vector index")
		if err := ingest.NewIndexer(st, llmClient, mem).BuildFromStore(ctx); err != nil {
			st.Close()
			return nil, fmt.Errorf("build vector index: %w", err)
		}
	}

	retriever := retrieval.NewRetriever(llmClient, index, st, cfg.Retrieval.TopK)

	registry := tool.NewRegistry()
	if err := registry.Register(finance.NewQueryTool(st)); err != nil {
		st.Close()
		return nil, err
	}
	if err := registry.Register(finance.NewVisualizeTool()); err != nil {
		st.Close()
		return nil, err
	}

	rt := &runtime{store: st}
	if len(cfg.MCP.Servers) > 0 {
		rt.mcpManager = mcp.NewManager(registry)
		if err := rt.mcpManager.Initialize(ctx, cfg.MCP); err != nil {
			st.Close()
			return nil, err
		}
	}

	rt.agent = agent.New(llmClient, registry, retriever, agent.Config{
		Temperature:  cfg.Model.Temperature,
		MaxTokens:    cfg.Model.MaxTokens,
		MaxTurns:     cfg.Agent.MaxTurns,
		HistoryLimit: cfg.Agent.HistoryLimit,
	}, time.Duration(cfg.Model.TimeoutSeconds)*time.Second)

	return rt, nil
}

func runChat(cmd *cobra.Command, args []string) error {
	logger.Init(logger.Options{Verbose: verbose, NoColor: noColor})
	ctx := cmd.Context()

	cfg, env, err := loadConfig()
	if err != nil {
		return err
	}

	rt, err := buildRuntime(ctx, cfg, env)
	if err != nil {
		return err
	}
	defer rt.Close()

	exists, err := rt.store.ClientExists(ctx, clientID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("unknown client: %s", clientID)
	}

	session := agent.NewSession(rt.agent, clientID)
	turn, err := session.Ask(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Println(turn.Content)

	if turn.Chart != nil && chartOut != "" {
		if err := os.WriteFile(chartOut, turn.Chart.HTML, 0o644); err != nil {
			return fmt.Errorf("write chart: %w", err)
		}
		logger.Info().Str("path", chartOut).Msg("chart written")
	}

	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger.Init(logger.Options{Verbose: verbose, NoColor: noColor})
	ctx := cmd.Context()

	cfg, env, err := loadConfig()
	if err != nil {
		return err
	}

	rt, err := buildRuntime(ctx, cfg, env)
	if err != nil {
		return err
	}
	defer rt.Close()

	addr := listenAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	return server.New(rt.agent, rt.store).Run(addr)
}

func runIndex(cmd *cobra.Command, args []string) error {
	logger.Init(logger.Options{Verbose: verbose, NoColor: noColor})
	ctx := cmd.Context()

	cfg, env, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	llmClient := openai.NewClient(env.OpenAIAPIKey, cfg.Model.Name, cfg.Model.EmbeddingModel, env.OpenAIBaseURL)

	index, err := buildIndex(cfg, env)
	if err != nil {
		return err
	}

	return ingest.NewIndexer(st, llmClient, index).Run(ctx, args[0])
}
