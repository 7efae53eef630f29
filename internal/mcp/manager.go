package mcp

import (
	"context"
	"fmt"
	"sync"

	"github.com/dineshram0212/bank-transaction-agent/internal/config"
	"github.com/dineshram0212/bank-transaction-agent/internal/logger"
	"github.com/dineshram0212/bank-transaction-agent/internal/tool"
)

// Manager starts the configured MCP servers and registers their tools.
type Manager struct {
	clients  map[string]*Client
	registry *tool.Registry
	mu       sync.Mutex
}

func NewManager(registry *tool.Registry) *Manager {
	return &Manager{
		clients:  make(map[string]*Client),
		registry: registry,
	}
}

// Initialize connects all enabled servers from config. A subset of servers
// failing is tolerated; the conversation works with whatever connected.
func (m *Manager) Initialize(ctx context.Context, cfg config.MCPConfig) error {
	var failures []error

	for _, serverCfg := range cfg.Servers {
		if serverCfg.Disabled {
			continue
		}
		if err := m.startServer(ctx, serverCfg); err != nil {
			logger.Warn().Str("server", serverCfg.Name).Err(err).Msg("mcp server failed to start")
			failures = append(failures, fmt.Errorf("server %s: %w", serverCfg.Name, err))
			continue
		}
		logger.Info().Str("server", serverCfg.Name).Msg("mcp server connected")
	}

	if len(failures) > 0 && len(m.clients) == 0 {
		return fmt.Errorf("all MCP servers failed to initialize: %v", failures)
	}
	return nil
}

func (m *Manager) startServer(ctx context.Context, serverCfg config.MCPServerConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	client, err := NewClient(ctx, serverCfg.Name, serverCfg.Command, serverCfg.Args, config.ExpandEnvMap(serverCfg.Env))
	if err != nil {
		return err
	}

	for _, mcpTool := range client.Tools() {
		adapter := NewToolAdapter(client, mcpTool)
		if err := m.registry.Register(adapter); err != nil {
			client.Close()
			return fmt.Errorf("failed to register tool %s: %w", adapter.Name(), err)
		}
	}

	m.clients[serverCfg.Name] = client
	return nil
}

// Close shuts down all connected servers.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for name, client := range m.clients {
		if err := client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("server %s: %w", name, err))
		}
	}
	m.clients = make(map[string]*Client)

	if len(errs) > 0 {
		return fmt.Errorf("errors closing servers: %v", errs)
	}
	return nil
}

// ServerCount returns the number of connected servers.
func (m *Manager) ServerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}
