package main

import (
	"fmt"

	"deskpilot/internal/config"
	"deskpilot/internal/contextmgr"
	"deskpilot/internal/handoff"
	"deskpilot/internal/llm"
	"deskpilot/internal/notify"
	"deskpilot/internal/scoring"
	"deskpilot/internal/store"
	"deskpilot/internal/turn"
	"deskpilot/internal/types"
)

// app wires the full component graph once per command invocation.
type app struct {
	store        *store.LocalStore
	notifier     types.Notifier
	orchestrator *turn.Orchestrator
	handoff      *handoff.Manager
	scorer       *scoring.Service
}

func newApp(cfg *config.Config) (*app, error) {
	s, err := store.NewLocalStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	notifier, err := notify.FromConfig(cfg.Notify)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to connect notifier: %w", err)
	}

	llmCfg, err := llm.FromAppConfig(cfg.LLM)
	if err != nil {
		s.Close()
		return nil, err
	}
	client, err := llm.NewClient(llmCfg)
	if err != nil {
		s.Close()
		return nil, err
	}

	mgr := contextmgr.New(s, contextmgr.NewLLMSummarizer(client), contextmgr.Config{
		TokenBudget:  cfg.Context.TokenBudget,
		RecentWindow: cfg.Context.RecentWindow,
	})
	scorer := scoring.NewService(s)

	return &app{
		store:        s,
		notifier:     notifier,
		orchestrator: turn.New(s, s, mgr, client, scorer, notifier),
		handoff:      handoff.New(s, s, s.AuditLog(), notifier),
		scorer:       scorer,
	}, nil
}

func (a *app) Close() {
	if p, ok := a.notifier.(*notify.Publisher); ok {
		p.Close()
	}
	a.store.Close()
}

// handoffMessage builds an operator message for the send command from the
// global channel flags.
func handoffMessage(address, content string) handoff.AgentMessage {
	return handoff.AgentMessage{
		OrganizationID: orgID,
		ChatbotID:      chatChatbot,
		Channel:        chatChannel,
		ChannelAddress: address,
		AgentID:        agentID,
		Content:        content,
	}
}
