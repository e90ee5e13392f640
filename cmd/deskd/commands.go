package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"deskpilot/internal/scoring"
	"deskpilot/internal/turn"
)

var (
	// chat/send flags
	chatChannel   string
	chatChatbot   string
	chatKnowledge []string
	agentID       string

	// rules update flags
	ruleScoreChange int
	ruleActive      bool

	// score flags
	scoreEmailDomain  string
	scorePhone        bool
	scoreNotes        string
	scoreResponseTime int
	scoreQuestions    int
	scoreKeywords     []string
)

func runChat(cmd *cobra.Command, args []string) error {
	app, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	address := args[0]
	fmt.Printf("Chatting as %s on channel %s. Ctrl-D to quit.\n", address, chatChannel)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		out, err := app.orchestrator.HandleInbound(ctx, turn.Inbound{
			OrganizationID:     orgID,
			ChatbotID:          chatChatbot,
			Channel:            chatChannel,
			ChannelAddress:     address,
			Content:            line,
			KnowledgeSourceIDs: chatKnowledge,
		})
		cancel()
		if err != nil {
			// Failed turns still carry the user-facing apology.
			if out != nil && out.Reply != "" {
				fmt.Printf("bot: %s\n", out.Reply)
			}
			fmt.Fprintf(os.Stderr, "turn failed: %v\n", err)
			continue
		}
		if out.Suppressed {
			fmt.Println("(conversation is human-operated; message routed to the assigned operator)")
			continue
		}
		fmt.Printf("bot: %s\n", out.Reply)
		if out.Escalated {
			fmt.Println("(escalation requested; operators notified)")
		}
	}
	return scanner.Err()
}

func runRulesList(cmd *cobra.Command, args []string) error {
	app, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	rules, err := app.store.ListRules(ctx, orgID)
	if err != nil {
		return err
	}
	if len(rules) == 0 {
		fmt.Println("No rules. Run `deskd rules seed` to install the defaults.")
		return nil
	}
	for _, r := range rules {
		state := "active"
		if !r.IsActive {
			state = "inactive"
		}
		fmt.Printf("%s  %-40s %-16s %+d  [%s]\n", r.ID, r.RuleName, r.RuleType, r.ScoreChange, state)
	}
	return nil
}

func runRulesSeed(cmd *cobra.Command, args []string) error {
	app, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	seeded, err := app.store.SeedDefaults(ctx, orgID)
	if err != nil {
		return err
	}
	if seeded {
		fmt.Printf("Seeded default scoring rules for organization %s.\n", orgID)
	} else {
		fmt.Printf("Organization %s already has its default rules.\n", orgID)
	}
	return nil
}

func runRulesUpdate(cmd *cobra.Command, args []string) error {
	app, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	var patch scoring.RulePatch
	if cmd.Flags().Changed("score-change") {
		patch.ScoreChange = &ruleScoreChange
	}
	if cmd.Flags().Changed("active") {
		patch.IsActive = &ruleActive
	}
	if patch.ScoreChange == nil && patch.IsActive == nil {
		return fmt.Errorf("nothing to update: pass --score-change and/or --active")
	}

	if err := app.scorer.UpdateRule(ctx, args[0], orgID, patch); err != nil {
		return err
	}
	fmt.Printf("Rule %s updated.\n", args[0])
	return nil
}

func runScore(cmd *cobra.Command, args []string) error {
	app, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	factors := scoring.Factors{
		EmailDomain:       scoreEmailDomain,
		PhoneProvided:     scorePhone,
		Notes:             scoreNotes,
		NumQuestionsAsked: scoreQuestions,
		KeywordsMentioned: scoreKeywords,
	}
	if scoreResponseTime >= 0 {
		factors.ResponseTimeSeconds = &scoreResponseTime
	}

	result, err := app.scorer.Score(ctx, orgID, factors)
	if err != nil {
		return err
	}
	fmt.Printf("Score: %d (%s)\n", result.Score, result.Quality)
	for _, reason := range result.Reasoning {
		fmt.Printf("  - %s\n", reason)
	}
	return nil
}

func runTakeover(cmd *cobra.Command, args []string) error {
	app, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	if err := app.handoff.Takeover(ctx, args[0], agentID); err != nil {
		return err
	}
	fmt.Printf("Conversation %s taken over by %s.\n", args[0], agentID)
	return nil
}

func runRelease(cmd *cobra.Command, args []string) error {
	app, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	if err := app.handoff.Release(ctx, args[0], agentID); err != nil {
		return err
	}
	fmt.Printf("Conversation %s released to the bot by %s.\n", args[0], agentID)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	app, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	status, err := app.handoff.GetStatus(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Mode: %s\n", status.Mode)
	if status.AssignedAgentID != nil {
		fmt.Printf("Assigned agent: %s\n", *status.AssignedAgentID)
	}
	if status.TakeoverStartedAt != nil {
		fmt.Printf("Takeover started: %s\n", status.TakeoverStartedAt.Format("2006-01-02 15:04:05 MST"))
	}
	return nil
}

func runSend(cmd *cobra.Command, args []string) error {
	app, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	conv, err := app.handoff.SendAgentMessage(ctx, handoffMessage(args[0], strings.Join(args[1:], " ")))
	if err != nil {
		return err
	}
	fmt.Printf("Message sent on conversation %s (mode: %s).\n", conv.ID, conv.Mode)
	return nil
}

func runKnowledgeLoad(cmd *cobra.Command, args []string) error {
	app, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	data, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[1], err)
	}
	if err := app.store.UpsertKnowledgeSource(ctx, args[0], string(data)); err != nil {
		return err
	}
	fmt.Printf("Knowledge source %s loaded (%d bytes).\n", args[0], len(data))
	return nil
}
