package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"deskpilot/internal/config"
	"deskpilot/internal/logging"
)

var (
	// Global flags
	configPath string
	verbose    bool
	orgID      string
	timeout    time.Duration

	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "deskd",
	Short: "deskpilot - AI customer support conversation core",
	Long: `deskpilot runs AI support conversations with human handoff.

The bot answers from configured knowledge sources within a token budget,
summarizing older history when a conversation outgrows it. Operators can take
over any conversation; while a conversation is human-operated the bot is
suppressed and inbound messages are routed to the operator instead.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		return logging.Init(level, cfg.Logging.Format)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

// chatCmd runs an interactive conversation loop against one contact point.
var chatCmd = &cobra.Command{
	Use:   "chat [channel-address]",
	Short: "Interactive conversation loop against one contact point",
	Long: `Starts a stdin/stdout conversation as the customer at the given
channel address. Each line is processed as one inbound message; the bot reply
(or a suppression notice, when an operator holds the conversation) is printed.

Example:
  deskd chat +15550001111 --knowledge kb-shipping,kb-returns`,
	Args: cobra.ExactArgs(1),
	RunE: runChat,
}

// rulesCmd manages the lead scoring rule table.
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage lead scoring rules",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the organization's scoring rules",
	RunE:  runRulesList,
}

var rulesSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the canonical default scoring rules",
	Long: `Inserts the default rule set for the organization. Idempotent: rules
the organization already has (by name) are left untouched.`,
	RunE: runRulesSeed,
}

var rulesUpdateCmd = &cobra.Command{
	Use:   "update [rule-id]",
	Short: "Update a rule's score change or active flag",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesUpdate,
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Evaluate lead scoring rules against a factor snapshot",
	Long: `Evaluates the organization's active rules against factors supplied
via flags and prints the score, quality tier, and per-rule reasoning.

Example:
  deskd score --email-domain acme.com --phone --keywords pricing,demo`,
	RunE: runScore,
}

// takeoverCmd assigns a conversation to a human operator.
var takeoverCmd = &cobra.Command{
	Use:   "takeover [conversation-id]",
	Short: "Take over a conversation as a human operator",
	Args:  cobra.ExactArgs(1),
	RunE:  runTakeover,
}

// releaseCmd returns a conversation to the bot.
var releaseCmd = &cobra.Command{
	Use:   "release [conversation-id]",
	Short: "Release a conversation back to the bot",
	Args:  cobra.ExactArgs(1),
	RunE:  runRelease,
}

// statusCmd shows a conversation's handoff state.
var statusCmd = &cobra.Command{
	Use:   "status [conversation-id]",
	Short: "Show a conversation's mode and assignment",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

// sendCmd sends an operator message to a contact point.
var sendCmd = &cobra.Command{
	Use:   "send [channel-address] [message]",
	Short: "Send an operator message to a contact point",
	Long: `Persists an operator-sent message. Creates the conversation in human
mode when none exists for the address and takes over when it is still served
by the bot.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSend,
}

// knowledgeCmd manages knowledge sources.
var knowledgeCmd = &cobra.Command{
	Use:   "knowledge",
	Short: "Manage knowledge sources",
}

var knowledgeLoadCmd = &cobra.Command{
	Use:   "load [source-id] [file]",
	Short: "Load a file as a knowledge source",
	Args:  cobra.ExactArgs(2),
	RunE:  runKnowledgeLoad,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "deskpilot.yaml", "Config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&orgID, "org", "default", "Organization id")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Per-operation timeout")

	chatCmd.Flags().StringVar(&chatChannel, "channel", "cli", "Channel name")
	chatCmd.Flags().StringVar(&chatChatbot, "chatbot", "default", "Chatbot id")
	chatCmd.Flags().StringSliceVar(&chatKnowledge, "knowledge", nil, "Knowledge source ids for context assembly")

	rulesUpdateCmd.Flags().IntVar(&ruleScoreChange, "score-change", 0, "New score change")
	rulesUpdateCmd.Flags().BoolVar(&ruleActive, "active", true, "New active flag")

	scoreCmd.Flags().StringVar(&scoreEmailDomain, "email-domain", "", "Lead email domain")
	scoreCmd.Flags().BoolVar(&scorePhone, "phone", false, "Lead provided a phone number")
	scoreCmd.Flags().StringVar(&scoreNotes, "notes", "", "Lead notes")
	scoreCmd.Flags().IntVar(&scoreResponseTime, "response-time", -1, "Lead response time in seconds (-1: unknown)")
	scoreCmd.Flags().IntVar(&scoreQuestions, "questions", 0, "Number of questions the lead asked")
	scoreCmd.Flags().StringSliceVar(&scoreKeywords, "keywords", nil, "Keywords mentioned by the lead")

	takeoverCmd.Flags().StringVar(&agentID, "agent", "", "Operator id (required)")
	takeoverCmd.MarkFlagRequired("agent")
	releaseCmd.Flags().StringVar(&agentID, "agent", "", "Operator id (required)")
	releaseCmd.MarkFlagRequired("agent")
	sendCmd.Flags().StringVar(&agentID, "agent", "", "Operator id (required)")
	sendCmd.Flags().StringVar(&chatChannel, "channel", "cli", "Channel name")
	sendCmd.Flags().StringVar(&chatChatbot, "chatbot", "default", "Chatbot id")
	sendCmd.MarkFlagRequired("agent")

	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesSeedCmd)
	rulesCmd.AddCommand(rulesUpdateCmd)
	knowledgeCmd.AddCommand(knowledgeLoadCmd)

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(takeoverCmd)
	rootCmd.AddCommand(releaseCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(knowledgeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
