package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alertavert/majordomo-cli/internal/audio"
	"github.com/alertavert/majordomo-cli/internal/config"
	"github.com/alertavert/majordomo-cli/internal/conversation"
	"github.com/alertavert/majordomo-cli/internal/gateway"
	"github.com/alertavert/majordomo-cli/internal/history"
	"github.com/alertavert/majordomo-cli/internal/tui"
)

var (
	historyLimit int

	rootCmd = &cobra.Command{
		Use:   "majordomo",
		Short: "Talk to the Majordomo assistant from your terminal",
		Long: `majordomo is a TUI client for the Majordomo assistant server.
It lets you pick a project and conversation, type or speak a request,
and read the assistant's response without leaving the terminal.`,
		RunE: runTUI,
	}

	showCmd = &cobra.Command{
		Use:   "show [project]",
		Short: "Show projects or conversations without the TUI",
		Long: `Show server-side state in a non-interactive format.
Without arguments: lists all projects, marking the active one
With a project name: lists the conversations in that project`,
		RunE: runShow,
	}

	historyCmd = &cobra.Command{
		Use:   "history [session-id]",
		Short: "Browse locally recorded transcripts",
		Long: `Browse the transcripts this client recorded.
Without arguments: per-project activity summary
With a session ID: the most recent exchanges of that conversation`,
		RunE: runHistory,
	}
)

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of exchanges to show")
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	client := gateway.New(cfg.Server.URL, cfg.Server.Timeout())
	recorder := audio.NewRecorder(audio.Config{
		Command:     cfg.Audio.Command,
		InputFormat: cfg.Audio.InputFormat,
		InputDevice: cfg.Audio.InputDevice,
	})
	transcripts := history.NewLog(cfg.History.Dir)
	orch := conversation.New(client, transcripts)

	return tui.Run(context.Background(), client, orch, recorder)
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	client := gateway.New(cfg.Server.URL, cfg.Server.Timeout())
	ctx := cmd.Context()

	switch len(args) {
	case 0:
		return showProjects(ctx, client)
	case 1:
		return showConversations(ctx, client, args[0])
	default:
		return fmt.Errorf("too many arguments. Usage: majordomo show [project]")
	}
}

func showProjects(ctx context.Context, client *gateway.Client) error {
	active, projects, err := client.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch projects: %w", err)
	}

	if len(projects) == 0 {
		fmt.Println("No projects found")
		return nil
	}

	fmt.Println("Projects:")
	fmt.Println("=========")
	for i, project := range projects {
		marker := " "
		if project.Name == active {
			marker = "*"
		}
		fmt.Printf("%d. %s %s\n", i+1, marker, project.Name)
		if project.Description != "" {
			fmt.Printf("     %s\n", project.Description)
		}
		if project.Location != "" {
			fmt.Printf("     Location: %s\n", project.Location)
		}
	}
	fmt.Println("\n(* marks the active project)")
	return nil
}

func showConversations(ctx context.Context, client *gateway.Client, project string) error {
	sessions, err := client.ListSessions(ctx, project)
	if err != nil {
		return fmt.Errorf("failed to fetch conversations: %w", err)
	}

	if len(sessions) == 0 {
		fmt.Printf("No conversations found for project '%s'\n", project)
		return nil
	}

	fmt.Printf("Conversations in project '%s':\n", project)
	fmt.Println("===================================")
	for i, session := range sessions {
		fmt.Printf("%d. %s\n", i+1, session.Label())
		fmt.Printf("   Session ID: %s\n", session.SessionID)
		fmt.Printf("   Scenario: %s\n", session.Scenario)
		if session.Description != "" {
			fmt.Printf("   %s\n", session.Description)
		}
		fmt.Println()
	}
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	ctx := cmd.Context()

	switch len(args) {
	case 0:
		return showActivity(ctx, cfg.History.Dir)
	case 1:
		return showExchanges(ctx, cfg.History.Dir, args[0])
	default:
		return fmt.Errorf("too many arguments. Usage: majordomo history [session-id]")
	}
}

func showActivity(ctx context.Context, dir string) error {
	activity, err := history.FetchProjectActivity(ctx, dir)
	if err != nil {
		return fmt.Errorf("failed to query transcripts: %w", err)
	}

	if len(activity) == 0 {
		fmt.Println("No transcripts recorded yet")
		return nil
	}

	fmt.Println("Recorded activity:")
	fmt.Println("==================")
	for i, project := range activity {
		fmt.Printf("%d. %s\n", i+1, project.Project)
		fmt.Printf("   Conversations: %d\n", project.SessionCount)
		fmt.Printf("   Entries: %d\n", project.EntryCount)
		fmt.Printf("   Last Activity: %s\n", project.LastActivity.Format("2006-01-02 15:04"))
		fmt.Println()
	}
	return nil
}

func showExchanges(ctx context.Context, dir, sessionID string) error {
	exchanges, err := history.FetchRecentExchanges(ctx, dir, sessionID, historyLimit)
	if err != nil {
		return fmt.Errorf("failed to query transcripts: %w", err)
	}

	if len(exchanges) == 0 {
		fmt.Printf("No transcript found for session '%s'\n", sessionID)
		return nil
	}

	fmt.Printf("Recent exchanges for session '%s':\n", sessionID)
	fmt.Println("================================================")
	for _, exchange := range exchanges {
		fmt.Printf("\n[%s] %s:\n%s\n", exchange.Timestamp.Format("2006-01-02 15:04"), exchange.Role, exchange.Content)
	}
	return nil
}
