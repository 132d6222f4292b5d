package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anand/mathdrill/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats <student>",
	Short: "Show a student's practice history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		student := args[0]

		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
		st, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		eventRepo, err := st.EventRepo()
		if err != nil {
			return fmt.Errorf("open event repo: %w", err)
		}

		summary, err := eventRepo.Summarize(context.Background(), student)
		if err != nil {
			return fmt.Errorf("summarize: %w", err)
		}

		if summary.Sessions == 0 {
			fmt.Printf("No completed sessions for %s yet.\n", student)
			return nil
		}

		fmt.Printf("Student:        %s\n", summary.Student)
		fmt.Printf("Sessions:       %d\n", summary.Sessions)
		fmt.Printf("Average score:  %.1f%%\n", summary.AverageScore)
		if !summary.LastPracticed.IsZero() {
			fmt.Printf("Last practiced: %s\n", summary.LastPracticed.Local().Format("2006-01-02 15:04"))
		}

		fmt.Println()
		fmt.Println("By Topic")
		fmt.Println(strings.Repeat("─", 56))
		fmt.Printf("%-32s  %8s  %10s\n", "Topic", "Sessions", "Avg Score")
		fmt.Println(strings.Repeat("─", 56))
		for _, ta := range summary.Topics {
			fmt.Printf("%-32s  %8d  %9.1f%%\n", truncate(ta.Topic, 32), ta.Sessions, ta.AverageScore)
		}

		if len(summary.WeakTopics) > 0 {
			fmt.Println()
			fmt.Printf("Needs more practice: %s\n", strings.Join(summary.WeakTopics, ", "))
		}
		return nil
	},
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
