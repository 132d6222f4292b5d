package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anand/mathdrill/internal/llm"
	"github.com/anand/mathdrill/internal/question"
	"github.com/anand/mathdrill/internal/store"
)

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Generate a multiple-choice quiz without starting a session",
	Long:  "Generates a batch of multiple-choice questions for a topic and prints them. When a student is named, their weak topics feed into the prompt.",
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, _ := cmd.Flags().GetString("topic")
		grade, _ := cmd.Flags().GetString("grade")
		curriculum, _ := cmd.Flags().GetString("curriculum")
		student, _ := cmd.Flags().GetString("student")
		count, _ := cmd.Flags().GetInt("count")
		showAnswers, _ := cmd.Flags().GetBool("answers")

		if topic == "" || grade == "" {
			return fmt.Errorf("--topic and --grade are required")
		}

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

		ctx := context.Background()

		// Weak topics from past sessions steer the generator toward
		// what the student struggles with.
		var learnerContext string
		if student != "" {
			summary, err := eventRepo.Summarize(ctx, student)
			if err == nil && len(summary.WeakTopics) > 0 {
				learnerContext = fmt.Sprintf(
					"The student has been struggling with: %s. Weave in review where it fits.",
					strings.Join(summary.WeakTopics, ", "))
			}
		}

		provider, err := llm.NewProviderFromEnv(ctx, eventRepo)
		if err != nil {
			return fmt.Errorf("no LLM provider configured: %w", err)
		}

		gen := question.NewQuizGenerator(provider, question.DefaultConfig())
		items, err := gen.Generate(ctx, question.QuizRequest{
			Topic:          topic,
			Grade:          grade,
			Curriculum:     curriculum,
			Count:          count,
			LearnerContext: learnerContext,
		})
		if err != nil {
			return fmt.Errorf("generate quiz: %w", err)
		}

		fmt.Printf("Quiz: %s (%s) — %d questions\n", topic, grade, len(items))
		fmt.Println(strings.Repeat("─", 60))
		for i, item := range items {
			fmt.Printf("\n%d. %s\n", i+1, item.Question)
			for j, opt := range item.Options {
				fmt.Printf("   %c) %s\n", 'A'+j, opt)
			}
			if showAnswers {
				fmt.Printf("   Answer: %s\n", item.CorrectAnswer)
				if item.Explanation != "" {
					fmt.Printf("   Why: %s\n", item.Explanation)
				}
			}
		}
		return nil
	},
}

func init() {
	quizCmd.Flags().StringP("topic", "t", "", "Topic to quiz on (required)")
	quizCmd.Flags().StringP("grade", "g", "", "Grade level, e.g. \"Grade 6\" (required)")
	quizCmd.Flags().String("curriculum", "", "Curriculum hint, e.g. CBSE, Common Core")
	quizCmd.Flags().StringP("student", "s", "", "Student name, for weak-topic context")
	quizCmd.Flags().IntP("count", "n", 5, "Number of questions")
	quizCmd.Flags().Bool("answers", false, "Print answers and explanations")
}
