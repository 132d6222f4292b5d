package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/anand/mathdrill/internal/app"
	"github.com/anand/mathdrill/internal/config"
	"github.com/anand/mathdrill/internal/grading"
	"github.com/anand/mathdrill/internal/history"
	"github.com/anand/mathdrill/internal/llm"
	"github.com/anand/mathdrill/internal/question"
	"github.com/anand/mathdrill/internal/quiz"
	"github.com/anand/mathdrill/internal/store"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start a practice session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlay(cmd)
	},
}

func runPlay(cmd *cobra.Command) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
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

	provider, err := llm.NewProviderFromEnv(ctx, eventRepo)
	if err != nil {
		return fmt.Errorf("no LLM provider configured (set GEMINI_API_KEY, OPENAI_API_KEY, or ANTHROPIC_API_KEY): %w", err)
	}

	source := question.NewSource(provider, question.DefaultConfig())
	oracle := grading.NewOracle(provider)

	var sink history.Sink = history.NopSink{}
	if cfg.Workbook.Path != "" {
		wb := history.NewWorkbookSink(cfg.Workbook.Path)
		if cfg.Workbook.Async {
			async := history.NewAsyncSink(wb)
			defer async.Close()
			sink = async
		} else {
			sink = wb
		}
	}

	machine, err := quiz.NewMachine(cfg.QuizConfig(), source, oracle, sink)
	if err != nil {
		return fmt.Errorf("configure session: %w", err)
	}
	machine.LogEventsTo(eventRepo)

	return app.Run(app.Options{
		Machine:   machine,
		EventRepo: eventRepo,
		Config:    cfg,
	})
}

// loadConfig reads the config file named by --config, or the default
// XDG location.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return config.Config{}, err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
