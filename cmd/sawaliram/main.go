package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sawaliram/sawaliram/internal/config"
	"github.com/sawaliram/sawaliram/internal/database"
	"github.com/sawaliram/sawaliram/internal/logging"
	"github.com/sawaliram/sawaliram/internal/pipeline"
	"github.com/sawaliram/sawaliram/internal/richtext"
	"github.com/sawaliram/sawaliram/internal/server"
	"github.com/sawaliram/sawaliram/internal/storage"
	"github.com/sawaliram/sawaliram/internal/validate"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
	logger     = zap.NewNop()
)

func main() {
	defer func() { _ = logger.Sync() }()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "sawaliram",
	Short:   "Children's science question pipeline",
	Long:    "Sawaliram takes spreadsheets of children's science questions through intake, curation, encoding and answering.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		logger, err = logging.New(cfg.Logging.Level, verbose)
		if err != nil {
			return err
		}
		zap.ReplaceGlobals(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(answerCmd)
	rootCmd.AddCommand(questionsCmd)
	rootCmd.AddCommand(pendingCmd)
	rootCmd.AddCommand(cleanAnswersCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("sawaliram", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/sawaliram/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Set the token secret in the environment variable named by auth.jwt_secret_env.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and pipeline status",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, db, err := openEngine()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := cmd.Context()
		stats, err := engine.Stats(ctx)
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Database: %s\n", db.Path())
		fmt.Printf("Storage:  %s\n\n", cfg.GetStorageRoot())
		fmt.Println("Questions:")
		fmt.Printf("  Raw datasets: %d\n", stats.Datasets)
		fmt.Printf("  Raw questions: %d\n", stats.RawQuestions)
		fmt.Printf("  Curated: %d\n", stats.Questions)
		fmt.Printf("  Encoded: %d\n", stats.EncodedQuestions)
		fmt.Println("\nAnswers:")
		fmt.Printf("  Total: %d\n", stats.Answers)
		fmt.Printf("  Unanswered questions: %d\n", stats.UnansweredQuestions)
		fmt.Println("\nPending:")
		fmt.Printf("  Curation: %d\n", stats.PendingCuration)
		fmt.Printf("  Encoding: %d\n", stats.PendingEncoding)

		datasets, err := engine.ListDatasets(ctx)
		if err != nil {
			return err
		}
		if len(datasets) > 0 {
			fmt.Println("\nRecent datasets:")
			for i, d := range datasets {
				if i == 5 {
					break
				}
				fmt.Printf("  [%d] %d question(s) by %s (%s)\n", d.ID, d.QuestionCount, d.SubmittedBy, d.Status)
			}
		}
		return nil
	},
}

// --- validate command ---

var validateCmd = &cobra.Command{
	Use:   "validate FILE",
	Short: "Check a raw question sheet without storing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, db, err := openEngine()
		if err != nil {
			return err
		}
		defer db.Close()

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		errs, err := engine.Validate(f)
		if err != nil {
			return err
		}
		if len(errs) == 0 {
			fmt.Println("Sheet is valid.")
			return nil
		}
		printValidation(errs)
		return fmt.Errorf("%d row(s) failed validation", len(errs))
	},
}

func printValidation(errs validate.Errors) {
	for _, re := range errs {
		fmt.Printf("%s:\n", re.Row)
		for _, msg := range re.Messages {
			fmt.Printf("  - %s\n", msg)
		}
	}
}

// --- submit command ---

var submitAs string

var submitCmd = &cobra.Command{
	Use:       "submit raw|curated|encoded FILE",
	Short:     "Submit a sheet at one pipeline stage",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"raw", "curated", "encoded"},
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, db, err := openEngine()
		if err != nil {
			return err
		}
		defer db.Close()

		var submit func(context.Context, io.Reader, string) (*pipeline.Result, error)
		switch args[0] {
		case "raw":
			submit = engine.SubmitRaw
		case "curated":
			submit = engine.SubmitCurated
		case "encoded":
			submit = engine.SubmitEncoded
		default:
			return fmt.Errorf("unknown stage %q (want raw, curated or encoded)", args[0])
		}

		f, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close()

		res, err := submit(cmd.Context(), f, submitAs)
		if err != nil {
			var verr *validate.ValidationError
			if errors.As(err, &verr) {
				printValidation(verr.Errors)
			}
			return err
		}

		fmt.Println(res.Message)
		fmt.Printf("  Submission: %d\n", res.SubmissionID)
		fmt.Printf("  Questions: %d\n", res.Questions)
		for _, a := range res.Artifacts {
			fmt.Printf("  Wrote %s\n", a)
		}
		return nil
	},
}

func init() {
	submitCmd.Flags().StringVar(&submitAs, "as", "", "Name of the submitting user")
	_ = submitCmd.MarkFlagRequired("as")
}

// --- answer command ---

var (
	answerAs       string
	answerMarkdown bool
)

var answerCmd = &cobra.Command{
	Use:   "answer QUESTION_ID FILE",
	Short: "Attach an HTML or Markdown answer to a curated question",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		questionID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid question ID: %s", args[0])
		}

		body, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		text := string(body)
		if answerMarkdown {
			if text, err = richtext.MarkdownToHTML(body); err != nil {
				return err
			}
		}

		engine, db, err := openEngine()
		if err != nil {
			return err
		}
		defer db.Close()

		id, err := engine.SubmitAnswer(cmd.Context(), questionID, text, answerAs)
		if err != nil {
			return err
		}
		fmt.Printf("Added answer [%d] to question %d\n", id, questionID)
		return nil
	},
}

func init() {
	answerCmd.Flags().StringVar(&answerAs, "as", "", "Name of the answering user")
	answerCmd.Flags().BoolVar(&answerMarkdown, "markdown", false, "Treat FILE as Markdown and convert it to HTML")
	_ = answerCmd.MarkFlagRequired("as")
}

// --- questions command ---

var (
	questionStates     []string
	questionUnanswered bool
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "List curated questions",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, db, err := openEngine()
		if err != nil {
			return err
		}
		defer db.Close()

		var qs []database.Question
		if questionUnanswered {
			qs, err = engine.ListUnanswered(cmd.Context())
		} else {
			var list *pipeline.QuestionList
			list, err = engine.ListQuestions(cmd.Context(), questionStates)
			if list != nil {
				qs = list.Questions
			}
		}
		if err != nil {
			return err
		}

		if len(qs) == 0 {
			fmt.Println("No questions found.")
			return nil
		}
		for _, q := range qs {
			fmt.Printf("  [%d] %s\n", q.ID, deref(q.QuestionText))
			if q.State != nil {
				fmt.Printf("        %s\n", *q.State)
			}
		}
		return nil
	},
}

func init() {
	questionsCmd.Flags().StringSliceVar(&questionStates, "state", nil, "Only list questions from these states")
	questionsCmd.Flags().BoolVar(&questionUnanswered, "unanswered", false, "Only list questions with no answer")
}

// --- pending command ---

var pendingCmd = &cobra.Command{
	Use:       "pending curation|encoding",
	Short:     "List batches waiting for curation or encoding",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"curation", "encoding"},
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, db, err := openEngine()
		if err != nil {
			return err
		}
		defer db.Close()

		type pending struct {
			id    int64
			name  string
			count int
		}
		var items []pending
		var stage storage.Stage

		switch args[0] {
		case "curation":
			subs, err := engine.ListPendingCuration(cmd.Context())
			if err != nil {
				return err
			}
			for _, s := range subs {
				items = append(items, pending{s.SubmissionID, s.ExcelSheetName, s.NumberOfQuestions})
			}
			stage = storage.StageUncurated
		case "encoding":
			subs, err := engine.ListPendingEncoding(cmd.Context())
			if err != nil {
				return err
			}
			for _, s := range subs {
				items = append(items, pending{s.SubmissionID, s.ExcelSheetName, s.NumberOfQuestions})
			}
			stage = storage.StageUnencoded
		default:
			return fmt.Errorf("unknown queue %q (want curation or encoding)", args[0])
		}

		if len(items) == 0 {
			fmt.Printf("Nothing waiting for %s.\n", args[0])
			return nil
		}
		sort.Slice(items, func(i, j int) bool { return items[i].id < items[j].id })
		store := storage.New(cfg.GetStorageRoot())
		for _, p := range items {
			path, err := store.Path(stage, p.name)
			if err != nil {
				return err
			}
			fmt.Printf("  [%d] %d question(s): %s\n", p.id, p.count, path)
		}
		return nil
	},
}

var cleanAnswersCmd = &cobra.Command{
	Use:   "clean-answers",
	Short: "Remove empty paragraphs and repeated line breaks from stored answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, db, err := openEngine()
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := engine.CleanAnswers(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Cleaned %d answer(s).\n", n)
		return nil
	},
}

// --- token command ---

var tokenCmd = &cobra.Command{
	Use:   "token CALLER",
	Short: "Issue an API token for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, err := cfg.JWTSecret()
		if err != nil {
			return err
		}
		ttl, err := cfg.TokenDuration()
		if err != nil {
			return err
		}
		tok, err := server.IssueToken(secret, args[0], ttl)
		if err != nil {
			return err
		}
		fmt.Println(tok)
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		secret, err := cfg.JWTSecret()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}

		engine, db, err := openEngine()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Starting server at http://%s\n", cfg.ListenAddr())
		fmt.Println("Press Ctrl+C to stop")
		store := storage.New(cfg.GetStorageRoot())
		return server.New(engine, store, secret, logger).Serve(ctx, cfg.ListenAddr())
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
}

func openDB() (*database.DB, error) {
	dataDir := cfg.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return database.Open(cfg.DatabasePath())
}

func openEngine() (*pipeline.Engine, *database.DB, error) {
	db, err := openDB()
	if err != nil {
		return nil, nil, err
	}
	store := storage.New(cfg.GetStorageRoot())
	return pipeline.New(db, store, logger), db, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
