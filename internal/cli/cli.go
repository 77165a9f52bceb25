package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"astra-msgdb/internal/config"
	"astra-msgdb/internal/engine"
	"astra-msgdb/internal/entity"
	"astra-msgdb/internal/export"
	"astra-msgdb/internal/pgstore"
	"astra-msgdb/internal/project"
	"astra-msgdb/internal/textutil"
	"astra-msgdb/internal/worker"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := newRootCmd(config.Load()).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "astra-msgdb",
		Short:         "Inspect and edit game message archives",
		Long:          "Aggregates message archives into one key space, edits messages in place and previews dialogue scripts with speaker names resolved.",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := zerolog.ParseLevel(cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("parse log level: %w", err)
			}
			zerolog.SetGlobalLevel(level)
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.ArchiveDir, "dir", cfg.ArchiveDir, "Directory holding message archive files")
	flags.StringVar(&cfg.ArchiveBackend, "backend", cfg.ArchiveBackend, "Archive backend: dir or postgres")
	flags.StringVar(&cfg.OverrideArchive, "override", cfg.OverrideArchive, "Archive that receives newly created keys")
	flags.StringVar(&cfg.EntityFile, "entities", cfg.EntityFile, "Entity table file (yaml, toml or json)")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")

	rootCmd.AddCommand(archivesCmd(cfg))
	rootCmd.AddCommand(lookupCmd(cfg))
	rootCmd.AddCommand(setCmd(cfg))
	rootCmd.AddCommand(previewCmd(cfg))
	rootCmd.AddCommand(exportCmd(cfg))

	return rootCmd
}

func archivesCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "archives",
		Short: "List archives in aggregation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArchives(cmd.OutOrStdout(), cfg)
		},
	}
}

func lookupCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <key>",
		Short: "Print the current text of a message key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(cmd.OutOrStdout(), cfg, args[0])
		},
	}
}

func setCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Edit a message and save the archive that owns it",
		Long: `Sets the text of a message key. Existing keys are written to the archive
that currently owns them. New keys go to the override archive when one is
configured, otherwise to --archive.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			archiveName, _ := cmd.Flags().GetString("archive")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			return runSet(cmd.OutOrStdout(), cfg, args[0], args[1], archiveName, dryRun)
		},
	}

	cmd.Flags().String("archive", cfg.DefaultArchive, "Archive for new keys when no override archive is set")
	cmd.Flags().Bool("dry-run", false, "Apply the edit in memory without saving")

	return cmd
}

func previewCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview <script-file>...",
		Short: "Print dialogue scripts with entity ids replaced by display names",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			strict, _ := cmd.Flags().GetBool("strict")
			return runPreview(cmd.OutOrStdout(), cfg, args, strict)
		},
	}

	cmd.Flags().Bool("strict", false, "Fail on the first script that cannot be translated")

	return cmd
}

func exportCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Dump the aggregated message index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")
			return runExport(cmd.OutOrStdout(), cfg, format, output)
		},
	}

	cmd.Flags().String("format", "tsv", "Export format: tsv or json")
	cmd.Flags().String("output", "", "Output file (default messages.<format>, - for stdout)")

	return cmd
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			log.Warn().Msg("Received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// initDependencies connects to PostgreSQL and makes sure the message tables exist.
func initDependencies(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, *pgstore.Store, error) {
	pgPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect PostgreSQL: %w", err)
	}

	if err := pgPool.Ping(ctx); err != nil {
		pgPool.Close()
		return nil, nil, fmt.Errorf("ping PostgreSQL: %w", err)
	}
	log.Info().Msg("Connected to PostgreSQL")

	store := pgstore.NewStore(pgPool)
	if err := store.EnsureSchema(ctx); err != nil {
		pgPool.Close()
		return nil, nil, err
	}

	return pgPool, store, nil
}

// openProject opens the configured backend. The returned func releases it.
func openProject(ctx context.Context, cfg *config.Config) (*project.Project, func(), error) {
	var (
		backend project.Backend
		release = func() {}
	)

	switch cfg.ArchiveBackend {
	case "dir":
		backend = project.NewDirBackend(cfg.ArchiveDir, cfg.ArchiveOrder, cfg.WorkerCount)
	case "postgres":
		pgPool, store, err := initDependencies(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		backend = store
		release = pgPool.Close
	default:
		return nil, nil, fmt.Errorf("unknown archive backend %q", cfg.ArchiveBackend)
	}

	proj, err := project.Open(ctx, backend, project.Options{Override: cfg.OverrideArchive})
	if err != nil {
		release()
		return nil, nil, err
	}
	return proj, release, nil
}

// runArchives handles the `archives` command.
func runArchives(out io.Writer, cfg *config.Config) error {
	ctx, cancel := setupContext()
	defer cancel()

	proj, release, err := openProject(ctx, cfg)
	if err != nil {
		return err
	}
	defer release()

	override, _ := proj.OverrideArchiveName()
	for i, name := range proj.ListArchives() {
		a, _ := proj.GetArchive(name)
		marker := ""
		if name == override {
			marker = "\toverride"
		}
		fmt.Fprintf(out, "%d\t%s\t%d%s\n", i, name, a.Len(), marker)
	}
	return nil
}

// runLookup handles the `lookup` command.
func runLookup(out io.Writer, cfg *config.Config, key string) error {
	ctx, cancel := setupContext()
	defer cancel()

	proj, release, err := openProject(ctx, cfg)
	if err != nil {
		return err
	}
	defer release()

	eng := engine.FromSource(proj.MessageSource())
	text, ok := eng.Message(key)
	if !ok {
		return fmt.Errorf("message %q not found", key)
	}
	fmt.Fprintln(out, text)
	return nil
}

// runSet handles the `set` command.
func runSet(out io.Writer, cfg *config.Config, key, value, archiveName string, dryRun bool) error {
	ctx, cancel := setupContext()
	defer cancel()

	proj, release, err := openProject(ctx, cfg)
	if err != nil {
		return err
	}
	defer release()

	eng := engine.FromSource(proj.MessageSource())

	var (
		resolved bool
		previous string
	)
	eng.WithMessageMut(key, archiveName, func(v *string) bool {
		if v == nil {
			return false
		}
		resolved = true
		previous = *v
		if *v == value {
			return false
		}
		*v = value
		return true
	})

	if !resolved {
		return fmt.Errorf("no archive accepts key %q (archive %q not found)", key, archiveName)
	}
	if previous == value {
		log.Info().Str("key", key).Msg("Message unchanged")
		return nil
	}

	rec, _ := eng.DB().Record(key)
	owner := eng.DB().ArchiveName(rec.Archive)
	log.Info().
		Str("key", key).
		Str("archive", owner).
		Str("previous", textutil.Truncate(previous, 40)).
		Msg("Message updated")

	if dryRun {
		fmt.Fprintf(out, "%s\t%s\t(dry run)\n", owner, key)
		return nil
	}

	saved, err := proj.Save(ctx)
	if err != nil {
		return fmt.Errorf("save archives: %w", err)
	}
	fmt.Fprintf(out, "%s\t%s\t%d archive(s) saved\n", owner, key, saved)
	return nil
}

// runPreview handles the `preview` command.
func runPreview(out io.Writer, cfg *config.Config, paths []string, strict bool) error {
	ctx, cancel := setupContext()
	defer cancel()

	var tables entity.Tables
	if cfg.EntityFile != "" {
		var err error
		tables, err = entity.Load(cfg.EntityFile)
		if err != nil {
			return fmt.Errorf("load entities: %w", err)
		}
		log.Info().Int("persons", len(tables.Persons)).Int("gods", len(tables.Gods)).Msg("Loaded entity tables")
	} else {
		log.Warn().Msg("No entity file configured, speakers will not be resolved")
	}

	proj, release, err := openProject(ctx, cfg)
	if err != nil {
		return err
	}
	defer release()

	eng := engine.FromSource(proj.MessageSource())

	readPool := worker.NewPool[string, string](cfg.WorkerCount,
		func(ctx context.Context, path string) (string, error) {
			data, err := os.ReadFile(path)
			if err != nil {
				return "", fmt.Errorf("read script: %w", err)
			}
			return string(data), nil
		},
	)
	scripts := readPool.Execute(ctx, paths)

	failed := 0
	for _, task := range scripts {
		if task.Err != nil {
			if strict {
				return task.Err
			}
			log.Error().Err(task.Err).Str("file", task.Input).Msg("Read failed")
			failed++
			continue
		}

		var (
			translated string
			ok         bool
		)
		if strict {
			translated, err = eng.TranslateScriptErr(task.Result, tables)
			if err != nil {
				return fmt.Errorf("translate %s: %w", task.Input, err)
			}
			ok = true
		} else {
			translated, ok = eng.TranslateScript(task.Result, tables)
		}
		if !ok {
			log.Warn().Str("file", task.Input).Msg("Script could not be translated")
			failed++
			continue
		}

		if len(paths) > 1 {
			fmt.Fprintf(out, "# %s\n", task.Input)
		}
		fmt.Fprint(out, translated)
	}

	log.Info().Int("scripts", len(paths)).Int("failed", failed).Msg("Preview complete")
	return nil
}

// runExport handles the `export` command.
func runExport(out io.Writer, cfg *config.Config, format, output string) error {
	ctx, cancel := setupContext()
	defer cancel()

	proj, release, err := openProject(ctx, cfg)
	if err != nil {
		return err
	}
	defer release()

	eng := engine.FromSource(proj.MessageSource())
	entries := eng.DB().Entries()

	switch output {
	case "-":
		switch format {
		case "tsv":
			return export.WriteTSV(out, entries)
		case "json":
			return export.WriteJSON(out, entries)
		default:
			return fmt.Errorf("unknown export format %q", format)
		}
	case "":
		output = "messages." + format
	}

	if err := export.ExportFile(output, format, entries); err != nil {
		return fmt.Errorf("export %s: %w", format, err)
	}
	return nil
}
