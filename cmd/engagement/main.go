package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"engagement/internal/agreement"
	"engagement/internal/app"
	"engagement/internal/document"
	"engagement/internal/domain"
	"engagement/internal/mail"
	u "engagement/internal/utils"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "engagement",
		Short:        "Membership agreement service",
		Long:         `engagement renders a signed membership agreement PDF from a web form and mails it to the new member.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (defaults to $CONFIG_PATH or config.yaml)")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newRenderCmd(&configPath))
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// An unusable configuration aborts startup.
			var cfg u.Config
			if *configPath != "" {
				cfg = u.LoadConfigFrom(*configPath)
			} else {
				cfg = u.LoadConfig()
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg u.Config) error {
	u.InitLogger(
		cfg.Logger.File,
		cfg.Logger.MaxSizeMB,
		cfg.Logger.MaxBackups,
		cfg.Logger.MaxAgeDays,
		cfg.Logger.Compress,
		cfg.Logger.Level,
	)
	u.SetLogLevel(cfg.Logger.Level)

	mailer, err := mail.NewSMTPMailer(cfg.Mail)
	if err != nil {
		return err
	}

	var rdb *redis.Client
	if cfg.Cache.RedisHost != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr: cfg.Cache.RedisHost,
			DB:   cfg.Cache.GuardDB,
		})
		defer rdb.Close()
	}

	var journal *u.Journal
	if cfg.Audit.Enabled {
		journal, err = u.OpenJournal(ctx, cfg.Audit.Postgres)
		if err != nil {
			// Deliveries still work without the journal.
			u.Error("Failed to open delivery journal", "error", err)
		} else {
			defer journal.Close()
		}
	}

	fiberApp := app.SetupApp(app.Deps{
		Config:   cfg,
		Composer: newComposer(cfg),
		Mailer:   mailer,
		Redis:    rdb,
		Journal:  journal,
	})

	idleConnsClosed := make(chan struct{})
	u.Info("Server starting", "addr", cfg.Server.Host+cfg.Server.Port)
	startServer(fiberApp, cfg, idleConnsClosed)
	<-idleConnsClosed
	return nil
}

func newComposer(cfg u.Config) *agreement.Composer {
	assets := document.NewDirAssets(cfg.Assets.Dir, cfg.Assets.SignatureFont, cfg.Assets.Logo)
	return agreement.NewComposer(assets, agreement.Association{
		Name:  cfg.Association.Name,
		Email: cfg.Association.Email,
	})
}

// startServer starts the Fiber app and listens for shutdown signals
func startServer(app *fiber.App, cfg u.Config, idleConnsClosed chan struct{}) {
	go func() {
		if err := app.Listen(cfg.Server.Host + cfg.Server.Port); err != nil {
			u.Error("Server error", "error", err)
		}
	}()

	// Listen for OS termination signals
	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
	<-sigint

	u.Warn("Shutdown signal received, closing server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		u.Error("Server forced to shutdown", "error", err)
	}

	close(idleConnsClosed)
	u.Info("Server stopped cleanly")
}

func newRenderCmd(configPath *string) *cobra.Command {
	var input, output string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render an agreement PDF locally without mailing it",
		Long: `Reads a submission as JSON (same fields as the web form) from --input
or stdin and writes the agreement PDF to --out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := *configPath
			if path == "" {
				path = u.ConfigPath()
			}
			cfg, err := u.ReadConfig(path)
			if err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if input != "" && input != "-" {
				f, err := os.Open(input)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			sub, err := readSubmission(in)
			if err != nil {
				return err
			}
			if output == "" {
				output = sub.AttachmentName()
			}

			pdf, err := newComposer(cfg).Compose(sub)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, pdf, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", output, len(pdf))
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "submission JSON file (default stdin)")
	cmd.Flags().StringVarP(&output, "out", "o", "", "output PDF path (default Engagement_<Nom>.pdf)")
	return cmd
}

func readSubmission(r io.Reader) (domain.Submission, error) {
	var sub domain.Submission
	if err := json.NewDecoder(r).Decode(&sub); err != nil {
		return sub, fmt.Errorf("decode submission: %w", err)
	}
	sub = sub.Normalize()
	if err := sub.Validate(); err != nil {
		return sub, err
	}
	return sub, nil
}
