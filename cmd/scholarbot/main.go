package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/m3rciful/scholarbot/core/bootstrap"
	"github.com/m3rciful/scholarbot/core/buildinfo"
	corecmd "github.com/m3rciful/scholarbot/core/cmd"
	"github.com/m3rciful/scholarbot/core/database"
	"github.com/m3rciful/scholarbot/core/logger"
	"github.com/m3rciful/scholarbot/internal/bot"
	"github.com/m3rciful/scholarbot/internal/config"
	"github.com/m3rciful/scholarbot/internal/payment"
	"github.com/m3rciful/scholarbot/internal/store"
	"github.com/m3rciful/scholarbot/migrations"
)

const defaultConfigPath = "config.yaml"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "scholarbot",
		Short:         "Telegram academic assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml (env CONFIG_PATH)")

	root.AddCommand(
		serveCmd(&configPath),
		migrateCmd(&configPath),
		plansCmd(&configPath),
		&cobra.Command{
			Use:   "version",
			Short: "Print build information",
			Run: func(cmd *cobra.Command, _ []string) {
				cmd.Println(buildinfo.String())
			},
		},
	)
	return root
}

func resolve(configPath string) string {
	return corecmd.ResolveConfigPath(corecmd.Options{
		ConfigPath:        configPath,
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: defaultConfigPath,
	})
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot and the payment webhook server",
		RunE: func(_ *cobra.Command, _ []string) error {
			return corecmd.Run(corecmd.Options{
				ConfigPath:        *configPath,
				ConfigEnvVar:      "CONFIG_PATH",
				DefaultConfigPath: defaultConfigPath,
				LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
					return config.Load(path)
				},
				Bootstrap: func(ctx context.Context, carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
					cfg := carrier.(*config.Config)
					res, err := bootstrap.Run(ctx, bootstrap.Options{
						Config:     &cfg.Config,
						Database:   cfg.Database,
						Migrations: migrations.Files,
						Modules: bootstrap.Modules{
							Seeders: []bootstrap.Seeder{store.PlanSeeder(store.DefaultPlans())},
						},
					})
					if err != nil {
						return nil, err
					}
					return bot.New(ctx, cfg, res.DB)
				},
			})
		},
	}
}

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadDatabase(resolve(*configPath))
			if err != nil {
				return err
			}
			if err := database.RunMigrations(cfg.Database, migrations.Files); err != nil {
				return err
			}
			cmd.Println("migrations applied")
			return nil
		},
	}
}

func plansCmd(configPath *string) *cobra.Command {
	plans := &cobra.Command{
		Use:   "plans",
		Short: "Manage pricing plans",
	}
	plans.AddCommand(&cobra.Command{
		Use:   "sync",
		Short: "Import plans from Paystack into the database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(resolve(*configPath))
			if err != nil {
				return err
			}
			if err := logger.InitLogger(&cfg.Config); err != nil {
				return err
			}
			defer func() { _ = logger.Shutdown() }()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			db, err := database.Connect(cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			bridge := payment.NewBridge(payment.BridgeOptions{
				Gateway:  payment.NewPaystack(cfg.Paystack.BaseURL, cfg.Paystack.SecretKey, 30*time.Second),
				Plans:    store.New(db),
				Currency: cfg.Paystack.Currency,
			})
			res, err := bridge.SyncPlans(ctx)
			if err != nil {
				return err
			}
			cmd.Printf("plans synced: %d created, %d updated, %d skipped\n", res.Created, res.Updated, res.Skipped)
			return nil
		},
	})
	return plans
}
