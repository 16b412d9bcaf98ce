package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"doctors-portal-api/internal/booking"
	"doctors-portal-api/internal/config"
	"doctors-portal-api/internal/directory"
	"doctors-portal-api/internal/logging"
	"doctors-portal-api/internal/store"
	"doctors-portal-api/internal/store/memstore"
	"doctors-portal-api/internal/store/mongostore"
)

const defaultMigration = "db/migrations/001_init.sql"

func main() {
	rootCmd := &cobra.Command{
		Use:          "doctors-portal",
		Short:        "Doctors portal booking API",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the gRPC server and the HTTP gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()
			return runServer(cmd.Context(), cfg, log)
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the schema (postgres) or create indexes (mongo)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()
			path, _ := cmd.Flags().GetString("file")

			ctx := cmd.Context()
			switch cfg.Store {
			case config.StorePostgres:
				st, err := store.Connect(ctx, cfg.DatabaseURL)
				if err != nil {
					return err
				}
				defer st.Close()
				if err := st.Migrate(ctx, path); err != nil {
					return err
				}
			case config.StoreMongo:
				st, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
				if err != nil {
					return err
				}
				defer st.Close(context.Background())
				if err := st.EnsureIndexes(ctx); err != nil {
					return err
				}
			default:
				return fmt.Errorf("nothing to migrate for store %q", cfg.Store)
			}
			log.Info("migration applied", zap.String("store", cfg.Store))
			return nil
		},
	}
	cmd.Flags().String("file", defaultMigration, "SQL migration file")
	return cmd
}

func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(cfg.LogLevel, cfg.AppEnv)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// backend is what every store implementation provides.
type backend interface {
	booking.Repository
	directory.Repository
	Ping(ctx context.Context) error
}

var (
	_ backend = (*store.Store)(nil)
	_ backend = (*mongostore.Store)(nil)
	_ backend = (*memstore.Store)(nil)
)

// openStore connects the configured store. Postgres gets its schema applied
// on the way up, mongo its indexes.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (backend, func(), error) {
	switch cfg.Store {
	case config.StorePostgres:
		st, err := store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		log.Info("connected to postgres")
		if err := st.Migrate(ctx, defaultMigration); err != nil {
			log.Warn("migration skipped", zap.Error(err))
		}
		return st, st.Close, nil
	case config.StoreMongo:
		st, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, nil, err
		}
		log.Info("connected to mongo", zap.String("db", cfg.MongoDB))
		if err := st.EnsureIndexes(ctx); err != nil {
			_ = st.Close(context.Background())
			return nil, nil, err
		}
		return st, func() { _ = st.Close(context.Background()) }, nil
	default:
		log.Warn("using in-memory store, data is lost on exit")
		return memstore.New(), func() {}, nil
	}
}
