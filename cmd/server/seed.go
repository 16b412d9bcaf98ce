package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"doctors-portal-api/internal/apperr"
	"doctors-portal-api/internal/model"
)

type catalog struct {
	Services []model.Service `json:"services"`
	Doctors  []model.Doctor  `json:"doctors"`
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load services and doctors from a JSON catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()
			path, _ := cmd.Flags().GetString("file")

			raw, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read catalog: %w", err)
			}
			var c catalog
			if err := json.Unmarshal(raw, &c); err != nil {
				return fmt.Errorf("parse catalog: %w", err)
			}

			ctx := cmd.Context()
			st, closeStore, err := openStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer closeStore()

			added, skipped, err := seed(ctx, st, c)
			if err != nil {
				return err
			}
			log.Info("catalog seeded", zap.Int("added", added), zap.Int("skipped", skipped))
			return nil
		},
	}
	cmd.Flags().String("file", "db/seed/catalog.json", "catalog file")
	return cmd
}

// seed inserts every entry of c. Entries that already exist are skipped.
func seed(ctx context.Context, st backend, c catalog) (added, skipped int, err error) {
	count := func(err error) error {
		switch {
		case err == nil:
			added++
		case errors.Is(err, apperr.ErrConflict):
			skipped++
		default:
			return err
		}
		return nil
	}
	for i := range c.Services {
		_, err := st.AddService(ctx, &c.Services[i])
		if err := count(err); err != nil {
			return added, skipped, fmt.Errorf("service %q: %w", c.Services[i].Name, err)
		}
	}
	for i := range c.Doctors {
		_, err := st.AddDoctor(ctx, &c.Doctors[i])
		if err := count(err); err != nil {
			return added, skipped, fmt.Errorf("doctor %q: %w", c.Doctors[i].Email, err)
		}
	}
	return added, skipped, nil
}
