package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/pressgate/internal/observability/logger"
	migrations "github.com/dropDatabas3/pressgate/migrations/postgres"
)

// listSQL devuelve los archivos embebidos con el sufijo dado, ordenados.
func listSQL(suffix string) ([]string, error) {
	entries, err := migrations.FS.ReadDir(".")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func execSQL(ctx context.Context, pool *pgxpool.Pool, name string) error {
	b, err := migrations.FS.ReadFile(name)
	if err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, string(b)); err != nil {
		return fmt.Errorf("exec %s: %w", name, err)
	}
	logger.L().Info("migration applied", logger.String("file", name))
	return nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [up|down]",
		Short: "Aplica las migraciones postgres embebidas",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger.Init(logger.Config{Env: cfg.App.Env, ServiceName: "pressgate"})

			if strings.TrimSpace(cfg.Storage.DSN) == "" {
				return fmt.Errorf("migrate requiere storage.dsn (postgres)")
			}

			action := "up"
			if len(args) == 1 {
				action = strings.ToLower(args[0])
			}

			ctx := cmd.Context()
			pool, err := pgxpool.New(ctx, cfg.Storage.DSN)
			if err != nil {
				return err
			}
			defer pool.Close()

			switch action {
			case "up":
				files, err := listSQL("_up.sql")
				if err != nil {
					return err
				}
				for _, f := range files {
					if err := execSQL(ctx, pool, f); err != nil {
						return err
					}
				}
			case "down":
				files, err := listSQL("_down.sql")
				if err != nil {
					return err
				}
				// Deshacer en orden inverso.
				for i := len(files) - 1; i >= 0; i-- {
					if err := execSQL(ctx, pool, files[i]); err != nil {
						return err
					}
				}
			default:
				return fmt.Errorf("acción desconocida %q (up|down)", action)
			}
			return nil
		},
	}
}
