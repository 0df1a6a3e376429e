package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/pressgate/internal/observability/logger"
	"github.com/dropDatabas3/pressgate/internal/seed"
	"github.com/dropDatabas3/pressgate/internal/store/pg"
)

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Siembra catálogo de permisos, roles base y usuario dueño",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger.Init(logger.Config{Env: cfg.App.Env, ServiceName: "pressgate"})

			// El driver memory se siembra solo en cada arranque de serve.
			if cfg.Storage.Driver != "postgres" {
				return fmt.Errorf("seed aplica solo a storage.driver=postgres")
			}

			ctx := cmd.Context()
			st, err := pg.New(ctx, cfg.Storage.DSN, cfg.RBAC.ProtectedRole, pg.Config{})
			if err != nil {
				return err
			}
			defer st.Close()

			return seed.Run(ctx, st, seedOptions(cfg))
		},
	}
}
