package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ignatzorin/career-compass/internal/config"
	"github.com/ignatzorin/career-compass/internal/db"
)

func migrateCmd() *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Применить миграции postgres или создать индексы mongo",
		Long: `Применяет SQL миграции из MIGRATIONS_PATH (postgres) или создаёт
индексы коллекций (mongo). Уже применённые миграции пропускаются.

Примеры:
  compass migrate
  compass migrate --status`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			// Статус только читает, поэтому хранилище открывается без миграций.
			e, err := openEnv(ctx, !status)
			if err != nil {
				return err
			}
			defer e.Close()

			out := cmd.OutOrStdout()
			switch e.cfg.StoreDriver {
			case config.StoreDriverPostgres:
				applied, err := db.AppliedMigrations(ctx, e.storage.Postgres)
				if err != nil {
					return err
				}
				if len(applied) == 0 {
					fmt.Fprintln(out, "миграции не применялись")
				}
				for _, m := range applied {
					fmt.Fprintf(out, "%s\t%s\n", m.AppliedAt.Format(time.RFC3339), m.Name)
				}
			case config.StoreDriverMongo:
				if status {
					fmt.Fprintln(out, "mongo не хранит историю миграций, запустите без --status для создания индексов")
					return nil
				}
				fmt.Fprintf(out, "индексы mongo в базе %s готовы\n", e.cfg.MongoDatabase)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "показать применённые миграции без изменений")
	return cmd
}
