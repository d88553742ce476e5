package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ignatzorin/career-compass/internal/service"
)

func seedCmd() *cobra.Command {
	var opts service.SeedOptions

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Создать демо хостов и возможности",
		Long: `Регистрирует хостов host1@career-compass.dev ... hostN@career-compass.dev
и публикует для каждого набор возможностей. Повторный запуск с тем же паролем
переиспользует существующих хостов.

Примеры:
  compass seed --hosts 5 --per-host 10
  compass seed --hosts 2 --seed 42`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer e.Close()

			res, err := e.app.Seed.Seed(cmd.Context(), opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, host := range res.Hosts {
				fmt.Fprintf(out, "хост %s\t%s\n", host.ID, host.Email)
			}
			mode := "по одной"
			if res.Bulk {
				mode = "пакетом"
			}
			fmt.Fprintf(out, "создано возможностей: %d (%s)\n", res.Opportunities, mode)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Hosts, "hosts", 3, "количество хостов")
	cmd.Flags().IntVar(&opts.OpportunitiesPerHost, "per-host", 5, "возможностей на хоста")
	cmd.Flags().StringVar(&opts.Password, "password", "Password123", "пароль демо хостов")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "зерно генератора, 0 означает текущее время")
	return cmd
}
