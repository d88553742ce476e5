// Команда compass-tui терминальный поиск возможностей Career Compass.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ignatzorin/career-compass/internal/client"
	"github.com/ignatzorin/career-compass/internal/config"
	"github.com/ignatzorin/career-compass/internal/discovery"
	"github.com/ignatzorin/career-compass/internal/logger"
	"github.com/ignatzorin/career-compass/internal/tui"
)

var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		logFile string
		token   string
		baseURL string
	)

	cmd := &cobra.Command{
		Use:     "compass-tui",
		Short:   "Поиск возможностей, закладки и запись из терминала",
		Version: Version,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if token == "" {
				token = cfg.APIToken
			}
			if baseURL == "" {
				baseURL = cfg.APIBaseURL
			}

			// Логи в терминал испортили бы экран.
			f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
			if err != nil {
				return fmt.Errorf("не удалось открыть файл логов: %w", err)
			}
			defer f.Close()
			logger.Init(cfg.LogLevel)
			logger.SetTextFormatter()
			logger.SetOutput(f)

			api := client.New(baseURL, token)
			feed := tui.NewFeed()
			engine := discovery.NewEngine(api,
				discovery.WithDebounce(cfg.SearchDebounce),
				discovery.WithTimeout(cfg.GatewayTimeout),
				discovery.WithOnChange(feed.Notify),
			)
			defer engine.Cancel()

			logger.Component("tui").WithField("api", baseURL).Info("запуск")
			_, err = tea.NewProgram(tui.New(api, engine, feed), tea.WithAltScreen()).Run()
			return err
		},
	}

	cmd.Flags().StringVar(&logFile, "log-file", "compass-tui.log", "файл логов")
	cmd.Flags().StringVar(&token, "token", "", "access токен, по умолчанию API_TOKEN")
	cmd.Flags().StringVar(&baseURL, "api", "", "адрес API, по умолчанию API_BASE_URL")
	return cmd
}
