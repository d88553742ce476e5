// Команда compass обслуживает хранилище Career Compass: миграции, демо данные,
// незавершённые каскадные удаления и выпуск токенов.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/ignatzorin/career-compass/internal/app"
	"github.com/ignatzorin/career-compass/internal/config"
	"github.com/ignatzorin/career-compass/internal/logger"
)

var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "compass",
		Short:         "Career Compass - обслуживание хранилища",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(deletionsCmd())
	rootCmd.AddCommand(tokenCmd())
	return rootCmd
}

// env открытое хранилище и собранные поверх него сервисы.
type env struct {
	cfg     *config.Config
	storage *app.Storage
	app     *app.App
}

func (e *env) Close() {
	e.app.Close()
	e.storage.Close()
}

// openEnv читает конфигурацию и подключается к хранилищу. Хранилище memory
// живёт только внутри процесса сервера, поэтому команды его не принимают.
func openEnv(ctx context.Context, migrate bool) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger.Init(cfg.LogLevel)
	logger.SetTextFormatter()
	logger.SetOutput(os.Stderr)

	if cfg.StoreDriver == config.StoreDriverMemory {
		return nil, fmt.Errorf("STORE_DRIVER=memory не поддерживается командой compass")
	}

	// Роутер собирается вместе с сервисами, но команды его не запускают.
	gin.SetMode(gin.ReleaseMode)

	storage, err := app.OpenStorage(ctx, cfg, migrate)
	if err != nil {
		return nil, err
	}
	return &env{
		cfg:     cfg,
		storage: storage,
		app:     app.New(cfg, storage.Repos, storage.Checks),
	}, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
