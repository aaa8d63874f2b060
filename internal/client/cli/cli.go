// Package cli команды консольного клиента bookshelf.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/iudanet/bookshelf/internal/client/api"
	"github.com/iudanet/bookshelf/internal/client/auth"
	"github.com/iudanet/bookshelf/internal/client/iocli"
	"github.com/iudanet/bookshelf/internal/client/storage/boltdb"
)

const (
	defaultServerURL = "http://localhost:8080"
	defaultDBPath    = "bookshelf-client.db"

	// envServerURL переопределяет адрес сервера по умолчанию
	envServerURL = "BOOKSHELF_SERVER"
)

// BuildInfo версия клиента, задается через ldflags
type BuildInfo struct {
	Version   string
	BuildDate string
	GitCommit string
}

// Streams потоки ввода и вывода команд
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Cli состояние запущенной команды
type Cli struct {
	io          iocli.IO
	logger      *slog.Logger
	apiClient   *api.Client
	authService *auth.Service
	storage     *boltdb.Storage
	serverURL   string
	dbPath      string
	verbose     bool
}

// Execute разбирает аргументы и выполняет команду. Локальная БД закрывается
// после выполнения, в том числе при ошибке.
func Execute(ctx context.Context, info BuildInfo, args []string, streams Streams) error {
	c := &Cli{}
	root := c.newRootCommand(info)
	root.SetArgs(args)
	root.SetIn(streams.In)
	root.SetOut(streams.Out)
	root.SetErr(streams.Err)

	err := root.ExecuteContext(ctx)
	if closeErr := c.close(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}
	return err
}

func (c *Cli) newRootCommand(info BuildInfo) *cobra.Command {
	serverURL := os.Getenv(envServerURL)
	if serverURL == "" {
		serverURL = defaultServerURL
	}

	root := &cobra.Command{
		Use:           "bookshelf",
		Short:         "Console client for the bookshelf API",
		Version:       fmt.Sprintf("%s (built %s, commit %s)", info.Version, info.BuildDate, info.GitCommit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.open(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.serverURL, "server", serverURL, "server URL (env "+envServerURL+")")
	flags.StringVar(&c.dbPath, "db", defaultDBPath, "path to local session database")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "verbose logging")

	root.AddCommand(
		c.newRegisterCommand(),
		c.newLoginCommand(),
		c.newLogoutCommand(),
		c.newStatusCommand(),
		c.newRefreshCommand(),
		c.newProfileCommand(),
		c.newBooksCommand(),
	)
	return root
}

// open готовит зависимости команды: потоки, логгер, локальную БД и API клиент
func (c *Cli) open(cmd *cobra.Command) error {
	c.io = iocli.NewStdio(cmd.InOrStdin(), cmd.OutOrStdout())

	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}
	c.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	store, err := boltdb.New(cmd.Context(), c.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	c.storage = store

	c.apiClient = api.NewClient(c.serverURL)
	c.authService = auth.NewService(c.apiClient, store, c.logger)
	c.logger.Debug("client ready", slog.String("server", c.serverURL), slog.String("db", c.dbPath))
	return nil
}

func (c *Cli) close() error {
	if c.storage == nil {
		return nil
	}
	err := c.storage.Close()
	c.storage = nil
	return err
}

// prompt возвращает значение флага или спрашивает его у пользователя
func (c *Cli) prompt(value, label string) (string, error) {
	if value != "" {
		return value, nil
	}
	input, err := c.io.ReadInput(label + ": ")
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", label, err)
	}
	return input, nil
}
