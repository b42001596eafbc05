// Package cli is the terminal presentation layer.
//
// Information Hiding:
// - Provider, gateway, cache and history wiring hidden behind Open
// - Commands drive the flow controller only through its intents
// - Output formatting (text or JSON) hidden in render.go

package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/richinex/calcflow/catalog"
	"github.com/richinex/calcflow/config"
	"github.com/richinex/calcflow/flow"
	"github.com/richinex/calcflow/gateway"
	"github.com/richinex/calcflow/llm"
	"github.com/richinex/calcflow/logging"
	"github.com/richinex/calcflow/storage"
)

// Options holds CLI execution options.
type Options struct {
	Provider string
	Verbose  bool
	// DBPath overrides CALC_HISTORY_DB.
	DBPath string
	JSON   bool
	Out    io.Writer
	Err    io.Writer
}

// App is one wired invocation: gateway, history and output.
type App struct {
	Gateway gateway.Gateway
	History storage.HistoryStore
	Catalog *catalog.Catalog
	Logger  *slog.Logger

	out   io.Writer
	json  bool
	close func() error
}

// Open builds the application from settings, environment and options.
// needGateway is false for commands that never compute (history, practice
// list), so they work without an API key.
func Open(opts Options, needGateway bool) (*App, error) {
	settings, err := config.New(opts.Provider)
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		settings.Log.Level = "debug"
	}
	if opts.DBPath != "" {
		settings.History.Path = opts.DBPath
	}

	errOut := opts.Err
	if errOut == nil {
		errOut = os.Stderr
	}
	logger := logging.New(settings.Log, errOut)

	history, closeHistory, err := openHistory(settings.History)
	if err != nil {
		return nil, err
	}

	var gw gateway.Gateway
	if needGateway {
		gw, err = createGateway(settings, logger)
		if err != nil {
			_ = closeHistory()
			return nil, err
		}
	}

	app := NewApp(gw, history, opts.Out, opts.JSON, logger)
	app.close = closeHistory
	return app, nil
}

// NewApp assembles an App from ready components. A nil writer means stdout.
func NewApp(gw gateway.Gateway, history storage.HistoryStore, out io.Writer, jsonOutput bool, logger *slog.Logger) *App {
	if out == nil {
		out = os.Stdout
	}
	if history == nil {
		history = storage.NewInMemoryHistory()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &App{
		Gateway: gw,
		History: history,
		Catalog: catalog.Default(),
		Logger:  logger,
		out:     out,
		json:    jsonOutput,
		close:   func() error { return nil },
	}
}

// Close releases the history database.
func (a *App) Close() error {
	return a.close()
}

// Controller creates a flow controller recording into the app history.
func (a *App) Controller(opts ...flow.Option) *flow.Controller {
	base := []flow.Option{
		flow.WithLogger(a.Logger),
		flow.WithRecorder(a.History),
	}
	return flow.New(a.Gateway, a.Catalog, append(base, opts...)...)
}

func openHistory(cfg config.HistoryConfig) (storage.HistoryStore, func() error, error) {
	if cfg.Path == "" {
		return storage.NewInMemoryHistory(), func() error { return nil }, nil
	}
	s, err := storage.OpenSqlite(cfg.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history database: %w", err)
	}
	return s, s.Close, nil
}

func createGateway(settings config.Settings, logger *slog.Logger) (gateway.Gateway, error) {
	provider, err := createProvider(settings)
	if err != nil {
		return nil, err
	}
	logger.Debug("provider ready", "provider", provider.Name(), "model", provider.Model())
	return gateway.NewCached(gateway.NewLLM(provider, gateway.WithLogger(logger)), settings.Gateway.CacheSize)
}

func createProvider(settings config.Settings) (llm.Provider, error) {
	providerType, err := llm.ParseProviderType(settings.LLM.Provider)
	if err != nil {
		return nil, err
	}

	apiKey, err := config.APIKeyFor(settings.LLM.Provider)
	if err != nil {
		return nil, err
	}

	return providerType.
		Model(settings.LLM.Model).
		MaxTokens(settings.LLM.MaxTokens).
		Temperature(float32(settings.LLM.Temperature)).
		APIKey(apiKey)
}
