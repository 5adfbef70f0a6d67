package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Send()
	}
}

func run() error {
	// A missing .env file is fine.
	_ = godotenv.Load()

	var args cliArgs
	cliCtx := kong.Parse(
		&args,
		kong.Name("printcraft"),
		kong.Description("Crop, edit and order photo prints."),
		kong.UsageOnError(),
	)
	if err := cliCtx.Run(&args.globals); err != nil {
		return err
	}

	return nil
}

type globals struct {
	Formats  string `help:"YAML file with the print format catalog" type:"existingfile" env:"PRINTCRAFT_FORMATS"`
	Encoding string `help:"Encoding of exported images (jpeg, png, webp)" default:"jpeg" enum:"jpeg,png,webp" env:"PRINTCRAFT_ENCODING"`
	Quality  int    `help:"JPEG quality of exported images" default:"95" env:"PRINTCRAFT_QUALITY"`
	Verbose  bool   `help:"Enable verbose logging" default:"false" env:"PRINTCRAFT_VERBOSE"`
}

func (g *globals) setupLogging(ctx context.Context) context.Context {
	level := zerolog.InfoLevel
	if g.Verbose {
		level = zerolog.DebugLevel
	}
	log.Logger = log.Output(zerolog.NewConsoleWriter()).Level(level)
	zerolog.DefaultContextLogger = &log.Logger

	return log.Logger.WithContext(ctx)
}

func (g *globals) catalog() (Catalog, error) {
	if g.Formats == "" {
		return DefaultCatalog(), nil
	}
	return LoadCatalog(g.Formats)
}

func (g *globals) encoder() (Encoder, error) {
	format, err := ParseEncoding(g.Encoding)
	if err != nil {
		return Encoder{}, err
	}
	return Encoder{Format: format, Quality: g.Quality}, nil
}

type serveCmd struct {
	Addr     string `help:"Address to listen on; port 0 picks a free port" default:"localhost:0" env:"PRINTCRAFT_ADDR"`
	Library  string `help:"Directory of photos offered for upload" type:"existingdir" env:"PRINTCRAFT_LIBRARY"`
	StateDir string `help:"Directory for state that must survive a restart (checkout data); kept in memory when empty" env:"PRINTCRAFT_STATE_DIR"`
	Open     bool   `help:"Open the browser automatically when the server starts" default:"true" negatable:"" env:"PRINTCRAFT_OPEN"`
}

func (cmd *serveCmd) Run(g *globals) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	ctx = g.setupLogging(ctx)

	catalog, err := g.catalog()
	if err != nil {
		return err
	}
	enc, err := g.encoder()
	if err != nil {
		return err
	}

	var store KeyValueStore = NewMemoryStore()
	if cmd.StateDir != "" {
		if store, err = NewFileStore(cmd.StateDir); err != nil {
			return err
		}
	}

	app := NewWebApp(Config{
		Addr:       cmd.Addr,
		LibraryDir: cmd.Library,
		Catalog:    catalog,
		Encoder:    enc,
		Store:      store,
		Logger:     &log.Logger,
		OnBeforeShutdown: func() {
			log.Ctx(ctx).Info().Msg("Shutting down web application...")
		},
		OnReady: func(addr string) {
			log.Ctx(ctx).Info().Msgf("Server started at %s", addr)
			if cmd.Open {
				if err := openBrowser(addr); err != nil {
					log.Error().Err(err).Msg("Failed to open browser")
				}
			}
		},
	})

	if err := app.Run(ctx); err != nil {
		return err
	}

	return nil
}

type renderCmd struct {
	RootDir string `arg:"" help:"Directory the job filenames are relative to" type:"existingdir"`
	Jobs    string `arg:"" optional:"" help:"JSON lines file with jobs; stdin when omitted" type:"existingfile"`
	JSON    bool   `help:"Print the parsed jobs as JSON lines without executing"`
}

func (cmd *renderCmd) Run(g *globals) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	ctx = g.setupLogging(ctx)

	var data []byte
	var err error
	if cmd.Jobs == "" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(cmd.Jobs)
	}
	if err != nil {
		return fmt.Errorf("failed to read jobs: %w", err)
	}
	jobs, err := ParseJobs(data)
	if err != nil {
		return err
	}
	if cmd.JSON {
		printJSONL(jobs)
		return nil
	}

	enc, err := g.encoder()
	if err != nil {
		return err
	}
	executor := JobExecutor{
		BaseDir:    cmd.RootDir,
		OutputDir:  filepath.Join(cmd.RootDir, outputDirName),
		Rasterizer: NewImagingCropper(enc),
		Compositor: NewCompositor(enc),
	}
	return executor.Exec(ctx, jobs)
}

type formatsCmd struct{}

func (cmd *formatsCmd) Run(g *globals) error {
	catalog, err := g.catalog()
	if err != nil {
		return err
	}
	printJSONL(catalog.Formats)
	return nil
}

type cliArgs struct {
	globals

	Serve   serveCmd   `cmd:"" default:"1" help:"Start the print shop web application"`
	Render  renderCmd  `cmd:"" help:"Render crop and edit jobs offline"`
	Formats formatsCmd `cmd:"" help:"List the print format catalog"`
}

func printJSONL[T any](data []T) {
	enc := json.NewEncoder(os.Stdout)
	for _, item := range data {
		if err := enc.Encode(item); err != nil {
			log.Error().Err(err).Msg("Failed to encode item to JSON")
			continue
		}
	}
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
