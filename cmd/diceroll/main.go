// Command diceroll rolls dice in a simulated tray and prints the faces.
//
//	diceroll -dice d6,d6,d20 -seed 42 -rolls 3
//	diceroll -config dice.toml -serve :8080 -watch
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/akmonengine/dice"
	"github.com/akmonengine/dice/actor"
	"github.com/akmonengine/dice/internal/stream"
)

type options struct {
	configPath string
	dice       string
	size       float64
	seed       int64
	maxSeconds float64
	fps        float64
	reduced    bool
	serve      string
	watch      bool
	rolls      int
	logFormat  string
	verbose    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "diceroll:", err)
		}
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet("diceroll", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "physics config file (.toml, .yaml)")
	fs.StringVar(&opts.dice, "dice", "d6,d6", "comma separated dice: "+strings.Join(actor.ShapeNames(), ", "))
	fs.Float64Var(&opts.size, "size", 0.5, "half width of a die (m)")
	fs.Int64Var(&opts.seed, "seed", time.Now().UnixNano(), "random seed")
	fs.Float64Var(&opts.maxSeconds, "max-seconds", 20, "simulated time budget per roll")
	fs.Float64Var(&opts.fps, "fps", 60, "frames per simulated second")
	fs.BoolVar(&opts.reduced, "reduced", false, "step at half rate")
	fs.StringVar(&opts.serve, "serve", "", "stream poses over websocket at addr/ws, in real time")
	fs.BoolVar(&opts.watch, "watch", false, "reload -config when it changes, between rolls")
	fs.IntVar(&opts.rolls, "rolls", 1, "number of rolls")
	fs.StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")
	fs.BoolVar(&opts.verbose, "v", false, "debug logging")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	switch {
	case opts.rolls < 1:
		return opts, fmt.Errorf("-rolls must be at least 1")
	case !(opts.fps > 0):
		return opts, fmt.Errorf("-fps must be positive")
	case !(opts.maxSeconds > 0):
		return opts, fmt.Errorf("-max-seconds must be positive")
	case !(opts.size > 0):
		return opts, fmt.Errorf("-size must be positive")
	case opts.watch && opts.configPath == "":
		return opts, fmt.Errorf("-watch needs -config")
	}

	return opts, nil
}

func newLogger(w io.Writer, format string, verbose bool) (*slog.Logger, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

func parseDice(list string, size float64) ([]*actor.ShapeDescriptor, error) {
	var shapes []*actor.ShapeDescriptor
	for _, name := range strings.Split(list, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		shape, err := actor.ShapeByName(name, size)
		if err != nil {
			return nil, err
		}
		shapes = append(shapes, shape)
	}
	if len(shapes) == 0 {
		return nil, fmt.Errorf("no dice to roll")
	}
	return shapes, nil
}

func loadConfig(opts options) (dice.Config, error) {
	cfg := dice.DefaultConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = dice.LoadConfig(opts.configPath); err != nil {
			return cfg, err
		}
	}
	if opts.reduced {
		cfg = dice.ReducedFidelity(cfg)
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	logger, err := newLogger(stderr, opts.logFormat, opts.verbose)
	if err != nil {
		return err
	}
	shapes, err := parseDice(opts.dice, opts.size)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	world, err := dice.NewWorld(cfg, dice.WithLogger(logger))
	if err != nil {
		return err
	}

	var reloads <-chan dice.Config
	if opts.watch {
		if reloads, err = watchConfig(ctx, opts.configPath, opts.reduced, logger); err != nil {
			return err
		}
	}

	var hub *stream.Hub
	if opts.serve != "" {
		hub = stream.NewHub(logger)
		shutdown := serve(opts.serve, hub, logger)
		defer shutdown()
	}

	roller := &roller{
		world:  world,
		shapes: shapes,
		rng:    rand.New(rand.NewSource(opts.seed)),
		hub:    hub,
		fps:    opts.fps,
		budget: opts.maxSeconds,
		logger: logger,
	}
	logger.Info("rolling", "dice", opts.dice, "seed", opts.seed, "rolls", opts.rolls)

	for i := range opts.rolls {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case next := <-reloads:
			if err := world.SetConfig(next); err != nil {
				logger.Warn("config rejected", "error", err)
			}
		default:
		}

		result, err := roller.roll(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "roll %d: %s\n", i+1, result)
	}

	return nil
}

func serve(addr string, hub *stream.Hub, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("streaming poses", "addr", addr, "path", "/ws")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("stream server stopped", "error", err)
		}
	}()

	return func() {
		hub.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}
