package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/TFMV/dronenet/command"
	"github.com/TFMV/dronenet/graph"
	"github.com/TFMV/dronenet/ingest"
	"github.com/TFMV/dronenet/partition"
	"github.com/TFMV/dronenet/physics"
	"github.com/TFMV/dronenet/render"
	"github.com/TFMV/dronenet/server"
)

// Configuration represents all the settings for the application
type Configuration struct {
	Mode string

	// Flock
	Count           int
	Seed            int64
	Behavior        string
	StayRadius      float64
	DriveFactor     float64
	MaxSpeed        float64
	NeighborRadius  float64
	AvoidanceFactor float64
	ManualSpeed     float64
	Index           string

	// Simulation
	RefreshInterval float64
	TickRate        float64
	Ticks           int

	// Networks
	PivotIndex   int
	LinkK        int
	LinkDistance float64
	TopologyFile string

	// Output
	OutputFile string
	Format     string
	Width      float64
	Height     float64
	Port       int

	LogLevel  string
	LogFormat string
}

func main() {
	config, err := parseConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := newLogger(os.Stderr, config.LogLevel, config.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	slog.SetDefault(logger)

	// Cancel on SIGINT/SIGTERM for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, config, logger, os.Stdin, os.Stdout); err != nil {
		logger.Error("dronenet failed", "error", err)
		os.Exit(1)
	}
}

// parseConfig parses command-line flags and returns a Configuration object
func parseConfig(args []string) (*Configuration, error) {
	config := &Configuration{}
	defaults := physics.DefaultFlockConfig()

	fs := flag.NewFlagSet("dronenet", flag.ContinueOnError)

	// Basic options
	fs.StringVar(&config.Mode, "mode", "repl", "Run mode: headless, repl, server")
	fs.IntVar(&config.Port, "port", 8080, "Port for server mode")

	// Flock options
	fs.IntVar(&config.Count, "count", 50, "Number of drones to spawn")
	fs.Int64Var(&config.Seed, "seed", 1, "Random seed (0 picks one from the clock)")
	fs.StringVar(&config.Behavior, "behavior", "flock", "Steering behavior: flock, cohesion, alignment, avoidance, stay, wander")
	fs.Float64Var(&config.StayRadius, "stay-radius", 15, "Radius drones are kept inside")
	fs.Float64Var(&config.DriveFactor, "drive-factor", defaults.DriveFactor, "Multiplier applied to the behavior output")
	fs.Float64Var(&config.MaxSpeed, "max-speed", defaults.MaxSpeed, "Maximum drone speed")
	fs.Float64Var(&config.NeighborRadius, "neighbor-radius", defaults.NeighborRadius, "Neighbor perception radius")
	fs.Float64Var(&config.AvoidanceFactor, "avoidance", defaults.AvoidanceRadiusMultiplier, "Avoidance radius as a fraction of the neighbor radius")
	fs.Float64Var(&config.ManualSpeed, "manual-speed", defaults.ManualSpeed, "Speed of a manually controlled drone")
	fs.StringVar(&config.Index, "index", string(defaults.Index), "Neighbor index: auto, brute, quadtree")

	// Simulation options
	fs.Float64Var(&config.RefreshInterval, "refresh", physics.DefaultRefreshInterval, "Attribute refresh interval in simulated seconds")
	fs.Float64Var(&config.TickRate, "tick-rate", 50, "Simulation steps per second")
	fs.IntVar(&config.Ticks, "ticks", 500, "Steps to run in headless mode")

	// Network options
	fs.IntVar(&config.PivotIndex, "pivot", partition.DefaultPivotIndex, "Spawn index of the drone whose ammunition splits the networks")
	fs.IntVar(&config.LinkK, "link-k", 2, "Link each drone to up to k nearest drones of its network (0 disables)")
	fs.Float64Var(&config.LinkDistance, "link-distance", 0, "Maximum link distance (0 means unlimited)")
	fs.StringVar(&config.TopologyFile, "topology", "", "Path to a link file (JSON, CSV, log)")

	// Output options
	fs.StringVar(&config.OutputFile, "output", "", "Path to output file (defaults to 'output.[format]')")
	fs.StringVar(&config.Format, "format", "svg", "Snapshot format: svg, ascii, json")
	fs.Float64Var(&config.Width, "width", 800.0, "Width of the visualization")
	fs.Float64Var(&config.Height, "height", 600.0, "Height of the visualization")

	// Logging
	fs.StringVar(&config.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	fs.StringVar(&config.LogFormat, "log-format", "text", "Log format: text, json")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	switch config.Mode {
	case "headless", "repl", "server":
	default:
		return nil, fmt.Errorf("unknown mode %q", config.Mode)
	}
	if config.Count < 0 {
		return nil, fmt.Errorf("count must not be negative, got %d", config.Count)
	}
	switch physics.IndexKind(config.Index) {
	case physics.IndexAuto, physics.IndexBruteForce, physics.IndexQuadtree:
	default:
		return nil, fmt.Errorf("unknown index %q", config.Index)
	}
	if config.TickRate <= 0 {
		return nil, fmt.Errorf("tick-rate must be positive, got %g", config.TickRate)
	}
	if _, err := render.GetRenderer(config.Format); err != nil {
		return nil, err
	}
	if config.Seed == 0 {
		config.Seed = time.Now().UnixNano()
	}

	// Set default output file if not specified
	if config.OutputFile == "" {
		switch strings.ToLower(config.Format) {
		case "ascii":
			config.OutputFile = "output.txt"
		default:
			config.OutputFile = "output." + strings.ToLower(config.Format)
		}
	}

	return config, nil
}

// newLogger builds the process logger from the level and format flags
func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
}

// buildSession spawns the flock, splits it into the two networks and wires
// their links.
func buildSession(config *Configuration, logger *slog.Logger) (*command.Session, error) {
	behavior, err := physics.BehaviorByName(config.Behavior, config.StayRadius, config.Seed)
	if err != nil {
		return nil, err
	}

	flockConfig := physics.FlockConfig{
		DriveFactor:               config.DriveFactor,
		MaxSpeed:                  config.MaxSpeed,
		NeighborRadius:            config.NeighborRadius,
		AvoidanceRadiusMultiplier: config.AvoidanceFactor,
		ManualSpeed:               config.ManualSpeed,
		Index:                     physics.IndexKind(config.Index),
	}
	flock := physics.NewFlock(flockConfig, behavior,
		physics.WithRand(rand.New(rand.NewSource(config.Seed))),
		physics.WithLogger(logger.With("component", "flock")),
	)
	drones := flock.Spawn(config.Count, physics.DefaultPrefab())

	lte, gt := partition.Build(drones, config.PivotIndex)
	for _, net := range []*graph.Network{lte, gt} {
		added := partition.LinkNearest(net, config.LinkK, config.LinkDistance)
		logger.Info("network ready", "tag", net.Tag, "id", net.ID, "drones", net.Len(), "links", added)
	}

	if config.TopologyFile != "" {
		topo, err := loadTopology(config.TopologyFile)
		if err != nil {
			return nil, err
		}
		applied, skipped := ingest.Apply(topo, lte, gt)
		logger.Info("topology applied", "file", config.TopologyFile, "applied", applied, "skipped", skipped)
	}

	sim := physics.NewSimulation(flock, config.RefreshInterval, logger.With("component", "simulation"))
	return command.NewSession(sim, logger.With("component", "command"), lte, gt), nil
}

// loadTopology reads and processes the link file based on its extension
func loadTopology(path string) (*ingest.Topology, error) {
	processor, err := ingest.ProcessorForFile(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read topology: %w", err)
	}
	topo, err := processor.ProcessData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to process %s: %w", path, err)
	}
	return topo, nil
}

func run(ctx context.Context, config *Configuration, logger *slog.Logger, in io.Reader, out io.Writer) error {
	session, err := buildSession(config, logger)
	if err != nil {
		return err
	}

	interval := time.Duration(float64(time.Second) / config.TickRate)

	switch config.Mode {
	case "headless":
		return runHeadless(ctx, session, config, out)
	case "server":
		go drive(ctx, session, interval, logger)
		return server.New(session, server.DefaultConfig(config.Port), logger.With("component", "server")).Start(ctx)
	default:
		go drive(ctx, session, interval, logger)
		return runREPL(ctx, session, in, out)
	}
}

func drive(ctx context.Context, session *command.Session, interval time.Duration, logger *slog.Logger) {
	if err := physics.Drive(ctx, interval, session.Step); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("simulation loop stopped", "error", err)
	}
}

// runHeadless advances a fixed number of steps and writes a snapshot
func runHeadless(ctx context.Context, session *command.Session, config *Configuration, out io.Writer) error {
	dt := 1 / config.TickRate
	for i := 0; i < config.Ticks; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		session.Step(dt)
	}
	fmt.Fprintln(out, session.Status())

	if err := renderOutput(session, config); err != nil {
		return fmt.Errorf("rendering failed: %w", err)
	}
	fmt.Fprintf(out, "Snapshot saved to %s\n", config.OutputFile)
	return nil
}

// runREPL executes one command per input line until EOF, "quit" or cancellation
func runREPL(ctx context.Context, session *command.Session, in io.Reader, out io.Writer) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	fmt.Fprintln(out, `Type "help" for commands, "quit" to exit.`)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			switch strings.ToLower(strings.TrimSpace(line)) {
			case "":
				continue
			case "quit", "exit":
				return nil
			}
			fmt.Fprintln(out, session.Exec(line))
		}
	}
}

// renderOutput renders the current flock using the configured renderer
func renderOutput(session *command.Session, config *Configuration) error {
	renderer, err := render.GetRenderer(config.Format)
	if err != nil {
		return err
	}

	options := render.NewDefaultOptions(config.Format)
	options.Width = config.Width
	options.Height = config.Height

	var frame *render.Frame
	session.View(func(flock *physics.Flock, networks []*graph.Network) {
		frame = render.Capture(flock, networks...)
	})

	output, err := renderer.Render(frame, options)
	if err != nil {
		return err
	}
	if err := os.WriteFile(config.OutputFile, output, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
