package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/1F47E/camina-segura/pkg/config"
	"github.com/1F47E/camina-segura/pkg/models"
	"github.com/1F47E/camina-segura/pkg/saferoute"
	"github.com/1F47E/camina-segura/pkg/store"
)

var (
	configFile string
	backend    string
	dataDir    string
	verbose    bool
	jsonOutput bool
)

// app holds what every subcommand needs, set up in PersistentPreRunE
type app struct {
	cfg    *config.Config
	log    *logrus.Logger
	store  store.Store
	closer io.Closer
	engine *saferoute.Engine
}

var a app

var rootCmd = &cobra.Command{
	Use:   "caminasegura",
	Short: "Safety-aware walking routes from community reports",
	Long: `Camina Segura scores locations from crowd-sourced safety reports and
self-assessments, and proposes safest, fastest and balanced routes between two points.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default config.yaml, then config.yaml.example)")
	rootCmd.PersistentFlags().StringVarP(&backend, "backend", "b", "", "Storage backend: memory, file, postgis, redis")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data", "d", "", "Data directory for the file backend")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
}

func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if backend != "" {
		cfg.Storage.Backend = backend
	}
	if dataDir != "" {
		cfg.Storage.DataDir = dataDir
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := cfg.NewLogger()
	log.WithFields(logrus.Fields{"config": cfg.Source, "backend": cfg.Storage.Backend}).Debug("configuration loaded")

	s, closer, err := cfg.OpenStore(cmd.Context(), log)
	if err != nil {
		return fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err)
	}

	opts := []saferoute.Option{saferoute.WithLogger(log)}
	if cfg.Routing.Seed != 0 {
		opts = append(opts, saferoute.WithSeed(cfg.Routing.Seed))
	}

	a = app{
		cfg:    cfg,
		log:    log,
		store:  s,
		closer: closer,
		engine: saferoute.NewWithStore(s, opts...),
	}
	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

// parsePoint reads "lat,lng"
func parsePoint(s string) (models.GeoPoint, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return models.GeoPoint{}, fmt.Errorf("invalid point %q: expected lat,lng", s)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return models.GeoPoint{}, fmt.Errorf("invalid latitude in %q: %w", s, err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return models.GeoPoint{}, fmt.Errorf("invalid longitude in %q: %w", s, err)
	}

	p := models.GeoPoint{Lat: lat, Lng: lng}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return p, fmt.Errorf("%w: %s", saferoute.ErrInvalidPoint, s)
	}
	return p, nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}
