package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pitchside-data/intensity.report/internal/api"
	"github.com/pitchside-data/intensity.report/internal/config"
	"github.com/pitchside-data/intensity.report/internal/db"
	"github.com/pitchside-data/intensity.report/internal/pipeline"
	"github.com/pitchside-data/intensity.report/internal/report"
	"github.com/pitchside-data/intensity.report/internal/skillcorner"
	"github.com/pitchside-data/intensity.report/internal/version"
)

const dbFile = "wcs.db"

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		return err
	}
	log.Printf("intensity.report %s (%s)", version.Version, version.GitSHA)

	configPath := opts.configPath
	if configPath == "" {
		// Pick up the repo defaults file when present; flags still win.
		if _, err := os.Stat(config.DefaultConfigPath); err == nil {
			configPath = config.DefaultConfigPath
		}
	}

	cfg := config.EmptyTuningConfig()
	if configPath != "" {
		cfg, err = config.LoadTuningConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load tuning config: %w", err)
		}
		log.Printf("loaded tuning config from %s", configPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loader := skillcorner.NewLoader(opts.dataDir)
	match, err := loader.Load(ctx, opts.matchID)
	if err != nil {
		return fmt.Errorf("failed to load match %d: %w", opts.matchID, err)
	}
	log.Printf("loaded match %d: %s vs %s (%d frames, %d events)",
		match.ID, match.HomeTeam.Name, match.AwayTeam.Name, len(match.Frames), len(match.Events))

	engine := pipeline.New(cfg)
	results, err := engine.Run(ctx, match.Frames, match.Events)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	log.Printf("run %s: %d windows, %d warnings", results.RunID, len(results.Windows), len(results.Warnings))

	database, err := db.NewDB(opts.dbPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	if err := database.MigrateUp(opts.migrationsDir); err != nil {
		return err
	}
	if err := database.SaveResults(match.ID, cfg.GetIntensityMetric(), results); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}

	logSummaries(results, match)

	if opts.plotDir != "" {
		if err := writeArtifacts(results, match, cfg, opts.plotDir); err != nil {
			return err
		}
	}

	if !opts.serve {
		return nil
	}
	return serve(ctx, database, match, results, opts)
}

func logSummaries(results *pipeline.Results, match *skillcorner.Match) {
	for _, s := range report.TeamSummaries(results.Windows, match.PlayerTeams) {
		log.Printf("%s %ds: %s across %d players",
			s.Team, int(s.Duration.Seconds()), s, s.Players)
	}
	for _, sh := range report.EventShares(results.Windows) {
		name := sh.Type
		if sh.Subtype != "" {
			name += "/" + sh.Subtype
		}
		log.Printf("preceding events: %s %.1f%% (%d)", name, sh.Percent, sh.Count)
	}
}

// writeArtifacts renders the intensity chart and per-window pitch plots into
// dir.
func writeArtifacts(results *pipeline.Results, match *skillcorner.Match, cfg *config.TuningConfig, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create plot dir: %w", err)
	}

	chartPath := filepath.Join(dir, fmt.Sprintf("match_%d_intensity.html", match.ID))
	f, err := os.Create(chartPath)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	title := fmt.Sprintf("Match %d worst-case intensities", match.ID)
	if err := report.RenderIntensityChart(f, title, results.Windows); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Printf("wrote %s", chartPath)

	hsr, sprint := cfg.GetHSRThreshold(), cfg.GetSprintThreshold()
	for _, wr := range results.Windows {
		if len(wr.Trajectory.Samples) == 0 {
			continue
		}
		name := fmt.Sprintf("player_%d_%ds.png", wr.Window.PlayerID, int(wr.Window.Duration.Seconds()))
		path := filepath.Join(dir, name)
		if err := report.SavePitchPlot(wr.Trajectory, hsr, sprint, path); err != nil {
			log.Printf("failed to plot %s: %v", name, err)
			continue
		}
	}
	log.Printf("wrote pitch plots to %s", dir)
	return nil
}

func serve(ctx context.Context, database *db.DB, match *skillcorner.Match, results *pipeline.Results, opts *options) error {
	mux := http.NewServeMux()

	// admin debugging routes over the live analysis database
	database.AttachAdminRoutes(mux)

	apiServer := api.NewServer(database, match.ID, opts.units)
	apiServer.SetResults(results, match.PlayerTeams)
	mux.Handle("/api/", apiServer.ServeMux())

	server := &http.Server{
		Addr:    opts.listen,
		Handler: api.LoggingMiddleware(mux),
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("serving on %s", opts.listen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	log.Printf("graceful shutdown complete")
	return nil
}
