package main

import (
	"flag"
	"fmt"

	"github.com/pitchside-data/intensity.report/internal/db"
	"github.com/pitchside-data/intensity.report/internal/units"
)

type options struct {
	matchID       int
	dataDir       string
	configPath    string
	dbPath        string
	migrationsDir string
	plotDir       string
	listen        string
	units         string
	serve         bool
}

func parseFlags(args []string) (*options, error) {
	fs := flag.NewFlagSet("intensity-report", flag.ContinueOnError)

	opts := &options{}
	fs.IntVar(&opts.matchID, "match", 0, "SkillCorner match id to analyse")
	fs.StringVar(&opts.dataDir, "data-dir", "data", "Directory for cached match artifacts")
	fs.StringVar(&opts.configPath, "config", "", "Path to tuning config JSON (defaults used when empty)")
	fs.StringVar(&opts.dbPath, "db", dbFile, "Path to the sqlite database")
	fs.StringVar(&opts.migrationsDir, "migrations", db.DefaultMigrationsDir, "Path to the migrations directory")
	fs.StringVar(&opts.plotDir, "plot-dir", "", "Directory for chart and pitch plot output (skipped when empty)")
	fs.StringVar(&opts.listen, "listen", ":8080", "Listen address")
	fs.StringVar(&opts.units, "units", units.MPERMIN, "Speed units for API responses (mps, kmph, kph, mpermin)")
	fs.BoolVar(&opts.serve, "serve", false, "Serve results over HTTP after the analysis")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if opts.matchID < 1 {
		return nil, fmt.Errorf("a positive -match id is required")
	}
	if !units.IsValid(opts.units) {
		return nil, fmt.Errorf("invalid -units %q; valid units are: %s", opts.units, units.GetValidUnitsString())
	}
	if opts.serve && opts.listen == "" {
		return nil, fmt.Errorf("-listen address is required with -serve")
	}

	return opts, nil
}
