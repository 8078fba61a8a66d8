// wcs-report prints a persisted analysis run as a console report: each
// player's worst-case windows with the events that preceded them.
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/pitchside-data/intensity.report/internal/db"
)

func main() {
	var dbPath string
	var matchID int
	var runID string
	var showEvents bool

	flag.StringVar(&dbPath, "db", "wcs.db", "path to sqlite db")
	flag.IntVar(&matchID, "match", 0, "match id (latest run is used when -run is empty)")
	flag.StringVar(&runID, "run", "", "run id to report on")
	flag.BoolVar(&showEvents, "events", false, "include preceding events per window")
	flag.Parse()

	if runID == "" && matchID < 1 {
		log.Fatalf("either -run or a positive -match must be provided")
	}

	dbConn, err := db.NewDB(dbPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer dbConn.Close()

	if runID == "" {
		runID, err = dbConn.LatestRunID(matchID)
		if errors.Is(err, sql.ErrNoRows) {
			log.Fatalf("no runs recorded for match %d", matchID)
		}
		if err != nil {
			log.Fatalf("lookup latest run: %v", err)
		}
	}

	windows, err := dbConn.WindowsForRun(runID)
	if err != nil {
		log.Fatalf("load windows: %v", err)
	}
	if len(windows) == 0 {
		log.Fatalf("run %s has no windows", runID)
	}

	fmt.Printf("run %s: %d windows\n", runID, len(windows))
	for _, w := range windows {
		fmt.Printf("  %s\n", w.String())

		if !showEvents {
			continue
		}
		evts, err := dbConn.PrecedingEventsFor(runID, w.PlayerID, w.DurationS)
		if err != nil {
			log.Fatalf("load preceding events: %v", err)
		}
		for _, e := range evts {
			name := e.Type
			if e.Subtype != "" {
				name += "/" + e.Subtype
			}
			fmt.Printf("    frame %d: %s\n", e.Frame, name)
		}
	}
}
