// Package skillcorner adapts SkillCorner open-data match artifacts into the
// provider-neutral sample and event shapes the analysis core consumes. It is
// the only package that knows the provider's schema.
package skillcorner

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pitchside-data/intensity.report/internal/events"
	"github.com/pitchside-data/intensity.report/internal/monitoring"
	"github.com/pitchside-data/intensity.report/internal/security"
	"github.com/pitchside-data/intensity.report/internal/tracking"
)

// DefaultBaseURL serves the SkillCorner open-data repository.
const DefaultBaseURL = "https://raw.githubusercontent.com/SkillCorner/opendata/master/data/matches"

// Team identifies one side of a match.
type Team struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Match is a fully loaded match: normalised frames and events plus the team
// mapping reports need.
type Match struct {
	ID          int
	Date        string
	HomeTeam    Team
	AwayTeam    Team
	PlayerTeams map[int]string // player id -> team name, starters only
	Frames      []tracking.FrameSample
	Events      []events.Record

	homeSides []string // attacking direction per period, from metadata
}

// Loader fetches and caches match artifacts on disk. Files already present
// under DataDir are never re-fetched, so a populated cache works offline.
type Loader struct {
	DataDir string
	BaseURL string
	Client  *http.Client
}

// NewLoader creates a Loader caching under dataDir.
func NewLoader(dataDir string) *Loader {
	return &Loader{
		DataDir: dataDir,
		BaseURL: DefaultBaseURL,
		Client:  http.DefaultClient,
	}
}

// metadataFile mirrors the subset of the match metadata document we consume.
type metadataFile struct {
	HomeTeam     Team     `json:"home_team"`
	AwayTeam     Team     `json:"away_team"`
	DateTime     string   `json:"date_time"`
	HomeTeamSide []string `json:"home_team_side"`
	Players      []struct {
		ID        int     `json:"id"`
		TeamID    int     `json:"team_id"`
		StartTime *string `json:"start_time"`
	} `json:"players"`
}

// trackingRow mirrors one line of the tracking JSONL stream.
type trackingRow struct {
	Frame      int64   `json:"frame"`
	Period     int     `json:"period"`
	Timestamp  string  `json:"timestamp"`
	Possession struct {
		Group string `json:"group"`
	} `json:"possession"`
	PlayerData []struct {
		PlayerID int     `json:"player_id"`
		X        float64 `json:"x"`
		Y        float64 `json:"y"`
	} `json:"player_data"`
}

// Load reads (fetching and caching if necessary) all artifacts for a match.
func (l *Loader) Load(ctx context.Context, matchID int) (*Match, error) {
	if err := os.MkdirAll(l.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	metaPath, err := l.ensure(ctx, matchID, fmt.Sprintf("%d_match.json", matchID), fmt.Sprintf("%d_meta.json", matchID))
	if err != nil {
		return nil, err
	}
	trackingPath, err := l.ensure(ctx, matchID, fmt.Sprintf("%d_tracking_extrapolated.jsonl", matchID), fmt.Sprintf("%d_tracking.jsonl", matchID))
	if err != nil {
		return nil, err
	}
	eventsPath, err := l.ensure(ctx, matchID, fmt.Sprintf("%d_dynamic_events.csv", matchID), fmt.Sprintf("%d_events.csv", matchID))
	if err != nil {
		return nil, err
	}

	match, err := parseMetadata(metaPath, matchID)
	if err != nil {
		return nil, err
	}
	if err := parseTracking(trackingPath, match); err != nil {
		return nil, err
	}
	if err := parseEvents(eventsPath, match); err != nil {
		return nil, err
	}

	monitoring.Logf("%s vs %s on %s parsed: %d frames, %d events",
		match.HomeTeam.Name, match.AwayTeam.Name, match.Date, len(match.Frames), len(match.Events))
	return match, nil
}

// ensure returns the local path for an artifact, downloading it when absent.
func (l *Loader) ensure(ctx context.Context, matchID int, remoteName, localName string) (string, error) {
	localPath := filepath.Join(l.DataDir, localName)
	if err := security.ValidatePathWithinDirectory(localPath, l.DataDir); err != nil {
		return "", err
	}
	if _, err := os.Stat(localPath); err == nil {
		return localPath, nil
	}

	url := fmt.Sprintf("%s/%d/%s", l.BaseURL, matchID, remoteName)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := l.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", remoteName, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch %s: status %d", remoteName, resp.StatusCode)
	}

	f, err := os.Create(localPath)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(localPath)
		return "", fmt.Errorf("failed to cache %s: %w", remoteName, err)
	}
	return localPath, nil
}

func parseMetadata(path string, matchID int) (*Match, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var meta metadataFile
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse match metadata: %w", err)
	}

	match := &Match{
		ID:          matchID,
		Date:        meta.DateTime,
		HomeTeam:    meta.HomeTeam,
		AwayTeam:    meta.AwayTeam,
		PlayerTeams: make(map[int]string),
	}
	// Only players who actually took the pitch carry tracking data.
	for _, p := range meta.Players {
		if p.StartTime == nil {
			continue
		}
		if p.TeamID == meta.HomeTeam.ID {
			match.PlayerTeams[p.ID] = meta.HomeTeam.Name
		} else {
			match.PlayerTeams[p.ID] = meta.AwayTeam.Name
		}
	}

	match.homeSides = meta.HomeTeamSide
	return match, nil
}

func parseTracking(path string, match *Match) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var row trackingRow
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			monitoring.Logf("skipping unparseable tracking row: %v", err)
			continue
		}

		// Frames outside active possession are not attributable to a phase
		// of play and are dropped.
		if row.Possession.Group != "home team" && row.Possession.Group != "away team" {
			continue
		}

		side := match.sideMultiplier(row.Period)
		for _, p := range row.PlayerData {
			teamName, played := match.PlayerTeams[p.PlayerID]
			if !played {
				continue
			}
			mult := side
			if teamName != match.HomeTeam.Name {
				mult = -side
			}
			match.Frames = append(match.Frames, tracking.FrameSample{
				PlayerID: p.PlayerID,
				Period:   row.Period,
				Frame:    row.Frame,
				X:        p.X * mult,
				Y:        p.Y * mult,
				Speed:    math.NaN(), // derived downstream from displacement
			})
		}
	}
	return scanner.Err()
}

// sideMultiplier normalises coordinates so the home team always attacks in
// the positive x direction regardless of period.
func (m *Match) sideMultiplier(period int) float64 {
	if period >= 1 && period <= len(m.homeSides) && m.homeSides[period-1] == "right_to_left" {
		return -1
	}
	return 1
}

func parseEvents(path string, match *Match) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("failed to read events header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"player_id", "frame_start", "event_type"} {
		if _, ok := col[required]; !ok {
			return fmt.Errorf("events file missing required column %q", required)
		}
	}

	get := func(record []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read events row: %w", err)
		}

		playerID, err := strconv.Atoi(get(record, "player_id"))
		if err != nil {
			continue // events without a player cannot be aligned
		}
		frame, err := strconv.ParseInt(get(record, "frame_start"), 10, 64)
		if err != nil {
			continue
		}

		var id int64
		if v := get(record, "event_id"); v != "" {
			id, _ = strconv.ParseInt(v, 10, 64)
		}

		rec := events.Record{
			ID:       id,
			PlayerID: playerID,
			Frame:    frame,
			Type:     get(record, "event_type"),
			Subtype:  get(record, "event_subtype"),
		}
		if team := get(record, "team_id"); team != "" {
			rec.Metadata = map[string]string{"team_id": team}
		}
		match.Events = append(match.Events, rec)
	}
	return nil
}
