// Package report aggregates pipeline results into team-level summaries and
// renders them as HTML charts and pitch plots.
package report

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pitchside-data/intensity.report/internal/pipeline"
	"github.com/pitchside-data/intensity.report/internal/units"
)

// TeamDurationSummary describes the spread of worst-case intensities across
// one team's players for one window duration.
type TeamDurationSummary struct {
	Team     string        `json:"team"`
	Duration time.Duration `json:"duration"`
	Mean     float64       `json:"mean"`
	Min      float64       `json:"min"`
	Max      float64       `json:"max"`
	Players  int           `json:"players"`
}

// String formats the summary the way it appears in match reports.
func (s TeamDurationSummary) String() string {
	return fmt.Sprintf("%.1f (%.1f – %.1f)", s.Mean, s.Min, s.Max)
}

// TeamSummaries computes per-team, per-duration intensity spreads from a set
// of window results. playerTeams maps player id to team name; players without
// a mapping are skipped. Output is ordered by team name then duration.
func TeamSummaries(windows []pipeline.WindowResult, playerTeams map[int]string) []TeamDurationSummary {
	type key struct {
		team     string
		duration time.Duration
	}
	groups := make(map[key][]float64)
	for _, wr := range windows {
		team, ok := playerTeams[wr.Window.PlayerID]
		if !ok {
			continue
		}
		k := key{team: team, duration: wr.Window.Duration}
		groups[k] = append(groups[k], wr.Window.MeanIntensity)
	}

	out := make([]TeamDurationSummary, 0, len(groups))
	for k, vals := range groups {
		out = append(out, TeamDurationSummary{
			Team:     k.team,
			Duration: k.duration,
			Mean:     stat.Mean(vals, nil),
			Min:      floats.Min(vals),
			Max:      floats.Max(vals),
			Players:  len(vals),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Team != out[j].Team {
			return out[i].Team < out[j].Team
		}
		return out[i].Duration < out[j].Duration
	})
	return out
}

// EventTypeShare is the share of preceding events of one type across all
// worst-case windows.
type EventTypeShare struct {
	Type    string  `json:"event_type"`
	Subtype string  `json:"event_subtype,omitempty"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// EventShares tallies the event types that preceded worst-case windows,
// answering "what was the player doing before the most demanding passages".
// Shares are percentages of all preceding events, ordered most frequent
// first, ties by type then subtype.
func EventShares(windows []pipeline.WindowResult) []EventTypeShare {
	type key struct{ typ, sub string }
	counts := make(map[key]int)
	total := 0
	for _, wr := range windows {
		for _, ev := range wr.Preceding {
			counts[key{ev.Type, ev.Subtype}]++
			total++
		}
	}
	if total == 0 {
		return nil
	}

	out := make([]EventTypeShare, 0, len(counts))
	for k, n := range counts {
		out = append(out, EventTypeShare{
			Type:    k.typ,
			Subtype: k.sub,
			Count:   n,
			Percent: 100 * float64(n) / float64(total),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Subtype < out[j].Subtype
	})
	return out
}

// TeamEventShares computes EventShares separately per team. Windows of
// unmapped players are skipped.
func TeamEventShares(windows []pipeline.WindowResult, playerTeams map[int]string) map[string][]EventTypeShare {
	byTeam := make(map[string][]pipeline.WindowResult)
	for _, wr := range windows {
		team, ok := playerTeams[wr.Window.PlayerID]
		if !ok {
			continue
		}
		byTeam[team] = append(byTeam[team], wr)
	}

	out := make(map[string][]EventTypeShare, len(byTeam))
	for team, ws := range byTeam {
		if shares := EventShares(ws); shares != nil {
			out[team] = shares
		}
	}
	return out
}

// ConvertSummaries returns a copy of summaries with intensities converted to
// the requested speed unit. Summaries already carry the metric's native unit
// (m/s for speed windows), so conversion from MPS applies.
func ConvertSummaries(summaries []TeamDurationSummary, unit string) ([]TeamDurationSummary, error) {
	if !units.IsValid(unit) {
		return nil, fmt.Errorf("invalid unit %q; valid units are: %s", unit, units.GetValidUnitsString())
	}
	out := make([]TeamDurationSummary, len(summaries))
	for i, s := range summaries {
		s.Mean = units.ConvertSpeed(s.Mean, unit)
		s.Min = units.ConvertSpeed(s.Min, unit)
		s.Max = units.ConvertSpeed(s.Max, unit)
		out[i] = s
	}
	return out, nil
}
