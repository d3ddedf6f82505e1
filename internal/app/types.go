package app

import (
	"fmt"
	"math"
	"time"

	"torn_war_odds/internal/odds"
)

// RankedWarsResponse represents the response from /torn/?selections=rankedwars
type RankedWarsResponse struct {
	RankedWars map[string]RankedWar `json:"rankedwars"`
}

// RankedWar represents one ranked war between two factions
type RankedWar struct {
	Factions map[string]WarFaction `json:"factions"`
	War      WarTimes             `json:"war"`
}

// WarFaction represents a faction participating in a ranked war
type WarFaction struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
	Chain int    `json:"chain"`
}

// WarTimes holds the schedule and outcome of a ranked war. End and Winner are 0 until the war ends.
type WarTimes struct {
	Start  int64 `json:"start"`
	End    int64 `json:"end"`
	Target int   `json:"target"`
	Winner int   `json:"winner"`
}

// FactionBasicResponse represents the response from /faction/{id}?selections=basic
type FactionBasicResponse struct {
	ID       int                      `json:"ID"`
	Name     string                   `json:"name"`
	Tag      string                   `json:"tag"`
	Respect  float64                  `json:"respect"`
	Age      int                      `json:"age"`
	Capacity int                      `json:"capacity"`
	Members  map[string]FactionMember `json:"members"`
	Rank     FactionRank              `json:"rank"`
}

// FactionMember is a member entry in the faction basic response
type FactionMember struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// FactionRank is the ranked war standing of a faction
type FactionRank struct {
	Level    int    `json:"level"`
	Name     string `json:"name"`
	Division int    `json:"division"`
	Position int    `json:"position"`
	Wins     int    `json:"wins"`
}

// FactionHistory is the ranked war record of a faction derived from finished wars
type FactionHistory struct {
	WarsWon  int
	WarsLost int
}

// WinRateString formats the win rate the way the wars sheet stores it ("62%" or "N/A")
func (h FactionHistory) WinRateString() string {
	total := h.WarsWon + h.WarsLost
	if total == 0 {
		return odds.NotAvailable
	}
	return formatPercent(h.WarsWon, total)
}

// WarRow is one war as stored in the weekly wars sheet
type WarRow struct {
	WarID           int
	Status          string
	StartDate       time.Time
	EndDate         *time.Time
	Duration        string
	TargetScore     int
	Faction1        WarRowFaction
	Faction2        WarRowFaction
	TotalScore      int
	WinnerFactionID int
}

// WarRowFaction is one side of a war row
type WarRowFaction struct {
	ID       int
	Name     string
	Score    int
	Chain    int
	WarsWon  int
	WarsLost int
	WinRate  string
}

// SampledWarOdds is one priced war in the sample sheet
type SampledWarOdds struct {
	SampleID  string
	WarID     int
	StartDate time.Time
	Faction1  WarRowFaction
	Faction2  WarRowFaction
	Odds      odds.Result
}

// Favourite returns the name and odds of the side with the shorter price
func (s SampledWarOdds) Favourite() (string, float64) {
	if s.Odds.FactionA.Odds <= s.Odds.FactionB.Odds {
		return s.Odds.FactionA.Name, s.Odds.FactionA.Odds
	}
	return s.Odds.FactionB.Name, s.Odds.FactionB.Odds
}

func formatPercent(part, total int) string {
	return fmt.Sprintf("%d%%", int(math.Round(float64(part)*100/float64(total))))
}
