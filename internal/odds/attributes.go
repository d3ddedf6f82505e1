package odds

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NotAvailable is the win rate marker used when a faction has no finished wars.
const NotAvailable = "N/A"

// assumedWinRate is used when the win rate is unknown.
const assumedWinRate = 0.5

// WinRate is a parsed win rate in [0,1]. The zero value is unknown.
type WinRate struct {
	value float64
	known bool
}

// KnownWinRate returns a WinRate holding fraction (0.62 for 62%).
func KnownWinRate(fraction float64) WinRate {
	return WinRate{value: fraction, known: true}
}

// UnknownWinRate returns the "N/A" win rate.
func UnknownWinRate() WinRate {
	return WinRate{}
}

// ParseWinRate parses a percentage string such as "62%" or "62.5%".
// Empty strings and the "N/A" marker yield an unknown win rate without error.
// Anything else that does not parse yields an unknown win rate and an error,
// so callers can report the bad value and carry on.
func ParseWinRate(s string) (WinRate, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, NotAvailable) {
		return UnknownWinRate(), nil
	}

	pct, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return UnknownWinRate(), fmt.Errorf("unparsable win rate %q: %w", s, err)
	}
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return UnknownWinRate(), fmt.Errorf("non-finite win rate %q", s)
	}
	return KnownWinRate(pct / 100), nil
}

// MarshalJSON encodes the win rate in its sheet form ("62%" or "N/A").
func (w WinRate) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.String())
}

// UnmarshalJSON accepts the sheet form. Unparsable values decode as unknown.
func (w *WinRate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("win rate must be a string: %w", err)
	}
	*w, _ = ParseWinRate(s)
	return nil
}

// Known reports whether the win rate was supplied.
func (w WinRate) Known() bool {
	return w.known
}

// Fraction returns the win rate, or 0.5 when unknown.
func (w WinRate) Fraction() float64 {
	if !w.known {
		return assumedWinRate
	}
	return w.value
}

// String formats the win rate the way it is stored in the sheets.
func (w WinRate) String() string {
	if !w.known {
		return NotAvailable
	}
	return strconv.FormatFloat(w.value*100, 'f', -1, 64) + "%"
}

// FactionAttributes is the input record for one faction. Nil pointers mean the
// attribute was absent; an explicit zero is kept as zero.
type FactionAttributes struct {
	Name     string   `json:"name"`
	Respect  *float64 `json:"respectValue,omitempty"`
	Rank     *int     `json:"rankValue,omitempty"`
	Members  *int     `json:"membersValue,omitempty"`
	WarsWon  *int     `json:"warsWon,omitempty"`
	WarsLost *int     `json:"warsLost,omitempty"`
	WinRate  WinRate  `json:"winRate"`
}

// RespectOrDefault returns the respect value, defaulting to 1,000,000 when absent.
func (f FactionAttributes) RespectOrDefault() float64 {
	if f.Respect == nil {
		return DefaultRespect
	}
	return *f.Respect
}

// MembersOrDefault returns the member count, defaulting to 50 when absent.
func (f FactionAttributes) MembersOrDefault() int {
	if f.Members == nil {
		return DefaultMembers
	}
	return *f.Members
}

// TotalWars returns wars won plus wars lost, treating absent counts as zero.
func (f FactionAttributes) TotalWars() int {
	return intOrZero(f.WarsWon) + intOrZero(f.WarsLost)
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// Float64 returns a pointer to v, for building FactionAttributes literals.
func Float64(v float64) *float64 { return &v }

// Int returns a pointer to v, for building FactionAttributes literals.
func Int(v int) *int { return &v }
