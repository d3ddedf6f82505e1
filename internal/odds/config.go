package odds

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidConfig is returned when a Config fails validation.
var ErrInvalidConfig = errors.New("invalid odds config")

const (
	// DefaultHouseEdge is the bookmaker margin applied as the overround.
	DefaultHouseEdge = 0.06
	// DefaultUnitValue is the dollar value of one stake unit (one xanax).
	DefaultUnitValue = 744983
	// DefaultVariance bounds the uniform jitter added to the true probability.
	DefaultVariance = 0.01
	// DefaultRankMultiplier applies to rank tiers missing from the table.
	DefaultRankMultiplier = 0.05

	// DefaultRespect is assumed when a faction's respect is unknown.
	DefaultRespect = 1_000_000
	// DefaultMembers is assumed when a faction's member count is unknown.
	DefaultMembers = 50
	// RespectNormalizer maps raw respect to a score of 1.0.
	RespectNormalizer = 1_000_000.0

	probabilityFloor   = 0.05
	probabilityCeiling = 0.95
)

// Weights are the contributions of each sub-score to the overall rating.
type Weights struct {
	StaticPower       float64 `json:"staticPower" validate:"gte=0,lte=1"`
	WinRate           float64 `json:"winRate" validate:"gte=0,lte=1"`
	RecentPerformance float64 `json:"recentPerformance" validate:"gte=0,lte=1"`
	ScoreEfficiency   float64 `json:"scoreEfficiency" validate:"gte=0,lte=1"`
	Consistency       float64 `json:"consistency" validate:"gte=0,lte=1"`
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.StaticPower + w.WinRate + w.RecentPerformance + w.ScoreEfficiency + w.Consistency
}

// DefaultWeights returns the standard weight table (sums to 1.00).
func DefaultWeights() Weights {
	return Weights{
		StaticPower:       0.40,
		WinRate:           0.30,
		RecentPerformance: 0.20,
		ScoreEfficiency:   0.05,
		Consistency:       0.05,
	}
}

// DefaultRankMultipliers returns the rank tier table. A fresh map is returned on every call.
func DefaultRankMultipliers() map[int]float64 {
	return map[int]float64{
		// Diamond
		25: 1.60, 24: 1.50, 23: 1.40, 22: 1.30,
		// Platinum
		21: 1.20, 20: 1.10, 19: 1.00,
		// Gold
		18: 0.85, 17: 0.75, 16: 0.65, 15: 0.55,
		// Silver
		14: 0.45, 13: 0.35, 12: 0.28, 11: 0.22,
		// Bronze
		10: 0.18, 9: 0.14, 8: 0.10, 7: 0.07,
	}
}

// Config is the immutable configuration of the rating and odds engine.
type Config struct {
	HouseEdge             float64         `json:"houseEdge" validate:"gte=0,lt=1"`
	UnitValue             int64           `json:"unitValue" validate:"gt=0"`
	StakeUnits            []int64         `json:"stakeUnits" validate:"min=1,dive,gt=0"`
	Variance              float64         `json:"variance" validate:"gte=0,lt=0.45"`
	RankMultipliers       map[int]float64 `json:"rankMultipliers" validate:"dive,gte=0"`
	DefaultRankMultiplier float64         `json:"defaultRankMultiplier" validate:"gte=0"`
	Weights               Weights         `json:"weights"`
}

// DefaultConfig returns the engine configuration used by the deployment unless overridden.
func DefaultConfig() Config {
	return Config{
		HouseEdge:             DefaultHouseEdge,
		UnitValue:             DefaultUnitValue,
		StakeUnits:            []int64{1, 2, 5},
		Variance:              DefaultVariance,
		RankMultipliers:       DefaultRankMultipliers(),
		DefaultRankMultiplier: DefaultRankMultiplier,
		Weights:               DefaultWeights(),
	}
}

var validate = validator.New()

// Validate checks field bounds and that the weights sum to one.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if sum := c.Weights.Sum(); math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("%w: weights sum to %.4f, expected 1.0", ErrInvalidConfig, sum)
	}
	return nil
}

// clone copies the mutable parts so the caller cannot change a validated config.
func (c Config) clone() Config {
	out := c
	out.StakeUnits = append([]int64(nil), c.StakeUnits...)
	out.RankMultipliers = make(map[int]float64, len(c.RankMultipliers))
	for k, v := range c.RankMultipliers {
		out.RankMultipliers[k] = v
	}
	return out
}
