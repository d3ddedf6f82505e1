package odds

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"
)

// ErrDegenerateRating is returned when a rating is not a finite positive number,
// which would make the probability split undefined.
var ErrDegenerateRating = errors.New("degenerate faction rating")

// RandomSource supplies uniform draws in [0,1). *rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }

// BettingExample is a worked payout for one stake size.
type BettingExample struct {
	Units       int64 `json:"units"`
	Stake       int64 `json:"stake"`
	TotalReturn int64 `json:"totalReturn"`
	Profit      int64 `json:"profit"`
}

// SideOdds is the priced outcome for one faction.
type SideOdds struct {
	Name                string           `json:"name"`
	Odds                float64          `json:"odds"`
	ImpliedProbability  float64          `json:"impliedProbability"`
	TrueProbability     float64          `json:"trueProbability"`
	AdjustedProbability float64          `json:"adjustedProbability"`
	Confidence          int              `json:"confidence"`
	Rating              Rating           `json:"rating"`
	Examples            []BettingExample `json:"bettingExamples"`
}

// Metadata describes how a Result was priced.
type Metadata struct {
	OverallConfidence int       `json:"overallConfidence"`
	HouseEdge         float64   `json:"houseEdge"` // percentage, 6 for 6%
	RatingRatio       float64   `json:"ratingRatio"`
	Timestamp         time.Time `json:"timestamp"`
}

// Result is the odds for one matchup.
type Result struct {
	FactionA SideOdds `json:"faction1"`
	FactionB SideOdds `json:"faction2"`
	Metadata Metadata `json:"metadata"`
}

// Calculator prices matchups between two factions.
type Calculator struct {
	ratings   *RatingEngine
	houseEdge float64
	unitValue int64
	stakes    []int64
	variance  float64
	rng       RandomSource
	now       func() time.Time
}

// Option customises a Calculator.
type Option func(*Calculator)

// WithRandomSource sets the jitter source. Tests use a fixed source for determinism.
func WithRandomSource(rng RandomSource) Option {
	return func(c *Calculator) {
		if rng != nil {
			c.rng = rng
		}
	}
}

// WithClock sets the clock used for result timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCalculator validates cfg and builds a Calculator.
func NewCalculator(cfg Config, opts ...Option) (*Calculator, error) {
	ratings, err := NewRatingEngine(cfg)
	if err != nil {
		return nil, err
	}

	c := &Calculator{
		ratings:   ratings,
		houseEdge: cfg.HouseEdge,
		unitValue: cfg.UnitValue,
		stakes:    append([]int64(nil), cfg.StakeUnits...),
		variance:  cfg.Variance,
		rng:       globalSource{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Ratings exposes the underlying rating engine.
func (c *Calculator) Ratings() *RatingEngine {
	return c.ratings
}

// WarOdds prices a matchup between a and b.
func (c *Calculator) WarOdds(a, b FactionAttributes) (Result, error) {
	ratingA := c.ratings.Rate(a)
	ratingB := c.ratings.Rate(b)
	if !isPositiveFinite(ratingA.OverallRating) || !isPositiveFinite(ratingB.OverallRating) {
		return Result{}, fmt.Errorf("%w: %s=%v %s=%v", ErrDegenerateRating,
			a.Name, ratingA.OverallRating, b.Name, ratingB.OverallRating)
	}

	trueProbA := ratingA.OverallRating / (ratingA.OverallRating + ratingB.OverallRating)
	trueProbB := 1 - trueProbA

	adjustedA := clamp(trueProbA+c.jitter(), probabilityFloor, probabilityCeiling)
	adjustedB := 1 - adjustedA

	// The overround cancels in the renormalization; the margin shows up through
	// the odds being quoted on the renormalized probabilities.
	overround := 1 + c.houseEdge
	withEdgeA := adjustedA * overround
	withEdgeB := adjustedB * overround
	total := withEdgeA + withEdgeB
	impliedA := withEdgeA / total
	impliedB := withEdgeB / total

	oddsA := DecimalOdds(impliedA)
	oddsB := DecimalOdds(impliedB)

	return Result{
		FactionA: SideOdds{
			Name:                a.Name,
			Odds:                oddsA,
			ImpliedProbability:  impliedA,
			TrueProbability:     trueProbA,
			AdjustedProbability: adjustedA,
			Confidence:          ratingA.Confidence,
			Rating:              ratingA,
			Examples:            c.Examples(oddsA),
		},
		FactionB: SideOdds{
			Name:                b.Name,
			Odds:                oddsB,
			ImpliedProbability:  impliedB,
			TrueProbability:     trueProbB,
			AdjustedProbability: adjustedB,
			Confidence:          ratingB.Confidence,
			Rating:              ratingB,
			Examples:            c.Examples(oddsB),
		},
		Metadata: Metadata{
			OverallConfidence: int(math.Round(float64(ratingA.Confidence+ratingB.Confidence) / 2)),
			HouseEdge:         c.houseEdge * 100,
			RatingRatio:       ratingA.OverallRating / ratingB.OverallRating,
			Timestamp:         c.now(),
		},
	}, nil
}

// Examples returns the payout for each configured stake size at the given odds.
// Stake times odds is the total return, stake included.
func (c *Calculator) Examples(odds float64) []BettingExample {
	price := decimal.NewFromFloat(odds)
	examples := make([]BettingExample, 0, len(c.stakes))
	for _, units := range c.stakes {
		stake := units * c.unitValue
		totalReturn := decimal.NewFromInt(stake).Mul(price).Round(0).IntPart()
		examples = append(examples, BettingExample{
			Units:       units,
			Stake:       stake,
			TotalReturn: totalReturn,
			Profit:      totalReturn - stake,
		})
	}
	return examples
}

// DecimalOdds converts a probability into decimal odds rounded to two places.
func DecimalOdds(probability float64) float64 {
	return roundOdds(1 / probability)
}

// roundOdds rounds half away from zero on the shortest decimal form of x, so 1.005
// becomes 1.01 even though its binary value sits just below the tie.
func roundOdds(x float64) float64 {
	return decimal.NewFromFloat(x).Round(2).InexactFloat64()
}

// jitter draws uniformly from [-variance, variance].
func (c *Calculator) jitter() float64 {
	return (c.rng.Float64()*2 - 1) * c.variance
}

func isPositiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
