package odds

// Performance holds the history-derived sub-scores of a faction.
//
// RecentPerformanceScore mirrors WinRateScore and ScoreEfficiencyScore and
// ConsistencyScore are fixed at 1.0: no in-war score telemetry exists before a
// war starts, so these inputs cannot be measured yet.
type Performance struct {
	WinRateScore           float64 `json:"winRateScore"`
	RecentPerformanceScore float64 `json:"recentPerformanceScore"`
	ScoreEfficiencyScore   float64 `json:"scoreEfficiencyScore"`
	ConsistencyScore       float64 `json:"consistencyScore"`
	Confidence             int     `json:"confidence"`
	TotalWars              int     `json:"totalWars"`
	ActualWinRate          float64 `json:"actualWinRate"`
}

// Breakdown keeps every sub-score that went into an overall rating.
type Breakdown struct {
	StaticPower float64     `json:"staticPower"`
	Performance Performance `json:"performance"`
	Weights     Weights     `json:"weights"`
}

// Rating is the composite power rating of one faction.
type Rating struct {
	OverallRating float64   `json:"overallRating"`
	Confidence    int       `json:"confidence"`
	Breakdown     Breakdown `json:"breakdown"`
}

// RatingEngine converts faction attributes into ratings.
type RatingEngine struct {
	rankMultipliers       map[int]float64
	defaultRankMultiplier float64
	weights               Weights
}

// NewRatingEngine creates a rating engine from a validated config.
func NewRatingEngine(cfg Config) (*RatingEngine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.clone()
	return &RatingEngine{
		rankMultipliers:       cfg.RankMultipliers,
		defaultRankMultiplier: cfg.DefaultRankMultiplier,
		weights:               cfg.Weights,
	}, nil
}

// RankMultiplier returns the strength multiplier of a rank tier.
func (e *RatingEngine) RankMultiplier(rank *int) float64 {
	if rank == nil {
		return e.defaultRankMultiplier
	}
	if m, ok := e.rankMultipliers[*rank]; ok {
		return m
	}
	return e.defaultRankMultiplier
}

// MemberEfficiency is a step function of member count.
func MemberEfficiency(members int) float64 {
	switch {
	case members >= 100:
		return 1.0
	case members >= 90:
		return 0.95
	case members >= 80:
		return 0.90
	case members >= 70:
		return 0.85
	case members >= 50:
		return 0.80
	case members >= 20:
		return 0.60
	default:
		return 0.40
	}
}

// ConfidenceForWars maps the number of finished wars to a confidence score.
func ConfidenceForWars(totalWars int) int {
	switch {
	case totalWars >= 30:
		return 95
	case totalWars >= 20:
		return 85
	case totalWars >= 15:
		return 75
	case totalWars >= 10:
		return 65
	case totalWars >= 5:
		return 45
	default:
		return 25
	}
}

// StaticPower combines normalized respect, the rank multiplier and member efficiency.
func (e *RatingEngine) StaticPower(f FactionAttributes) float64 {
	respectScore := f.RespectOrDefault() / RespectNormalizer
	return respectScore * e.RankMultiplier(f.Rank) * MemberEfficiency(f.MembersOrDefault())
}

// Performance derives the history sub-scores from win/loss counts and win rate.
func (e *RatingEngine) Performance(f FactionAttributes) Performance {
	winRate := f.WinRate.Fraction()
	winRateScore := clamp(winRate*2, 0.5, 2.0)
	totalWars := f.TotalWars()

	return Performance{
		WinRateScore:           winRateScore,
		RecentPerformanceScore: winRateScore,
		ScoreEfficiencyScore:   1.0,
		ConsistencyScore:       1.0,
		Confidence:             ConfidenceForWars(totalWars),
		TotalWars:              totalWars,
		ActualWinRate:          winRate,
	}
}

// Rate computes the weighted overall rating of a faction.
// The win rate term alone is at least 0.5*weight, so the result stays positive
// for finite inputs as long as the win rate weight is non-zero.
func (e *RatingEngine) Rate(f FactionAttributes) Rating {
	staticPower := e.StaticPower(f)
	perf := e.Performance(f)
	w := e.weights

	overall := w.StaticPower*staticPower +
		w.WinRate*perf.WinRateScore +
		w.RecentPerformance*perf.RecentPerformanceScore +
		w.ScoreEfficiency*perf.ScoreEfficiencyScore +
		w.Consistency*perf.ConsistencyScore

	return Rating{
		OverallRating: overall,
		Confidence:    perf.Confidence,
		Breakdown: Breakdown{
			StaticPower: staticPower,
			Performance: perf,
			Weights:     w,
		},
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
