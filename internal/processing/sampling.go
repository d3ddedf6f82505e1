package processing

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"torn_war_odds/internal/app"
	"torn_war_odds/internal/metrics"
	"torn_war_odds/internal/odds"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// UnstartedWars returns the wars still marked as not started, first occurrence per war ID
func UnstartedWars(rows []app.WarRow) []app.WarRow {
	seen := make(map[int]bool, len(rows))
	var unstarted []app.WarRow
	for _, row := range rows {
		if row.Duration != NotStartedMarker || seen[row.WarID] {
			continue
		}
		seen[row.WarID] = true
		unstarted = append(unstarted, row)
	}
	return unstarted
}

// BuildFactionAttributes combines a faction's sheet record with its API profile.
// A nil profile leaves respect, rank and members absent so the engine defaults apply.
func BuildFactionAttributes(side app.WarRowFaction, profile *app.FactionBasicResponse) odds.FactionAttributes {
	winRate, err := odds.ParseWinRate(side.WinRate)
	if err != nil {
		log.Debug().
			Err(err).
			Int("faction_id", side.ID).
			Msg("Unreadable win rate, treating as unknown")
	}

	attrs := odds.FactionAttributes{
		Name:     side.Name,
		WarsWon:  odds.Int(side.WarsWon),
		WarsLost: odds.Int(side.WarsLost),
		WinRate:  winRate,
	}

	if profile != nil {
		if attrs.Name == "" {
			attrs.Name = profile.Name
		}
		attrs.Respect = odds.Float64(profile.Respect)
		attrs.Rank = odds.Int(profile.Rank.Level)
		if len(profile.Members) > 0 {
			attrs.Members = odds.Int(len(profile.Members))
		}
	}

	return attrs
}

// SampleResult summarises one run of the sampling job
type SampleResult struct {
	SampleID   string
	Candidates int
	Samples    []app.SampledWarOdds
}

// SampleOption customises a SampleService
type SampleOption func(*SampleService)

// WithArchiver stores every written sample
func WithArchiver(archiver SampleArchiverInterface) SampleOption {
	return func(s *SampleService) { s.archiver = archiver }
}

// WithNotifier announces every written sample
func WithNotifier(notifier SampleNotifierInterface) SampleOption {
	return func(s *SampleService) { s.notifier = notifier }
}

// WithRand replaces the random source used to pick wars
func WithRand(rng *rand.Rand) SampleOption {
	return func(s *SampleService) { s.rng = rng }
}

// WithIDGenerator replaces the sample batch ID generator
func WithIDGenerator(newID func() string) SampleOption {
	return func(s *SampleService) { s.newID = newID }
}

// SampleService prices a random subset of this week's unstarted wars
type SampleService struct {
	tornClient   TornClientInterface
	sheetsClient SheetsClientInterface
	calculator   OddsCalculatorInterface
	archiver     SampleArchiverInterface
	notifier     SampleNotifierInterface
	config       *app.Config
	rng          *rand.Rand
	newID        func() string
	now          func() time.Time
}

// NewSampleService creates the sampling job
func NewSampleService(
	tornClient TornClientInterface,
	sheetsClient SheetsClientInterface,
	calculator OddsCalculatorInterface,
	config *app.Config,
	opts ...SampleOption,
) *SampleService {
	s := &SampleService{
		tornClient:   tornClient,
		sheetsClient: sheetsClient,
		calculator:   calculator,
		config:       config,
		rng:          rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		newID:        uuid.NewString,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run reads this week's unstarted wars, prices a random sample of them and replaces
// the sample sheet. Wars that cannot be priced are skipped; archive and notification
// failures are logged only.
func (s *SampleService) Run(ctx context.Context) (*SampleResult, error) {
	sheetName := WeeklySheetName(s.now())

	rows, err := s.sheetsClient.ReadWars(ctx, s.config.SpreadsheetID, sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read wars from %s: %w", sheetName, err)
	}

	candidates := UnstartedWars(rows)
	result := &SampleResult{
		SampleID:   s.newID(),
		Candidates: len(candidates),
	}

	if len(candidates) == 0 {
		log.Info().
			Str("sheet_name", sheetName).
			Msg("No unstarted wars to sample")
		return result, nil
	}

	picked := s.pick(candidates, s.config.SampleSize)
	log.Info().
		Str("sample_id", result.SampleID).
		Int("candidates", len(candidates)).
		Int("sampled", len(picked)).
		Msg("Pricing sampled wars")

	for _, war := range picked {
		sample, err := s.priceWar(ctx, result.SampleID, war)
		if err != nil {
			log.Warn().
				Err(err).
				Int("war_id", war.WarID).
				Msg("Skipping war that could not be priced")
			continue
		}
		result.Samples = append(result.Samples, sample)
	}

	if len(result.Samples) == 0 {
		return result, fmt.Errorf("none of the %d sampled wars could be priced", len(picked))
	}

	if err := s.sheetsClient.WriteSample(ctx, s.config.SpreadsheetID, result.Samples); err != nil {
		return nil, fmt.Errorf("failed to write sample sheet: %w", err)
	}
	metrics.RecordSheetWrite("sample")
	metrics.WarsSampledTotal.Add(float64(len(result.Samples)))

	if s.archiver != nil {
		if err := s.archiver.ArchiveSample(ctx, result.Samples); err != nil {
			log.Error().Err(err).Str("sample_id", result.SampleID).Msg("Failed to archive sample")
		}
	}
	if s.notifier != nil {
		if err := s.notifier.NotifySample(ctx, result.Samples); err != nil {
			log.Error().Err(err).Str("sample_id", result.SampleID).Msg("Failed to send sample notification")
		}
	}

	log.Info().
		Str("sample_id", result.SampleID).
		Int("priced", len(result.Samples)).
		Msg("Sample complete")

	return result, nil
}

// pick draws up to size wars without replacement, keeping the draw order
func (s *SampleService) pick(candidates []app.WarRow, size int) []app.WarRow {
	shuffled := make([]app.WarRow, len(candidates))
	copy(shuffled, candidates)
	s.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if size < len(shuffled) {
		shuffled = shuffled[:size]
	}
	return shuffled
}

func (s *SampleService) priceWar(ctx context.Context, sampleID string, war app.WarRow) (app.SampledWarOdds, error) {
	factionA := BuildFactionAttributes(war.Faction1, s.profile(ctx, war.Faction1.ID))
	factionB := BuildFactionAttributes(war.Faction2, s.profile(ctx, war.Faction2.ID))

	result, err := s.calculator.WarOdds(factionA, factionB)
	if err != nil {
		return app.SampledWarOdds{}, err
	}
	metrics.OddsComputedTotal.Inc()

	sample := app.SampledWarOdds{
		SampleID:  sampleID,
		WarID:     war.WarID,
		StartDate: war.StartDate,
		Faction1:  war.Faction1,
		Faction2:  war.Faction2,
		Odds:      result,
	}

	favourite, price := sample.Favourite()
	log.Debug().
		Int("war_id", war.WarID).
		Str("favourite", favourite).
		Float64("odds", price).
		Int("confidence", result.Metadata.OverallConfidence).
		Msg("Priced war")

	return sample, nil
}

// profile fetches a faction's API profile, returning nil on failure so defaults apply
func (s *SampleService) profile(ctx context.Context, factionID int) *app.FactionBasicResponse {
	profile, err := s.tornClient.GetFactionBasic(ctx, factionID)
	if err != nil {
		log.Warn().
			Err(err).
			Int("faction_id", factionID).
			Msg("Failed to fetch faction profile, using default stats")
		return nil
	}
	return profile
}
