package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"torn_war_odds/internal/app"
	"torn_war_odds/internal/archive"
	"torn_war_odds/internal/deployment"
	"torn_war_odds/internal/export"
	"torn_war_odds/internal/metrics"
	"torn_war_odds/internal/notify"
	"torn_war_odds/internal/odds"
	"torn_war_odds/internal/processing"
	"torn_war_odds/internal/scheduler"
	"torn_war_odds/internal/sheets"
	"torn_war_odds/internal/torn"

	"github.com/rs/zerolog/log"
)

const (
	jobAll    = "all"
	jobUpdate = "update"
	jobSample = "sample"
	jobExport = "export"

	jobTimeout = 30 * time.Minute
)

func main() {
	app.SetupEnvironment()

	// Parse command line flags
	runOnce := flag.Bool("once", false, "Run the selected jobs once and exit (don't start scheduler)")
	jobName := flag.String("job", jobAll, "Job to run: all, update, sample or export")
	flag.Parse()

	if !validJob(*jobName) {
		log.Fatal().Str("job", *jobName).Msg("Unknown job, expected all, update, sample or export")
	}

	log.Info().
		Bool("run_once", *runOnce).
		Str("job", *jobName).
		Msg("Starting Torn War Odds application")

	// Load configuration
	config, err := app.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if config.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, config.MetricsAddr); err != nil {
				log.Error().Err(err).Msg("Metrics server failed")
			}
		}()
	}

	// Initialize clients
	tornClient := torn.NewClient(config.TornAPIKey)
	tracker := processing.NewAPICallTracker()
	cachedTorn := processing.NewCachedTornClient(tornClient, tracker)

	sheetsClient, err := sheets.NewClient(ctx, config.CredentialsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create sheets client")
	}

	calculator, err := odds.NewCalculator(config.OddsConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create odds calculator")
	}

	var sampleOpts []processing.SampleOption
	if config.BigQueryProject != "" {
		bq, err := archive.NewBigQueryArchive(ctx, config.BigQueryProject, config.BigQueryDataset, config.BigQueryTable, config.CredentialsFile)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery archive")
		}
		defer bq.Close()
		sampleOpts = append(sampleOpts, processing.WithArchiver(bq))
	}
	if config.WebhookURL != "" {
		sampleOpts = append(sampleOpts, processing.WithNotifier(notify.NewWebhookNotifier(config.WebhookURL)))
	}

	var publisher export.Publisher
	if config.DeployURL != "" {
		deployer, err := deployment.NewSSHDeployer(config.DeployURL, config.DeployKeyFile, config.DeployKnownHosts)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid deploy configuration")
		}
		defer deployer.Close()
		publisher = deployer
	}

	updateService := processing.NewWarsUpdateService(cachedTorn, sheetsClient, config)
	sampleService := processing.NewSampleService(cachedTorn, sheetsClient, calculator, config, sampleOpts...)
	exporter := export.NewExporter(sheetsClient, publisher, config.SpreadsheetID, config.ExportPath)

	updateJob := func(ctx context.Context) error {
		ctx, calls := torn.WithCallCounter(ctx)
		// the war list must be fresh on every update
		cachedTorn.ClearCache()

		if _, err := updateService.Run(ctx); err != nil {
			return err
		}

		log.Info().
			Int64("api_calls", calls.Load()).
			Msg("Completed wars update")
		return nil
	}

	exportJob := func(ctx context.Context) error {
		_, err := exporter.Run(ctx)
		return err
	}

	sampleJob := func(ctx context.Context) error {
		ctx, calls := torn.WithCallCounter(ctx)
		// the tracker session spans one sample; updates only add to its totals
		tracker.ResetSession()

		log.Debug().
			Int64("predicted_api_calls", tracker.PredictCallsForSample(config.SampleSize)).
			Msg("Starting sample")

		result, err := sampleService.Run(ctx)
		if err != nil {
			return err
		}

		stats := cachedTorn.GetCacheStats()
		tracker.LogSessionSummary(ctx)
		log.Info().
			Int64("api_calls", calls.Load()).
			Int64("cache_hits", stats.Hits).
			Int64("cache_misses", stats.Misses).
			Msg("Completed sample")

		// each new sample is republished
		if len(result.Samples) > 0 {
			return exportJob(ctx)
		}
		return nil
	}

	sched := scheduler.NewScheduler(jobTimeout)
	if err := sched.AddJob(jobUpdate, config.UpdateSchedule, updateJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule wars update")
	}
	if err := sched.AddJob(jobSample, config.SampleSchedule, sampleJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule sampling")
	}
	if err := sched.AddJob(jobExport, "@every 24h", exportJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule export")
	}

	// Run initial processing
	log.Info().Msg("Running initial jobs")
	if err := runSelected(ctx, sched, *jobName); err != nil {
		log.Error().Err(err).Msg("Initial run failed")
		if *runOnce {
			os.Exit(1)
		}
	}

	// Exit if run-once flag is set
	if *runOnce {
		log.Info().Msg("Run-once mode: exiting after initial processing")
		return
	}

	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	sched.Stop()
}

func validJob(name string) bool {
	switch name {
	case jobAll, jobUpdate, jobSample, jobExport:
		return true
	}
	return false
}

// runSelected runs one job, or update then sample for "all". Sample runs include an export.
func runSelected(ctx context.Context, sched *scheduler.Scheduler, name string) error {
	if name != jobAll {
		return sched.RunNow(ctx, name)
	}

	for _, job := range []string{jobUpdate, jobSample} {
		if err := sched.RunNow(ctx, job); err != nil {
			return err
		}
	}
	return nil
}
