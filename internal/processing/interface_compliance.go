package processing

import (
	"torn_war_odds/internal/archive"
	"torn_war_odds/internal/deployment"
	"torn_war_odds/internal/export"
	"torn_war_odds/internal/notify"
	"torn_war_odds/internal/odds"
	"torn_war_odds/internal/sheets"
	"torn_war_odds/internal/torn"
)

// Compile-time interface compliance checks
// These will cause compilation errors if the types don't implement the interfaces

var (
	_ TornClientInterface     = (*torn.Client)(nil)
	_ TornClientInterface     = (*CachedTornClient)(nil)
	_ SheetsClientInterface   = (*sheets.Client)(nil)
	_ OddsCalculatorInterface = (*odds.Calculator)(nil)
	_ SampleArchiverInterface = (*archive.BigQueryArchive)(nil)
	_ SampleNotifierInterface = (*notify.WebhookNotifier)(nil)
	_ export.SampleReader     = (*sheets.Client)(nil)
	_ export.Publisher        = (*deployment.SSHDeployer)(nil)
)
