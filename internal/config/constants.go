package config

// Application constants
const (
	AppName    = "accidents-pipeline"
	AppVersion = "1.0.0"

	// File Paths (relative to the base directory)
	DefaultDataDir         = "data"
	DefaultReportsDir      = "reports"
	DefaultLogsDir         = "logs"
	DefaultConsolidatedCSV = "dados_completos.csv"

	// Report layout
	TablesSubdir     = "tables"
	ReportBundleFile = "metrics_report.json"
	StatsFile        = "consolidation_stats.json"
)
