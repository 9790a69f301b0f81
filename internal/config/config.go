package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"accidentscli/pkg/contracts/domain"
)

// EnvPrefix namespaces every environment override (ACC_PATHS_DATA_DIR, ...)
const EnvPrefix = "ACC"

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Sources   []SourceConfig  `yaml:"sources" ignored:"true" validate:"required,min=1,unique=Year,dive"`
	Years     []int           `yaml:"years" envconfig:"YEARS" validate:"omitempty,dive,gt=0"`
	Schema    SchemaConfig    `yaml:"schema" envconfig:"SCHEMA"`
	Metrics   MetricsConfig   `yaml:"metrics" envconfig:"METRICS"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Store     StoreConfig     `yaml:"store" envconfig:"STORE"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths configuration. Relative directories
// resolve against BaseDir, which defaults to the working directory.
type PathsConfig struct {
	BaseDir         string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir         string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	ReportsDir      string `yaml:"reports_dir" envconfig:"REPORTS_DIR" validate:"required"`
	LogsDir         string `yaml:"logs_dir" envconfig:"LOGS_DIR" validate:"required"`
	ConsolidatedCSV string `yaml:"consolidated_csv" envconfig:"CONSOLIDATED_CSV" validate:"required"`
}

// SourceConfig names the workbook and sheet holding one year of accidents.
// An empty sheet selects the first sheet of the workbook.
type SourceConfig struct {
	Year  int    `yaml:"year" validate:"gt=0"`
	Path  string `yaml:"path" validate:"required"`
	Sheet string `yaml:"sheet"`
}

// SchemaConfig holds the canonical column list and the per-year alias table
type SchemaConfig struct {
	Canonical []string      `yaml:"canonical" ignored:"true" validate:"required,min=1,unique"`
	Aliases   []AliasConfig `yaml:"aliases" ignored:"true" validate:"omitempty,dive"`
}

// AliasConfig renames a raw header of one year to its canonical name
type AliasConfig struct {
	Year int    `yaml:"year" validate:"gt=0"`
	From string `yaml:"from" validate:"required"`
	To   string `yaml:"to" validate:"required"`
}

// MetricsConfig carries the named cutoffs and presentation values handed to
// the metrics engine and, through the report bundle, to renderers.
type MetricsConfig struct {
	Years                 []int     `yaml:"years" envconfig:"YEARS" validate:"omitempty,dive,gt=0"`
	TopHighways           int       `yaml:"top_highways" envconfig:"TOP_HIGHWAYS" validate:"gt=0"`
	TopAccidentTypes      int       `yaml:"top_accident_types" envconfig:"TOP_ACCIDENT_TYPES" validate:"gt=0"`
	TopOccurrences        int       `yaml:"top_occurrences" envconfig:"TOP_OCCURRENCES" validate:"gt=0"`
	TopDangerous          int       `yaml:"top_dangerous" envconfig:"TOP_DANGEROUS" validate:"gt=0"`
	TopMortality          int       `yaml:"top_mortality" envconfig:"TOP_MORTALITY" validate:"gt=0"`
	HeatmapHighways       int       `yaml:"heatmap_highways" envconfig:"HEATMAP_HIGHWAYS" validate:"gt=0"`
	CrossTabSize          int       `yaml:"crosstab_size" envconfig:"CROSSTAB_SIZE" validate:"gt=0"`
	TypeSeverityTypes     int       `yaml:"type_severity_types" envconfig:"TYPE_SEVERITY_TYPES" validate:"gt=0"`
	TypeMeanTypes         int       `yaml:"type_mean_types" envconfig:"TYPE_MEAN_TYPES" validate:"gt=0"`
	MortalityMinAccidents int       `yaml:"mortality_min_accidents" envconfig:"MORTALITY_MIN_ACCIDENTS" validate:"gt=0"`
	Percentiles           []float64 `yaml:"percentiles" envconfig:"PERCENTILES" validate:"required,min=1,dive,gte=0,lte=100"`
	KmBandWidth           float64   `yaml:"km_band_width" envconfig:"KM_BAND_WIDTH" validate:"gt=0"`
	KmBandMax             float64   `yaml:"km_band_max" envconfig:"KM_BAND_MAX" validate:"gtfield=KmBandWidth"`
	HighwayPrefix         string    `yaml:"highway_prefix" envconfig:"HIGHWAY_PREFIX"`
	Palette               []string  `yaml:"palette" envconfig:"PALETTE" validate:"omitempty,dive,hexcolor"`
}

// TelemetryConfig controls the batch tracer and the metrics textfile
type TelemetryConfig struct {
	ServiceName   string `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	Environment   string `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=none stdout"`
	TraceFile     string `yaml:"trace_file" envconfig:"TRACE_FILE"`
	MetricsFile   string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// StoreConfig enables the SQLite sink when SQLitePath is set
type StoreConfig struct {
	SQLitePath string `yaml:"sqlite_path" envconfig:"SQLITE_PATH"`
	Table      string `yaml:"table" envconfig:"TABLE" validate:"required,alphanum"`
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence. An empty filePath searches
// the well-known locations.
func Load(filePath string) (*Config, error) {
	cfg := Default()

	if filePath == "" {
		filePath = getConfigFilePath()
	}
	if filePath != "" {
		if err := loadFromFile(filePath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML document onto cfg. Keys absent from the
// document keep their current values.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"accidents.yaml",
		"config.yaml",
		"configs/accidents.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct constraints and the cross-field rules the tags
// cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	configured := make(map[int]bool, len(c.Sources))
	for _, s := range c.Sources {
		configured[s.Year] = true
	}
	for _, y := range c.Years {
		if !configured[y] {
			return fmt.Errorf("year %d has no configured source", y)
		}
	}

	if strings.EqualFold(c.Logging.Level, "warning") {
		c.Logging.Level = "warn"
	}
	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		return fmt.Errorf("logging output %q requires a file path", c.Logging.Output)
	}

	return nil
}

// SelectedSources returns the sources to consolidate in ascending year
// order, restricted to Years when that list is set.
func (c *Config) SelectedSources() []SourceConfig {
	keep := make(map[int]bool, len(c.Years))
	for _, y := range c.Years {
		keep[y] = true
	}

	out := make([]SourceConfig, 0, len(c.Sources))
	for _, s := range c.Sources {
		if len(keep) == 0 || keep[s.Year] {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// AliasTable indexes the schema aliases by year then raw header
func (c *Config) AliasTable() map[int]map[string]string {
	table := make(map[int]map[string]string)
	for _, a := range c.Schema.Aliases {
		if table[a.Year] == nil {
			table[a.Year] = make(map[string]string)
		}
		table[a.Year][a.From] = a.To
	}
	return table
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "both",
			FilePath: "accidents.log",
		},
		Paths: PathsConfig{
			DataDir:         DefaultDataDir,
			ReportsDir:      DefaultReportsDir,
			LogsDir:         DefaultLogsDir,
			ConsolidatedCSV: DefaultConsolidatedCSV,
		},
		Sources: []SourceConfig{
			{Year: 2023, Path: "Acidentes_DER_2023.xlsx", Sheet: "Base de Dados"},
			{Year: 2024, Path: "Acidentes_DER_2024.xlsx", Sheet: "Base de Dados"},
			{Year: 2025, Path: "Acidentes_DER_2025.xlsx", Sheet: "Base de dados "},
		},
		Schema: SchemaConfig{
			Canonical: domain.CanonicalColumns(),
			Aliases: []AliasConfig{
				{Year: 2024, From: " Ocorrência", To: domain.ColOccurrence},
				{Year: 2024, From: "Data", To: domain.ColRevisedAt},
			},
		},
		Metrics: MetricsConfig{
			TopHighways:           15,
			TopAccidentTypes:      10,
			TopOccurrences:        12,
			TopDangerous:          20,
			TopMortality:          20,
			HeatmapHighways:       15,
			CrossTabSize:          10,
			TypeSeverityTypes:     8,
			TypeMeanTypes:         15,
			MortalityMinAccidents: 100,
			Percentiles:           []float64{10, 25, 50, 75, 90, 95, 99},
			KmBandWidth:           50,
			KmBandMax:             650,
			HighwayPrefix:         "SP-",
			Palette:               []string{"#1E3A5F", "#2E7D32", "#F9A825"},
		},
		Telemetry: TelemetryConfig{
			ServiceName:   AppName,
			Environment:   "production",
			TraceExporter: "none",
		},
		Store: StoreConfig{
			Table: "accidents",
		},
	}
}
