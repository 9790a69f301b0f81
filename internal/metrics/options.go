package metrics

import "accidentscli/internal/config"

// Options are the named cutoffs and presentation values of the catalog
type Options struct {
	// Years restricts the catalog and fixes its year list, including years
	// with no records. Empty means the years present in the dataset.
	Years []int

	TopHighways       int
	TopAccidentTypes  int
	TopOccurrences    int
	TopDangerous      int
	TopMortality      int
	HeatmapHighways   int
	CrossTabSize      int
	TypeSeverityTypes int
	TypeMeanTypes     int

	// MortalityMinAccidents is the accident count below which a highway is
	// left out of the mortality table.
	MortalityMinAccidents int

	// Percentiles are expressed on a 0-100 scale
	Percentiles []float64

	KmBandWidth float64
	KmBandMax   float64

	HighwayPrefix string
	Palette       []string
}

// OptionsFromConfig copies the metrics section of the configuration
func OptionsFromConfig(cfg config.MetricsConfig) Options {
	return Options{
		Years:                 append([]int(nil), cfg.Years...),
		TopHighways:           cfg.TopHighways,
		TopAccidentTypes:      cfg.TopAccidentTypes,
		TopOccurrences:        cfg.TopOccurrences,
		TopDangerous:          cfg.TopDangerous,
		TopMortality:          cfg.TopMortality,
		HeatmapHighways:       cfg.HeatmapHighways,
		CrossTabSize:          cfg.CrossTabSize,
		TypeSeverityTypes:     cfg.TypeSeverityTypes,
		TypeMeanTypes:         cfg.TypeMeanTypes,
		MortalityMinAccidents: cfg.MortalityMinAccidents,
		Percentiles:           append([]float64(nil), cfg.Percentiles...),
		KmBandWidth:           cfg.KmBandWidth,
		KmBandMax:             cfg.KmBandMax,
		HighwayPrefix:         cfg.HighwayPrefix,
		Palette:               append([]string(nil), cfg.Palette...),
	}
}

// DefaultOptions returns the options of the default configuration
func DefaultOptions() Options {
	return OptionsFromConfig(config.Default().Metrics)
}
