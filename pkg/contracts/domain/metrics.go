package domain

// CountRow is one entry of a ranked count table (top highways, types, ...).
type CountRow struct {
	Key   string  `json:"key"`
	Label string  `json:"label,omitempty"`
	Count int     `json:"count"`
	Share float64 `json:"share_pct"`
}

// HighwayRisk aggregates a highway for the danger index ranking.
type HighwayRisk struct {
	Highway     string `json:"highway"`
	Label       string `json:"label"`
	Accidents   int    `json:"accidents"`
	SevereSum   int64  `json:"severe_sum"`
	FatalSum    int64  `json:"fatal_sum"`
	VictimsSum  int64  `json:"victims_sum"`
	DangerIndex int64  `json:"danger_index"`
}

// MortalityRow is the fatality rate of a highway with enough accidents.
type MortalityRow struct {
	Highway       string  `json:"highway"`
	Label         string  `json:"label"`
	Accidents     int     `json:"accidents"`
	FatalSum      int64   `json:"fatal_sum"`
	MortalityRate float64 `json:"mortality_rate_pct"`
}

// PercentileTable holds total-victim quantiles for one year.
type PercentileTable struct {
	Year         int       `json:"year"`
	Observations int       `json:"observations"`
	Percentiles  []float64 `json:"percentiles"`
	Values       []float64 `json:"values"`
}

// MonthlyVariation compares per-month accident counts between two years.
type MonthlyVariation struct {
	FromYear int            `json:"from_year"`
	ToYear   int            `json:"to_year"`
	Months   [12]MonthDelta `json:"months"`
}

// MonthDelta is the variation of one calendar month.
type MonthDelta struct {
	Month     int     `json:"month"`
	FromCount int     `json:"from_count"`
	ToCount   int     `json:"to_count"`
	RatePct   float64 `json:"rate_pct"`
}

// CorrelationMatrix is a symmetric Pearson matrix over Variables.
type CorrelationMatrix struct {
	Variables    []string    `json:"variables"`
	Values       [][]float64 `json:"values"`
	Observations int         `json:"observations"`
}

// At returns the coefficient between two variables by name.
func (m CorrelationMatrix) At(a, b string) (float64, bool) {
	i, j := -1, -1
	for k, v := range m.Variables {
		if v == a {
			i = k
		}
		if v == b {
			j = k
		}
	}
	if i < 0 || j < 0 {
		return 0, false
	}
	return m.Values[i][j], true
}

// CorrelationRank is one variable's correlation with a target variable.
type CorrelationRank struct {
	Variable    string  `json:"variable"`
	Coefficient float64 `json:"coefficient"`
	Strength    string  `json:"strength"`
}

// YearSummary holds the headline figures of one year.
type YearSummary struct {
	Year          int     `json:"year"`
	Accidents     int     `json:"accidents"`
	Light         int64   `json:"light"`
	Severe        int64   `json:"severe"`
	Fatal         int64   `json:"fatal"`
	TotalVictims  int64   `json:"total_victims"`
	MeanVictims   float64 `json:"mean_victims"`
	MedianVictims float64 `json:"median_victims"`
	MortalityRate float64 `json:"mortality_rate_pct"`
}

// YearComparison is the relative variation of the summary between two years.
type YearComparison struct {
	FromYear     int     `json:"from_year"`
	ToYear       int     `json:"to_year"`
	Accidents    float64 `json:"accidents_pct"`
	Light        float64 `json:"light_pct"`
	Severe       float64 `json:"severe_pct"`
	Fatal        float64 `json:"fatal_pct"`
	TotalVictims float64 `json:"total_victims_pct"`
}

// RegionalRow aggregates one region within one year.
type RegionalRow struct {
	Year      int    `json:"year"`
	Regional  string `json:"regional"`
	Accidents int    `json:"accidents"`
	Victims   int64  `json:"victims"`
	Fatal     int64  `json:"fatal"`
	Severe    int64  `json:"severe"`
}

// MonthlyRow aggregates one calendar month within one year.
type MonthlyRow struct {
	Year      int   `json:"year"`
	Month     int   `json:"month"`
	Accidents int   `json:"accidents"`
	Victims   int64 `json:"victims"`
	Fatal     int64 `json:"fatal"`
}

// WeekdayRow counts accidents on one weekday within one year.
type WeekdayRow struct {
	Year      int    `json:"year"`
	Weekday   string `json:"weekday"`
	Accidents int    `json:"accidents"`
}

// KmBandRow counts accidents within one kilometre band within one year.
type KmBandRow struct {
	Year      int     `json:"year"`
	Band      string  `json:"band"`
	Lower     float64 `json:"lower"`
	Upper     float64 `json:"upper"`
	Accidents int     `json:"accidents"`
}

// SeveritySummary describes the distribution of the per-record severity
// index within one year.
type SeveritySummary struct {
	Year   int     `json:"year"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// DirectionTable counts direction-of-travel labels per year. The vocabulary
// is not comparable across years when Caveat is set.
type DirectionTable struct {
	Years    []int              `json:"years"`
	Counts   map[int][]CountRow `json:"counts"`
	Families map[int]string     `json:"families"`
	Caveat   string             `json:"caveat,omitempty"`
}

// CrossTab is a two-key frequency table.
type CrossTab struct {
	Year      int      `json:"year,omitempty"`
	RowKeys   []string `json:"row_keys"`
	RowLabels []string `json:"row_labels"`
	ColKeys   []string `json:"col_keys"`
	Counts    [][]int  `json:"counts"`
}

// MissingValueRow reports nulls for one column.
type MissingValueRow struct {
	Column  string  `json:"column"`
	Missing int     `json:"missing"`
	Share   float64 `json:"share_pct"`
}

// TypeSeverityRow counts accidents of one type by gravity category.
type TypeSeverityRow struct {
	Year         int    `json:"year"`
	AccidentType string `json:"accident_type"`
	NoVictims    int    `json:"no_victims"`
	Light        int    `json:"light"`
	Severe       int    `json:"severe"`
	Fatal        int    `json:"fatal"`
}

// TypeMeanVictimsRow is the mean number of victims for one accident type.
type TypeMeanVictimsRow struct {
	Year         int     `json:"year"`
	AccidentType string  `json:"accident_type"`
	Accidents    int     `json:"accidents"`
	MeanVictims  float64 `json:"mean_victims"`
}
