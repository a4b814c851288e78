package decision

import (
	"math"
	"sort"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/KaramelBytes/rulescout/internal/analysis"
	"github.com/KaramelBytes/rulescout/internal/catalog"
	"github.com/KaramelBytes/rulescout/internal/dataset"
	"github.com/KaramelBytes/rulescout/internal/ml"
	"github.com/KaramelBytes/rulescout/internal/roles"
	"github.com/KaramelBytes/rulescout/internal/rules"
)

// Report limits.
const (
	MaxRecordAnalyses = 10
	MaxMatchedKeyword = 20
	MaxMLRules        = 10
	MaxMLPatterns     = 5
	MaxSampleTimes    = 10
)

// MLPatterns summarises rule discovery and pattern mining.
type MLPatterns struct {
	DiscoveredRules   []string      `json:"ml_discovered_rules"`
	FeatureImportance ml.Importance `json:"feature_importance"`
	AprioriPatterns   []string      `json:"apriori_patterns"`
	TargetColumn      string        `json:"target_column,omitempty"`
	ModelType         ml.ModelKind  `json:"model_type,omitempty"`
	Message           string        `json:"message,omitempty"`
}

// SalaryInsight describes the salary column.
type SalaryInsight struct {
	Highest            float64        `json:"highest"`
	Lowest             float64        `json:"lowest"`
	Average            float64        `json:"average"`
	HighestRecordIndex int            `json:"highest_record_index"`
	HighestRecordData  map[string]any `json:"highest_record_data"`
}

// AttendanceInsight describes the punch-in column.
type AttendanceInsight struct {
	PunchInColumn string   `json:"punch_in_column"`
	TotalRecords  int      `json:"total_records"`
	SampleTimes   []string `json:"sample_times"`
}

// HoursInsight describes the working hours column.
type HoursInsight struct {
	Maximum      float64 `json:"maximum"`
	Minimum      float64 `json:"minimum"`
	Average      float64 `json:"average"`
	TotalRecords int     `json:"total_records"`
}

// PerformanceInsight describes the rating column.
type PerformanceInsight struct {
	HighestRating      float64 `json:"highest_rating"`
	HighestRecordIndex int     `json:"highest_record_index"`
	AverageRating      float64 `json:"average_rating"`
	TotalRecords       int     `json:"total_records"`
}

// DataInsights holds per-role highlights. Absent roles are nil.
type DataInsights struct {
	Salary       *SalaryInsight      `json:"salary,omitempty"`
	Attendance   *AttendanceInsight  `json:"attendance,omitempty"`
	WorkingHours *HoursInsight       `json:"working_hours,omitempty"`
	Performance  *PerformanceInsight `json:"performance,omitempty"`
}

// AppliedSummary counts rule applications across all records.
type AppliedSummary struct {
	TotalRecordsAnalyzed  int              `json:"total_records_analyzed"`
	TotalRulesApplied     int              `json:"total_rules_applied"`
	AverageRulesPerRecord float64          `json:"average_rules_per_record"`
	RecordAnalyses        []RecordAnalysis `json:"record_analyses"`
}

// TableData is the record table with decision columns appended.
type TableData struct {
	Columns         []string   `json:"columns"`
	Rows            [][]string `json:"rows"`
	TotalRecords    int        `json:"total_records"`
	OriginalColumns []string   `json:"original_columns"`
	DecisionColumns []string   `json:"decision_columns"`
}

// DecisionSummary is the distribution of one decision key.
type DecisionSummary struct {
	UniqueValues []string       `json:"unique_values"`
	Distribution map[string]int `json:"distribution"`
	TotalCount   int            `json:"total_count"`
}

// Report is the output of AnalyzeDataset.
type Report struct {
	DetectedDomain        string                     `json:"detected_domain"`
	DomainConfidence      rules.Confidence           `json:"domain_confidence"`
	DetectedPurpose       string                     `json:"detected_purpose"`
	PurposeConfidence     rules.Confidence           `json:"purpose_confidence"`
	MatchedKeywords       []string                   `json:"matched_keywords"`
	DomainKeywordsMatched []string                   `json:"domain_keywords_matched"`
	MLPatternRecognition  *MLPatterns                `json:"ml_pattern_recognition,omitempty"`
	ColumnMapping         roles.Mapping              `json:"column_mapping"`
	DataInsights          DataInsights               `json:"data_insights"`
	AppliedRules          AppliedSummary             `json:"applied_rules"`
	TableData             TableData                  `json:"table_data"`
	FinalDecisionsSummary map[string]DecisionSummary `json:"final_decisions_summary"`
	ConfidenceLevel       rules.Confidence           `json:"confidence_level"`
	BusinessRulesApplied  []string                   `json:"business_rules_applied"`
}

// AnalyzeDataset detects the domain and purpose, optionally runs rule
// discovery and pattern mining, and applies the decision rules to every
// record. A nil or empty dataset yields a report with no records.
func (e *Engine) AnalyzeDataset(ds *dataset.Dataset, useML bool) Report {
	domain := analysis.DetectDomain(ds)
	columns := ds.ColumnNames()
	purpose := DetectPurpose(columns)
	if domain.Domain == "HR" {
		if hits := catalog.MatchColumns(columns, e.cat.All); len(hits) > 0 {
			if len(hits) > MaxMatchedKeyword {
				hits = hits[:MaxMatchedKeyword]
			}
			purpose.MatchedKeywords = hits
		}
	}

	rep := Report{
		DetectedDomain:        domain.Domain,
		DomainConfidence:      domain.Confidence,
		DetectedPurpose:       purpose.Purpose,
		PurposeConfidence:     purpose.Confidence,
		MatchedKeywords:       purpose.MatchedKeywords,
		DomainKeywordsMatched: domain.MatchedKeywords,
		FinalDecisionsSummary: map[string]DecisionSummary{},
		BusinessRulesApplied:  []string{},
	}
	if useML {
		rep.MLPatternRecognition = mlPatterns(ds, domain.Domain)
	}

	mapping := roles.Resolve(columns, roles.DecisionTable)
	rep.ColumnMapping = mapping
	rep.DataInsights = dataInsights(ds, mapping)

	var all []RecordAnalysis
	total := 0
	if !ds.Empty() {
		for i := 0; i < ds.Rows(); i++ {
			ra := e.AnalyzeRecord(ds, i, mapping, purpose.Purpose)
			total += len(ra.AppliedRules)
			all = append(all, ra)
		}
	}
	avg := 0.0
	if len(all) > 0 {
		avg = float64(total) / float64(len(all))
	}
	shown := all
	if len(shown) > MaxRecordAnalyses {
		shown = shown[:MaxRecordAnalyses]
	}
	if shown == nil {
		shown = []RecordAnalysis{}
	}
	rep.AppliedRules = AppliedSummary{
		TotalRecordsAnalyzed:  len(all),
		TotalRulesApplied:     total,
		AverageRulesPerRecord: math.Round(avg*100) / 100,
		RecordAnalyses:        shown,
	}
	switch {
	case avg >= 3:
		rep.ConfidenceLevel = rules.High
	case avg >= 1:
		rep.ConfidenceLevel = rules.Medium
	default:
		rep.ConfidenceLevel = rules.Low
	}
	rep.TableData = tableData(ds, all)
	rep.FinalDecisionsSummary = summarize(all)
	if len(all) > 0 {
		for _, o := range all[0].AppliedRules {
			rep.BusinessRulesApplied = append(rep.BusinessRulesApplied, o.Rule)
		}
	}

	e.log.WithFields(logrus.Fields{
		"domain":  rep.DetectedDomain,
		"purpose": rep.DetectedPurpose,
		"records": len(all),
		"rules":   total,
	}).Debug("Decision rules applied")
	return rep
}

func mlPatterns(ds *dataset.Dataset, domain string) *MLPatterns {
	d, _ := ml.Discover(ds, domain)
	out := &MLPatterns{
		DiscoveredRules:   []string{},
		FeatureImportance: d.FeatureImportance,
		AprioriPatterns:   []string{},
		TargetColumn:      d.TargetColumn,
		ModelType:         d.ModelType,
		Message:           d.Message,
	}
	for i, r := range d.Rules {
		if i == MaxMLRules {
			break
		}
		out.DiscoveredRules = append(out.DiscoveredRules, r.Rule)
	}
	for i, p := range ml.DiscoverPatterns(ds, ml.DefaultMinSupport) {
		if i == MaxMLPatterns {
			break
		}
		out.AprioriPatterns = append(out.AprioriPatterns, p.Pattern)
	}
	return out
}

// numbersWithIndex returns the parseable values of the column bound to role
// along with their row indexes.
func numbersWithIndex(ds *dataset.Dataset, m roles.Mapping, role string) ([]float64, []int) {
	name, ok := m.Get(role)
	if !ok {
		return nil, nil
	}
	c, ok := ds.Column(name)
	if !ok {
		return nil, nil
	}
	var vals []float64
	var idx []int
	for i := 0; i < c.Len(); i++ {
		r := row{ds: ds, i: i, m: m}
		if v, present, err := r.number(role); present && err == nil {
			vals = append(vals, v)
			idx = append(idx, i)
		}
	}
	return vals, idx
}

// extremes returns min, max, mean and the row index of the first maximum.
func extremes(vals []float64, idx []int) (lo, hi, mean float64, at int) {
	lo, hi, at = vals[0], vals[0], idx[0]
	var sum float64
	for i, v := range vals {
		sum += v
		if v < lo {
			lo = v
		}
		if v > hi {
			hi, at = v, idx[i]
		}
	}
	return lo, hi, sum / float64(len(vals)), at
}

func dataInsights(ds *dataset.Dataset, m roles.Mapping) DataInsights {
	var out DataInsights
	if ds.Empty() {
		return out
	}
	if vals, idx := numbersWithIndex(ds, m, roles.Salary); len(vals) > 0 {
		lo, hi, mean, at := extremes(vals, idx)
		out.Salary = &SalaryInsight{Highest: hi, Lowest: lo, Average: mean, HighestRecordIndex: at, HighestRecordData: ds.Record(at)}
	}
	if name, ok := m.Get(roles.PunchIn); ok {
		if c, ok := ds.Column(name); ok {
			var times []string
			n := 0
			for i := 0; i < c.Len(); i++ {
				if c.Values[i].Null {
					continue
				}
				n++
				if len(times) < MaxSampleTimes {
					times = append(times, c.String(i))
				}
			}
			if n > 0 {
				out.Attendance = &AttendanceInsight{PunchInColumn: name, TotalRecords: n, SampleTimes: times}
			}
		}
	}
	if vals, idx := numbersWithIndex(ds, m, roles.WorkingHours); len(vals) > 0 {
		lo, hi, mean, _ := extremes(vals, idx)
		out.WorkingHours = &HoursInsight{Maximum: hi, Minimum: lo, Average: mean, TotalRecords: len(vals)}
	}
	if vals, idx := numbersWithIndex(ds, m, roles.Rating); len(vals) > 0 {
		_, hi, mean, at := extremes(vals, idx)
		out.Performance = &PerformanceInsight{HighestRating: hi, HighestRecordIndex: at, AverageRating: mean, TotalRecords: len(vals)}
	}
	return out
}

// tableData lays out record_index, the dataset columns and then the
// decision keys present in any record. A decision key that collides with a
// dataset column replaces that column's value.
func tableData(ds *dataset.Dataset, all []RecordAnalysis) TableData {
	td := TableData{Columns: []string{}, Rows: [][]string{}, OriginalColumns: []string{}, DecisionColumns: []string{}}
	if len(all) == 0 {
		return td
	}
	td.OriginalColumns = ds.ColumnNames()
	orig := map[string]bool{}
	for _, c := range td.OriginalColumns {
		orig[c] = true
	}
	present := map[string]bool{}
	for _, ra := range all {
		for k := range ra.Decisions {
			present[k] = true
		}
	}
	for _, k := range DecisionKeys {
		if present[k] && !orig[k] {
			td.DecisionColumns = append(td.DecisionColumns, k)
		}
	}
	td.Columns = append(append([]string{"record_index"}, td.OriginalColumns...), td.DecisionColumns...)

	for _, ra := range all {
		cells := make([]string, 0, len(td.Columns))
		cells = append(cells, strconv.Itoa(ra.RecordIndex))
		for j, c := range ds.Columns {
			v := c.String(ra.RecordIndex)
			if d, ok := ra.Decisions[td.OriginalColumns[j]]; ok {
				v = d
			}
			cells = append(cells, v)
		}
		for _, k := range td.DecisionColumns {
			cells = append(cells, ra.Decisions[k])
		}
		td.Rows = append(td.Rows, cells)
	}
	td.TotalRecords = len(td.Rows)
	return td
}

func summarize(all []RecordAnalysis) map[string]DecisionSummary {
	out := map[string]DecisionSummary{}
	for _, ra := range all {
		keys := make([]string, 0, len(ra.Decisions))
		for k := range ra.Decisions {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v := ra.Decisions[k]
			s, ok := out[k]
			if !ok {
				s = DecisionSummary{UniqueValues: []string{}, Distribution: map[string]int{}}
			}
			if s.Distribution[v] == 0 {
				s.UniqueValues = append(s.UniqueValues, v)
			}
			s.Distribution[v]++
			s.TotalCount++
			out[k] = s
		}
	}
	return out
}
