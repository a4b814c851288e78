// Package analysis composes domain detection, profiling, rule generation and
// data-quality reporting into one advisory report.
package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/rulescout/internal/dataset"
	"github.com/KaramelBytes/rulescout/internal/rules"
)

// Options controls report composition.
type Options struct {
	Thresholds rules.Thresholds
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
	// GroupBy computes per-group summaries for the given column names.
	GroupBy []string
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
	// Outlier detection via robust Z-score (MAD). If Outliers is true, counts |z|>threshold.
	Outliers         bool
	OutlierThreshold float64
}

// DefaultOptions returns reasonable defaults for dataset analysis.
func DefaultOptions() Options {
	return Options{
		Thresholds:       rules.DefaultThresholds(),
		SampleRows:       5,
		OutlierThreshold: 3.5,
	}
}

// Recommendations are attached to every report.
var Recommendations = []string{
	"Review all Decision Rules to confirm they match your HR policies",
	"Validate Constraint ranges with HR team",
	"Test Derived Fields with sample data before implementation",
	"Address Data Quality Warnings before applying rules",
	"Statistical Insights are for reference only - do not implement as business rules",
}

// Summary is the headline of a report.
type Summary struct {
	DomainDetected      string           `json:"domain_detected"`
	DomainDescription   string           `json:"domain_description"`
	DomainReasoning     []string         `json:"domain_reasoning"`
	DomainConfidence    rules.Confidence `json:"domain_confidence"`
	TotalRows           int              `json:"total_rows"`
	TotalColumns        int              `json:"total_columns"`
	TotalBusinessRules  int              `json:"total_business_rules"`
	RulesNeedApproval   int              `json:"rules_requiring_approval"`
	SmallDatasetWarning bool             `json:"small_dataset_warning"`
}

// RuleGroup is one rule category with its note.
type RuleGroup struct {
	Count int            `json:"count"`
	Rules []rules.Record `json:"rules"`
	Note  string         `json:"note"`
}

// InsightGroup wraps statistical insights.
type InsightGroup struct {
	Count int       `json:"count"`
	Items []Insight `json:"items"`
	Note  string    `json:"note"`
}

// WarningGroup wraps data-quality warnings.
type WarningGroup struct {
	Count int       `json:"count"`
	Items []Warning `json:"items"`
	Note  string    `json:"note"`
}

// Report is the aggregated, markdown-friendly analysis of a dataset.
type Report struct {
	Summary             Summary       `json:"summary"`
	Domain              DomainInfo    `json:"domain"`
	Profile             Profile       `json:"dataset_profile"`
	ValidationRules     RuleGroup     `json:"validation_rules"`
	DecisionRules       RuleGroup     `json:"decision_rules"`
	Constraints         RuleGroup     `json:"constraints"`
	Derivations         RuleGroup     `json:"derivations"`
	Associations        RuleGroup     `json:"associations"`
	DataQualityWarnings WarningGroup  `json:"data_quality_warnings"`
	StatisticalInsights InsightGroup  `json:"statistical_insights"`
	Recommendations     []string      `json:"recommendations"`
	Groups              []GroupResult `json:"groups,omitempty"`
	Correlations        []PairCorr    `json:"correlations,omitempty"`
	Samples             [][]string    `json:"samples,omitempty"`
	Notes               []string      `json:"notes,omitempty"`
}

func group(recs []rules.Record, note string) RuleGroup {
	if recs == nil {
		recs = []rules.Record{}
	}
	return RuleGroup{Count: len(recs), Rules: recs, Note: note}
}

// AnalyzeData runs every generator over ds and aggregates the results. It
// fails only when ds is nil or has no rows or columns.
func AnalyzeData(ds *dataset.Dataset, opt Options) (*Report, error) {
	if ds.Empty() {
		return nil, dataset.ErrEmpty
	}
	th := opt.Thresholds
	if th == (rules.Thresholds{}) {
		th = rules.DefaultThresholds()
	}

	domain := DetectDomain(ds)
	profile := ProfileDataset(ds)
	validation := rules.Validation(ds, th)
	decision := rules.Decision(ds, th)
	constraints := rules.Constraints(ds, th)
	derivations := rules.Derivations(ds, th)
	associations := rules.Associations(ds, th)
	insights := StatisticalInsights(ds, profile)
	warnings := DataQualityWarnings(ds, profile)

	if opt.Outliers {
		thr := opt.OutlierThreshold
		if thr <= 0 {
			thr = 3.5
		}
		for i, c := range ds.Columns {
			if vals := c.Numbers(); len(vals) >= 8 {
				cnt, maxZ := robustZ(vals, thr)
				profile.Columns[i].OutliersCount = cnt
				profile.Columns[i].OutliersMaxAbsZ = maxZ
				profile.Columns[i].OutlierThreshold = thr
			}
		}
	}

	rep := &Report{
		Summary: Summary{
			DomainDetected:     domain.Domain,
			DomainDescription:  domain.Description,
			DomainReasoning:    domain.Reasoning,
			DomainConfidence:   domain.Confidence,
			TotalRows:          profile.TotalRows,
			TotalColumns:       profile.TotalColumns,
			TotalBusinessRules: len(validation) + len(decision) + len(constraints) + len(derivations) + len(associations),
			// validation and association records never require approval
			RulesNeedApproval:   rules.CountApproval(decision, constraints, derivations),
			SmallDatasetWarning: profile.TotalRows < SmallDatasetRows,
		},
		Domain:          domain,
		Profile:         profile,
		ValidationRules: group(validation, "Universal validation rules - ready for implementation"),
		DecisionRules:   group(decision, "HR Policy-based IF-THEN rules - reflect real business logic"),
		Constraints:     group(constraints, "Realistic business constraints - real-world limits"),
		Derivations:     group(derivations, "Business-valuable calculated fields - direct HR use"),
		Associations:    group(associations, "Clear business relationships between columns"),
		DataQualityWarnings: WarningGroup{
			Count: len(warnings), Items: warnings,
			Note: "Data quality issues - NOT business rules",
		},
		StatisticalInsights: InsightGroup{
			Count: len(insights), Items: insights,
			Note: "STATISTICAL INSIGHTS - NOT BUSINESS RULES. These are observations for reference only.",
		},
		Recommendations: append([]string(nil), Recommendations...),
	}

	if len(opt.GroupBy) > 0 {
		rep.Groups = GroupBy(ds, opt.GroupBy)
		if len(rep.Groups) == 0 {
			rep.Notes = append(rep.Notes, fmt.Sprintf("group-by columns not found: %s", strings.Join(opt.GroupBy, ", ")))
		}
	}
	if opt.Correlations {
		rep.Correlations = Correlations(ds)
	}
	for i := 0; i < opt.SampleRows && i < ds.Rows(); i++ {
		rep.Samples = append(rep.Samples, ds.Strings(i))
	}
	return rep, nil
}

// AllRules returns every business rule in category order.
func (r *Report) AllRules() []rules.Record {
	var out []rules.Record
	for _, g := range []RuleGroup{r.ValidationRules, r.DecisionRules, r.Constraints, r.Derivations, r.Associations} {
		out = append(out, g.Rules...)
	}
	return out
}

// Markdown renders a compact report suitable for terminals or standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	p := r.Profile
	b.WriteString("[DATASET SUMMARY]\n")
	if p.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", p.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", p.TotalRows))
	b.WriteString(fmt.Sprintf("Columns: %d\n", p.TotalColumns))
	b.WriteString(fmt.Sprintf("Domain: %s (%s confidence)\n", r.Summary.DomainDetected, r.Summary.DomainConfidence))
	for _, line := range r.Summary.DomainReasoning {
		b.WriteString(fmt.Sprintf("  • %s\n", line))
	}
	b.WriteString(fmt.Sprintf("Business rules: %d (%d require approval)\n\n", r.Summary.TotalBusinessRules, r.Summary.RulesNeedApproval))

	b.WriteString("[SCHEMA]\n")
	for _, c := range p.Columns {
		b.WriteString(fmt.Sprintf("- %s: %s/%s (nulls %d, %.1f%%, unique %d)", safeName(c.Name), c.Type, c.DType, c.NullCount, c.NullPercentage, c.UniqueCount))
		if s := c.Statistics; s != nil && s.Min != nil {
			b.WriteString(fmt.Sprintf(": min %.4g, max %.4g, mean %.4g, median %.4g", *s.Min, *s.Max, *s.Mean, *s.Median))
			if c.OutlierThreshold > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f", c.OutliersCount, c.OutlierThreshold))
				if c.OutliersMaxAbsZ > 0 {
					b.WriteString(fmt.Sprintf(" (max |z|≈%.2f)", c.OutliersMaxAbsZ))
				}
			}
		}
		if len(c.UniqueValues) > 0 {
			b.WriteString(": top ")
			for i, kv := range c.UniqueValues {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
			}
		}
		b.WriteString("\n")
	}

	for _, sec := range []struct {
		title string
		g     RuleGroup
	}{
		{"VALIDATION RULES", r.ValidationRules},
		{"DECISION RULES", r.DecisionRules},
		{"CONSTRAINTS", r.Constraints},
		{"DERIVATIONS", r.Derivations},
		{"ASSOCIATIONS", r.Associations},
	} {
		if sec.g.Count == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("\n[%s]\n", sec.title))
		for _, rec := range sec.g.Rules {
			flag := ""
			if rec.RequiresApproval {
				flag = ", needs approval"
			}
			b.WriteString(fmt.Sprintf("- %s (%s%s)\n", rec.Rule, rec.Confidence, flag))
			b.WriteString(fmt.Sprintf("  • %s\n", rec.Description))
		}
	}

	if r.DataQualityWarnings.Count > 0 {
		b.WriteString("\n[DATA QUALITY WARNINGS]\n")
		for _, w := range r.DataQualityWarnings.Items {
			b.WriteString(fmt.Sprintf("- %s: %s\n", w.Title, w.Description))
			b.WriteString(fmt.Sprintf("  • %s\n", w.Recommendation))
		}
	}
	if r.StatisticalInsights.Count > 0 {
		b.WriteString("\n[STATISTICAL INSIGHTS]\n")
		for _, in := range r.StatisticalInsights.Items {
			b.WriteString(fmt.Sprintf("- %s: %s (impact %s)\n", in.Title, in.Description, in.Impact))
		}
	}

	if len(r.Groups) > 0 {
		b.WriteString("\n[GROUP-BY SUMMARY]\n")
		for _, g := range r.Groups {
			b.WriteString(fmt.Sprintf("- %s (n=%d)\n", g.Key, g.Size))
			keys := make([]string, 0, len(g.Metrics))
			for k := range g.Metrics {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			if len(keys) > 6 {
				keys = keys[:6]
			}
			for _, k := range keys {
				m := g.Metrics[k]
				b.WriteString(fmt.Sprintf("  • %s: mean %.4g (min %.4g, max %.4g)\n", k, m.Mean, m.Min, m.Max))
			}
		}
	}
	if len(r.Correlations) > 0 {
		b.WriteString("\n[CORRELATIONS]\n")
		for _, pc := range r.Correlations {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", pc.A, pc.B, pc.R))
		}
	}

	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		names := make([]string, len(p.Columns))
		seps := make([]string, len(p.Columns))
		for i, c := range p.Columns {
			names[i] = safeName(c.Name)
			seps[i] = "---"
		}
		b.WriteString("| " + strings.Join(names, " | ") + " |\n")
		b.WriteString("| " + strings.Join(seps, " | ") + " |\n")
		for _, row := range r.Samples {
			cells := make([]string, len(p.Columns))
			for i := range cells {
				val := ""
				if i < len(row) {
					val = row[i]
				}
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				cells[i] = safeVal(val)
			}
			b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
		}
	}

	b.WriteString("\n[NOTES]\n")
	for _, n := range r.Notes {
		b.WriteString("- " + n + "\n")
	}
	for _, rec := range r.Recommendations {
		b.WriteString("- " + rec + "\n")
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
