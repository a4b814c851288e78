package decision

import (
	"fmt"
	"sort"
	"strings"
)

// maxTableRows bounds the decision table in Markdown output.
const maxTableRows = 20

// Markdown renders the report for terminals.
func (r Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DECISION SUMMARY]\n")
	b.WriteString(fmt.Sprintf("Domain: %s (%s confidence)\n", r.DetectedDomain, r.DomainConfidence))
	b.WriteString(fmt.Sprintf("Purpose: %s (%s confidence)\n", r.DetectedPurpose, r.PurposeConfidence))
	if len(r.MatchedKeywords) > 0 {
		b.WriteString(fmt.Sprintf("Matched keywords: %s\n", strings.Join(r.MatchedKeywords, ", ")))
	}
	a := r.AppliedRules
	b.WriteString(fmt.Sprintf("Records: %d, rules applied: %d (%.2f per record, %s confidence)\n",
		a.TotalRecordsAnalyzed, a.TotalRulesApplied, a.AverageRulesPerRecord, r.ConfidenceLevel))

	if len(r.ColumnMapping) > 0 {
		b.WriteString("\n[COLUMN MAPPING]\n")
		roles := make([]string, 0, len(r.ColumnMapping))
		for role := range r.ColumnMapping {
			roles = append(roles, role)
		}
		sort.Strings(roles)
		for _, role := range roles {
			b.WriteString(fmt.Sprintf("- %s → %s\n", role, r.ColumnMapping[role]))
		}
	}

	if ins := r.DataInsights; ins.Salary != nil || ins.WorkingHours != nil || ins.Performance != nil {
		b.WriteString("\n[DATA INSIGHTS]\n")
		if s := ins.Salary; s != nil {
			b.WriteString(fmt.Sprintf("- salary: highest %.4g (record %d), lowest %.4g, average %.4g\n", s.Highest, s.HighestRecordIndex, s.Lowest, s.Average))
		}
		if h := ins.WorkingHours; h != nil {
			b.WriteString(fmt.Sprintf("- working hours: max %.4g, min %.4g, average %.4g\n", h.Maximum, h.Minimum, h.Average))
		}
		if p := ins.Performance; p != nil {
			b.WriteString(fmt.Sprintf("- rating: highest %.4g (record %d), average %.4g\n", p.HighestRating, p.HighestRecordIndex, p.AverageRating))
		}
	}

	if ml := r.MLPatternRecognition; ml != nil {
		b.WriteString("\n[ML PATTERNS]\n")
		if ml.Message != "" {
			b.WriteString("- " + ml.Message + "\n")
		}
		for _, rule := range ml.DiscoveredRules {
			b.WriteString("- " + rule + "\n")
		}
		for _, fs := range ml.FeatureImportance {
			b.WriteString(fmt.Sprintf("  • %s: %.1f%%\n", fs.Feature, fs.Score))
		}
		for _, p := range ml.AprioriPatterns {
			b.WriteString("- pattern: " + p + "\n")
		}
	}

	if len(r.FinalDecisionsSummary) > 0 {
		b.WriteString("\n[DECISIONS]\n")
		for _, k := range DecisionKeys {
			s, ok := r.FinalDecisionsSummary[k]
			if !ok {
				continue
			}
			parts := make([]string, len(s.UniqueValues))
			for i, v := range s.UniqueValues {
				parts[i] = fmt.Sprintf("%s(%d)", v, s.Distribution[v])
			}
			b.WriteString(fmt.Sprintf("- %s: %s\n", k, strings.Join(parts, ", ")))
		}
	}

	if td := r.TableData; len(td.Rows) > 0 {
		b.WriteString("\n[DECISION TABLE]\n")
		seps := make([]string, len(td.Columns))
		for i := range seps {
			seps[i] = "---"
		}
		b.WriteString("| " + strings.Join(td.Columns, " | ") + " |\n")
		b.WriteString("| " + strings.Join(seps, " | ") + " |\n")
		for i, row := range td.Rows {
			if i == maxTableRows {
				b.WriteString(fmt.Sprintf("\n(%d more rows)\n", len(td.Rows)-maxTableRows))
				break
			}
			cells := make([]string, len(row))
			for j, v := range row {
				cells[j] = strings.ReplaceAll(v, "|", "/")
			}
			b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
		}
	}
	return b.String()
}
