package analysis

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/rulescout/internal/dataset"
	"github.com/KaramelBytes/rulescout/internal/roles"
)

// SmallDatasetRows is the row count below which results are flagged as
// statistically unreliable.
const SmallDatasetRows = 30

// Insight is a statistical observation. It is never a business rule.
type Insight struct {
	Type           string `json:"type"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Impact         string `json:"impact"`
	IsBusinessRule bool   `json:"is_business_rule"`
	Note           string `json:"note,omitempty"`
}

// Warning is a data quality issue found in the records.
type Warning struct {
	Type           string `json:"type"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Impact         string `json:"impact"`
	Recommendation string `json:"recommendation"`
	IsBusinessRule bool   `json:"is_business_rule"`
}

// StatisticalInsights reports small samples, heavily missing columns and
// IQR outliers.
func StatisticalInsights(ds *dataset.Dataset, p Profile) []Insight {
	out := []Insight{}
	if p.TotalRows < SmallDatasetRows {
		out = append(out, Insight{
			Type:        "Warning",
			Title:       "Small Dataset",
			Description: fmt.Sprintf("Dataset has only %d rows. Limited statistical reliability.", p.TotalRows),
			Impact:      "Low",
		})
	}
	for _, c := range p.Columns {
		if c.NullPercentage > 20 {
			out = append(out, Insight{
				Type:        "Data Quality",
				Title:       fmt.Sprintf("High Missing Data in %s", c.Name),
				Description: fmt.Sprintf("%s has %.1f%% missing values", c.Name, c.NullPercentage),
				Impact:      "Medium",
			})
		}
	}
	if ds == nil {
		return out
	}
	for _, c := range ds.Columns {
		vals := c.Numbers()
		if len(vals) <= 10 {
			continue
		}
		if n := iqrOutliers(vals); n > 0 {
			out = append(out, Insight{
				Type:        "Statistical Insight",
				Title:       fmt.Sprintf("Outliers Detected in %s (Statistical Analysis)", c.Name),
				Description: fmt.Sprintf("%d statistical outliers detected in %s using IQR method", n, c.Name),
				Impact:      "Low",
				Note:        "This is a statistical observation, NOT a business rule",
			})
		}
	}
	return out
}

// DataQualityWarnings flags records that contradict HR policy, such as
// absent employees with recorded working hours.
func DataQualityWarnings(ds *dataset.Dataset, _ Profile) []Warning {
	out := []Warning{}
	if ds == nil {
		return out
	}
	m := roles.Resolve(ds.ColumnNames(), roles.WarningTable)
	sn, ok1 := m.Get(roles.Status)
	hn, ok2 := m.Get(roles.WorkingHours)
	if !ok1 || !ok2 {
		return out
	}
	status, _ := ds.Column(sn)
	hours, _ := ds.Column(hn)
	if !hours.IsNumeric() {
		return out
	}
	n := 0
	for i := 0; i < status.Len(); i++ {
		s, h := status.Values[i], hours.Values[i]
		if s.Null || h.Null {
			continue
		}
		if strings.ToLower(s.Raw) == "absent" && h.Num > 0 {
			n++
		}
	}
	if n > 0 {
		out = append(out, Warning{
			Type:           "Data Quality Issue",
			Title:          "Data Inconsistency: Absent employees with working hours > 0",
			Description:    fmt.Sprintf("Found %d records where Status='Absent' but Working_Hours > 0", n),
			Impact:         "High",
			Recommendation: "Review and correct these records - Absent employees should have 0 working hours",
		})
	}
	return out
}
