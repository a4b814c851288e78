package analysis

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/rulescout/internal/dataset"
	"github.com/KaramelBytes/rulescout/internal/rules"
)

// GenericDomain is reported when no domain keyword matches.
const GenericDomain = "Generic"

// Domain is one entry of the domain table.
type Domain struct {
	Name        string
	Keywords    []string
	Description string
}

// Domains is scored in order; earlier entries win ties.
var Domains = []Domain{
	{
		Name:        "HR",
		Keywords:    []string{"employee", "attendance", "hr", "working_hours", "check_in", "check_out", "status", "absent", "present", "half day", "leave", "department"},
		Description: "Human Resources domain - employee attendance, working hours, leave management",
	},
	{
		Name:        "Finance",
		Keywords:    []string{"loan", "cibil", "emi", "credit", "finance", "bank", "interest", "payment", "transaction", "account", "balance"},
		Description: "Finance domain - banking, loans, credit, transactions",
	},
	{
		Name:        "Sales",
		Keywords:    []string{"sales", "target", "discount", "revenue", "customer", "order", "product", "quantity", "price", "commission"},
		Description: "Sales domain - sales targets, customer management, revenue",
	},
	{
		Name:        "Healthcare",
		Keywords:    []string{"patient", "diagnosis", "risk", "health", "medical", "treatment", "symptom", "doctor", "hospital"},
		Description: "Healthcare domain - patient records, medical diagnosis",
	},
	{
		Name:        "Insurance",
		Keywords:    []string{"claim", "policy", "insurance", "premium", "coverage", "beneficiary"},
		Description: "Insurance domain - claims processing, policy management",
	},
}

// DomainInfo is the result of DetectDomain.
type DomainInfo struct {
	Domain          string           `json:"domain"`
	Description     string           `json:"description"`
	Reasoning       []string         `json:"reasoning"`
	Confidence      rules.Confidence `json:"confidence"`
	MatchedKeywords []string         `json:"matched_keywords"`
	Scores          map[string]int   `json:"scores"`
}

// DetectDomain scores the dataset against the domain table using column
// names plus up to ten non-null values from each of the first five columns.
func DetectDomain(ds *dataset.Dataset) DomainInfo {
	text := domainText(ds)
	scores := make(map[string]int, len(Domains))
	best, bestScore := -1, 0
	for i, d := range Domains {
		s := 0
		for _, kw := range d.Keywords {
			if strings.Contains(text, kw) {
				s++
			}
		}
		scores[d.Name] = s
		if s > bestScore {
			best, bestScore = i, s
		}
	}

	info := DomainInfo{Scores: scores, Confidence: confidenceFor(bestScore)}
	if best < 0 {
		info.Domain = GenericDomain
		info.Description = "Generic domain"
		info.Reasoning = []string{
			"No specific domain pattern detected in column names",
			"Analyzing as generic business dataset",
		}
		info.MatchedKeywords = []string{}
		return info
	}

	d := Domains[best]
	var matched []string
	for _, kw := range d.Keywords {
		if strings.Contains(text, kw) {
			matched = append(matched, kw)
		}
	}
	if len(matched) > 5 {
		matched = matched[:5]
	}
	var first []string
	if ds != nil {
		for i, c := range ds.Columns {
			if i == 3 {
				break
			}
			first = append(first, c.Name)
		}
	}
	info.Domain = d.Name
	info.Description = d.Description
	info.MatchedKeywords = matched
	info.Reasoning = []string{
		fmt.Sprintf("Detected %s domain based on column names: %s", d.Name, strings.Join(matched, ", ")),
		fmt.Sprintf("Column names like %s indicate %s context", strings.Join(first, ", "), d.Name),
	}
	return info
}

func confidenceFor(score int) rules.Confidence {
	switch {
	case score >= 3:
		return rules.High
	case score >= 1:
		return rules.Medium
	default:
		return rules.Low
	}
}

func domainText(ds *dataset.Dataset) string {
	if ds == nil {
		return ""
	}
	names := make([]string, len(ds.Columns))
	for i, c := range ds.Columns {
		names[i] = strings.ToLower(c.Name)
	}
	var samples []string
	for i, c := range ds.Columns {
		if i == 5 {
			break
		}
		taken := 0
		for r := 0; r < c.Len() && taken < 10; r++ {
			if c.Values[r].Null {
				continue
			}
			samples = append(samples, strings.ToLower(c.String(r)))
			taken++
		}
	}
	return strings.Join(names, " ") + " " + strings.Join(samples, " ")
}
