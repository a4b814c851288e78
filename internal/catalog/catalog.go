package catalog

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ErrNoKeywords is returned when a keyword file yields no usable keywords.
var ErrNoKeywords = errors.New("no keywords found")

// Category is a named, ordered keyword group.
type Category struct {
	Name     string   `yaml:"name" json:"name"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// Catalog is an injectable keyword vocabulary. All holds every keyword
// once, in first-seen order.
type Catalog struct {
	Categories []Category `yaml:"categories" json:"categories"`
	All        []string   `yaml:"all,omitempty" json:"all"`
}

// Category returns the keywords of the named category.
func (c Catalog) Category(name string) ([]string, bool) {
	for _, cat := range c.Categories {
		if strings.EqualFold(cat.Name, name) {
			return cat.Keywords, true
		}
	}
	return nil, false
}

// Load reads a keyword file. Markdown files list numbered category headings
// followed by one keyword per line; YAML files unmarshal into Catalog.
func Load(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read keywords: %w", err)
	}
	var cat Catalog
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cat); err != nil {
			return Catalog{}, fmt.Errorf("parse keywords yaml: %w", err)
		}
		for i := range cat.Categories {
			cat.Categories[i].Keywords = normalizeAll(cat.Categories[i].Keywords)
		}
		cat.All = flatten(normalizeAll(cat.All), cat.Categories)
	default:
		cat = parseMarkdown(data)
	}
	if len(cat.All) == 0 {
		return Catalog{}, fmt.Errorf("%s: %w", path, ErrNoKeywords)
	}
	return cat, nil
}

// LoadOrDefault loads path, falling back to Default when path is empty or
// cannot be loaded.
func LoadOrDefault(path string, log logrus.FieldLogger) Catalog {
	if path == "" {
		return Default()
	}
	cat, err := Load(path)
	if err != nil {
		log.WithError(err).WithField("path", path).Warn("Falling back to default keyword catalog")
		return Default()
	}
	return cat
}

var (
	headingRe = regexp.MustCompile(`^(\d+[\s.)\x{FE0F}\x{20E3}]|\p{So})`)
	parenRe   = regexp.MustCompile(`\([^)]*\)`)
	invalidRe = regexp.MustCompile(`[^a-z0-9_]`)
)

func parseMarkdown(data []byte) Catalog {
	var cat Catalog
	current := -1
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		upper := strings.ToUpper(line)
		if strings.Contains(upper, "HR DOMAIN") || strings.Contains(upper, "KEYWORDS LIST") {
			continue
		}
		heading := strings.HasPrefix(line, "#")
		text := strings.TrimSpace(strings.TrimLeft(line, "#"))
		if headingRe.MatchString(text) {
			heading = true
		}
		if heading {
			name := strings.TrimLeftFunc(text, func(r rune) bool {
				return unicode.IsDigit(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) ||
					unicode.In(r, unicode.Mn, unicode.Me) || strings.ContainsRune("./-–", r)
			})
			name = strings.TrimSpace(parenRe.ReplaceAllString(name, ""))
			if name == "" {
				continue
			}
			current = categoryIndex(&cat, name)
			continue
		}
		if strings.HasPrefix(line, "(") && strings.HasSuffix(line, ")") {
			continue
		}
		if len(line) >= 50 {
			continue
		}
		kw := Normalize(line)
		if kw == "" {
			continue
		}
		if current < 0 {
			current = categoryIndex(&cat, "General")
		}
		cat.Categories[current].Keywords = appendUnique(cat.Categories[current].Keywords, kw)
	}
	cat.All = flatten(nil, cat.Categories)
	return cat
}

func categoryIndex(cat *Catalog, name string) int {
	for i, c := range cat.Categories {
		if c.Name == name {
			return i
		}
	}
	cat.Categories = append(cat.Categories, Category{Name: name})
	return len(cat.Categories) - 1
}

// Normalize converts a keyword line to lowercase snake case. It returns ""
// for keywords shorter than two characters or made only of digits.
func Normalize(s string) string {
	kw := strings.ToLower(strings.TrimSpace(s))
	kw = strings.NewReplacer(" ", "_", "-", "_").Replace(kw)
	kw = parenRe.ReplaceAllString(kw, "")
	kw = invalidRe.ReplaceAllString(kw, "")
	kw = strings.Trim(kw, "_")
	if len(kw) < 2 || isDigits(kw) {
		return ""
	}
	return kw
}

func normalizeAll(in []string) []string {
	var out []string
	for _, s := range in {
		if kw := Normalize(s); kw != "" {
			out = appendUnique(out, kw)
		}
	}
	return out
}

func flatten(all []string, cats []Category) []string {
	for _, c := range cats {
		for _, kw := range c.Keywords {
			all = appendUnique(all, kw)
		}
	}
	return all
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
