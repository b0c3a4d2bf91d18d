// Package skills provides skill name normalization and a static-dictionary skill extractor.
package skills

import (
	"regexp"
	"sort"
	"strings"
)

// pattern binds a canonical skill name to the expression that detects it in free text.
type pattern struct {
	name string
	re   *regexp.Regexp
}

// dictionary is the static skill pattern set. Boundaries are written by hand because
// names like C++ or Node.js end in non-word characters where \b does not apply.
var dictionary = compile(map[string]string{
	"Python":        `python`,
	"Django":        `django`,
	"Flask":         `flask`,
	"FastAPI":       `fast\s?api`,
	"Java":          `(?:^|[^a-z])java(?:[^a-z]|$)`,
	"Spring":        `(?:^|[^a-z])spring(?:\s?boot)?(?:[^a-z]|$)`,
	"Kotlin":        `kotlin`,
	// A bare "go" counts only at the start of the text or next to a list separator.
	"Go":            `(?:^|[^a-z])golang(?:[^a-z]|$)|(?:^|[,/(;|])\s*go(?:[^a-z]|$)|(?:^|[^a-z])go\s*(?:[,/);|]|$)`,
	"Rust":          `(?:^|[^a-z])rust(?:[^a-z]|$)`,
	"C++":           `c\+\+`,
	"C#":            `c#`,
	"JavaScript":    `javascript|(?:^|[^a-z.])js(?:[^a-z]|$)`,
	"TypeScript":    `typescript|(?:^|[^a-z])ts(?:[^a-z]|$)`,
	"React":         `react(?:\.js|js)?`,
	"Vue":           `vue(?:\.js|js)?`,
	"Node.js":       `node(?:\.js|js)`,
	"Swift":         `(?:^|[^a-z])swift(?:[^a-z]|$)`,
	"Flutter":       `flutter`,
	"MySQL":         `mysql`,
	"PostgreSQL":    `postgre(?:s|sql)`,
	"MongoDB":       `mongo(?:db)?`,
	"Redis":         `redis`,
	"Kafka":         `kafka`,
	"Elasticsearch": `elastic\s?search`,
	"AWS":           `(?:^|[^a-z])aws(?:[^a-z]|$)|amazon web services`,
	"GCP":           `(?:^|[^a-z])gcp(?:[^a-z]|$)|google cloud`,
	"Azure":         `azure`,
	"Docker":        `docker`,
	"Kubernetes":    `kubernetes|(?:^|[^a-z])k8s(?:[^a-z]|$)`,
	"Terraform":     `terraform`,
	"Linux":         `linux`,
	"Git":           `(?:^|[^a-z])git(?:[^a-z]|$)`,
	"GraphQL":       `graphql`,
	"PyTorch":       `pytorch`,
	"TensorFlow":    `tensorflow`,
	"Spark":         `(?:^|[^a-z])spark(?:[^a-z]|$)`,
	"Airflow":       `airflow`,
})

func compile(src map[string]string) []pattern {
	patterns := make([]pattern, 0, len(src))
	for name, expr := range src {
		patterns = append(patterns, pattern{name: name, re: regexp.MustCompile(`(?i)` + expr)})
	}
	sort.Slice(patterns, func(i, j int) bool { return patterns[i].name < patterns[j].name })
	return patterns
}

// Extractor finds known skills in free text.
type Extractor struct {
	patterns []pattern
}

// NewExtractor returns an extractor backed by the built-in dictionary.
func NewExtractor() *Extractor {
	return &Extractor{patterns: dictionary}
}

// ExtractSkills returns canonical skill names found in text, deduplicated and sorted.
func (e *Extractor) ExtractSkills(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return []string{}
	}

	found := make([]string, 0)
	for _, p := range e.patterns {
		if p.re.MatchString(text) {
			found = append(found, p.name)
		}
	}

	return found
}
