// Package courses holds the institute's course catalog and the mapping from
// registration course codes such as "german-b2" to certificate entries.
package courses

import (
	"sort"
	"strings"
)

// Levels offered for every language, in CEFR order
var Levels = []string{"A1", "A2", "B1", "B2", "C1", "C2"}

// FallbackLevel is assigned to course codes missing from the catalog
const FallbackLevel = "A1"

// Language is one language program shown on the courses page
type Language struct {
	ID          string   `json:"id"`
	Language    string   `json:"language"`
	Code        string   `json:"code"`
	Levels      []string `json:"levels"`
	Duration    string   `json:"duration"`
	Description string   `json:"description"`
}

// Course is the language and level a course code stands for
type Course struct {
	Language string `json:"language"`
	Level    string `json:"level"`
}

// Catalog maps course codes to courses
type Catalog struct {
	languages []Language
	codes     map[string]Course
}

// New builds a catalog where every language offers every level as "<id>-<level>"
func New(languages []Language) *Catalog {
	c := &Catalog{
		languages: languages,
		codes:     make(map[string]Course),
	}
	for _, lang := range languages {
		for _, level := range lang.Levels {
			code := lang.ID + "-" + strings.ToLower(level)
			c.codes[code] = Course{Language: lang.Language, Level: level}
		}
	}
	return c
}

// Default returns the institute's catalog
func Default() *Catalog {
	return New(defaultLanguages)
}

// Languages returns the language programs in display order
func (c *Catalog) Languages() []Language {
	out := make([]Language, len(c.languages))
	copy(out, c.languages)
	return out
}

// Codes returns every known course code, sorted
func (c *Catalog) Codes() []string {
	codes := make([]string, 0, len(c.codes))
	for code := range c.codes {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Lookup returns the course for code and whether it is in the catalog
func (c *Catalog) Lookup(code string) (Course, bool) {
	course, ok := c.codes[strings.ToLower(strings.TrimSpace(code))]
	return course, ok
}

// Resolve maps a course code to a course. Unknown codes become
// {UPPER(code), A1} so a verified registration always yields a certificate entry.
func (c *Catalog) Resolve(code string) Course {
	if course, ok := c.Lookup(code); ok {
		return course
	}
	return Course{Language: strings.ToUpper(code), Level: FallbackLevel}
}

var defaultLanguages = []Language{
	{
		ID:          "french",
		Language:    "French",
		Code:        "FR",
		Levels:      Levels,
		Duration:    "12 weeks per level",
		Description: "Grammar, conversation and cultural insight from beginner to advanced levels.",
	},
	{
		ID:          "german",
		Language:    "German",
		Code:        "DE",
		Levels:      Levels,
		Duration:    "12 weeks per level",
		Description: "A comprehensive program preparing you for work, study or travel in German-speaking countries.",
	},
	{
		ID:          "spanish",
		Language:    "Spanish",
		Code:        "ES",
		Levels:      Levels,
		Duration:    "12 weeks per level",
		Description: "From basic conversation to advanced proficiency in Spanish.",
	},
	{
		ID:          "italian",
		Language:    "Italian",
		Code:        "IT",
		Levels:      Levels,
		Duration:    "12 weeks per level",
		Description: "Communication skills with a tour of Italy's cultural heritage.",
	},
	{
		ID:          "english",
		Language:    "English",
		Code:        "EN",
		Levels:      Levels,
		Duration:    "12 weeks per level",
		Description: "Speaking, listening, reading and writing for business and everyday communication.",
	},
}
