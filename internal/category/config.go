package category

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/insightdelivered/bank-statement-parser/internal/models"
)

//go:embed default.json
var defaultConfig []byte

// BookingCategory assigns a name to bookings whose narration matches any of
// the regexes and whose amount lies in [MinAmount, MaxAmount).
type BookingCategory struct {
	Name      string   `json:"name" yaml:"name"`
	Regexes   []string `json:"regexes" yaml:"regexes"`
	MinAmount *float64 `json:"minAmount,omitempty" yaml:"minAmount,omitempty"`
	MaxAmount *float64 `json:"maxAmount,omitempty" yaml:"maxAmount,omitempty"`
}

// File is the on-disk layout of a category configuration.
type File struct {
	StatementGlobs    []string          `json:"statementGlobs,omitempty" yaml:"statementGlobs,omitempty"`
	RegexOptions      []string          `json:"regexOptions,omitempty" yaml:"regexOptions,omitempty"`
	BookingCategories []BookingCategory `json:"bookingCategories" yaml:"bookingCategories"`
}

type compiledCategory struct {
	name     string
	regex    *regexp.Regexp
	min, max float64
}

// Configuration is a loaded, compiled category configuration. It is never
// modified after loading and safe for concurrent use.
type Configuration struct {
	statementGlobs []string
	categories     []compiledCategory
}

// Empty is a configuration without categories.
var Empty = &Configuration{}

var regexOptionFlags = map[string]string{
	"IGNORE_CASE":     "i",
	"MULTILINE":       "m",
	"DOT_MATCHES_ALL": "s",
}

// New compiles the categories of f.
func New(f File) (*Configuration, error) {
	var flags strings.Builder
	for _, opt := range f.RegexOptions {
		flag, ok := regexOptionFlags[strings.ToUpper(opt)]
		if !ok {
			return nil, fmt.Errorf("unsupported regex option %q", opt)
		}
		flags.WriteString(flag)
	}

	prefix := ""
	if flags.Len() > 0 {
		prefix = "(?" + flags.String() + ")"
	}

	cfg := &Configuration{statementGlobs: f.StatementGlobs}
	for _, bc := range f.BookingCategories {
		if len(bc.Regexes) == 0 {
			return nil, fmt.Errorf("category %q has no regexes", bc.Name)
		}
		// Anchored at text boundaries so MULTILINE only changes ^ and $ inside
		// the configured regexes, never the whole-narration match.
		re, err := regexp.Compile(prefix + `\A(?:.*(` + strings.Join(bc.Regexes, "|") + `).*)\z`)
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", bc.Name, err)
		}

		c := compiledCategory{name: bc.Name, regex: re, min: math.Inf(-1), max: math.Inf(1)}
		if bc.MinAmount != nil {
			c.min = *bc.MinAmount
		}
		if bc.MaxAmount != nil {
			c.max = *bc.MaxAmount
		}
		cfg.categories = append(cfg.categories, c)
	}

	return cfg, nil
}

// Parse decodes a JSON or YAML configuration. JSON is detected by its
// leading brace.
func Parse(data []byte) (*Configuration, error) {
	var f File
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &f); err != nil {
			return nil, fmt.Errorf("parsing JSON config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing YAML config: %w", err)
	}
	return New(f)
}

// Load reads a configuration file from disk. Relative statement globs are
// resolved against the directory of the file.
func Load(path string) (*Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	dir := filepath.Dir(path)
	for i, glob := range cfg.statementGlobs {
		if !filepath.IsAbs(glob) {
			cfg.statementGlobs[i] = filepath.Join(dir, glob)
		}
	}
	return cfg, nil
}

// LoadDefault returns the built-in configuration.
func LoadDefault() (*Configuration, error) {
	return Parse(defaultConfig)
}

// Len returns the number of categories.
func (c *Configuration) Len() int {
	return len(c.categories)
}

// Find returns the name of the first category matching the item, or "".
func (c *Configuration) Find(item models.BookingItem) string {
	info := item.JoinInfo(models.DefaultInfoSeparator)
	amount := float64(item.Amount)

	for _, cat := range c.categories {
		if cat.min <= amount && amount < cat.max && cat.regex.MatchString(info) {
			return cat.name
		}
	}
	return ""
}

// Categorize returns copies of the items with their category set.
func (c *Configuration) Categorize(items []models.BookingItem) []models.BookingItem {
	out := make([]models.BookingItem, len(items))
	for i, item := range items {
		item.Info = append([]string(nil), item.Info...)
		item.Category = c.Find(item)
		out[i] = item
	}
	return out
}

// StatementFiles expands the statement globs of the configuration.
func (c *Configuration) StatementFiles() ([]string, error) {
	return ResolveGlobs(c.statementGlobs)
}

// ResolveGlobs expands file globs in order, each in lexical order and without
// duplicates. A pattern without glob characters yields the file only if it
// exists.
func ResolveGlobs(globs []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, glob := range globs {
		matches, err := filepath.Glob(glob)
		if err != nil {
			return nil, fmt.Errorf("invalid statement glob %q: %w", glob, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	return files, nil
}
