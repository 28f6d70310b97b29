// Package category assigns user-defined categories to usage sessions from an
// ordered rule list. Declaration order in the config file is a user-visible
// contract: the first matching rule wins, exact app names before bundle
// patterns.
package category

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/usageflow/screensync/internal/utils"
	"github.com/usageflow/screensync/pkg/usage"
)

const (
	// DefaultCategory is assigned when no rule matches.
	DefaultCategory = "Other"
	// SleepCategory is always assigned to sleep sessions, bypassing rules.
	SleepCategory = "Sleeping"
)

// Category is one declared category with its match lists, in file order.
type Category struct {
	Name           string   `json:"name"`
	Color          string   `json:"color"`
	Apps           []string `json:"apps"`
	BundlePatterns []string `json:"bundle_patterns"`
}

type configFile struct {
	Categories []Category `json:"categories"`
}

type patternRule struct {
	category string
	re       *regexp.Regexp
}

// Mapper resolves sessions to categories. Immutable after Load except via
// AddMapping, which also rewrites the config file preserving order.
type Mapper struct {
	path     string
	cats     []Category
	exact    map[string]string // app name -> category, first declaration wins
	patterns []patternRule
}

// Load reads the category config at path. A missing or unparsable file falls
// back to the built-in defaults with a warning; the path is kept so
// AddMapping can create the file later.
func Load(path string) (*Mapper, error) {
	cats := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var cf configFile
		if jerr := json.Unmarshal(data, &cf); jerr != nil {
			utils.Log.Warnf("Invalid category config %s: %v. Using defaults.", path, jerr)
		} else if len(cf.Categories) > 0 {
			cats = cf.Categories
		}
	case os.IsNotExist(err):
		utils.Log.Debugf("Category config not found at %s, using defaults", path)
	default:
		return nil, fmt.Errorf("reading category config: %w", err)
	}
	return newMapper(path, cats)
}

func newMapper(path string, cats []Category) (*Mapper, error) {
	m := &Mapper{path: path, cats: cats, exact: make(map[string]string)}
	for _, c := range cats {
		for _, app := range c.Apps {
			if _, seen := m.exact[app]; !seen {
				m.exact[app] = c.Name
			}
		}
		for _, p := range c.BundlePatterns {
			re, err := regexp.Compile("(?i)" + globToRegexp(p))
			if err != nil {
				return nil, fmt.Errorf("bad bundle pattern %q in category %q: %w", p, c.Name, err)
			}
			m.patterns = append(m.patterns, patternRule{category: c.Name, re: re})
		}
	}
	return m, nil
}

func globToRegexp(glob string) string {
	return strings.ReplaceAll(regexp.QuoteMeta(glob), `\*`, `.*`)
}

// Categorize resolves one app. matched is false when the result is the
// default fallback rather than a declared rule.
func (m *Mapper) Categorize(appName, bundle string) (category string, matched bool) {
	if c, ok := m.exact[appName]; ok {
		return c, true
	}
	if c, ok := m.exact[bundle]; ok {
		return c, true
	}
	for _, pr := range m.patterns {
		if pr.re.MatchString(bundle) {
			return pr.category, true
		}
	}
	return DefaultCategory, false
}

// Apply assigns a category to every session and collects the app names that
// fell through to the default, so a human can add rules for them later.
func (m *Mapper) Apply(sessions []usage.Session) ([]usage.Session, []string) {
	out := make([]usage.Session, len(sessions))
	seen := make(map[string]bool)
	var uncategorized []string
	for i, s := range sessions {
		if s.Kind == usage.KindSleep {
			s.Category = SleepCategory
			out[i] = s
			continue
		}
		cat, matched := m.Categorize(s.AppName, s.Bundle)
		s.Category = cat
		if !matched && !seen[s.AppName] {
			seen[s.AppName] = true
			uncategorized = append(uncategorized, s.AppName)
		}
		out[i] = s
	}
	sort.Strings(uncategorized)
	return out, uncategorized
}

// Categories returns the declared category names in file order.
func (m *Mapper) Categories() []string {
	names := make([]string, len(m.cats))
	for i, c := range m.cats {
		names[i] = c.Name
	}
	return names
}

// AddMapping appends an exact app-name rule to an existing category and
// rewrites the config file, preserving declaration order.
func (m *Mapper) AddMapping(appName, category string) error {
	idx := -1
	for i, c := range m.cats {
		if c.Name == category {
			idx = i
			break
		}
	}
	if idx == -1 {
		return fmt.Errorf("unknown category %q (available: %s)", category, strings.Join(m.Categories(), ", "))
	}
	for _, app := range m.cats[idx].Apps {
		if app == appName {
			return nil
		}
	}
	m.cats[idx].Apps = append(m.cats[idx].Apps, appName)
	if _, seen := m.exact[appName]; !seen {
		m.exact[appName] = category
	}
	return m.save()
}

func (m *Mapper) save() error {
	data, err := json.MarshalIndent(configFile{Categories: m.cats}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, append(data, '\n'), 0o644)
}

// Defaults returns the built-in category list, matching the select options
// the store schema is provisioned with.
func Defaults() []Category {
	return []Category{
		{Name: "Work", Color: "blue", Apps: []string{"Xcode", "Terminal", "Figma", "Cursor", "Notion"}, BundlePatterns: []string{"com.apple.dt.*", "com.microsoft.VSCode*", "com.todesktop.*"}},
		{Name: "Learn", Color: "yellow", Apps: []string{"Books", "Kindle"}, BundlePatterns: []string{"com.apple.iBooks*"}},
		{Name: "Socialize", Color: "green", Apps: []string{"Messages", "FaceTime", "Zoom", "Spark Email"}, BundlePatterns: []string{"com.apple.MobileSMS", "us.zoom.*"}},
		{Name: "Procrastinate", Color: "red", Apps: []string{"YouTube", "Instagram", "TikTok"}, BundlePatterns: []string{"com.instagram.*", "com.zhiliaoapp.musically*"}},
		{Name: "Exercise", Color: "purple", Apps: []string{"Fitness", "Strava"}, BundlePatterns: []string{"com.apple.Fitness*"}},
		{Name: "Family", Color: "pink", Apps: []string{"Photos", "FaceTime"}, BundlePatterns: nil},
		{Name: SleepCategory, Color: "gray", Apps: []string{"Sleep"}, BundlePatterns: nil},
		{Name: DefaultCategory, Color: "default", Apps: nil, BundlePatterns: nil},
	}
}
