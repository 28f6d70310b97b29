package category

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/usageflow/screensync/pkg/usage"
)

func mkMapper(t *testing.T, cats []Category) *Mapper {
	t.Helper()
	m, err := newMapper(filepath.Join(t.TempDir(), "categories.json"), cats)
	if err != nil {
		t.Fatalf("newMapper: %v", err)
	}
	return m
}

func mkSession(appName, bundle string, kind usage.Kind) usage.Session {
	start := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
	return usage.Session{
		DeviceID: "mac-1",
		Bundle:   bundle,
		AppName:  appName,
		Kind:     kind,
		Start:    start,
		End:      start.Add(10 * time.Minute),
	}
}

func TestCategorizeOrder(t *testing.T) {
	cats := []Category{
		{Name: "Work", Apps: []string{"Safari"}, BundlePatterns: []string{"com.microsoft.*"}},
		{Name: "Play", Apps: []string{"Safari", "Steam"}, BundlePatterns: []string{"com.microsoft.ToDo"}},
	}
	m := mkMapper(t, cats)

	tests := []struct {
		appName string
		bundle  string
		want    string
		matched bool
	}{
		// First declared exact rule wins over the later duplicate.
		{"Safari", "com.apple.Safari", "Work", true},
		{"Steam", "com.valvesoftware.steam", "Play", true},
		// The earlier-declared pattern wins over the later one.
		{"Microsoft To Do", "com.microsoft.ToDo", "Work", true},
		// Pattern match, case-insensitive.
		{"Word", "COM.MICROSOFT.Word", "Work", true},
		{"Unknown", "org.example.app", "Other", false},
	}
	for _, tt := range tests {
		got, matched := m.Categorize(tt.appName, tt.bundle)
		if got != tt.want || matched != tt.matched {
			t.Fatalf("Categorize(%q, %q) = (%q, %v), want (%q, %v)",
				tt.appName, tt.bundle, got, matched, tt.want, tt.matched)
		}
	}
}

func TestApplySleepAndUncategorized(t *testing.T) {
	m := mkMapper(t, []Category{{Name: "Work", Apps: []string{"Xcode"}}})

	sessions := []usage.Session{
		mkSession("Xcode", "com.apple.dt.Xcode", usage.KindApp),
		mkSession("Sleep", usage.SleepBundle, usage.KindSleep),
		mkSession("MysteryApp", "org.mystery.app", usage.KindApp),
		mkSession("MysteryApp", "org.mystery.app", usage.KindApp),
	}

	got, uncategorized := m.Apply(sessions)
	if got[0].Category != "Work" {
		t.Fatalf("expected Work, got %q", got[0].Category)
	}
	if got[1].Category != SleepCategory {
		t.Fatalf("sleep session got %q, want %q", got[1].Category, SleepCategory)
	}
	if got[2].Category != DefaultCategory {
		t.Fatalf("unmatched session got %q, want %q", got[2].Category, DefaultCategory)
	}
	if len(uncategorized) != 1 || uncategorized[0] != "MysteryApp" {
		t.Fatalf("uncategorized = %v, want [MysteryApp]", uncategorized)
	}
}

func TestAddMappingRewritesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.json")
	m, err := newMapper(path, []Category{
		{Name: "Work", Apps: []string{"Xcode"}},
		{Name: "Play"},
	})
	if err != nil {
		t.Fatalf("newMapper: %v", err)
	}

	if err := m.AddMapping("Steam", "Play"); err != nil {
		t.Fatalf("AddMapping: %v", err)
	}
	if cat, _ := m.Categorize("Steam", ""); cat != "Play" {
		t.Fatalf("mapping not applied in memory: got %q", cat)
	}

	// Reload from disk: order and the new mapping must survive.
	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := reloaded.Categories(); len(got) != 2 || got[0] != "Work" || got[1] != "Play" {
		t.Fatalf("category order not preserved across reload: %v", got)
	}
	if cat, _ := reloaded.Categorize("Steam", ""); cat != "Play" {
		t.Fatalf("mapping not persisted: got %q", cat)
	}

	if err := m.AddMapping("Steam", "Nope"); err == nil {
		t.Fatal("expected error for unknown category")
	}
}

func TestLoadFallsBackToDefaults(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := m.Categories(); len(got) != len(Defaults()) {
		t.Fatalf("expected default categories, got %v", got)
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte("{nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err = Load(bad)
	if err != nil {
		t.Fatalf("Load with invalid json: %v", err)
	}
	if _, matched := m.Categorize("Xcode", "com.apple.dt.Xcode"); !matched {
		t.Fatal("defaults not active after invalid config")
	}
}

func TestSummarize(t *testing.T) {
	a := mkSession("Xcode", "com.apple.dt.Xcode", usage.KindApp)
	a.Category = "Work"
	b := mkSession("Safari", "com.apple.Safari", usage.KindApp)
	b.Category = "Work"
	c := mkSession("Instagram", "com.instagram.ios", usage.KindApp)
	c.Category = "Procrastinate"

	got := Summarize([]usage.Session{a, b, c})
	if len(got) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(got))
	}
	if got[0].Category != "Work" || got[0].Apps != 2 || got[0].Minutes != 20 {
		t.Fatalf("unexpected top summary: %+v", got[0])
	}
	if got[1].Percent != 33.3 {
		t.Fatalf("percent = %v, want 33.3", got[1].Percent)
	}
}
