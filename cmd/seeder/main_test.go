package main

import (
	"strings"
	"testing"
)

const sample = `
trails:
  - name: Emerald Lake
    park_area: Bear Lake Corridor
    difficulty: Moderate
    tags: [lake, alpine]
    distance_miles: 3.2
  - name: Gem Lake
    park_area: Lumpy Ridge
    difficulty: moderate
  - name: Emerald Lake
    slug: emerald-lake
    park_area: Bear Lake Corridor
    difficulty: easy
`

func TestParseTrails(t *testing.T) {
	trails, err := parseTrails(strings.NewReader(sample), "")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(trails) != 2 {
		t.Fatalf("expected 2 trails after slug dedupe, got %d", len(trails))
	}
	if trails[0].Slug != "emerald-lake" || trails[0].Difficulty != "easy" {
		t.Fatalf("later duplicate should win: %+v", trails[0])
	}
	if trails[1].Slug != "gem-lake" {
		t.Fatalf("expected generated slug, got %q", trails[1].Slug)
	}
}

func TestParseTrailsAreaFilter(t *testing.T) {
	trails, err := parseTrails(strings.NewReader(sample), "lumpy ridge")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(trails) != 1 || trails[0].Name != "Gem Lake" {
		t.Fatalf("unexpected trails %+v", trails)
	}
}

func TestParseTrailsRejectsBadDifficulty(t *testing.T) {
	_, err := parseTrails(strings.NewReader("trails:\n  - name: Longs Peak\n    difficulty: extreme\n"), "")
	if err == nil {
		t.Fatal("expected an error for unknown difficulty")
	}
}
