package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/foxxcyber/trail-guide/internal/config"
	"github.com/foxxcyber/trail-guide/internal/database"
	"github.com/foxxcyber/trail-guide/internal/models"
)

// seedFile is the layout of a trail seed document
type seedFile struct {
	Trails []models.TrailSeed `yaml:"trails"`
}

func main() {
	dryRun := flag.Bool("dry-run", false, "Preview changes without writing to database")
	source := flag.String("file", "data/trails.yaml", "Trail seed file path or http(s) URL")
	area := flag.String("area", "", "Only import trails in this park area (e.g., 'Bear Lake Corridor')")
	flag.Parse()

	godotenv.Load()

	reader, closeFn, err := open(*source)
	if err != nil {
		log.Fatalf("Failed to open seed data: %v", err)
	}
	defer closeFn()

	trails, err := parseTrails(reader, *area)
	if err != nil {
		log.Fatalf("Failed to parse seed data: %v", err)
	}
	log.Printf("Found %d trails to import", len(trails))

	if *dryRun {
		log.Println("DRY RUN - No changes will be made")
		printPreview(trails)
		return
	}

	cfg := config.Load()
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	ctx := context.Background()
	for i := range trails {
		id, err := db.UpsertTrail(ctx, &trails[i])
		if err != nil {
			log.Fatalf("Failed to import trails: %v", err)
		}
		log.Printf("Progress: %d/%d %s (%s)", i+1, len(trails), trails[i].Slug, id)
	}
	log.Printf("Import complete: %d trails", len(trails))
}

func open(source string) (io.Reader, func(), error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		log.Printf("Downloading trail data from: %s", source)
		resp, err := http.Get(source)
		if err != nil {
			return nil, nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, nil, fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
		}
		return resp.Body, func() { resp.Body.Close() }, nil
	}

	file, err := os.Open(source)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("Reading from local file: %s", source)
	return file, func() { file.Close() }, nil
}

// parseTrails decodes and validates seed trails. Later entries with the same
// slug replace earlier ones.
func parseTrails(r io.Reader, area string) ([]models.TrailSeed, error) {
	var doc seedFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	bySlug := make(map[string]int)
	var trails []models.TrailSeed
	for i, t := range doc.Trails {
		t.Name = strings.TrimSpace(t.Name)
		if t.Name == "" {
			return nil, fmt.Errorf("trail %d: name is required", i+1)
		}
		t.Difficulty = strings.ToLower(strings.TrimSpace(t.Difficulty))
		if !models.IsValidDifficulty(t.Difficulty) {
			return nil, fmt.Errorf("trail %q: difficulty must be easy, moderate or hard", t.Name)
		}
		if area != "" && !strings.EqualFold(t.ParkArea, area) {
			continue
		}
		if t.Slug == "" {
			t.Slug = database.Slugify(t.Name)
		}

		if idx, ok := bySlug[t.Slug]; ok {
			log.Printf("Warning: duplicate slug %s, keeping the later entry", t.Slug)
			trails[idx] = t
			continue
		}
		bySlug[t.Slug] = len(trails)
		trails = append(trails, t)
	}
	return trails, nil
}

// printPreview shows a summary of the data to be imported
func printPreview(trails []models.TrailSeed) {
	fmt.Println("\n=== Preview of trails to import ===")
	fmt.Printf("Total: %d trails\n\n", len(trails))

	areaCount := make(map[string]int)
	for _, t := range trails {
		areaCount[t.ParkArea]++
	}

	fmt.Println("Trails per area:")
	areas := make([]string, 0, len(areaCount))
	for a := range areaCount {
		areas = append(areas, a)
	}
	sort.Strings(areas)
	for _, a := range areas {
		fmt.Printf("  %s: %d trails\n", a, areaCount[a])
	}

	fmt.Println("\nTrails:")
	for _, t := range trails {
		miles := "?"
		if t.DistanceMiles != nil {
			miles = fmt.Sprintf("%.1f", *t.DistanceMiles)
		}
		fmt.Printf("  %-28s %-9s %5s mi  [%s]\n", t.Name, t.Difficulty, miles, strings.Join(t.Tags, ", "))
	}
}
