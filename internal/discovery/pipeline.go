package discovery

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/foxxcyber/trail-guide/internal/models"
)

// Difficulty filter values
const (
	DifficultyAll = "all"
)

// Feature is the single-select facet applied on top of the difficulty filter
type Feature string

const (
	FeatureNone        Feature = ""
	FeatureClosest     Feature = "closest"
	FeatureDogFriendly Feature = "dog_friendly"
	FeatureKidFriendly Feature = "kid_friendly"
	FeatureWaterfall   Feature = "waterfall"
	FeatureLake        Feature = "lake"
	FeatureSummit      Feature = "summit"
)

// SortOption selects the ordering of the visible list
type SortOption string

const (
	SortPopular      SortOption = "popular"
	SortRating       SortOption = "rating"
	SortDistanceAsc  SortOption = "distance_asc"
	SortDistanceDesc SortOption = "distance_desc"
	SortName         SortOption = "name"
)

// Filter is the search, filter and sort state for one list view
type Filter struct {
	Query      string
	Difficulty string
	Feature    Feature
	Sort       SortOption
}

// DefaultFilter returns the state a list view starts in
func DefaultFilter() Filter {
	return Filter{Difficulty: DifficultyAll, Sort: SortPopular}
}

// ParseDifficulty lowercases d and reports whether it is a known filter value
func ParseDifficulty(d string) (string, bool) {
	d = strings.ToLower(strings.TrimSpace(d))
	if d == "" || d == DifficultyAll {
		return DifficultyAll, true
	}
	if models.IsValidDifficulty(d) {
		return d, true
	}
	return "", false
}

// ParseFeature reports whether f names a known feature. The empty string is FeatureNone.
func ParseFeature(f string) (Feature, bool) {
	switch feat := Feature(strings.ToLower(strings.TrimSpace(f))); feat {
	case FeatureNone, FeatureClosest, FeatureDogFriendly, FeatureKidFriendly,
		FeatureWaterfall, FeatureLake, FeatureSummit:
		return feat, true
	}
	return FeatureNone, false
}

// ToggleFeature returns the feature after selected is tapped while current is
// active. Tapping the active feature clears it.
func ToggleFeature(current, selected Feature) Feature {
	if current == selected {
		return FeatureNone
	}
	return selected
}

// Apply returns the visible subset of trails for f. Stages run in a fixed
// order: search, difficulty, feature, sort. The input slice is not modified.
func Apply(trails []*models.Trail, f Filter) []*models.Trail {
	out := Search(trails, f.Query)
	out = FilterDifficulty(out, f.Difficulty)
	out = FilterFeature(out, f.Feature)
	if f.Feature == FeatureClosest {
		return out
	}
	SortTrails(out, f.Sort)
	return out
}

// Search keeps trails matching query in any searchable field. A blank query
// keeps everything.
func Search(trails []*models.Trail, query string) []*models.Trail {
	q := strings.TrimSpace(query)
	if q == "" {
		return append([]*models.Trail(nil), trails...)
	}

	out := make([]*models.Trail, 0, len(trails))
	for _, t := range trails {
		if matches(t, q) {
			out = append(out, t)
		}
	}
	return out
}

func matches(t *models.Trail, q string) bool {
	return TextContains(t.Name, q) ||
		TextContains(t.ParkArea, q) ||
		TextContains(t.ShortDescription, q) ||
		TextContains(t.LongDescription, q) ||
		TagsContain(t.Tags, q) ||
		TextContains(t.Difficulty, q) ||
		TextContains(t.RouteType, q) ||
		TextContains(t.TrailheadName, q)
}

// FilterDifficulty keeps trails of the given difficulty. "all" (or empty) is a no-op.
func FilterDifficulty(trails []*models.Trail, difficulty string) []*models.Trail {
	if difficulty == "" || difficulty == DifficultyAll {
		return trails
	}

	out := make([]*models.Trail, 0, len(trails))
	for _, t := range trails {
		if strings.ToLower(t.Difficulty) == difficulty {
			out = append(out, t)
		}
	}
	return out
}

// FilterFeature narrows trails by feature. FeatureClosest does not filter; it
// orders the list by ascending distance instead.
func FilterFeature(trails []*models.Trail, feature Feature) []*models.Trail {
	var keep func(*models.Trail) bool

	switch feature {
	case FeatureNone:
		return trails
	case FeatureClosest:
		sort.SliceStable(trails, func(i, j int) bool {
			return trails[i].Distance() < trails[j].Distance()
		})
		return trails
	case FeatureDogFriendly:
		keep = func(t *models.Trail) bool { return t.DogFriendly }
	case FeatureKidFriendly:
		keep = func(t *models.Trail) bool { return t.KidFriendly }
	case FeatureWaterfall, FeatureLake, FeatureSummit:
		keep = func(t *models.Trail) bool { return hasTag(t.Tags, string(feature)) }
	default:
		return trails
	}

	out := make([]*models.Trail, 0, len(trails))
	for _, t := range trails {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// SortTrails orders trails in place. Unknown options sort as SortPopular.
func SortTrails(trails []*models.Trail, option SortOption) {
	var less func(a, b *models.Trail) bool

	switch option {
	case SortRating:
		less = func(a, b *models.Trail) bool { return a.Rating() > b.Rating() }
	case SortDistanceAsc:
		less = func(a, b *models.Trail) bool { return a.Distance() < b.Distance() }
	case SortDistanceDesc:
		less = func(a, b *models.Trail) bool { return a.Distance() > b.Distance() }
	case SortName:
		c := collate.New(language.English)
		less = func(a, b *models.Trail) bool { return c.CompareString(a.Name, b.Name) < 0 }
	default:
		less = func(a, b *models.Trail) bool {
			ra, rb := a.Rank(), b.Rank()
			if ra != rb {
				return ra < rb
			}
			return a.ReviewCount > b.ReviewCount
		}
	}

	sort.SliceStable(trails, func(i, j int) bool { return less(trails[i], trails[j]) })
}
