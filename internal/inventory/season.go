// SPDX-License-Identifier: MPL-2.0

package inventory

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Season is a season name as it appears in tool payloads.
type Season string

// Seasons the month table can produce, plus spring, which only exists in
// the priority catalog.
const (
	SeasonWinter Season = "winter"
	SeasonSummer Season = "summer"
	SeasonRainy  Season = "rainy"
	SeasonAutumn Season = "autumn"
	SeasonSpring Season = "spring"
)

// ErrNoSeasonCatalog is the sentinel error wrapped by
// NoSeasonCatalogError.
var ErrNoSeasonCatalog = errors.New("no seasonal catalog")

type (
	// Priorities lists a season's stocking focus and its reorder
	// multiplier.
	Priorities struct {
		HighPriority   []string `json:"high_priority"`
		MediumPriority []string `json:"medium_priority"`
		Multiplier     float64  `json:"multiplier"`
	}

	// SeasonReport is the get_season payload: the date, the active
	// season, its priority lists, and a stocking recommendation.
	SeasonReport struct {
		CurrentDate            string   `json:"current_date"`
		CurrentSeason          Season   `json:"current_season"`
		HighPriorityProducts   []string `json:"high_priority_products"`
		MediumPriorityProducts []string `json:"medium_priority_products"`
		PriorityMultiplier     float64  `json:"priority_multiplier"`
		Recommendation         string   `json:"recommendation"`
	}

	// NoSeasonCatalogError reports a season the priority catalog does not
	// cover. It wraps ErrNoSeasonCatalog for errors.Is() compatibility.
	NoSeasonCatalogError struct {
		Season Season
	}
)

// Error implements the error interface for NoSeasonCatalogError.
func (e *NoSeasonCatalogError) Error() string {
	return fmt.Sprintf("no seasonal catalog for %s", e.Season)
}

// Unwrap returns ErrNoSeasonCatalog for errors.Is() compatibility.
func (e *NoSeasonCatalogError) Unwrap() error { return ErrNoSeasonCatalog }

// seasonalProducts maps each cataloged season to its stocking priorities.
// The multiplier scales reorder thresholds for high priority items, with
// the rainy season carrying the highest one. Autumn has no entry.
var seasonalProducts = map[Season]Priorities{
	SeasonSummer: {
		HighPriority: []string{
			"fan",
			"air conditioner",
			"ac",
			"cooler",
			"sunscreen",
			"hat",
			"cap",
		},
		MediumPriority: []string{
			"shorts",
			"t-shirt",
			"sandals",
			"sunglasses",
			"water bottle",
		},
		Multiplier: 2.0,
	},
	SeasonWinter: {
		HighPriority:   []string{"heater", "jacket", "coat", "blanket", "gloves", "scarf"},
		MediumPriority: []string{"boots", "sweater", "warm clothes", "thermals"},
		Multiplier:     1.8,
	},
	SeasonRainy: {
		HighPriority:   []string{"umbrella", "raincoat", "rain boots", "waterproof"},
		MediumPriority: []string{"towel", "dryer", "dehumidifier"},
		Multiplier:     2.5,
	},
	SeasonSpring: {
		HighPriority:   []string{"allergy medicine", "light jacket", "gardening tools"},
		MediumPriority: []string{"casual wear", "sneakers"},
		Multiplier:     1.3,
	},
}

// SeasonFor maps t's month to the catalog's market calendar: December
// through February is winter, March through May the hot season, June
// through August the monsoon, and everything else autumn.
func SeasonFor(t time.Time) Season {
	switch t.Month() {
	case time.December, time.January, time.February:
		return SeasonWinter
	case time.March, time.April, time.May:
		return SeasonSummer
	case time.June, time.July, time.August:
		return SeasonRainy
	default:
		return SeasonAutumn
	}
}

// PrioritiesFor returns the stocking priorities for a season. The second
// return is false for seasons without a catalog entry.
func PrioritiesFor(season Season) (Priorities, bool) {
	priorities, ok := seasonalProducts[season]
	return priorities, ok
}

// SeasonReportFor builds the season report for the given time. Seasons
// without a catalog entry (autumn) yield a NoSeasonCatalogError.
func SeasonReportFor(t time.Time) (*SeasonReport, error) {
	season := SeasonFor(t)
	priorities, ok := PrioritiesFor(season)
	if !ok {
		return nil, &NoSeasonCatalogError{Season: season}
	}

	focus := priorities.HighPriority[:min(3, len(priorities.HighPriority))]
	return &SeasonReport{
		CurrentDate:            t.Format("02/01/2006"),
		CurrentSeason:          season,
		HighPriorityProducts:   priorities.HighPriority,
		MediumPriorityProducts: priorities.MediumPriority,
		PriorityMultiplier:     priorities.Multiplier,
		Recommendation: fmt.Sprintf(
			"Current season is %s. Focus on stocking %s and related items.",
			season, strings.Join(focus, ", ")),
	}, nil
}
