package usecase

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/xeelshop/backend/internal/domain"
)

// SolutionBundle is a curated product set assembled for a stated goal,
// shaped for widget rendering.
type SolutionBundle struct {
	Goal            string                 `json:"goal"`
	PricePreference string                 `json:"pricePreference"`
	BundleItems     []domain.CrossSellItem `json:"bundleItems"`
	CrossSell       []any                  `json:"crossSell"`
	Places          []Place                `json:"places"`
}

// bundleSlot declares which products fill one role of the bundle and how
// many of them to pick.
type bundleSlot struct {
	keywords []string
	count    int
}

var homeTheaterSlots = []bundleSlot{
	{tvKeywords, 2},
	{soundbarKeywords, 2},
	{subwooferKeywords, 1},
	{ledKeywords, 1},
}

// BundleBuilder assembles solution bundles from the live catalog.
type BundleBuilder struct{}

// NewBundleBuilder creates a new builder.
func NewBundleBuilder() *BundleBuilder {
	return &BundleBuilder{}
}

// Build assembles the bundle for the goal. Only home-theater goals are
// understood; anything else returns ErrUnsupportedGoal. pricePreference
// accepts low, medium (treated as low), or high.
func (b *BundleBuilder) Build(goal, pricePreference string, products []domain.Product) (*SolutionBundle, error) {
	normalizedGoal := normalizeText(goal)
	if !containsAny(normalizedGoal, bundleGoalKeywords) {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedGoal, goal)
	}

	preference := strings.ToLower(strings.TrimSpace(pricePreference))
	if preference == "medium" || preference == "" {
		preference = "low"
	}
	if preference != "low" && preference != "high" {
		return nil, fmt.Errorf("%w: price preference %q", domain.ErrInvalidInput, pricePreference)
	}

	var picked []domain.Product
	seen := make(map[string]bool)
	for _, slot := range homeTheaterSlots {
		picked = append(picked, pickForSlot(products, slot, preference, seen)...)
	}

	items := make([]domain.CrossSellItem, 0, len(picked))
	for _, product := range picked {
		items = append(items, MapProductToCrossSellItem(product))
	}

	return &SolutionBundle{
		Goal:            goal,
		PricePreference: preference,
		BundleItems:     items,
		CrossSell:       []any{},
		Places:          ToPlaces(picked),
	}, nil
}

// pickForSlot selects up to slot.count products whose name matches the slot
// keywords, cheapest or priciest first per preference. Matching is on the
// name alone so a category tag cannot pull an unrelated product into the
// slot. Accessories are excluded unless every match is an accessory.
func pickForSlot(products []domain.Product, slot bundleSlot, preference string, seen map[string]bool) []domain.Product {
	var matches []domain.Product
	for _, product := range products {
		name := normalizeText(product.Name())
		if name == "" {
			continue
		}
		if containsAny(name, slot.keywords) {
			matches = append(matches, product)
		}
	}
	if len(matches) == 0 {
		return nil
	}

	filtered := matches[:0:0]
	for _, product := range matches {
		if !isAccessoryProduct(product, accessoryExcludeKeywords) {
			filtered = append(filtered, product)
		}
	}
	if len(filtered) == 0 {
		filtered = matches
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return slotPrice(filtered[i]) < slotPrice(filtered[j])
	})
	if preference == "high" {
		for i, j := 0, len(filtered)-1; i < j; i, j = i+1, j-1 {
			filtered[i], filtered[j] = filtered[j], filtered[i]
		}
	}

	var picked []domain.Product
	for _, product := range filtered {
		if len(picked) >= slot.count {
			break
		}
		id := product.ID()
		if id == "" {
			id = normalizeText(product.Name())
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		picked = append(picked, product)
	}
	return picked
}

// slotPrice treats unknown or non-positive prices as infinitely expensive so
// they sort last under the low preference.
func slotPrice(product domain.Product) float64 {
	price := product.Price()
	if price <= 0 {
		return math.Inf(1)
	}
	return price
}
