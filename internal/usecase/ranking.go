package usecase

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/xeelshop/backend/internal/domain"
)

// sizeInchesRegex matches size mentions like `45 inch`, `45"`, `45 pollici`,
// `45in` and `45-inch`.
var sizeInchesRegex = regexp.MustCompile(`(?i)(\d+)[\s-]*(?:inch(?:es)?|pollici|in|")`)

// Relevance score weights. Lower scores rank first.
const (
	baseScore = 1000.0

	sizeNearPenalty = 10.0
	sizeFarPenalty  = 50.0

	priceVeryClose = 20.0
	priceClose     = 30.0
	priceFarBase   = 40.0

	overMaxPenalty  = 100.0
	underMinPenalty = 50.0

	keywordBonus = 5.0

	accessoryPenalty = 120.0
	tvBonus          = 40.0
	subwooferBonus   = 25.0
	soundbarBonus    = 20.0
	audioBonus       = 10.0
)

// RankProducts orders products by relevance to the criteria: exact size
// matches first, then similar sizes and prices, then everything else. Ties
// break on higher price, then name. The input slice is never mutated; with
// empty criteria the input order is preserved.
func RankProducts(products []domain.Product, criteria domain.Criteria) []domain.Product {
	if len(products) == 0 || criteria.Empty() {
		return products
	}

	type ranked struct {
		product domain.Product
		score   float64
		price   float64
		name    string
	}

	entries := make([]ranked, len(products))
	for i, p := range products {
		entries[i] = ranked{
			product: p,
			score:   relevanceScore(p, criteria),
			price:   p.Price(),
			name:    p.Name(),
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score < entries[j].score
		}
		if entries[i].price != entries[j].price {
			return entries[i].price > entries[j].price
		}
		return entries[i].name < entries[j].name
	})

	out := make([]domain.Product, len(entries))
	for i, e := range entries {
		out[i] = e.product
	}
	return out
}

// relevanceScore computes the relevance score for one product. Size match is
// the primary criterion, target price the secondary one; keyword hits and
// home-theater adjustments shift the result afterwards.
func relevanceScore(p domain.Product, criteria domain.Criteria) float64 {
	score := baseScore

	if criteria.SizeInches > 0 {
		if size, ok := extractSizeInches(p.Name()); ok && size > 0 {
			diff := math.Abs(float64(size - criteria.SizeInches))
			switch {
			case diff == 0:
				score = 0
			case diff <= 5:
				score = sizeNearPenalty + diff
			default:
				score = sizeFarPenalty + diff
			}
		}
	}

	price := p.Price()

	if criteria.TargetPrice > 0 && price > 0 {
		diffPercent := math.Abs(price-criteria.TargetPrice) / criteria.TargetPrice * 100
		if score >= baseScore {
			// No size match: price similarity is the primary criterion.
			switch {
			case diffPercent <= 10:
				score = priceVeryClose
			case diffPercent <= 25:
				score = priceClose
			default:
				score = priceFarBase + diffPercent
			}
		} else if diffPercent <= 25 {
			// Size already scored: a similar price is only a small nudge.
			score++
		}
	}

	if criteria.MaxPrice > 0 && price > criteria.MaxPrice {
		score += overMaxPenalty
	}
	if criteria.MinPrice > 0 && price < criteria.MinPrice {
		score += underMinPenalty
	}

	if len(criteria.Keywords) > 0 {
		text := strings.ToLower(p.Name()) + " " + strings.ToLower(p.Description())
		matched := 0
		for _, kw := range criteria.Keywords {
			if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
				matched++
			}
		}
		if matched > 0 {
			score = math.Max(0, score-float64(matched)*keywordBonus)
		}
	}

	// Home theater goal: core devices before accessories.
	if hasHomeTheaterIntent(criteria.Keywords) {
		combined := productSearchText(p)
		if isAccessoryProduct(p, accessoryExcludeKeywords) {
			score += accessoryPenalty
		}
		if containsAny(combined, tvKeywords) {
			score = math.Max(0, score-tvBonus)
		}
		if containsAny(combined, subwooferKeywords) {
			score = math.Max(0, score-subwooferBonus)
		}
		if containsAny(combined, soundbarKeywords) {
			score = math.Max(0, score-soundbarBonus)
		}
		if containsAny(combined, audioKeywords) {
			score = math.Max(0, score-audioBonus)
		}
	}

	return score
}

// extractSizeInches finds the first screen-size mention in a product name.
func extractSizeInches(name string) (int, bool) {
	if name == "" {
		return 0, false
	}
	match := sizeInchesRegex.FindStringSubmatch(name)
	if match == nil {
		return 0, false
	}
	size, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return size, true
}
