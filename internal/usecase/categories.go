package usecase

import (
	"strings"

	"github.com/xeelshop/backend/internal/domain"
	"github.com/xeelshop/backend/internal/logging"
)

// categoryGroup maps a storefront macro category to the catalog tags that
// belong to it. Order matters: tag lookups take the first group that lists
// the tag ("home theater" appears under both Video & TV and Audio).
type categoryGroup struct {
	Name string
	Tags []string
}

var categoryGroups = []categoryGroup{
	{
		Name: "Video & TV",
		Tags: []string{
			"tv", "televisions", "tv accessories", "tv mounts", "projectors",
			"video projectors", "dvd players", "blu-ray players", "blu-ray",
			"video", "home theater",
		},
	},
	{
		Name: "Informatica",
		Tags: []string{
			"computers", "desktop computers", "monitors", "tablets",
			"printers", "scanners", "computer accessories", "pc components",
			"input devices", "keyboards", "mice", "laptops",
		},
	},
	{
		Name: "Audio",
		Tags: []string{
			"audio", "speakers", "wireless speakers", "bluetooth speakers",
			"headphones", "home audio", "home theater", "home theater systems",
			"microphones", "amplifiers", "stereos", "portable audio",
		},
	},
}

// Tag families used to disambiguate "home theater", which is listed under
// both the video and audio groups.
var (
	strictVideoTags = []string{"tv", "televisions", "television", "projector", "video", "dvd", "blu-ray", "blu ray"}
	strictAudioTags = []string{"speaker", "headphone", "microphone", "amplifier", "stereo", "portable audio"}

	homeTheaterAmbiguousTags = map[string]bool{"home theater": true, "home theater systems": true}
	tvRequestTags            = map[string]bool{"tv": true, "televisions": true}
	audioRequestTags         = map[string]bool{
		"speakers": true, "wireless speakers": true, "bluetooth speakers": true,
		"headphones": true, "audio": true,
	}
)

// FilterByCategory narrows products to the requested macro category or tag.
// Matching against the product's category tags is partial and
// case-insensitive. An unknown category is used verbatim as a search tag.
// The filter never pads results: when nothing matches it returns an empty
// slice rather than unrelated products.
func FilterByCategory(products []domain.Product, category string) []domain.Product {
	if len(products) == 0 || strings.TrimSpace(category) == "" {
		return products
	}

	requested := strings.ToLower(strings.TrimSpace(category))
	searchTags := resolveSearchTags(requested)

	var filtered []domain.Product
	withoutCategories := 0

	for _, product := range products {
		productCats := lowerCategories(product)
		if len(productCats) == 0 {
			withoutCategories++
			continue
		}

		// When asked for TVs, drop products that carry only audio tags.
		// "Home theater" audio systems would otherwise slip through.
		if tvRequestTags[requested] && hasOnlyAudioTags(productCats) {
			continue
		}

		if matchesSearchTags(requested, searchTags, productCats) {
			filtered = append(filtered, product)
		}
	}

	if len(filtered) == 0 {
		logging.Warnw("category filter matched no products",
			"category", category,
			"total", len(products),
			"without_categories", withoutCategories)
	} else {
		logging.Infow("category filter applied",
			"category", category,
			"matched", len(filtered),
			"total", len(products))
	}

	return filtered
}

// resolveSearchTags expands the requested category into the tag list to look
// for in product categories. Specific device tags exclude the ambiguous
// home-theater tags from the expansion.
func resolveSearchTags(requested string) []string {
	for _, group := range categoryGroups {
		if requested == strings.ToLower(group.Name) {
			return lowerAll(group.Tags)
		}
		if !containsTag(group.Tags, requested) {
			continue
		}
		if tvRequestTags[requested] || audioRequestTags[requested] {
			tags := make([]string, 0, len(group.Tags))
			for _, tag := range group.Tags {
				if !homeTheaterAmbiguousTags[strings.ToLower(tag)] {
					tags = append(tags, strings.ToLower(tag))
				}
			}
			if !containsTag(tags, requested) {
				tags = append(tags, requested)
			}
			return tags
		}
		return lowerAll(group.Tags)
	}
	// Not in the mapping: use the requested value as a direct search tag.
	return []string{requested}
}

func matchesSearchTags(requested string, searchTags, productCats []string) bool {
	for _, tag := range searchTags {
		for _, cat := range productCats {
			if tag == cat {
				return true
			}
			// Partial match: "tv" matches "tv mounts". For TV requests the
			// ambiguous "home theater" tag only counts when the product
			// also carries an explicit video tag.
			if strings.Contains(cat, tag) {
				if tvRequestTags[requested] && strings.Contains(cat, "home theater") &&
					!hasExplicitVideoTag(productCats) {
					continue
				}
				return true
			}
			// Inverse partial match for composite tags, e.g. requested
			// "televisions" contains the product tag "tv".
			if len(tag) > 3 && strings.Contains(tag, cat) {
				if tvRequestTags[requested] && strings.Contains(tag, "home theater") {
					continue
				}
				return true
			}
		}
	}
	return false
}

func hasExplicitVideoTag(productCats []string) bool {
	explicit := []string{"tv", "televisions", "television", "projector", "video"}
	for _, cat := range productCats {
		if containsAny(cat, explicit) {
			return true
		}
	}
	return false
}

func hasOnlyAudioTags(productCats []string) bool {
	hasAudio := false
	hasVideo := false
	for _, cat := range productCats {
		if containsAny(cat, strictVideoTags) {
			hasVideo = true
		}
		if containsAny(cat, strictAudioTags) {
			hasAudio = true
		}
	}
	return hasAudio && !hasVideo
}

func lowerCategories(p domain.Product) []string {
	cats := p.Categories()
	out := make([]string, 0, len(cats))
	for _, cat := range cats {
		if cat = strings.ToLower(strings.TrimSpace(cat)); cat != "" {
			out = append(out, cat)
		}
	}
	return out
}

func lowerAll(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		out = append(out, strings.ToLower(strings.TrimSpace(tag)))
	}
	return out
}

func containsTag(tags []string, target string) bool {
	for _, tag := range tags {
		if strings.ToLower(tag) == target {
			return true
		}
	}
	return false
}
