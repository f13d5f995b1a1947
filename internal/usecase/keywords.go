package usecase

import (
	"regexp"
	"strings"

	"github.com/xeelshop/backend/internal/domain"
)

// Package-level compiled regex for text normalization
var nonAlphanumRegex = regexp.MustCompile(`[^a-z0-9]+`)

// Device-class keyword vocabularies used by cross-sell intent detection,
// bundle building, and home-theater ranking adjustments.
var (
	pcKeywords = []string{
		"pc", "laptop", "notebook", "desktop", "computer", "ultrabook",
		"macbook", "gaming",
	}
	tvKeywords = []string{"tv", "televisore", "television", "smart tv", "oled", "qled"}
	audioKeywords = []string{
		"soundbar", "subwoofer", "home theater", "home-theater", "surround",
		"dolby", "sound system", "speaker",
	}
	ledKeywords   = []string{"led", "ambient", "strip", "lighting", "backlight", "back light"}
	mountKeywords = []string{"support", "staffa", "mount", "bracket", "stand"}

	bundleGoalKeywords = []string{
		"home theater", "home theatre", "home-theater", "home-theatre",
		"home cinema", "cinema",
	}
	soundbarKeywords  = []string{"soundbar"}
	subwooferKeywords = []string{"subwoofer"}
)

// accessoryExcludeKeywords marks products that are accessories rather than
// core devices. Mount and LED vocabularies are folded in.
var accessoryExcludeKeywords = mergeKeywordSets(
	[]string{
		"accessor", "supporto", "staff", "mount", "bracket", "stand", "base",
		"kit", "panno", "microfibra", "clean", "pulizia", "cavo", "hdmi",
		"telecomand", "remote", "led", "strip", "lighting", "backlight", "wall",
	},
	mountKeywords,
	ledKeywords,
)

// normalizeText lowercases and collapses every non-alphanumeric run to a
// single space.
func normalizeText(s string) string {
	return strings.TrimSpace(nonAlphanumRegex.ReplaceAllString(strings.ToLower(s), " "))
}

// containsAny reports whether any keyword is a substring of text.
func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// tokensOrTextContainAny reports whether any keyword appears as a whole
// token or as a substring of the text.
func tokensOrTextContainAny(tokens map[string]bool, text string, keywords []string) bool {
	for _, kw := range keywords {
		if tokens[kw] || strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// productSearchText joins the normalized product name and category tags.
func productSearchText(p domain.Product) string {
	return normalizeText(p.Name() + " " + strings.Join(p.Categories(), " "))
}

// isAccessoryProduct checks the product name and categories against the
// accessory keyword list.
func isAccessoryProduct(p domain.Product, keywords []string) bool {
	if len(keywords) == 0 {
		return false
	}
	combined := normalizeText(p.Name()) + " " + normalizeText(strings.Join(p.Categories(), " "))
	return containsAny(strings.TrimSpace(combined), keywords)
}

// hasHomeTheaterIntent reports whether the criteria keywords express a home
// theater goal.
func hasHomeTheaterIntent(keywords []string) bool {
	if len(keywords) == 0 {
		return false
	}
	normalized := normalizeText(strings.Join(keywords, " "))
	for _, goal := range bundleGoalKeywords {
		if strings.Contains(normalized, normalizeText(goal)) {
			return true
		}
	}
	return false
}

func mergeKeywordSets(sets ...[]string) []string {
	seen := make(map[string]bool)
	var merged []string
	for _, set := range sets {
		for _, kw := range set {
			if !seen[kw] {
				seen[kw] = true
				merged = append(merged, kw)
			}
		}
	}
	return merged
}
