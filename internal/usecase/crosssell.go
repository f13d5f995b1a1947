package usecase

import (
	"sort"
	"strings"

	"github.com/xeelshop/backend/internal/domain"
)

// Cross-sell item tags.
const (
	tagCleaning    = "screen-cleaning"
	tagPopular     = "popular"
	tagRecommended = "recommended"
	tagSoundbar    = "soundbar"
	tagSubwoofer   = "subwoofer"
	tagLED         = "led"
	tagMount       = "mount"
)

// DefaultCrossSellResults applies when the caller does not ask for a
// specific amount; MaxCrossSellResults bounds what a caller may request.
const (
	DefaultCrossSellResults = 8
	MaxCrossSellResults     = 8
)

// ClampCrossSellResults folds a requested result count into the supported
// range, substituting the default for missing or non-positive values.
func ClampCrossSellResults(maxResults int) int {
	if maxResults <= 0 {
		return DefaultCrossSellResults
	}
	if maxResults > MaxCrossSellResults {
		return MaxCrossSellResults
	}
	return maxResults
}

// Fallback scoring bonuses applied on top of item priority.
const (
	cleaningScoreBonus  = 15
	soundbarScoreBonus  = 20
	subwooferScoreBonus = 18
	ledScoreBonus       = 6
	classMatchBonus     = 10
	popularScoreBonus   = 4
)

// fallbackCatalog is the curated accessory set used when the live catalog
// yields no usable accessories.
var fallbackCatalog = []domain.CrossSellItem{
	{
		ID: "cs-clean-cloth-01", SKU: "CS-CLEAN-CLOTH-01",
		Name: "Panno in microfibra per schermi", Price: 9.9,
		Tags:           []string{tagCleaning, tagPopular},
		CompatibleWith: []string{"pc", "tv"}, Priority: 95,
	},
	{
		ID: "cs-clean-spray-01", SKU: "CS-CLEAN-SPRAY-01",
		Name: "Spray delicato per pulizia display", Price: 12.9,
		Tags:           []string{tagCleaning, tagRecommended},
		CompatibleWith: []string{"pc", "tv"}, Priority: 90,
	},
	{
		ID: "cs-usb-c-01", SKU: "CS-USB-C-01",
		Name: "Cavo USB-C 100W intrecciato", Price: 19.9,
		Tags:           []string{"usb-c", tagRecommended},
		CompatibleWith: []string{"pc"}, Priority: 80,
	},
	{
		ID: "cs-charger-01", SKU: "CS-CHARGER-01",
		Name: "Caricatore USB-C 65W", Price: 34.9,
		Tags:           []string{"charger", tagPopular},
		CompatibleWith: []string{"pc"}, Priority: 78,
	},
	{
		ID: "cs-hdmi-01", SKU: "CS-HDMI-01",
		Name: "Cavo HDMI 2.1 ad alta velocita", Price: 24.9,
		Tags:           []string{"hdmi", tagPopular},
		CompatibleWith: []string{"tv"}, Priority: 82,
	},
	{
		ID: "cs-remote-01", SKU: "CS-REMOTE-01",
		Name: "Telecomando universale smart", Price: 29.9,
		Tags:           []string{"remote", tagRecommended},
		CompatibleWith: []string{"tv"}, Priority: 75,
	},
	{
		ID: "cs-mount-01", SKU: "CS-MOUNT-01",
		Name: "Staffa TV slim orientabile", Price: 49.9,
		Tags:           []string{"tv-mount", tagRecommended},
		CompatibleWith: []string{"tv"}, Priority: 72,
	},
	{
		ID: "cs-ups-01", SKU: "CS-UPS-01",
		Name: "Ciabatta con protezione UPS", Price: 39.9,
		Tags:           []string{"power", tagPopular},
		CompatibleWith: []string{"pc", "tv"}, Priority: 70,
	},
	{
		ID: "cs-stand-01", SKU: "CS-STAND-01",
		Name: "Supporto da scrivania regolabile", Price: 44.9,
		Tags:           []string{"stand", tagRecommended},
		CompatibleWith: []string{"pc"}, Priority: 68,
	},
}

// FallbackCrossSellCatalog returns a copy of the curated accessory catalog.
func FallbackCrossSellCatalog() []domain.CrossSellItem {
	out := make([]domain.CrossSellItem, len(fallbackCatalog))
	copy(out, fallbackCatalog)
	return out
}

// CrossSellRecommender generates accessory suggestions for a shopping cart,
// preferring accessories resolved from the live catalog and falling back to
// the curated set.
type CrossSellRecommender struct{}

// NewCrossSellRecommender creates a new recommender.
func NewCrossSellRecommender() *CrossSellRecommender {
	return &CrossSellRecommender{}
}

// Recommend produces up to maxResults suggestions for the cart, drawing from
// the live catalog first and the fallback catalog when the catalog yields
// nothing. Items already in the cart are never suggested.
func (r *CrossSellRecommender) Recommend(
	cart []domain.CartItem,
	products []domain.Product,
	maxResults int,
) []domain.CrossSellItem {
	maxResults = ClampCrossSellResults(maxResults)
	if len(products) > 0 {
		if suggestions := r.recommendFromCatalog(cart, products, maxResults); len(suggestions) > 0 {
			return suggestions
		}
	}
	return r.Suggest(cart, fallbackCatalog, maxResults)
}

// Suggest runs the rule engine against an accessory catalog: directed picks
// per detected device class first (cleaning cloths, chargers, soundbars and
// so on), then a scored fill pass ordered by priority and tag bonuses.
func (r *CrossSellRecommender) Suggest(
	cart []domain.CartItem,
	catalog []domain.CrossSellItem,
	maxResults int,
) []domain.CrossSellItem {
	if len(cart) == 0 || len(catalog) == 0 {
		return nil
	}
	maxResults = ClampCrossSellResults(maxResults)

	classes, hasScreenDevice := cartIntent(cart)
	cartIDs, cartNames := cartIdentifiers(cart)
	cartText := normalizeText(collectCartText(cart))

	eligible := dedupeBySKU(excludeCartItems(catalog, cartIDs, cartNames))

	var suggestions []domain.CrossSellItem
	seen := make(map[string]bool)
	push := func(item domain.CrossSellItem) {
		if item.SKU == "" || seen[item.SKU] {
			return
		}
		seen[item.SKU] = true
		suggestions = append(suggestions, item)
	}
	pushTop := func(candidates []domain.CrossSellItem, n int) {
		sorted := sortByPriority(candidates)
		if len(sorted) > n {
			sorted = sorted[:n]
		}
		for _, item := range sorted {
			push(item)
		}
	}

	classSet := make(map[string]bool, len(classes))
	for _, c := range classes {
		classSet[c] = true
	}

	if hasScreenDevice && len(classes) > 0 {
		var cleaning []domain.CrossSellItem
		for _, item := range eligible {
			if !item.HasTag(tagCleaning) {
				continue
			}
			for _, class := range item.CompatibleWith {
				if classSet[class] {
					cleaning = append(cleaning, item)
					break
				}
			}
		}
		pushTop(cleaning, 2)
	}

	if classSet["pc"] {
		pcCandidates := filterByClass(eligible, "pc")
		if !hasAccessoryKeyword(cart, []string{"usb-c", "usb c"}) {
			pushTop(filterByTag(pcCandidates, "usb-c"), 1)
		}
		if !hasAccessoryKeyword(cart, []string{"charger", "caricatore"}) {
			pushTop(filterByTag(pcCandidates, "charger"), 1)
		}
	}

	if classSet["tv"] {
		tvCandidates := filterByClass(eligible, "tv")
		if !hasAccessoryKeyword(cart, []string{"soundbar"}) {
			pushTop(filterByTag(tvCandidates, tagSoundbar), 1)
		}
		if !hasAccessoryKeyword(cart, []string{"subwoofer"}) {
			pushTop(filterByTag(tvCandidates, tagSubwoofer), 1)
		}
		if !strings.Contains(cartText, "hdmi") {
			pushTop(filterByTag(tvCandidates, "hdmi"), 1)
		}
		// Remotes are always worth surfacing for TV carts.
		pushTop(filterByTag(tvCandidates, "remote"), 1)
		if !hasAccessoryKeyword(cart, mountKeywords) {
			pushTop(filterByAnyTag(tvCandidates, []string{"tv-mount", "stand", tagMount}), 1)
		}
		if !hasAccessoryKeyword(cart, []string{"led", "lighting", "ambient", "backlight", "back light"}) {
			pushTop(filterByTag(tvCandidates, tagLED), 1)
		}
	}

	// Fill pass: score the remaining class-compatible items.
	type scoredItem struct {
		item  domain.CrossSellItem
		score int
	}
	var scored []scoredItem
	for _, item := range eligible {
		if item.SKU == "" || seen[item.SKU] {
			continue
		}
		if len(classes) > 0 {
			compatible := false
			for _, class := range item.CompatibleWith {
				if classSet[class] {
					compatible = true
					break
				}
			}
			if !compatible {
				continue
			}
		}

		score := item.Priority
		if hasScreenDevice && item.HasTag(tagCleaning) {
			score += cleaningScoreBonus
		}
		if item.HasTag(tagSoundbar) {
			score += soundbarScoreBonus
		}
		if item.HasTag(tagSubwoofer) {
			score += subwooferScoreBonus
		}
		if item.HasTag(tagLED) {
			score += ledScoreBonus
		}
		if classSet["pc"] && item.CompatibleWithClass("pc") {
			score += classMatchBonus
		}
		if classSet["tv"] && item.CompatibleWithClass("tv") {
			score += classMatchBonus
		}
		if item.HasTag(tagPopular) {
			score += popularScoreBonus
		}
		scored = append(scored, scoredItem{item, score})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	for _, entry := range scored {
		push(entry.item)
	}

	if len(suggestions) > maxResults {
		suggestions = suggestions[:maxResults]
	}
	return suggestions
}

// recommendFromCatalog builds the accessory catalog out of live products
// whose text matches the accessory vocabularies for the detected classes.
func (r *CrossSellRecommender) recommendFromCatalog(
	cart []domain.CartItem,
	products []domain.Product,
	maxResults int,
) []domain.CrossSellItem {
	cartProducts := resolveCartProducts(cart, products)
	classes, hasScreenDevice := cartIntentFromProducts(cartProducts)

	classSet := make(map[string]bool, len(classes))
	for _, c := range classes {
		classSet[c] = true
	}

	tvAccessory := []string{"cavi per tv", "telecomandi per tv", "panno per tv", "staff", "support"}
	pcAccessory := []string{
		"cavi per computer", "panno per computer", "caric", "alimentatore",
		"adattatore", "hub", "accessori",
	}
	tvExtras := mergeKeywordSets(audioKeywords, ledKeywords, mountKeywords)
	audioExtras := mergeKeywordSets(audioKeywords, mountKeywords)

	var accessories []domain.Product
	for _, product := range products {
		text := productSearchText(product)
		switch {
		case classSet["tv"] && containsAny(text, tvAccessory):
			accessories = append(accessories, product)
		case classSet["pc"] && containsAny(text, pcAccessory):
			accessories = append(accessories, product)
		case classSet["tv"] && containsAny(text, tvExtras):
			accessories = append(accessories, product)
		case classSet["audio"] && containsAny(text, audioExtras):
			accessories = append(accessories, product)
		}
	}

	catalog := make([]domain.CrossSellItem, 0, len(accessories))
	for _, product := range accessories {
		item := MapProductToCrossSellItem(product)
		if item.Price > 0 && item.Name != "" {
			catalog = append(catalog, item)
		}
	}

	suggestions := r.Suggest(cart, catalog, maxResults)
	if hasScreenDevice {
		kept := suggestions[:0]
		for _, item := range suggestions {
			if item.SKU != "" {
				kept = append(kept, item)
			}
		}
		suggestions = kept
	}
	if len(suggestions) > maxResults {
		suggestions = suggestions[:maxResults]
	}
	return suggestions
}

// MapProductToCrossSellItem derives cross-sell tags, compatibility classes,
// and a priority from the product's name and category tags.
func MapProductToCrossSellItem(product domain.Product) domain.CrossSellItem {
	categories := product.Categories()
	normalizedCats := normalizeText(strings.Join(categories, " "))
	normalizedText := normalizeText(normalizeText(product.Name()) + " " + normalizedCats)

	var tags []string
	if strings.Contains(normalizedCats, "panno") || strings.Contains(normalizedCats, "clean") {
		tags = append(tags, tagCleaning)
	}
	if strings.Contains(normalizedCats, "cavi") || strings.Contains(normalizedCats, "hdmi") {
		tags = append(tags, tagPopular)
	}
	if strings.Contains(normalizedCats, "telecomand") || strings.Contains(normalizedCats, "caric") {
		tags = append(tags, tagRecommended)
	}
	if strings.Contains(normalizedText, "soundbar") {
		tags = append(tags, tagSoundbar)
	}
	if strings.Contains(normalizedText, "subwoofer") {
		tags = append(tags, tagSubwoofer)
	}
	if containsAny(normalizedText, ledKeywords) {
		tags = append(tags, tagLED)
	}
	if containsAny(normalizedText, mountKeywords) {
		tags = append(tags, tagMount)
	}

	var compatible []string
	if strings.Contains(normalizedCats, "tv") || strings.Contains(normalizedCats, "televis") {
		compatible = append(compatible, "tv")
	}
	if containsAny(normalizedCats, []string{"computer", "laptop", "desktop", "pc"}) {
		compatible = append(compatible, "pc")
	}
	for _, tag := range tags {
		if tag == tagSoundbar || tag == tagSubwoofer || tag == tagLED || tag == tagMount {
			if !containsTag(compatible, "tv") {
				compatible = append(compatible, "tv")
			}
			break
		}
	}

	priority := 60
	item := domain.CrossSellItem{Tags: tags}
	switch {
	case item.HasTag(tagCleaning):
		priority = 90
	case item.HasTag(tagSoundbar):
		priority = 88
	case item.HasTag(tagSubwoofer):
		priority = 86
	case item.HasTag(tagMount):
		priority = 82
	case item.HasTag(tagLED):
		priority = 80
	case strings.Contains(normalizedCats, "cavi"):
		priority = 82
	case strings.Contains(normalizedCats, "telecomand"):
		priority = 78
	case strings.Contains(normalizedCats, "caric"):
		priority = 76
	}

	sku := product.ID()
	return domain.CrossSellItem{
		ID:                sku,
		SKU:               sku,
		Name:              product.Name(),
		Price:             product.Price(),
		ImageURL:          product.Image(),
		Tags:              tags,
		CompatibleWith:    compatible,
		Priority:          priority,
		PrimaryCategories: categories,
	}
}

func collectCartText(cart []domain.CartItem) string {
	var chunks []string
	for _, item := range cart {
		for _, chunk := range []string{
			item.Name, item.Description, item.ShortDescription,
			item.DetailSummary, strings.Join(item.Tags, " "),
		} {
			if chunk != "" {
				chunks = append(chunks, chunk)
			}
		}
	}
	return strings.Join(chunks, " ")
}

// cartIntent detects device classes from the cart's free text and explicit
// categories. The second return reports whether a screen device (pc or tv)
// is present.
func cartIntent(cart []domain.CartItem) ([]string, bool) {
	if len(cart) == 0 {
		return nil, false
	}

	text := normalizeText(collectCartText(cart))
	tokens := make(map[string]bool)
	for _, token := range strings.Fields(text) {
		tokens[token] = true
	}

	explicitPC, explicitTV := false, false
	for _, item := range cart {
		if item.Category == "" {
			continue
		}
		category := normalizeText(item.Category)
		if containsAny(category, []string{"pc", "laptop", "desktop"}) {
			explicitPC = true
		}
		if strings.Contains(category, "tv") || strings.Contains(category, "televis") {
			explicitTV = true
		}
	}

	hasPC := explicitPC || tokensOrTextContainAny(tokens, text, pcKeywords)
	hasTV := explicitTV || tokensOrTextContainAny(tokens, text, tvKeywords)
	hasAudio := tokensOrTextContainAny(tokens, text, audioKeywords)
	hasLED := tokensOrTextContainAny(tokens, text, ledKeywords)

	return assembleClasses(hasPC, hasTV, hasAudio, hasLED)
}

// cartIntentFromProducts detects device classes from resolved catalog rows.
func cartIntentFromProducts(cartProducts []domain.Product) ([]string, bool) {
	if len(cartProducts) == 0 {
		return nil, false
	}

	var catChunks, nameChunks []string
	for _, product := range cartProducts {
		catChunks = append(catChunks, strings.Join(product.Categories(), " "))
		nameChunks = append(nameChunks, product.Name())
	}
	categories := normalizeText(strings.Join(catChunks, " "))
	names := normalizeText(strings.Join(nameChunks, " "))

	hasTV := containsAny(categories, []string{"tv", "televis"})
	hasPC := containsAny(categories, []string{"laptop", "computer", "desktop", "notebook", "pc"})
	hasAudio := containsAny(names, audioKeywords)
	hasLED := containsAny(names, ledKeywords)

	return assembleClasses(hasPC, hasTV, hasAudio, hasLED)
}

func assembleClasses(hasPC, hasTV, hasAudio, hasLED bool) ([]string, bool) {
	var classes []string
	if hasPC {
		classes = append(classes, "pc")
	}
	if hasTV {
		classes = append(classes, "tv")
	}
	if hasAudio {
		classes = append(classes, "audio")
	}
	if hasLED {
		classes = append(classes, "led")
	}
	return classes, hasPC || hasTV || hasAudio || hasLED
}

// resolveCartProducts maps cart entries back to catalog rows by normalized
// id or name.
func resolveCartProducts(cart []domain.CartItem, products []domain.Product) []domain.Product {
	if len(cart) == 0 || len(products) == 0 {
		return nil
	}

	lookup := make(map[string]domain.Product)
	for _, product := range products {
		if id := product.ID(); id != "" {
			lookup[normalizeText(id)] = product
		}
		if name := product.Name(); name != "" {
			lookup[normalizeText(name)] = product
		}
	}

	var resolved []domain.Product
	for _, item := range cart {
		for _, key := range []string{normalizeText(item.ID), normalizeText(item.Name)} {
			if product, ok := lookup[key]; ok && key != "" {
				resolved = append(resolved, product)
				break
			}
		}
	}
	return resolved
}

func cartIdentifiers(cart []domain.CartItem) (map[string]bool, map[string]bool) {
	ids := make(map[string]bool)
	names := make(map[string]bool)
	for _, item := range cart {
		if item.ID != "" {
			ids[normalizeText(item.ID)] = true
		}
		if item.Name != "" {
			names[normalizeText(item.Name)] = true
		}
	}
	return ids, names
}

func hasAccessoryKeyword(cart []domain.CartItem, keywords []string) bool {
	return containsAny(normalizeText(collectCartText(cart)), keywords)
}

func excludeCartItems(catalog []domain.CrossSellItem, cartIDs, cartNames map[string]bool) []domain.CrossSellItem {
	var out []domain.CrossSellItem
	for _, item := range catalog {
		if cartIDs[normalizeText(item.SKU)] || cartIDs[normalizeText(item.ID)] ||
			cartNames[normalizeText(item.Name)] {
			continue
		}
		out = append(out, item)
	}
	return out
}

func sortByPriority(items []domain.CrossSellItem) []domain.CrossSellItem {
	sorted := make([]domain.CrossSellItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority > sorted[j].Priority })
	return sorted
}

func dedupeBySKU(items []domain.CrossSellItem) []domain.CrossSellItem {
	seen := make(map[string]bool)
	var out []domain.CrossSellItem
	for _, item := range items {
		if item.SKU == "" || seen[item.SKU] {
			continue
		}
		seen[item.SKU] = true
		out = append(out, item)
	}
	return out
}

func filterByClass(items []domain.CrossSellItem, class string) []domain.CrossSellItem {
	var out []domain.CrossSellItem
	for _, item := range items {
		if item.CompatibleWithClass(class) {
			out = append(out, item)
		}
	}
	return out
}

func filterByTag(items []domain.CrossSellItem, tag string) []domain.CrossSellItem {
	var out []domain.CrossSellItem
	for _, item := range items {
		if item.HasTag(tag) {
			out = append(out, item)
		}
	}
	return out
}

func filterByAnyTag(items []domain.CrossSellItem, tags []string) []domain.CrossSellItem {
	var out []domain.CrossSellItem
	for _, item := range items {
		for _, tag := range tags {
			if item.HasTag(tag) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}
