package usecase

import (
	"fmt"
	"strings"

	"github.com/xeelshop/backend/internal/domain"
)

// Place is the map-widget projection of a product. Every product is pinned
// to the showroom location.
type Place struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Coords      []float64 `json:"coords"`
	City        string    `json:"city"`
	Price       string    `json:"price"`
	Rating      float64   `json:"rating"`
	Pros        []string  `json:"pros"`
	Cons        []string  `json:"cons"`
	Stock       int       `json:"stock"`
	Thumbnail   string    `json:"thumbnail"`
}

// Album groups products by their first category for the albums widget.
type Album struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Places []Place `json:"places"`
}

var showroomCoords = []float64{10.49197675545435, 43.68345261138975}

const (
	showroomCity    = "Cascina (PI)"
	maxAlbums       = 4
	fallbackAlbum   = "General Electronics"
	albumIDMaxRunes = 30
)

// laptopTypeKeywords narrows widget results to portable computers when a
// tool asks for laptops specifically.
var laptopTypeKeywords = map[string]bool{
	"laptop": true, "laptops": true, "notebook": true, "ultrabook": true,
}

// ToPlaces projects products into map places. Duplicate ids get a numeric
// suffix so the widget never collides pins.
func ToPlaces(products []domain.Product) []Place {
	places := make([]Place, 0, len(products))
	seen := make(map[string]int)
	for _, product := range products {
		id := product.ID()
		if id == "" {
			id = normalizeText(product.Name())
		}
		if n, ok := seen[id]; ok {
			seen[id] = n + 1
			id = fmt.Sprintf("%s-%d", id, n+1)
		} else {
			seen[id] = 0
		}

		places = append(places, Place{
			ID:          id,
			Name:        product.Name(),
			Description: product.Description(),
			Coords:      showroomCoords,
			City:        showroomCity,
			Price:       formatPrice(product.Price()),
			Rating:      product.Rating(),
			Pros:        product.Pros(),
			Cons:        product.Cons(),
			Stock:       product.Stock(),
			Thumbnail:   product.Image(),
		})
	}
	return places
}

// ToAlbums groups products by first category, capped at maxAlbums albums.
func ToAlbums(products []domain.Product) []Album {
	var order []string
	grouped := make(map[string][]Place)
	for _, product := range products {
		title := fallbackAlbum
		if categories := product.Categories(); len(categories) > 0 && categories[0] != "" {
			title = categories[0]
		}
		if _, ok := grouped[title]; !ok {
			order = append(order, title)
		}
		grouped[title] = append(grouped[title], ToPlaces([]domain.Product{product})...)
	}

	if len(order) > maxAlbums {
		order = order[:maxAlbums]
	}
	albums := make([]Album, 0, len(order))
	for _, title := range order {
		albums = append(albums, Album{
			ID:     albumID(title),
			Title:  title,
			Places: grouped[title],
		})
	}
	return albums
}

// FilterByStrictType narrows the catalog when the request keywords name a
// strict product type, such as "laptop". Requests with no strict type pass
// everything through.
func FilterByStrictType(products []domain.Product, keywords []string) []domain.Product {
	if len(products) == 0 || len(keywords) == 0 {
		return products
	}

	var matched []string
	for typeKeyword := range laptopTypeKeywords {
		for _, keyword := range keywords {
			if strings.Contains(normalizeText(keyword), typeKeyword) {
				matched = append(matched, typeKeyword)
				break
			}
		}
	}
	if len(matched) == 0 {
		return products
	}

	var out []domain.Product
	for _, product := range products {
		text := normalizeText(product.Name() + " " + strings.Join(product.Categories(), " "))
		for _, typeKeyword := range matched {
			if strings.Contains(text, typeKeyword) {
				out = append(out, product)
				break
			}
		}
	}
	return out
}

// formatPrice renders a price as "12,99€" in the Italian convention, or an
// empty string when there is no usable price.
func formatPrice(price float64) string {
	if price <= 0 {
		return ""
	}
	return strings.Replace(fmt.Sprintf("%.2f", price), ".", ",", 1) + "€"
}

func albumID(title string) string {
	id := strings.ToLower(title)
	id = strings.ReplaceAll(id, " ", "-")
	id = strings.ReplaceAll(id, "&", "and")
	runes := []rune(id)
	if len(runes) > albumIDMaxRunes {
		id = string(runes[:albumIDMaxRunes])
	}
	return id
}
