package domain

import (
	"strconv"
	"strings"
)

// Product is a catalog row as returned by the remote database. Column sets
// vary between imports, so the row is kept loosely typed and read through
// accessor methods that coerce whatever the column actually holds.
type Product map[string]any

// ID returns the product id as a string, or "" when absent.
func (p Product) ID() string {
	return strings.TrimSpace(coerceString(p["id"]))
}

// Name returns the product name, or "" when absent.
func (p Product) Name() string {
	return coerceString(p["name"])
}

// Description returns the long product description column.
func (p Product) Description() string {
	return coerceString(p["descrizione_prodotto"])
}

// Price extracts the price column. The column may hold a number, a numeric
// string, or a nested amountMax/amountMin object.
func (p Product) Price() float64 {
	switch v := p["price"].(type) {
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case float32:
		return float64(v)
	case float64:
		return v
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	case map[string]any:
		if amount := coerceFloat(v["amountMax"]); amount > 0 {
			return amount
		}
		return coerceFloat(v["amountMin"])
	}
	return 0
}

// Rating returns the 1-5 product rating with a 4.5 fallback for missing or
// invalid values.
func (p Product) Rating() float64 {
	rating := coerceFloat(p["voto_prodotto_1_5"])
	if rating <= 0 {
		return 4.5
	}
	return rating
}

// Stock coerces the stock column to an int. Numeric strings are accepted.
func (p Product) Stock() int {
	switch v := p["stock"].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return int(f)
	}
	return 0
}

// Image returns the first image URL. The imageURLs column may be a single
// URL or a list.
func (p Product) Image() string {
	switch v := p["imageURLs"].(type) {
	case string:
		return v
	case []string:
		if len(v) > 0 {
			return v[0]
		}
	case []any:
		if len(v) > 0 {
			return coerceString(v[0])
		}
	}
	return ""
}

// Categories collects the category tags from primaryCategories and
// categories, splitting comma-separated strings.
func (p Product) Categories() []string {
	var out []string
	out = appendCategoryValues(out, p["primaryCategories"])
	out = appendCategoryValues(out, p["categories"])
	return out
}

// Pros splits the comma-separated pro column into a list.
func (p Product) Pros() []string {
	return splitCommaList(p["pro"])
}

// Cons splits the comma-separated contro column into a list.
func (p Product) Cons() []string {
	return splitCommaList(p["contro"])
}

// Criteria carries the optional ranking parameters a tool call may supply.
// Zero values mean the criterion is absent.
type Criteria struct {
	SizeInches  int
	TargetPrice float64
	MaxPrice    float64
	MinPrice    float64
	Keywords    []string
}

// Empty reports whether no criterion is set.
func (c Criteria) Empty() bool {
	return c.SizeInches == 0 && c.TargetPrice == 0 && c.MaxPrice == 0 &&
		c.MinPrice == 0 && len(c.Keywords) == 0
}

func appendCategoryValues(dst []string, v any) []string {
	switch val := v.(type) {
	case string:
		for _, part := range strings.Split(val, ",") {
			if part = strings.TrimSpace(part); part != "" {
				dst = append(dst, part)
			}
		}
	case []string:
		for _, part := range val {
			if part = strings.TrimSpace(part); part != "" {
				dst = append(dst, part)
			}
		}
	case []any:
		for _, item := range val {
			if part := strings.TrimSpace(coerceString(item)); part != "" {
				dst = append(dst, part)
			}
		}
	}
	return dst
}

func splitCommaList(v any) []string {
	var out []string
	switch val := v.(type) {
	case string:
		for _, part := range strings.Split(val, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	case []string:
		for _, part := range val {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	case []any:
		for _, item := range val {
			if part := strings.TrimSpace(coerceString(item)); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	}
	return ""
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case int:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case float32:
		return float64(val)
	case float64:
		return val
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}
