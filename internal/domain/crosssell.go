package domain

// CartItem describes a cart entry as sent by the shopping widgets. Only the
// id and name are required for catalog resolution; the free-text fields feed
// the intent detection.
type CartItem struct {
	ID               string   `json:"id,omitempty"`
	Name             string   `json:"name,omitempty"`
	Category         string   `json:"category,omitempty"`
	Description      string   `json:"description,omitempty"`
	ShortDescription string   `json:"short_description,omitempty"`
	DetailSummary    string   `json:"detail_summary,omitempty"`
	Tags             []string `json:"tags,omitempty"`
}

// CrossSellItem is a recommended accessory.
type CrossSellItem struct {
	ID                string   `json:"id"`
	SKU               string   `json:"sku"`
	Name              string   `json:"name"`
	Price             float64  `json:"price"`
	ImageURL          string   `json:"imageUrl"`
	Tags              []string `json:"tags"`
	CompatibleWith    []string `json:"compatibleWith"`
	Priority          int      `json:"priority"`
	PrimaryCategories []string `json:"primaryCategories,omitempty"`
}

// HasTag reports whether the item carries the given tag.
func (i CrossSellItem) HasTag(tag string) bool {
	for _, t := range i.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// CompatibleWithClass reports whether the item is compatible with the given
// device class ("pc", "tv", ...).
func (i CrossSellItem) CompatibleWithClass(class string) bool {
	for _, c := range i.CompatibleWith {
		if c == class {
			return true
		}
	}
	return false
}
