package domain

// PropertyOverride is the decoded form of one selectedProperties entry: a
// customer-chosen variant that may carry a price surcharge.
type PropertyOverride struct {
	Key         string   `json:"key"`
	Value       string   `json:"value"`
	Price       *float64 `json:"price,omitempty"`
	ChangePrice bool     `json:"changePrice,omitempty"`
	NewPrice    *float64 `json:"newPrice,omitempty"`
}

// Surcharge reports whether the override affects the unit price and by how
// much. ChangePrice alone is enough to mark it active; the amount falls back
// from price to newPrice.
func (o PropertyOverride) Surcharge() (float64, bool) {
	if !o.ChangePrice && o.Price == nil && o.NewPrice == nil {
		return 0, false
	}
	if o.Price != nil {
		return *o.Price, true
	}
	if o.NewPrice != nil {
		return *o.NewPrice, true
	}
	return 0, true
}

// ProductProperty is one catalog-defined option menu on a product, e.g.
// label "Color" with values ["red", "blue"].
type ProductProperty struct {
	Label  string          `json:"label"`
	Values []PropertyValue `json:"values"`
}

type PropertyValue struct {
	Value       string   `json:"value"`
	NewPrice    *float64 `json:"newPrice,omitempty"`
	ChangePrice bool     `json:"changePrice,omitempty"`
}
