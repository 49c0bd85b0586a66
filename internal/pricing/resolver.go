package pricing

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"order-backend/internal/domain"
)

var ErrEmptyKey = errors.New("property override has no key")

// Resolver decodes stored property-override blobs into effective unit
// prices and recomputes derived order totals. It is stateless and safe for
// concurrent use.
type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

// DecodeOverride parses one selectedProperties entry. Upstream writers were
// inconsistent and sometimes JSON-encoded the record a second (or third)
// time, so the entry may be a JSON string wrapping the real object; unwrap
// up to two layers before parsing the key/value record.
func DecodeOverride(raw string) (domain.PropertyOverride, error) {
	data := []byte(raw)
	for i := 0; i < 2; i++ {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			break
		}
		data = []byte(inner)
	}

	var ov domain.PropertyOverride
	if err := json.Unmarshal(data, &ov); err != nil {
		return domain.PropertyOverride{}, fmt.Errorf("decode property override: %w", err)
	}
	if ov.Key == "" {
		return domain.PropertyOverride{}, ErrEmptyKey
	}
	return ov, nil
}

// Overrides decodes every entry of the item's selectedProperties. Keys are
// lowercased and duplicates collapse with the later entry winning, so the
// redundant encodings of the same label merge into one override. Malformed
// entries are skipped and logged, never fatal.
func (r *Resolver) Overrides(item *domain.LineItem) []domain.PropertyOverride {
	index := make(map[string]int, len(item.SelectedProperties))
	out := make([]domain.PropertyOverride, 0, len(item.SelectedProperties))

	for _, raw := range item.SelectedProperties {
		ov, err := DecodeOverride(raw)
		if err != nil {
			log.Printf("pricing: skipping malformed override on product %d: %v", item.ProductID, err)
			continue
		}
		ov.Key = strings.ToLower(ov.Key)
		if i, ok := index[ov.Key]; ok {
			out[i] = ov
			continue
		}
		index[ov.Key] = len(out)
		out = append(out, ov)
	}
	return out
}

// ResolveItem sets the item's effective unit price: the catalog base price
// plus the sum of all active surcharges. Overrides naming a property the
// catalog no longer defines are dropped.
func (r *Resolver) ResolveItem(item *domain.LineItem) {
	catalog := make(map[string]struct{}, len(item.ProductProperties))
	for _, p := range item.ProductProperties {
		catalog[strings.ToLower(p.Label)] = struct{}{}
	}

	var surcharges float64
	for _, ov := range r.Overrides(item) {
		if _, ok := catalog[ov.Key]; !ok {
			log.Printf("pricing: override %q on product %d references a missing catalog property, dropping", ov.Key, item.ProductID)
			continue
		}
		if s, active := ov.Surcharge(); active {
			surcharges += s
		}
	}
	item.UnitPrice = item.BasePrice + surcharges
}

// ResolveOrder normalizes every line item and overwrites the order total
// with the sum of quantity times unit price. The pass is idempotent, so
// rerunning it on already-resolved items yields the same prices and total.
func (r *Resolver) ResolveOrder(o *domain.Order) {
	var total float64
	for i := range o.MetaData.Items {
		item := &o.MetaData.Items[i]
		if item.Quantity < 1 {
			item.Quantity = 1
		}
		r.ResolveItem(item)
		total += float64(item.Quantity) * item.UnitPrice
	}
	o.MetaData.TotalPrice = total
}
