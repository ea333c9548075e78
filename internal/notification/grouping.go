package notification

import (
	"sort"

	"github.com/google/uuid"

	"github.com/nurpe/listing-carts/internal/model"
)

// VendorGroup is one work-order recipient and the selected items it supplies.
type VendorGroup struct {
	Email string
	Name  string
	Items []model.CartItem
}

// GroupByVendorEmail buckets the selected items of a cart by normalized vendor email.
// Groups are sorted by email and items keep cart order. Selected items without a
// vendor, or whose vendor has no email, are returned as unassigned.
func GroupByVendorEmail(items []model.CartItem, vendors map[uuid.UUID]model.Vendor) ([]VendorGroup, []model.CartItem) {
	byEmail := map[string]*VendorGroup{}
	var unassigned []model.CartItem

	for _, item := range ordered(items) {
		if !item.Selected {
			continue
		}
		vendor, ok := lookupVendor(item, vendors)
		email := vendor.NormalizedEmail()
		if !ok || email == "" {
			unassigned = append(unassigned, item)
			continue
		}
		group, exists := byEmail[email]
		if !exists {
			group = &VendorGroup{Email: email, Name: vendor.Name}
			byEmail[email] = group
		}
		group.Items = append(group.Items, item)
	}

	groups := make([]VendorGroup, 0, len(byEmail))
	for _, group := range byEmail {
		groups = append(groups, *group)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Email < groups[j].Email })
	return groups, unassigned
}

func lookupVendor(item model.CartItem, vendors map[uuid.UUID]model.Vendor) (model.Vendor, bool) {
	if item.VendorID == nil {
		return model.Vendor{}, false
	}
	vendor, ok := vendors[*item.VendorID]
	return vendor, ok
}

func ordered(items []model.CartItem) []model.CartItem {
	out := make([]model.CartItem, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ServiceKey < out[j].ServiceKey
	})
	return out
}
