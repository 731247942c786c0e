// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package isobmff

import "github.com/go-heif/heif/herr"

// Item is a resolved item: its info and its locator joined by id.
type Item struct {
	Info     ItemInfo
	Location ItemLocation
}

// PropertyAssociation is one entry in the model's ordered property
// list: the property itself, and which items associate it (and
// whether that association is essential).
type PropertyAssociation struct {
	Property  Property
	Items     map[uint32]bool
	Essential map[uint32]bool
}

// Model is the fully resolved meta tree: the join of items, locators,
// and property associations.
type Model struct {
	Handler       FourCC
	PrimaryItemID uint32
	Items         map[uint32]Item
	Properties    []PropertyAssociation
}

// Resolve joins a RawMeta's locators, item infos, and ipco/ipma pair
// into a Model, enforcing the invariants spec.md §3 requires: no
// duplicate item ids, every item has a locator, the primary item
// exists, every ipma property index is in range.
func Resolve(raw RawMeta) (*Model, error) {
	items := make(map[uint32]Item, len(raw.Infos))

	locByID := make(map[uint32]ItemLocation, len(raw.Locations))
	for _, loc := range raw.Locations {
		if _, dup := locByID[loc.ID]; dup {
			return nil, herr.Structural("iloc", "duplicate item id %d", loc.ID)
		}
		if len(loc.Extents) > 0 {
			if loc.Extents[0].Index != 0 {
				return nil, herr.Structural("iloc", "item %d first extent index must be 0, got %d", loc.ID, loc.Extents[0].Index)
			}
			if loc.Extents[0].Length == 0 {
				return nil, herr.Structural("iloc", "item %d first extent must have non-zero length", loc.ID)
			}
			for i, ext := range loc.Extents {
				if ext.Index != uint64(i) {
					return nil, herr.Structural("iloc", "item %d extent %d has out-of-sequence index %d", loc.ID, i, ext.Index)
				}
			}
		}
		locByID[loc.ID] = loc
	}

	seen := make(map[uint32]bool, len(raw.Infos))
	for _, info := range raw.Infos {
		if seen[info.ID] {
			return nil, herr.Structural("iinf", "duplicate item id %d", info.ID)
		}
		seen[info.ID] = true

		loc, ok := locByID[info.ID]
		if !ok {
			return nil, herr.Structural("iloc", "missing locator for item %d", info.ID)
		}
		items[info.ID] = Item{Info: info, Location: loc}
	}

	if _, ok := items[raw.PrimaryItem]; !ok {
		return nil, herr.Structural("pitm", "primary item %d not found", raw.PrimaryItem)
	}

	properties := make([]PropertyAssociation, len(raw.Properties))
	for i, p := range raw.Properties {
		properties[i] = PropertyAssociation{
			Property:  p,
			Items:     make(map[uint32]bool),
			Essential: make(map[uint32]bool),
		}
	}

	for _, assoc := range raw.Associations {
		for _, a := range assoc.Associations {
			if a.PropertyIndex == 0 || int(a.PropertyIndex) > len(properties) {
				return nil, herr.Range("ipma", "property index %d out of range 1..%d", a.PropertyIndex, len(properties))
			}
			pa := &properties[a.PropertyIndex-1]
			pa.Items[assoc.ItemID] = true
			pa.Essential[assoc.ItemID] = a.Essential
		}
	}

	return &Model{
		Handler:       raw.Handler,
		PrimaryItemID: raw.PrimaryItem,
		Items:         items,
		Properties:    properties,
	}, nil
}
