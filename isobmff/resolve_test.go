// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package isobmff

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/google/go-cmp/cmp"
)

func TestResolveBuildsPropertyAssociations(t *testing.T) {
	c := qt.New(t)

	raw := RawMeta{
		Handler:     TypePitm,
		PrimaryItem: 1,
		Infos: []ItemInfo{
			{ID: 1, ItemType: fourCC("hvc1")},
		},
		Locations: []ItemLocation{
			{ID: 1, Extents: []Extent{{Index: 0, Offset: 0, Length: 10}}},
		},
		Properties: []Property{
			Size{Width: 4, Height: 8},
			HvcConfig{},
		},
		Associations: []ItemPropertyAssociation{
			{
				ItemID: 1,
				Associations: []Association{
					{Essential: true, PropertyIndex: 1},
					{Essential: false, PropertyIndex: 2},
				},
			},
		},
	}

	model, err := Resolve(raw)
	c.Assert(err, qt.IsNil)
	c.Assert(model.Properties, qt.HasLen, 2)
	c.Assert(model.Properties[0].Items, qt.DeepEquals, map[uint32]bool{1: true})
	c.Assert(model.Properties[1].Items, qt.DeepEquals, map[uint32]bool{1: true})
	c.Assert(model.Properties[0].Essential[1], qt.IsTrue)
	c.Assert(model.Properties[1].Essential[1], qt.IsFalse)
}

func TestResolveModelPreservesItemAndPropertyValues(t *testing.T) {
	c := qt.New(t)

	raw := RawMeta{
		Handler:     TypePitm,
		PrimaryItem: 1,
		Infos: []ItemInfo{
			{ID: 1, ItemType: fourCC("hvc1"), ItemName: "primary"},
		},
		Locations: []ItemLocation{
			{ID: 1, BaseOffset: 100, Extents: []Extent{{Index: 0, Offset: 0, Length: 10}}},
		},
		Properties: []Property{
			Size{Width: 4, Height: 8},
		},
		Associations: []ItemPropertyAssociation{
			{ItemID: 1, Associations: []Association{{Essential: true, PropertyIndex: 1}}},
		},
	}

	model, err := Resolve(raw)
	c.Assert(err, qt.IsNil)

	item, ok := model.Items[1]
	c.Assert(ok, qt.IsTrue)
	if diff := cmp.Diff(raw.Infos[0], item.Info); diff != "" {
		t.Fatalf("resolved item info diverged from input (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(raw.Locations[0], item.Location); diff != "" {
		t.Fatalf("resolved item location diverged from input (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Size{Width: 4, Height: 8}, model.Properties[0].Property); diff != "" {
		t.Fatalf("resolved property diverged from input (-want +got):\n%s", diff)
	}
}

func TestResolveRejectsMissingLocator(t *testing.T) {
	c := qt.New(t)

	raw := RawMeta{
		PrimaryItem: 1,
		Infos:       []ItemInfo{{ID: 1}},
	}
	_, err := Resolve(raw)
	c.Assert(err, qt.IsNotNil)
}

func TestResolveRejectsMissingPrimaryItem(t *testing.T) {
	c := qt.New(t)

	raw := RawMeta{
		PrimaryItem: 99,
		Infos:       []ItemInfo{{ID: 1}},
		Locations:   []ItemLocation{{ID: 1}},
	}
	_, err := Resolve(raw)
	c.Assert(err, qt.IsNotNil)
}

func TestResolveRejectsOutOfRangePropertyIndex(t *testing.T) {
	c := qt.New(t)

	raw := RawMeta{
		PrimaryItem: 1,
		Infos:       []ItemInfo{{ID: 1}},
		Locations:   []ItemLocation{{ID: 1}},
		Properties:  []Property{Size{}},
		Associations: []ItemPropertyAssociation{
			{ItemID: 1, Associations: []Association{{PropertyIndex: 2}}},
		},
	}
	_, err := Resolve(raw)
	c.Assert(err, qt.IsNotNil)
}
