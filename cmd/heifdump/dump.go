// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/go-heif/heif"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "Resolve a HEIF file's item table and print a JSON summary to stdout.",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

func init() {
	rootCmd.AddCommand(dumpCmd)
}

// itemSummary is one entry in dump's JSON item list. SPS/PPS are
// omitted (left nil) for items whose hvcC is absent or whose
// parameter sets this reader declines to decode.
type itemSummary struct {
	ID   uint32 `json:"id"`
	Type string `json:"type"`

	SPS *spsSummary `json:"sps,omitempty"`
	PPS *ppsSummary `json:"pps,omitempty"`
}

type spsSummary struct {
	ID                     uint64 `json:"id"`
	ChromaFormatIDC        uint64 `json:"chroma_format_idc"`
	PicWidthInLumaSamples  uint64 `json:"pic_width_in_luma_samples"`
	PicHeightInLumaSamples uint64 `json:"pic_height_in_luma_samples"`
	BitDepthLumaMinus8     uint64 `json:"bit_depth_luma_minus8"`
	BitDepthChromaMinus8   uint64 `json:"bit_depth_chroma_minus8"`
}

type ppsSummary struct {
	ID             uint64 `json:"id"`
	SpsID          uint64 `json:"sps_id"`
	TilesEnabled   bool   `json:"tiles_enabled"`
	NumTileColumns uint64 `json:"num_tile_columns"`
	NumTileRows    uint64 `json:"num_tile_rows"`
}

type dumpSummary struct {
	PrimaryItemID uint32        `json:"primary_item_id"`
	Items         []itemSummary `json:"items"`
}

func runDump(cmd *cobra.Command, args []string) error {
	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("heifdump: opening %s: %w", path, err)
	}
	defer f.Close()

	h, err := heif.Open(f)
	if err != nil {
		return fmt.Errorf("heifdump: resolving %s: %w", path, err)
	}

	summary := dumpSummary{PrimaryItemID: h.PrimaryItemID()}

	for _, id := range h.ItemIDs() {
		typ, _ := h.ItemType(id)
		item := itemSummary{ID: id, Type: typ.String()}

		if sps, err := h.FindSPS(id); err == nil {
			item.SPS = &spsSummary{
				ID:                     sps.ID,
				ChromaFormatIDC:        sps.ChromaFormatIDC,
				PicWidthInLumaSamples:  sps.PicWidthInLumaSamples,
				PicHeightInLumaSamples: sps.PicHeightInLumaSamples,
				BitDepthLumaMinus8:     sps.BitDepthLumaMinus8,
				BitDepthChromaMinus8:   sps.BitDepthChromaMinus8,
			}
		} else {
			logParamSetSkip(id, "sps", err)
		}

		if pps, err := h.FindPPS(id); err == nil {
			item.PPS = &ppsSummary{
				ID:           pps.ID,
				SpsID:        pps.SpsID,
				TilesEnabled: pps.TilesEnabled,
			}
			if pps.TilesEnabled {
				item.PPS.NumTileColumns = pps.NumTileColumnsMinus1 + 1
				item.PPS.NumTileRows = pps.NumTileRowsMinus1 + 1
			}
		} else {
			logParamSetSkip(id, "pps", err)
		}

		summary.Items = append(summary.Items, item)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

// logParamSetSkip logs why an item's parameter set was left out of
// the summary: at debug level for every KindStructural error (the
// common "no hvcC" case, but also a parameter set that ran out of bits
// or was otherwise malformed) and at warn level for every other kind.
func logParamSetSkip(itemID uint32, which string, err error) {
	if errors.Is(err, heif.ErrStructural) {
		log.Debug().Uint32("item", itemID).Str("set", which).Err(err).Msg("no parameter set to decode")
		return
	}
	log.Warn().Uint32("item", itemID).Str("set", which).Err(err).Msg("failed to decode parameter set")
}
