// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/go-heif/heif"
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Write one item's raw bitstream bytes to a file or stdout.",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

var extractArgs struct {
	itemID uint32
	out    string
}

func init() {
	extractCmd.Flags().Uint32Var(&extractArgs.itemID, "item", 0, "item id to extract (default: the file's primary item)")
	extractCmd.Flags().StringVarP(&extractArgs.out, "out", "o", "-", `output path, or "-" for stdout`)
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
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

	itemID := extractArgs.itemID
	if itemID == 0 {
		itemID = h.PrimaryItemID()
	}

	er, err := h.OpenItemData(f, itemID)
	if err != nil {
		return fmt.Errorf("heifdump: opening item %d: %w", itemID, err)
	}

	var w io.Writer
	if extractArgs.out == "-" {
		w = os.Stdout
	} else {
		out, err := os.Create(extractArgs.out)
		if err != nil {
			return fmt.Errorf("heifdump: creating %s: %w", extractArgs.out, err)
		}
		defer out.Close()
		w = out
	}

	_, err = io.Copy(w, er)
	return err
}
