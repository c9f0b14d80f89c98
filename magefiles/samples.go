// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
	"github.com/xuri/excelize/v2"
)

const samplesDir = "samples"

const samplePage = `<html><body><h1>Release</h1><p>Shipped <b>today</b>.</p>
<table><tr><th>Team</th><th>Items</th></tr><tr><td>Core</td><td>4</td></tr></table>
</body></html>
`

// Samples writes a small set of input documents to samples/.
func Samples() error {
	if err := os.MkdirAll(samplesDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", samplesDir, err)
	}
	if err := writeSampleWorkbook(filepath.Join(samplesDir, "inventory.xlsx")); err != nil {
		return err
	}

	files := map[string]string{
		"prices.csv": "item,price,currency\nwidget,2.50,EUR\ngadget,10,USD\n",
		"notes.md":   "# Notes\n\nSample markdown, copied through unchanged.\n",
		"page.html":  samplePage,
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(samplesDir, name), []byte(body), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	fmt.Printf("Wrote samples to %s/\n", samplesDir)
	return nil
}

// writeSampleWorkbook builds three sheets, one with a merged header and
// one empty.
func writeSampleWorkbook(path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Stock"); err != nil {
		return err
	}
	rows := [][]any{
		{"Warehouse", nil, "Qty"},
		{"North", "A1", 12},
		{"South", "B7", 3},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Stock", cell, &row); err != nil {
			return err
		}
	}
	if err := f.MergeCell("Stock", "A1", "B1"); err != nil {
		return err
	}

	if _, err := f.NewSheet("Orders"); err != nil {
		return err
	}
	if err := f.SetSheetRow("Orders", "A1", &[]any{"id", "customer", "total"}); err != nil {
		return err
	}
	if err := f.SetSheetRow("Orders", "A2", &[]any{1001, "Acme", 99.5}); err != nil {
		return err
	}
	if _, err := f.NewSheet("Empty"); err != nil {
		return err
	}

	return f.SaveAs(path)
}

// Sample builds the binary and converts the samples directory.
func Sample() error {
	mg.Deps(Build, Samples)
	return sh.RunV(filepath.Join(binDir, binName), "convert", "-d", samplesDir)
}

// SampleAI is Sample with AI formatting, using the configured provider.
func SampleAI() error {
	mg.Deps(Build, Samples)
	return sh.RunV(filepath.Join(binDir, binName), "convert", "-d", samplesDir, "--use-ai", "-o", samplesDir+"_ai")
}
