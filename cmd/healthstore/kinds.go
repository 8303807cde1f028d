// ABOUTME: CLI command listing every metric kind and how it is stored.
package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/healthstore/internal/registry"
	"github.com/spf13/cobra"
)

var kindsCmd = &cobra.Command{
	Use:         "kinds",
	Short:       "List supported metric kinds",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipStore: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		faint := color.New(color.Faint)
		for _, kind := range registry.Kinds() {
			desc, err := registry.Describe(kind)
			if err != nil {
				return err
			}
			if desc.IsAggregate() {
				fmt.Printf("%s %s %s\n",
					padRight(string(kind), 20),
					padRight("daily "+string(desc.Combine), 12),
					faint.Sprintf("%s (%s)", desc.ValueField, desc.Unit))
				continue
			}
			fmt.Printf("%s %s %s\n",
				padRight(string(kind), 20),
				padRight("samples", 12),
				faint.Sprintf("dedup on %s", strings.Join(desc.DedupFields, ", ")))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(kindsCmd)
}
