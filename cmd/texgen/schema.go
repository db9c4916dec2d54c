package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gogpu/texgen"
)

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema [map...]",
		Short: "List tunable parameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			types := texgen.MapTypes()
			if len(args) > 0 {
				var err error
				if types, err = parseMaps(args); err != nil {
					return err
				}
			}
			return printSchema(cmd.OutOrStdout(), types)
		},
	}
}

func printSchema(w io.Writer, types []texgen.MapType) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tDEFAULT\tRANGE\tNOTE")
	for _, t := range types {
		for _, s := range texgen.Schema(t) {
			rng := fmt.Sprintf("%g..%g", s.Min, s.Max)
			var notes []string
			if len(s.Options) > 0 {
				rng = strings.Join(s.Options, "|")
			}
			if s.PreviewOnly {
				notes = append(notes, "preview only")
			}
			if s.Unused {
				notes = append(notes, "unused")
			}
			fmt.Fprintf(tw, "%s.%s\t%g\t%s\t%s\n", t, s.Name, s.Default, rng, strings.Join(notes, ", "))
		}
	}
	return tw.Flush()
}
