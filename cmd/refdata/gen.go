package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/goliatone/go-refdata/internal/codegen"
	"github.com/spf13/cobra"
)

func newGenCmd(a *app) *cobra.Command {
	var (
		pkg      string
		typeName string
		outPath  string
		synonyms []string
	)

	cmd := &cobra.Command{
		Use:   "gen <table>",
		Short: "Generate Go constants and accessors for a reference table",
		Long: `Generate a Go file holding one constant per code, a typed accessor
function per code and synonym, and an Is predicate method per name. The type
name defaults to the singular of the table name, e.g. order_statuses becomes
OrderStatus. The type itself is not generated.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table := args[0]
			syn, err := synonymsFor(a.v, table, synonyms)
			if err != nil {
				return err
			}
			codes, err := a.readCodes(cmd.Context(), table)
			if err != nil {
				return err
			}
			if len(codes) == 0 {
				return fmt.Errorf("table %s has no codes", table)
			}

			src, err := codegen.Generate(cmd.Context(), codegen.Spec{
				Package:  pkg,
				Type:     typeName,
				Table:    table,
				Codes:    codes,
				Synonyms: syn,
			})
			if err != nil {
				return err
			}

			if outPath == "" || outPath == "-" {
				_, err = cmd.OutOrStdout().Write(src)
				return err
			}
			if err := os.WriteFile(outPath, src, 0644); err != nil {
				return fmt.Errorf("write %s: %w", outPath, err)
			}
			slog.Info("generated", "table", table, "file", outPath, "codes", len(codes))
			return nil
		},
	}

	cmd.Flags().StringVar(&pkg, "package", "", "package clause of the generated file (required)")
	cmd.Flags().StringVar(&typeName, "type", "", "Go type the accessors return (default: singular table name)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default: stdout)")
	cmd.Flags().StringSliceVar(&synonyms, "synonym", nil, "extra synonym as ALT=CODE (repeatable)")
	_ = cmd.MarkFlagRequired("package")
	return cmd
}
