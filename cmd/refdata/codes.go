package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/goliatone/go-refdata/internal/codegen"
	"github.com/goliatone/go-refdata/store"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
)

// codeInfo is one row of codes output.
type codeInfo struct {
	Accessor  string `json:"accessor"`
	Predicate string `json:"predicate"`
	Code      string `json:"code"`
	Synonym   bool   `json:"synonym,omitempty"`
}

func newCodesCmd(a *app) *cobra.Command {
	var (
		asJSON   bool
		synonyms []string
	)

	cmd := &cobra.Command{
		Use:   "codes <table>",
		Short: "List the codes of a reference table with their accessor names",
		Long: `List every code in the table's code column together with the
accessor and predicate names the cache derives for it. Codes that fold to
the same name are reported as an error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table := args[0]
			entries, err := a.entries(cmd.Context(), table, synonyms)
			if err != nil {
				return err
			}

			rows := make([]codeInfo, len(entries))
			for i, e := range entries {
				rows[i] = codeInfo{Accessor: e.Name, Predicate: "Is" + e.Name, Code: e.Code, Synonym: e.Synonym}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				data, err := json.MarshalIndent(rows, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal codes: %w", err)
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CODE\tACCESSOR\tPREDICATE\tSYNONYM")
			for _, r := range rows {
				synonym := ""
				if r.Synonym {
					synonym = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Code, r.Accessor, r.Predicate, synonym)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	cmd.Flags().StringSliceVar(&synonyms, "synonym", nil, "extra synonym as ALT=CODE (repeatable)")
	return cmd
}

// entries reads the codes of table and derives their accessor names.
func (a *app) entries(ctx context.Context, table string, extra []string) ([]codegen.Entry, error) {
	synonyms, err := synonymsFor(a.v, table, extra)
	if err != nil {
		return nil, err
	}

	codes, err := a.readCodes(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(codes) == 0 {
		return nil, fmt.Errorf("table %s has no codes", table)
	}

	return codegen.Entries(ctx, codegen.TypeName(table), codes, synonyms)
}

func (a *app) readCodes(ctx context.Context, table string) ([]string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := store.Open(a.settings.Store)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	column := a.settings.CodeColumn
	var codes []string
	err = db.NewSelect().
		Table(table).
		Column(column).
		OrderExpr("? ASC", bun.Ident(column)).
		Scan(ctx, &codes)
	if err != nil {
		return nil, fmt.Errorf("read %s.%s: %w", table, column, err)
	}

	slog.Debug("codes read", "table", table, "count", len(codes))
	return codes, nil
}
