package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
)

func newRecomputeStockCmd(sess *session) *cobra.Command {
	var purge bool

	cmd := &cobra.Command{
		Use:   "recompute-stock",
		Short: "Rewrite cached item stock from invoice history",
		Long: `Derives every live item's quantity from its opening stock and invoice lines and
rewrites the cached value where the two disagree. With --purge, items soft-deleted
longer ago than the retention window are removed permanently afterwards.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			corrections, err := sess.stock.RecomputeCurrentStock(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(corrections) == 0 {
				fmt.Fprintln(out, "Cached stock matches the ledger")
			} else {
				n := newNumbers(language.English)
				t := newTable(out, "ITEM", "CACHED", "DERIVED")
				for _, c := range corrections {
					t.row(c.ItemName, n.qty(c.Cached), n.qty(c.Derived))
				}
				if err := t.flush(); err != nil {
					return err
				}
				fmt.Fprintf(out, "Corrected %d items\n", len(corrections))
			}

			if !purge {
				return nil
			}
			result, err := sess.stock.PurgeDeletedItems(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Purged %d deleted items\n", result.Purged)
			return nil
		},
	}

	cmd.Flags().BoolVar(&purge, "purge", false, "Also purge items deleted longer ago than the retention window")
	return cmd
}
