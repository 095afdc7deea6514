package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/erp/ledger/internal/domain/inventory"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
)

const dateLayout = "2006-01-02"

func newStockLedgerCmd(sess *session) *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "stock-ledger",
		Short: "Opening, purchased, sold and closing quantities per item for a period",
		Example: `  ledgerctl stock-ledger --start 2026-01-01 --end 2026-01-31`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, err := time.Parse(dateLayout, start)
			if err != nil {
				return fmt.Errorf("invalid --start, use YYYY-MM-DD: %w", err)
			}
			to, err := time.Parse(dateLayout, end)
			if err != nil {
				return fmt.Errorf("invalid --end, use YYYY-MM-DD: %w", err)
			}
			period, err := inventory.NewDateRange(from, to)
			if err != nil {
				return err
			}

			result, err := sess.reports.StockLedger(cmd.Context(), period)
			if err != nil {
				return err
			}

			n := newNumbers(language.English)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Stock ledger %s to %s\n\n", start, end)
			t := newTable(out, "ITEM", "UNIT", "OPENING", "PURCHASED", "SOLD", "OTHER IN", "OTHER OUT", "CLOSING", "CLOSING PRICE")
			for _, r := range result.Rows {
				t.row(r.ItemName, r.Unit,
					n.qty(r.OpeningQty), n.qty(r.PurchaseQty), n.qty(r.SaleQty),
					n.qty(r.OtherInQty), n.qty(r.OtherOutQty), n.qty(r.ClosingQty),
					n.amount(r.ClosingPrice))
			}
			if err := t.flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nClosing stock value: %s\n", n.amount(result.ClosingValue))
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "First day of the period (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "Last day of the period, inclusive (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newBalancesCmd(sess *session) *cobra.Command {
	return &cobra.Command{
		Use:   "balances",
		Short: "Net amount due per customer and supplier",
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := sess.reports.PartyBalances(cmd.Context())
			if err != nil {
				return err
			}

			n := newNumbers(language.English)
			out := cmd.OutOrStdout()
			t := newTable(out, "PARTY", "TYPE", "OPENING", "INVOICED", "PAID", "NET DUE")
			for _, b := range result.Balances {
				t.row(b.Name, string(b.Type),
					n.amount(b.OpeningBalance), n.amount(b.InvoiceAmount), n.amount(b.PaymentsAmount),
					n.amount(b.NetDue))
			}
			if err := t.flush(); err != nil {
				return err
			}

			p := result.Portfolio
			fmt.Fprintf(out, "\nReceivable %s  Payable %s  Net %s (%s)\n",
				n.amount(p.TotalReceivable), n.amount(p.TotalPayable), n.amount(p.NetBalance), p.Label)
			return nil
		},
	}
}

func newDashboardCmd(sess *session) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Monthly trend, outstanding amounts, stock alerts and overdue invoices",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := sess.reports.Dashboard(cmd.Context())
			if err != nil {
				return err
			}

			n := newNumbers(language.English)
			out := cmd.OutOrStdout()

			t := newTable(out, "MONTH", "SALES", "PURCHASES")
			for _, p := range d.Trend {
				t.row(p.Label, n.amount(p.Sales), n.amount(p.Purchases))
			}
			if err := t.flush(); err != nil {
				return err
			}

			mom := d.MonthOverMonth
			fmt.Fprintf(out, "\nSales this month %s (%s vs last month)\n",
				n.amount(mom.Sales.Current), n.percent(mom.Sales.PercentChange))
			fmt.Fprintf(out, "Purchases this month %s (%s vs last month)\n",
				n.amount(mom.Purchases.Current), n.percent(mom.Purchases.PercentChange))
			o := d.Outstanding
			fmt.Fprintf(out, "Receivable %s (overdue %s in %d)  Payable %s (overdue %s in %d)\n\n",
				n.amount(o.Receivable), n.amount(o.OverdueReceivable), o.OverdueReceivableCount,
				n.amount(o.Payable), n.amount(o.OverduePayable), o.OverduePayableCount)

			if len(d.StockAlerts) > 0 {
				t = newTable(out, "ITEM", "STOCK", "ALERT AT", "STATUS")
				for _, a := range d.StockAlerts {
					t.row(a.ItemName, n.qty(a.CurrentStock), n.qty(a.Threshold), a.Status.String())
				}
				if err := t.flush(); err != nil {
					return err
				}
				fmt.Fprintln(out)
			}

			if len(d.Overdue) > 0 {
				t = newTable(out, "INVOICE", "KIND", "DUE", "DAYS", "BALANCE")
				for _, o := range d.Overdue {
					t.row(o.Number, o.Kind.String(), o.DueDate.Format(dateLayout),
						strconv.Itoa(o.DaysOverdue), n.amount(o.BalanceDue))
				}
				return t.flush()
			}
			return nil
		},
	}
}
