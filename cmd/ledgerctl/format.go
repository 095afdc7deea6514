package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// table writes tab-separated rows as aligned columns
type table struct {
	tw *tabwriter.Writer
}

func newTable(w io.Writer, headers ...string) *table {
	t := &table{tw: tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)}
	t.row(headers...)
	return t
}

func (t *table) row(cells ...string) {
	fmt.Fprintln(t.tw, strings.Join(cells, "\t")+"\t")
}

func (t *table) flush() error {
	return t.tw.Flush()
}

// numbers formats decimals with digit grouping for terminal output
type numbers struct {
	p *message.Printer
}

func newNumbers(tag language.Tag) numbers {
	return numbers{p: message.NewPrinter(tag)}
}

// amount renders money with two decimals, e.g. 12,345.60
func (n numbers) amount(d decimal.Decimal) string {
	return n.p.Sprintf("%.2f", d.Round(2).InexactFloat64())
}

// qty renders a quantity without trailing zeros
func (n numbers) qty(d decimal.Decimal) string {
	places := 0
	if _, frac, ok := strings.Cut(d.String(), "."); ok {
		places = len(frac)
	}
	return n.p.Sprintf("%.*f", places, d.InexactFloat64())
}

// percent renders a percentage with one decimal
func (n numbers) percent(d decimal.Decimal) string {
	return n.p.Sprintf("%.1f%%", d.InexactFloat64())
}
