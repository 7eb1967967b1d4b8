// Package report renders the end-of-run summary for the operator.
package report

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/vadiminshakov/krakendca/internal/services/dca"
)

// Render writes one row per pair with its terminal state and, for
// purchases, the order details.
func Render(w io.Writer, results []dca.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Pair", "Outcome", "Volume", "Limit Price", "Total Cost", "TxID / Detail"})

	for _, r := range results {
		detail := ""
		volume, limitPrice, totalCost := "-", "-", "-"

		switch {
		case r.Err != nil:
			detail = r.Err.Error()
		case r.Order != nil:
			volume = r.Order.Volume.String()
			limitPrice = r.Order.LimitPrice.String()
			totalCost = r.Order.TotalCost.String()
			detail = r.Order.TxID
		}

		t.AppendRow(table.Row{r.Pair, string(r.Outcome), volume, limitPrice, totalCost, detail})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})

	t.Render()
}
