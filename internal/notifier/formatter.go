package notifier

import (
	"fmt"
	"html"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"ADRFlow/internal/model"
	"ADRFlow/internal/report"
)

type style struct {
	bold   func(string) string
	escape func(string) string
}

var (
	htmlStyle = style{
		bold:   func(s string) string { return "<b>" + s + "</b>" },
		escape: html.EscapeString,
	}
	plainStyle = style{
		bold:   func(s string) string { return s },
		escape: func(s string) string { return s },
	}
)

// FormatReport renders a report as a Telegram HTML message.
func FormatReport(rep *report.Report) string {
	return format(rep, htmlStyle)
}

// FormatPlain renders a report as plain text for the terminal.
func FormatPlain(rep *report.Report) string {
	return format(rep, plainStyle)
}

// FormatBaskets lists the configured baskets and their sizes.
func FormatBaskets(baskets []model.Basket, pair model.CrossListing) string {
	var b strings.Builder
	b.WriteString("🧺 <b>Baskets</b>\n\n")
	for _, bk := range baskets {
		mode := "raw"
		if bk.Normalize {
			mode = "normalized by " + html.EscapeString(pair.Local+"/"+pair.Foreign)
		}
		b.WriteString(fmt.Sprintf("• %s (%s): %d symbols, %s\n",
			html.EscapeString(label(bk.Label, bk.Name)), html.EscapeString(bk.Currency), len(bk.Symbols), mode))
	}
	return b.String()
}

func format(rep *report.Report, st style) string {
	var b strings.Builder
	for i, snap := range rep.Snapshots {
		if i > 0 {
			b.WriteString("\n")
		}
		writeSnapshot(&b, snap, st)
	}
	if len(rep.Changes) > 0 {
		from := rep.Snapshots[0].Date.Format(model.DateLayout)
		to := rep.Snapshots[1].Date.Format(model.DateLayout)
		b.WriteString("\n" + st.bold(fmt.Sprintf("Change %s → %s", from, to)) + "\n")
		for _, c := range rep.Changes {
			pct := "n/a"
			if c.PercentValid {
				pct = fmt.Sprintf("%+.1f%%", c.Percent)
			}
			b.WriteString(fmt.Sprintf("• %s: %s → %s (%s)\n",
				st.escape(c.Basket), money(c.From), money(c.To), pct))
		}
	}
	return b.String()
}

func writeSnapshot(b *strings.Builder, snap report.Snapshot, st style) {
	b.WriteString("📊 " + st.bold("ADR flow | "+snap.Date.Format(model.DateLayout)) + "\n")

	pair := st.escape(snap.Ratio.Pair.Local + "/" + snap.Ratio.Pair.Foreign)
	if snap.Ratio.Valid {
		b.WriteString(fmt.Sprintf("Ratio %s: %s\n\n", pair, humanize.CommafWithDigits(round(snap.Ratio.Value, 4), 4)))
	} else {
		b.WriteString(fmt.Sprintf("Ratio %s: unavailable\n\n", pair))
	}

	for _, s := range snap.Baskets {
		value := money(s.Value)
		if !s.Available {
			value += " (ratio unavailable)"
		}
		b.WriteString(fmt.Sprintf("• %s [%s]: %s | %.1f%%",
			st.escape(label(s.Label, s.Name)), st.escape(s.Currency), value, s.Share*100))
		if len(s.Failed) > 0 {
			b.WriteString(fmt.Sprintf(" | %d/%d failed", len(s.Failed), s.Symbols))
		}
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("Total: %s\n", money(snap.Total)))

	for _, s := range snap.Baskets {
		if len(s.Failed) == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("⚠️ %s: %s\n", st.escape(s.Name), st.escape(strings.Join(s.Failed, ", "))))
	}
}

func label(l, name string) string {
	if l != "" {
		return l
	}
	return name
}

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

func money(v float64) string {
	return humanize.CommafWithDigits(round(v, 2), 2)
}
