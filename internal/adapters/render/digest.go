package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/okian/battrend/internal/domain/regression"
	"github.com/okian/battrend/internal/domain/report"
)

// Per-category display caps in the text digest; strong categories are uncapped.
const (
	digestCap      = 10
	digestMixedCap = 5
	ruleWidth      = 70
)

// DigestDocument is the structured form of a digest.
type DigestDocument struct {
	Date   string         `json:"date" yaml:"date"`
	Season int            `json:"season" yaml:"season"`
	Counts map[string]int `json:"counts" yaml:"counts"`

	report.Digest `yaml:",inline"`
}

// NewDigestDocument wraps d with its date, season and per-category counts.
func NewDigestDocument(d report.Digest, season int, date string) DigestDocument {
	doc := DigestDocument{Date: date, Season: season, Counts: make(map[string]int, len(report.Categories)), Digest: d}
	for _, c := range report.Categories {
		doc.Counts[string(c)] = d.Count(c)
	}
	return doc
}

// Digest writes d in format f. date labels the digest.
func (r *Renderer) Digest(w io.Writer, d report.Digest, season int, date string, f Format) error {
	if f != FormatText {
		return Structured(w, f, NewDigestDocument(d, season, date))
	}
	_, err := io.WriteString(w, r.DigestText(d, date))
	return err
}

var digestTitles = map[report.Category]string{
	report.CategoryStrongBuy:  "STRONG BUY CANDIDATES (multiple positive signals)",
	report.CategoryBuy:        "BUY CANDIDATES",
	report.CategoryStrongSell: "STRONG SELL CANDIDATES (multiple negative signals)",
	report.CategorySell:       "SELL CANDIDATES",
	report.CategoryMixed:      "MIXED SIGNALS (conflicting indicators)",
}

// DigestText renders d for a terminal or a mail body.
func (r *Renderer) DigestText(d report.Digest, date string) string {
	var b strings.Builder
	rule := strings.Repeat("=", ruleWidth)
	fmt.Fprintf(&b, "%s\n%s\n%s\n", rule, r.st.title.Render("REGRESSION ALERT DIGEST - "+date), rule)

	if d.Players == 0 {
		fmt.Fprintf(&b, "\nNo new alerts to report.\n%s\n", rule)
		return b.String()
	}

	fmt.Fprintf(&b, "\nSummary:\n")
	fmt.Fprintf(&b, "   Total Players with Alerts: %d\n", d.Players)
	fmt.Fprintf(&b, "   Strong Buy Signals: %d\n", d.Count(report.CategoryStrongBuy))
	fmt.Fprintf(&b, "   Buy Signals: %d\n", d.Count(report.CategoryBuy))
	fmt.Fprintf(&b, "   Strong Sell Signals: %d\n", d.Count(report.CategoryStrongSell))
	fmt.Fprintf(&b, "   Sell Signals: %d\n", d.Count(report.CategorySell))
	fmt.Fprintf(&b, "   Mixed Signals: %d\n", d.Count(report.CategoryMixed))

	for _, c := range report.Categories {
		entries := d.Entries[c]
		if len(entries) == 0 {
			continue
		}
		switch c {
		case report.CategoryBuy, report.CategorySell:
			entries = entries[:min(len(entries), digestCap)]
		case report.CategoryMixed:
			entries = entries[:min(len(entries), digestMixedCap)]
		}

		fmt.Fprintf(&b, "\n\n%s\n%s\n", r.st.section.Render(digestTitles[c]), strings.Repeat("-", ruleWidth))
		for _, e := range entries {
			name := e.Name
			if name == "" {
				name = e.PlayerID
			}
			switch c {
			case report.CategoryStrongBuy, report.CategoryStrongSell:
				fmt.Fprintf(&b, "\n%s (Net: %+d)\n", r.st.bold.Render(name), e.NetSignal)
			default:
				fmt.Fprintf(&b, "\n%s:\n", r.st.bold.Render(name))
			}
			for _, s := range e.Signals {
				if c == report.CategoryStrongBuy && s.Direction != regression.Buy {
					continue
				}
				if c == report.CategoryStrongSell && s.Direction != regression.Sell {
					continue
				}
				tag := fmt.Sprintf("%s %s", s.Tier, s.Direction)
				fmt.Fprintf(&b, "   %s %s\n", r.direction(s.Direction, tag), s.Rationale)
			}
		}
	}
	fmt.Fprintf(&b, "\n%s\n", rule)
	return b.String()
}
