package report

import (
	"sort"

	"github.com/okian/battrend/internal/domain/regression"
)

// Category groups players in an alert digest.
type Category string

const (
	CategoryStrongBuy  Category = "strong_buy"
	CategoryBuy        Category = "buy"
	CategoryStrongSell Category = "strong_sell"
	CategorySell       Category = "sell"
	CategoryMixed      Category = "mixed"
)

// Categories lists digest categories in display order.
var Categories = []Category{CategoryStrongBuy, CategoryBuy, CategoryStrongSell, CategorySell, CategoryMixed}

// DigestEntry is one player in a digest.
type DigestEntry struct {
	PlayerID   string              `json:"player_id" yaml:"player_id"`
	Name       string              `json:"name,omitempty" yaml:"name,omitempty"`
	Season     int                 `json:"season" yaml:"season"`
	Category   Category            `json:"category" yaml:"category"`
	Tier1Buys  int                 `json:"tier1_buys" yaml:"tier1_buys"`
	Tier2Buys  int                 `json:"tier2_buys" yaml:"tier2_buys"`
	Tier1Sells int                 `json:"tier1_sells" yaml:"tier1_sells"`
	Tier2Sells int                 `json:"tier2_sells" yaml:"tier2_sells"`
	NetSignal  int                 `json:"net_signal" yaml:"net_signal"`
	Signals    []regression.Signal `json:"signals" yaml:"signals"`
}

// Digest buckets many reports by the shape of their active signals. Players
// without active signals are left out.
type Digest struct {
	Players int                        `json:"players" yaml:"players"`
	Entries map[Category][]DigestEntry `json:"entries" yaml:"entries"`
}

// Count returns the number of players in c.
func (d *Digest) Count(c Category) int { return len(d.Entries[c]) }

// BuildDigest categorizes reports. Reports of the same player after the first
// are ignored. Strong buys are ordered by net signal descending and strong
// sells ascending; other categories keep player id order.
func BuildDigest(reports []*Report) Digest {
	sorted := make([]*Report, 0, len(reports))
	seen := make(map[string]struct{}, len(reports))
	for _, r := range reports {
		if r == nil {
			continue
		}
		if _, dup := seen[r.PlayerID]; dup {
			continue
		}
		seen[r.PlayerID] = struct{}{}
		sorted = append(sorted, r)
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].PlayerID < sorted[j].PlayerID })

	d := Digest{Entries: make(map[Category][]DigestEntry, len(Categories))}
	for _, r := range sorted {
		e, ok := categorize(r)
		if !ok {
			continue
		}
		d.Players++
		d.Entries[e.Category] = append(d.Entries[e.Category], e)
	}

	sort.SliceStable(d.Entries[CategoryStrongBuy], func(i, j int) bool {
		return d.Entries[CategoryStrongBuy][i].NetSignal > d.Entries[CategoryStrongBuy][j].NetSignal
	})
	sort.SliceStable(d.Entries[CategoryStrongSell], func(i, j int) bool {
		return d.Entries[CategoryStrongSell][i].NetSignal < d.Entries[CategoryStrongSell][j].NetSignal
	})
	return d
}

func categorize(r *Report) (DigestEntry, bool) {
	e := DigestEntry{PlayerID: r.PlayerID, Name: r.Name, Season: r.Season}
	for _, s := range r.Signals {
		if !s.Active() {
			continue
		}
		switch {
		case s.Direction == regression.Buy && s.Tier == regression.Tier1:
			e.Tier1Buys++
		case s.Direction == regression.Buy:
			e.Tier2Buys++
		case s.Tier == regression.Tier1:
			e.Tier1Sells++
		default:
			e.Tier2Sells++
		}
		e.Signals = append(e.Signals, s)
	}
	buys := e.Tier1Buys + e.Tier2Buys
	sells := e.Tier1Sells + e.Tier2Sells
	e.NetSignal = buys - sells

	switch {
	case buys > 0 && sells > 0:
		e.Category = CategoryMixed
	case e.Tier1Buys >= 2 || (e.Tier1Buys >= 1 && e.Tier2Buys >= 1):
		e.Category = CategoryStrongBuy
	case buys > 0:
		e.Category = CategoryBuy
	case e.Tier1Sells >= 2 || (e.Tier1Sells >= 1 && e.Tier2Sells >= 1):
		e.Category = CategoryStrongSell
	case sells > 0:
		e.Category = CategorySell
	default:
		return DigestEntry{}, false
	}
	return e, true
}
