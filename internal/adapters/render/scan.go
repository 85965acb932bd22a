package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/okian/battrend/internal/domain/report"
)

// ScanText renders one summary row per report, in the given order.
func (r *Renderer) ScanText(season int, reports []*report.Report) string {
	var b strings.Builder
	r.section(&b, fmt.Sprintf("SEASON %d SCAN: %d players", season, len(reports)))
	rows := make([][]string, 0, len(reports))
	for _, rep := range reports {
		name := rep.Name
		if name == "" {
			name = rep.PlayerID
		}
		signals := make([]string, 0, len(rep.Signals))
		for _, s := range rep.Signals {
			signals = append(signals, fmt.Sprintf("%s %s", s.Metric.Label(), s.Tier))
		}
		rows = append(rows, []string{
			name,
			rep.Team,
			strconv.Itoa(rep.PA),
			string(rep.Role.Label),
			fmt.Sprintf("%+d", rep.NetScore),
			r.recommendation(rep.Recommendation),
			strings.Join(signals, ", "),
		})
	}
	b.WriteString(r.table([]string{"Player", "Team", "PA", "Role", "Net", "Call", "Signals"}, rows))
	b.WriteString("\n")
	return b.String()
}
