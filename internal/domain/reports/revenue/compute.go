package revenue

import (
	"bytes"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"retailops/internal/core/id"
	"retailops/internal/domain/documents/packlist"
)

// ComputeRevenue aggregates the completed packlists inside the window.
// It is pure: the result depends only on the arguments and is the same for
// every ordering of packlists.
func ComputeRevenue(packlists []*packlist.Packlist, r TimeRange, now time.Time) Report {
	since := r.Since(now)

	byPos := make(buckets)
	byProduct := make(buckets)
	total := decimal.Zero

	for _, p := range packlists {
		if p == nil || p.Status != packlist.StatusCompleted {
			continue
		}
		day := packlist.BusinessDay(p.Date)
		if since != nil && day.Before(*since) {
			continue
		}
		key := day.Format(DayLayout)

		for _, it := range p.Items {
			rev := it.LineRevenue()
			byPos.add(p.PosID, key, rev)
			byProduct.add(it.ProductID, key, rev)
			total = total.Add(rev)
		}
	}

	return Report{
		Range:        r,
		Since:        since,
		TotalRevenue: total,
		ByPos:        byPos.series(),
		ByProduct:    byProduct.series(),
	}
}

// buckets maps entity → day → revenue.
type buckets map[id.ID]map[string]decimal.Decimal

func (b buckets) add(entity id.ID, day string, amount decimal.Decimal) {
	days, ok := b[entity]
	if !ok {
		days = make(map[string]decimal.Decimal)
		b[entity] = days
	}
	days[day] = days[day].Add(amount)
}

// series orders points by day and entities by total revenue descending,
// ties broken by id.
func (b buckets) series() []Series {
	out := make([]Series, 0, len(b))
	for entity, days := range b {
		s := Series{ID: entity, TotalRevenue: decimal.Zero, Points: make([]Point, 0, len(days))}
		for day, rev := range days {
			s.Points = append(s.Points, Point{Date: day, Revenue: rev})
			s.TotalRevenue = s.TotalRevenue.Add(rev)
		}
		sort.Slice(s.Points, func(i, j int) bool { return s.Points[i].Date < s.Points[j].Date })
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool {
		if c := out[i].TotalRevenue.Cmp(out[j].TotalRevenue); c != 0 {
			return c > 0
		}
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	return out
}
