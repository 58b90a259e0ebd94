package domain

import (
	"fmt"
	"sort"
	"strings"
)

// RankTable maps enum values to an ordering weight. Higher weight sorts
// first under descending order. Severity and announcement category share
// this one abstraction instead of per-entity comparison code.
type RankTable map[string]int

// SeverityRank orders infrastructure reports for triage:
// critical > high > medium > low.
var SeverityRank = RankTable{
	string(SeverityCritical): 4,
	string(SeverityHigh):     3,
	string(SeverityMedium):   2,
	string(SeverityLow):      1,
}

// AnnouncementRank orders announcements by urgency:
// urgent > warning > info > maintenance.
var AnnouncementRank = RankTable{
	string(AnnouncementUrgent):      4,
	string(AnnouncementWarning):     3,
	string(AnnouncementInfo):        2,
	string(AnnouncementMaintenance): 1,
}

// Rank returns the weight for value; unknown values rank below every known
// value.
func (t RankTable) Rank(value string) int {
	return t[value]
}

// OrderExpr renders the table as a SQL CASE expression over column, suitable
// for ORDER BY. Output is deterministic (rank-descending) so generated SQL is
// stable across runs. The column name is supplied by the repository layer and
// never derived from user input.
func (t RankTable) OrderExpr(column string) string {
	type pair struct {
		value string
		rank  int
	}
	pairs := make([]pair, 0, len(t))
	for v, r := range t {
		pairs = append(pairs, pair{v, r})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].rank != pairs[j].rank {
			return pairs[i].rank > pairs[j].rank
		}
		return pairs[i].value < pairs[j].value
	})

	var b strings.Builder
	fmt.Fprintf(&b, "CASE %s", column)
	for _, p := range pairs {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", p.value, p.rank)
	}
	b.WriteString(" ELSE 0 END")
	return b.String()
}
