package domain

import "testing"

func TestRankTableOrdering(t *testing.T) {
	t.Parallel()

	if SeverityRank.Rank(string(SeverityCritical)) <= SeverityRank.Rank(string(SeverityHigh)) {
		t.Error("critical must outrank high")
	}
	if SeverityRank.Rank(string(SeverityLow)) <= SeverityRank.Rank("unknown") {
		t.Error("known severities must outrank unknown values")
	}
	if AnnouncementRank.Rank(string(AnnouncementUrgent)) <= AnnouncementRank.Rank(string(AnnouncementInfo)) {
		t.Error("urgent must outrank info")
	}
}

func TestRankTableOrderExpr(t *testing.T) {
	t.Parallel()

	want := "CASE severity WHEN 'critical' THEN 4 WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END"
	if got := SeverityRank.OrderExpr("severity"); got != want {
		t.Errorf("OrderExpr:\n got %s\nwant %s", got, want)
	}

	// Deterministic output across runs.
	first := AnnouncementRank.OrderExpr("category")
	for i := 0; i < 10; i++ {
		if got := AnnouncementRank.OrderExpr("category"); got != first {
			t.Fatalf("OrderExpr not stable: %s vs %s", got, first)
		}
	}
}
