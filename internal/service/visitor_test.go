package service

import (
	"context"
	"testing"
	"time"
)

func TestVisitorTrack(t *testing.T) {
	repo := &fakeVisitors{seen: map[string]time.Time{}}
	svc := NewVisitorService(repo)
	t0 := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = fixedClock(t0)
	ctx := context.Background()

	id, stats, err := svc.Track(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if id == "" || stats.TotalVisits != 1 || stats.ActiveVisitors != 1 {
		t.Errorf("first = %q %+v", id, stats)
	}

	svc.now = fixedClock(t0.Add(20 * time.Minute))
	again, stats, _ := svc.Track(ctx, "andere")
	if again != "andere" || stats.TotalVisits != 2 || stats.ActiveVisitors != 1 {
		t.Errorf("second = %q %+v", again, stats)
	}

	_, stats, _ = svc.Track(ctx, id)
	if stats.TotalVisits != 2 || stats.ActiveVisitors != 2 {
		t.Errorf("returning visitor = %+v", stats)
	}
}
