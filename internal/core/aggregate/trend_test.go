package aggregate

import (
	"testing"
	"time"
)

func TestTrends(t *testing.T) {
	end := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	samples := []Sample{
		{At: end.Add(-30 * time.Hour), Punctuality: 10},
		{At: time.Date(2026, 2, 28, 13, 0, 0, 0, time.UTC), Punctuality: 50},
		{At: time.Date(2026, 3, 1, 5, 15, 0, 0, time.UTC), Punctuality: 80, AverageDelayMinutes: 10},
		{At: time.Date(2026, 3, 1, 7, 45, 0, 0, time.UTC), Punctuality: 100, AverageDelayMinutes: 20},
		{At: end, Punctuality: 60, TrainsInSections: 36},
	}

	buckets := Trends(samples, end, 4*time.Hour, 24*time.Hour)
	if len(buckets) != 6 {
		t.Fatalf("got %d buckets, want 6", len(buckets))
	}

	wantStart := time.Date(2026, 2, 28, 12, 0, 0, 0, time.UTC)
	if !buckets[0].Start.Equal(wantStart) {
		t.Errorf("first bucket starts at %v, want %v", buckets[0].Start, wantStart)
	}
	if !buckets[5].End.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("last bucket ends at %v", buckets[5].End)
	}

	if buckets[0].Samples != 1 || buckets[0].Punctuality != 50 {
		t.Errorf("bucket 0 = %+v", buckets[0])
	}
	for i := 1; i < 4; i++ {
		if buckets[i].Samples != 0 {
			t.Errorf("bucket %d should be empty, got %d samples", i, buckets[i].Samples)
		}
	}
	if buckets[4].Samples != 2 || buckets[4].Punctuality != 90 || buckets[4].AverageDelayMinutes != 15 {
		t.Errorf("bucket 4 = %+v", buckets[4])
	}
	if buckets[5].Samples != 1 || buckets[5].TrainsInSections != 36 {
		t.Errorf("bucket 5 = %+v", buckets[5])
	}
}

func TestTrends_EndOnBoundaryKeepsLatestSample(t *testing.T) {
	end := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	buckets := Trends([]Sample{{At: end, Punctuality: 70}}, end, 4*time.Hour, 24*time.Hour)

	last := buckets[len(buckets)-1]
	if !last.Start.Equal(end) || last.Samples != 1 {
		t.Errorf("last bucket = %+v, want sample at its start", last)
	}
}

func TestTrends_InvalidWidth(t *testing.T) {
	tests := []struct {
		name          string
		width, window time.Duration
	}{
		{"zero width", 0, time.Hour},
		{"window shorter than width", 4 * time.Hour, time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Trends(nil, time.Now(), tt.width, tt.window); got != nil {
				t.Errorf("Trends = %v, want nil", got)
			}
		})
	}
}

func TestSampleOf(t *testing.T) {
	agg := Compute(sampleSnapshot(), testConfig())
	s := SampleOf(agg)
	if !s.At.Equal(agg.TakenAt) || s.Punctuality != 60 || s.TrainsInSections != 36 {
		t.Errorf("SampleOf = %+v", s)
	}
}
