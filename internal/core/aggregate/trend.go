package aggregate

import "time"

// Sample is one timestamped observation recorded at the end of a cycle.
type Sample struct {
	At                  time.Time `json:"at"`
	Punctuality         float64   `json:"punctuality"`
	AverageDelayMinutes float64   `json:"average_delay_minutes"`
	TrainsInSections    float64   `json:"trains_in_sections"`
}

// SampleOf reduces aggregates to a trend sample.
func SampleOf(agg Aggregates) Sample {
	return Sample{
		At:                  agg.TakenAt,
		Punctuality:         agg.Punctuality,
		AverageDelayMinutes: agg.AverageDelayMinutes,
		TrainsInSections:    float64(agg.TrainsInSections),
	}
}

// TrendBucket is the average of the samples falling in [Start, End).
// Buckets without samples report Samples == 0 and zero averages.
type TrendBucket struct {
	Start               time.Time `json:"start"`
	End                 time.Time `json:"end"`
	Samples             int       `json:"samples"`
	Punctuality         float64   `json:"punctuality"`
	AverageDelayMinutes float64   `json:"average_delay_minutes"`
	TrainsInSections    float64   `json:"trains_in_sections"`
}

// Trends bins samples into fixed buckets of width covering window. The last
// bucket is the one containing end. Samples outside the window are ignored.
func Trends(samples []Sample, end time.Time, width, window time.Duration) []TrendBucket {
	if width <= 0 || window < width {
		return nil
	}
	n := int(window / width)

	alignedEnd := end.Truncate(width).Add(width)
	start := alignedEnd.Add(-time.Duration(n) * width)

	buckets := make([]TrendBucket, n)
	for i := range buckets {
		buckets[i].Start = start.Add(time.Duration(i) * width)
		buckets[i].End = buckets[i].Start.Add(width)
	}

	for _, s := range samples {
		if s.At.Before(start) || !s.At.Before(alignedEnd) {
			continue
		}
		i := int(s.At.Sub(start) / width)
		b := &buckets[i]
		b.Samples++
		b.Punctuality += s.Punctuality
		b.AverageDelayMinutes += s.AverageDelayMinutes
		b.TrainsInSections += s.TrainsInSections
	}

	for i := range buckets {
		b := &buckets[i]
		if b.Samples == 0 {
			continue
		}
		k := float64(b.Samples)
		b.Punctuality /= k
		b.AverageDelayMinutes /= k
		b.TrainsInSections /= k
	}
	return buckets
}
