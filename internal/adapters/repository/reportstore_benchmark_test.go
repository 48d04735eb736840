package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/okian/spdscore/internal/domain/model"
)

func benchReport(n int) model.ProcessedReport {
	users := make([]model.UserRecord, n)
	for i := range users {
		users[i] = user(fmt.Sprintf("u-%05d", i), float64(i%97), float64(i%89), float64(i%4)*100/3)
	}
	return report("bench", 1, users...)
}

func BenchmarkNewSnapshot(b *testing.B) {
	for _, n := range []int{100, 1000, 10000} {
		r := benchReport(n)
		b.Run(fmt.Sprintf("users=%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				NewSnapshot(r)
			}
		})
	}
}

func BenchmarkTopN(b *testing.B) {
	ctx := context.Background()
	s := NewReportStore()
	if _, err := s.Publish(ctx, benchReport(10000)); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := s.TopN(ctx, model.ScoreQuality, 50); err != nil {
				b.Fatal(err)
			}
		}
	})
}
