package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	service "github.com/okian/spdscore/internal/app"
	"github.com/okian/spdscore/internal/adapters/repository"
	"github.com/okian/spdscore/internal/domain/model"
	"github.com/okian/spdscore/internal/domain/normalize"
	. "github.com/smartystreets/goconvey/convey"
)

func cohort(scans ...int) []model.Row {
	rows := make([]model.Row, len(scans))
	for i, n := range scans {
		rows[i] = model.Row{
			normalize.ColUserID:      fmt.Sprintf("u%d", i+1),
			normalize.ColUserName:    fmt.Sprintf("Person %d", i+1),
			normalize.ColHoursWorked: 8,
			normalize.ColDeconScans:  n,
		}
	}
	return rows
}

// waitForReport polls until the report with id is the latest one.
func waitForReport(ctx context.Context, svc *service.Service, id string) (model.ProcessedReport, error) {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		r, err := svc.Latest(ctx)
		if err == nil && r.ID == id {
			return r, nil
		}
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return model.ProcessedReport{}, err
		}
		time.Sleep(10 * time.Millisecond)
	}
	return model.ProcessedReport{}, fmt.Errorf("report %s not published in time", id)
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		svc := newService(
			service.WithWorkerCount(2),
			service.WithQueueSize(16),
			service.WithHistorySize(2),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop() }()

		Convey("When a batch is scored end-to-end", func() {
			batch := svc.NewBatch(true, cohort(10, 0, 4))
			So(svc.Enqueue(ctx, batch), ShouldBeNil)

			report, err := waitForReport(ctx, svc, batch.ID)
			So(err, ShouldBeNil)

			Convey("Then the report keeps input order", func() {
				So(report.Seq, ShouldEqual, batch.Seq)
				So(report.HoursWorkedAvailable, ShouldBeTrue)
				So(report.Users, ShouldHaveLength, 3)
				So(report.Users[0].UserID, ShouldEqual, "u1")
				So(report.Users[2].UserID, ShouldEqual, "u3")
				So(report.PillarMedians.Decon, ShouldEqual, 4.0)
			})

			Convey("And people are readable by ID", func() {
				u, err := svc.User(ctx, "u1")
				So(err, ShouldBeNil)
				So(u.Pillars.Decon, ShouldEqual, 10.0)
				So(u.AboveMedian.Decon, ShouldBeTrue)

				_, err = svc.User(ctx, "nobody")
				So(err, ShouldWrap, repository.ErrNotFound)
			})

			Convey("And the report is retrievable by ID", func() {
				r, err := svc.Report(ctx, batch.ID)
				So(err, ShouldBeNil)
				So(r.ID, ShouldEqual, batch.ID)
			})

			Convey("And leaderboards are ordered by score desc", func() {
				for _, kind := range repository.ScoreKinds() {
					entries, err := svc.TopN(ctx, kind, 10)
					So(err, ShouldBeNil)
					So(entries, ShouldHaveLength, 3)
					for i := 1; i < len(entries); i++ {
						So(entries[i-1].Score, ShouldBeGreaterThanOrEqualTo, entries[i].Score)
					}
				}

				top, err := svc.TopN(ctx, model.ScoreProductivity, 1)
				So(err, ShouldBeNil)
				So(top[0].UserID, ShouldEqual, "u1")
				So(top[0].Rank, ShouldEqual, 1)

				entry, err := svc.Rank(ctx, model.ScoreProductivity, "u2")
				So(err, ShouldBeNil)
				So(entry.Rank, ShouldEqual, 3)
			})

			Convey("And stats reflect the published report", func() {
				stats := svc.GetStats()
				So(stats["latestReportID"], ShouldEqual, batch.ID)
				So(stats["people"], ShouldEqual, 3)
				So(stats["reports"], ShouldEqual, 1)
				So(stats["processed"], ShouldEqual, int64(1))
			})
		})

		Convey("When a newer batch is published", func() {
			first := svc.NewBatch(false, cohort(1, 2))
			So(svc.Enqueue(ctx, first), ShouldBeNil)
			_, err := waitForReport(ctx, svc, first.ID)
			So(err, ShouldBeNil)

			second := svc.NewBatch(false, cohort(5, 6, 7))
			So(svc.Enqueue(ctx, second), ShouldBeNil)
			report, err := waitForReport(ctx, svc, second.ID)
			So(err, ShouldBeNil)

			Convey("Then it fully replaces the previous report", func() {
				So(report.Users, ShouldHaveLength, 3)
				So(svc.GetStats()["people"], ShouldEqual, 3)

				_, err := svc.Report(ctx, first.ID)
				So(err, ShouldBeNil)
			})
		})
	})

	Convey("Given a service stopped right after enqueueing", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		svc := newService(service.WithWorkerCount(1))
		So(svc.Start(ctx), ShouldBeNil)

		batch := svc.NewBatch(false, cohort(3, 1))
		So(svc.Enqueue(ctx, batch), ShouldBeNil)
		So(svc.Stop(), ShouldBeNil)

		Convey("Then queued batches are still published", func() {
			r, err := svc.Latest(ctx)
			So(err, ShouldBeNil)
			So(r.ID, ShouldEqual, batch.ID)
		})
	})
}
