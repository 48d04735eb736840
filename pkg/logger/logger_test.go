package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestInit(t *testing.T) {
	Convey("Given the logger package", t, func() {
		ctx := context.Background()

		Convey("When initialized with text output", func() {
			var buf bytes.Buffer
			So(Init(WithWriter(&buf)), ShouldBeNil)
			Get().Info(ctx, "report published", String("report_id", "r-1"), Int("users", 3))

			Convey("Then lines should be key=value with a source", func() {
				line := buf.String()
				So(line, ShouldContainSubstring, "msg=\"report published\"")
				So(line, ShouldContainSubstring, "report_id=r-1")
				So(line, ShouldContainSubstring, "users=3")
				So(line, ShouldContainSubstring, "logger_test.go:")
			})
		})

		Convey("When initialized with JSON output", func() {
			var buf bytes.Buffer
			So(Init(WithFormat("JSON"), WithWriter(&buf)), ShouldBeNil)
			Named("engine").Warn(ctx, "slow build", Bool("cancelled", false), Float64("ratio", 0.5))

			Convey("Then each line should be a JSON object", func() {
				var rec map[string]any
				So(json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec), ShouldBeNil)
				So(rec["msg"], ShouldEqual, "slow build")
				So(rec["level"], ShouldEqual, "WARN")
				So(rec["logger"], ShouldEqual, "engine")
				So(rec["cancelled"], ShouldEqual, false)
				So(rec["ratio"], ShouldEqual, 0.5)
			})
		})

		Convey("When the format is unknown", func() {
			Convey("Then Init should fail", func() {
				So(Init(WithFormat("xml")), ShouldNotBeNil)
			})
		})
	})
}

func TestLevels(t *testing.T) {
	Convey("Given an initialized logger", t, func() {
		ctx := context.Background()
		var buf bytes.Buffer
		So(Init(WithWriter(&buf)), ShouldBeNil)

		Convey("When the level is raised to error", func() {
			So(SetLevelString(" Error "), ShouldBeNil)
			Get().Info(ctx, "hidden")
			Get().Error(ctx, "shown")

			Convey("Then only error lines should be written", func() {
				So(buf.String(), ShouldNotContainSubstring, "hidden")
				So(strings.Count(buf.String(), "\n"), ShouldEqual, 1)
			})
		})

		Convey("When the level is debug", func() {
			So(SetLevelString("debug"), ShouldBeNil)
			Get().Debug(ctx, "visible")

			Convey("Then debug lines should be written", func() {
				So(buf.String(), ShouldContainSubstring, "visible")
			})
		})

		Convey("When the level is unknown", func() {
			Convey("Then it should be rejected", func() {
				So(SetLevelString("verbose"), ShouldNotBeNil)
			})
		})
	})
}

func TestNop(t *testing.T) {
	Convey("Given a nop logger", t, func() {
		l := Nop()

		Convey("Then logging should be harmless", func() {
			So(func() {
				l.Named("x").Error(context.Background(), "ignored", Error(nil))
			}, ShouldNotPanic)
		})

		Convey("Then Sync should succeed", func() {
			So(Sync(), ShouldBeNil)
		})
	})
}
