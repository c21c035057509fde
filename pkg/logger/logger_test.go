package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When initialized with defaults", func() {
			So(Init(), ShouldBeNil)

			Convey("Then Get returns a usable logger", func() {
				So(Get(), ShouldNotBeNil)
				So(Sync(), ShouldBeNil)
			})
		})

		Convey("When initialized with an unknown format", func() {
			err := InitWithWriter(&bytes.Buffer{}, "xml")

			Convey("Then it returns an error", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "unknown log format")
			})
		})

		Convey("When initialized with a nil writer", func() {
			So(InitWithWriter(nil, FormatText), ShouldNotBeNil)
		})
	})
}

func TestLoggerJSONOutput(t *testing.T) {
	Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(InitWithWriter(&buf, FormatJSON), ShouldBeNil)
		SetLevel(slog.LevelInfo)
		defer func() { _ = Init() }()

		ctx := context.Background()

		Convey("When logging with fields through a named child", func() {
			Named("assess").With(String("patient_id", "p-1")).Info(ctx, "assessment stored",
				Float64("confidence", 0.75),
				Bool("imputed", true),
				Error(errors.New("boom")),
			)

			Convey("Then the record carries every field plus component and source", func() {
				var rec map[string]any
				So(json.Unmarshal(buf.Bytes(), &rec), ShouldBeNil)
				So(rec["msg"], ShouldEqual, "assessment stored")
				So(rec["component"], ShouldEqual, "assess")
				So(rec["patient_id"], ShouldEqual, "p-1")
				So(rec["confidence"], ShouldEqual, 0.75)
				So(rec["imputed"], ShouldEqual, true)
				So(rec["source"], ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When logging below the configured level", func() {
			Get().Debug(ctx, "hidden")

			Convey("Then nothing is written", func() {
				So(buf.Len(), ShouldEqual, 0)
			})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level strings", t, func() {
		defer SetLevel(slog.LevelInfo)

		for _, lvl := range []string{"debug", "INFO", " warn ", "warning", "error", ""} {
			So(SetLevelString(lvl), ShouldBeNil)
		}

		Convey("Then unknown levels are rejected", func() {
			err := SetLevelString("verbose")
			So(err, ShouldNotBeNil)
			So(strings.Contains(err.Error(), "verbose"), ShouldBeTrue)
		})
	})
}

func TestNop(t *testing.T) {
	Convey("Nop logger accepts calls without output", t, func() {
		l := Nop().Named("x").With(Int("n", 1))
		So(func() { l.Info(context.Background(), "ignored") }, ShouldNotPanic)
	})
}
