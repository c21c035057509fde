package types_test

import (
	"testing"

	"github.com/okian/heatguard/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSlice(t *testing.T) {
	Convey("Given five ordered items", t, func() {
		all := []int{1, 2, 3, 4, 5}

		Convey("When taking the first page of two", func() {
			p := types.Slice(all, types.PageRequest{Page: 0, Size: 2})

			Convey("Then it holds the first two and reports totals", func() {
				So(p.Items, ShouldResemble, []int{1, 2})
				So(p.Total, ShouldEqual, 5)
				So(p.TotalPages(), ShouldEqual, 3)
			})
		})

		Convey("When taking the last partial page", func() {
			p := types.Slice(all, types.PageRequest{Page: 2, Size: 2})
			So(p.Items, ShouldResemble, []int{5})
		})

		Convey("When the page is past the end", func() {
			p := types.Slice(all, types.PageRequest{Page: 9, Size: 2})

			Convey("Then items are empty, not nil", func() {
				So(p.Items, ShouldNotBeNil)
				So(p.Items, ShouldBeEmpty)
				So(p.Total, ShouldEqual, 5)
			})
		})

		Convey("When the page is taken from a copy", func() {
			p := types.Slice(all, types.PageRequest{Page: 0, Size: 5})
			p.Items[0] = 99
			So(all[0], ShouldEqual, 1)
		})
	})

	Convey("Given a zero page size", t, func() {
		p := types.Page[int]{Total: 3}
		So(p.TotalPages(), ShouldEqual, 0)
	})
}
