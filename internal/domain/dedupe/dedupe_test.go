package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/okian/dltscope/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new InMemoryDeduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithSizeHint(16))

		Convey("Then it starts empty", func() {
			So(d.Size(), ShouldEqual, 0)
			So(d.Keys(), ShouldBeEmpty)
			So(d.Contains(ctx, "老王"), ShouldBeFalse)
		})

		Convey("When an identity is recorded twice", func() {
			first := d.SeenAndRecord(ctx, "老王")
			second := d.SeenAndRecord(ctx, "老王")

			Convey("Then only the first call records it", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
				So(d.Contains(ctx, "老王"), ShouldBeTrue)
			})
		})

		Convey("When identities are unrecorded", func() {
			for _, id := range []string{"a", "b", "c"} {
				d.SeenAndRecord(ctx, id)
			}
			d.Unrecord(ctx, "b")
			d.Unrecord(ctx, "missing")

			Convey("Then order is kept for the rest", func() {
				So(d.Keys(), ShouldResemble, []string{"a", "c"})
				So(d.Contains(ctx, "b"), ShouldBeFalse)
				So(d.SeenAndRecord(ctx, "b"), ShouldBeFalse)
				So(d.Keys(), ShouldResemble, []string{"a", "c", "b"})
			})
		})

		Convey("When many identities are recorded concurrently", func() {
			var wg sync.WaitGroup
			for w := 0; w < 8; w++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := 0; i < 100; i++ {
						d.SeenAndRecord(ctx, fmt.Sprintf("id-%d", i))
					}
				}()
			}
			wg.Wait()

			Convey("Then every identity is recorded once", func() {
				So(d.Size(), ShouldEqual, 100)
				So(len(d.Keys()), ShouldEqual, 100)
			})
		})
	})
}
