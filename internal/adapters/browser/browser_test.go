package browser_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/okian/dltscope/internal/adapters/browser"
	"github.com/okian/dltscope/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

const listPage = `<html><body>
<div class="expert-list">
  <a class="expert-item" href="/detail?n=1">one</a>
  <a class="expert-item" href="/detail?n=2">two</a>
</div>
</body></html>`

func TestChrome(t *testing.T) {
	if testing.Short() {
		t.Skip("launches a browser")
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if r.URL.Path == "/detail" {
			fmt.Fprintf(w, `<html><body><div class="okami-text"><p>detail %s</p></div></body></html>`, r.URL.Query().Get("n"))
			return
		}
		fmt.Fprint(w, listPage)
	}))
	defer srv.Close()

	ctx := context.Background()
	s, err := browser.NewChrome(ctx, browser.WithCallTimeout(10*time.Second))
	if errors.Is(err, browser.ErrLaunch) {
		t.Skipf("no local Chrome: %v", err)
	}
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	Convey("Given a list page in a real browser", t, func() {
		So(s.Navigate(ctx, srv.URL), ShouldBeNil)
		So(s.WaitVisible(ctx, ".expert-list", time.Second*5), ShouldBeNil)

		Convey("When the second item is clicked", func() {
			So(s.Click(ctx, ".expert-item", 1), ShouldBeNil)
			So(s.WaitVisible(ctx, ".okami-text", time.Second*5), ShouldBeNil)
			html, err := s.HTML(ctx)

			Convey("Then the detail page is rendered", func() {
				So(err, ShouldBeNil)
				So(strings.Contains(html, "detail 2"), ShouldBeTrue)
			})

			Convey("Then going back restores the list", func() {
				So(s.Back(ctx), ShouldBeNil)
				So(s.WaitVisible(ctx, ".expert-list", time.Second*5), ShouldBeNil)
			})
		})

		Convey("When clicking past the last match", func() {
			err := s.Click(ctx, ".expert-item", 5)

			Convey("Then ErrNotFound is returned", func() {
				So(errors.Is(err, browser.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When waiting for a marker that never appears", func() {
			err := s.WaitVisible(ctx, ".missing", 300*time.Millisecond)

			Convey("Then the wait times out", func() {
				So(errors.Is(err, browser.ErrTimeout), ShouldBeTrue)
			})
		})
	})

	Convey("Close can be called twice", t, func() {
		_ = s.Close()
		So(func() { _ = s.Close() }, ShouldNotPanic)
	})
}
