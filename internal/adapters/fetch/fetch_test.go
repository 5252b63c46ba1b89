package fetch_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/okian/dltscope/internal/adapters/fetch"
	"github.com/okian/dltscope/internal/testpages"
	"github.com/okian/dltscope/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func newClient() *fetch.Client {
	return fetch.New(fetch.WithRate(1000), fetch.WithRetries(0), fetch.WithConcurrency(2))
}

func TestPageURL(t *testing.T) {
	Convey("Given a listing base url", t, func() {
		Convey("Then page one is the base itself", func() {
			u, err := fetch.PageURL("https://example.test/kjxx/dlt/", 1)
			So(err, ShouldBeNil)
			So(u, ShouldEqual, "https://example.test/kjxx/dlt/")
		})

		Convey("Then later pages carry the page parameter", func() {
			u, err := fetch.PageURL("https://example.test/kjxx/dlt/?a=b", 3)
			So(err, ShouldBeNil)
			So(u, ShouldEqual, "https://example.test/kjxx/dlt/?a=b&pageNum=3")
		})
	})
}

func TestDrawPages(t *testing.T) {
	ctx := context.Background()

	Convey("Given a listing with three pages where the second fails", t, func() {
		var hits atomic.Int32
		var sawUA atomic.Bool
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			if r.Header.Get("User-Agent") == "dltscope-test" {
				sawUA.Store(true)
			}
			page := r.URL.Query().Get(fetch.PageParam)
			if page == "2" {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			if page == "" {
				page = "1"
			}
			fmt.Fprintf(w, "<html><body>page %s</body></html>", page)
		}))
		defer srv.Close()

		c := fetch.New(fetch.WithRate(1000), fetch.WithRetries(0), fetch.WithUserAgent("dltscope-test"))
		pages, err := c.DrawPages(ctx, srv.URL+"/", 3)

		Convey("Then pages are slotted by index and the failed one is empty", func() {
			So(err, ShouldBeNil)
			So(pages, ShouldHaveLength, 3)
			So(pages[0], ShouldContainSubstring, "page 1")
			So(pages[1], ShouldBeEmpty)
			So(pages[2], ShouldContainSubstring, "page 3")
			So(hits.Load(), ShouldEqual, 3)
			So(sawUA.Load(), ShouldBeTrue)
		})
	})

	Convey("Given a listing that is down", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := newClient().DrawPages(ctx, srv.URL, 2)

		Convey("Then ErrNoPages is returned", func() {
			So(errors.Is(err, fetch.ErrNoPages), ShouldBeTrue)
		})
	})
}

func TestRanking(t *testing.T) {
	ctx := context.Background()
	experts := []testpages.Expert{{ID: "9", Name: "甲"}, {ID: "10", Name: "乙"}}

	Convey("Given a ranking endpoint", t, func() {
		dir := t.TempDir()
		snapshot := filepath.Join(dir, "ranking.json")
		So(os.WriteFile(snapshot, testpages.Ranking(0, experts[:1]...), 0o600), ShouldBeNil)

		Convey("When it answers with code 0", func() {
			var referer atomic.Value
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				referer.Store(r.Header.Get("Referer"))
				_, _ = w.Write(testpages.Ranking(0, experts...))
			}))
			defer srv.Close()

			entries, err := newClient().Ranking(ctx, srv.URL, snapshot)

			Convey("Then the live list is used", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 2)
				So(entries[1].ID, ShouldEqual, "10")
				So(referer.Load(), ShouldEqual, "https://www.cmzj.net/")
			})
		})

		Convey("When it answers with a non-zero code", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write(testpages.Ranking(500, experts...))
			}))
			defer srv.Close()

			entries, err := newClient().Ranking(ctx, srv.URL, snapshot)

			Convey("Then the snapshot is used", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 1)
				So(entries[0].Name, ShouldEqual, "甲")
			})
		})

		Convey("When it fails and there is no snapshot", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer srv.Close()

			_, err := newClient().Ranking(ctx, srv.URL, filepath.Join(dir, "missing.json"))

			Convey("Then ErrNoRanking is returned", func() {
				So(errors.Is(err, fetch.ErrNoRanking), ShouldBeTrue)
			})
		})
	})
}
