package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glabrego/gallery-cli/internal/media"
)

func TestAuthenticate_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/me.json" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Fatalf("unexpected authorization header: %q", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "secret", ts.Client())
	if err := c.Authenticate(context.Background()); err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
}

func TestAuthenticate_Unauthorized(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "wrong", ts.Client())
	err := c.Authenticate(context.Background())
	if err == nil {
		t.Fatal("expected auth error")
	}
	if !strings.Contains(err.Error(), "invalid token") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSearchPage_SendsQueryAndParsesIDs(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search.json" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("q") != "cats" || r.URL.Query().Get("page") != "3" {
			t.Fatalf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ids":["illust:5","illust:6","user:9"]}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "secret", ts.Client())
	ids, err := c.SearchPage(context.Background(), "cats", 3)
	if err != nil {
		t.Fatalf("SearchPage returned error: %v", err)
	}
	if len(ids) != 3 || ids[2] != (media.ID{Kind: media.KindUser, Value: "9"}) {
		t.Fatalf("unexpected ids: %+v", ids)
	}
}

func TestSearchPage_RejectsMalformedIDs(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ids":["video:1"]}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "secret", ts.Client())
	if _, err := c.SearchPage(context.Background(), "cats", 1); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestSearchPage_StatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "secret", ts.Client())
	_, err := c.SearchPage(context.Background(), "cats", 1)
	if err == nil || !strings.Contains(err.Error(), "status 502") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBookmarksPage_SendsVisibility(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/42/bookmarks.json" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("rest") != "hide" {
			t.Fatalf("unexpected rest query: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"ids":["illust:1"]}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "secret", ts.Client())
	ids, err := c.BookmarksPage(context.Background(), "42", Private, 1)
	if err != nil {
		t.Fatalf("BookmarksPage returned error: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("unexpected ids: %+v", ids)
	}
}

func TestFetchInfo_ParsesResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/illusts.json" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("ids") != "illust:1,illust:2" {
			t.Fatalf("unexpected ids query: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`[{"id":"illust:1","title":"Sunset","author":"ann","author_id":"u1","tags":["sky"],"page_count":3}]`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "secret", ts.Client())
	infos, err := c.FetchInfo(context.Background(), []media.ID{media.NewIllust("1"), media.NewIllust("2")})
	if err != nil {
		t.Fatalf("FetchInfo returned error: %v", err)
	}
	if len(infos) != 1 || infos[0].PageCount != 3 || infos[0].Title != "Sunset" {
		t.Fatalf("unexpected infos: %+v", infos)
	}
}

func TestParseResultIDs(t *testing.T) {
	doc := `<html><body>
<ul class="results">
  <li data-media-id="illust:10"><img src="a.jpg"></li>
  <li><a data-media-id="illust:11">b</a></li>
  <li data-media-id="bogus:1"></li>
  <li data-media-id="12"></li>
</ul></body></html>`
	ids, err := ParseResultIDs(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ParseResultIDs returned error: %v", err)
	}
	want := []media.ID{media.NewIllust("10"), media.NewIllust("11"), media.NewIllust("12")}
	if len(ids) != len(want) {
		t.Fatalf("unexpected ids: %+v", ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("unexpected id at %d: %+v", i, ids[i])
		}
	}
}

func TestSearchPageHTML_UsesScrapeEndpoint(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" || r.URL.Query().Get("p") != "2" {
			t.Fatalf("unexpected request: %s", r.URL.String())
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<div data-media-id="illust:3"></div>`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "", ts.Client())
	ids, err := c.SearchPageHTML(context.Background(), "dogs", 2)
	if err != nil {
		t.Fatalf("SearchPageHTML returned error: %v", err)
	}
	if len(ids) != 1 || ids[0] != media.NewIllust("3") {
		t.Fatalf("unexpected ids: %+v", ids)
	}
}

func TestItemURL(t *testing.T) {
	c := NewClient("https://gallery.example/api/v1", "", nil)
	if got := c.ItemURL(media.NewIllust("7")); got != "https://gallery.example/illusts/7" {
		t.Fatalf("unexpected item url: %s", got)
	}
}
