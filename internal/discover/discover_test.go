package discover

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listingServer serves canned HTML index pages and counts hits per path.
type listingServer struct {
	mu    sync.Mutex
	pages map[string]string
	hits  map[string]int
}

func newListingServer(pages map[string]string) *listingServer {
	return &listingServer{pages: pages, hits: make(map[string]int)}
}

func (s *listingServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.hits[r.URL.Path]++
	page, ok := s.pages[r.URL.Path]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	fmt.Fprint(w, page)
}

func (s *listingServer) hitCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func listing(hrefs ...string) string {
	page := "<html><body><pre>"
	for _, h := range hrefs {
		page += fmt.Sprintf(`<a href="%s">%s</a>`, h, h)
	}
	return page + "</pre></body></html>"
}

func TestDiscoverFlatListing(t *testing.T) {
	ls := newListingServer(map[string]string{
		"/2024/": listing("../", "A.nc", "B.nc", "readme.txt"),
	})
	srv := httptest.NewServer(ls)
	defer srv.Close()

	c := NewCrawler(srv.Client(), 5)
	w := Window{StartYear: 2024, EndYear: 2024, StartMonth: 1, EndMonth: 12}

	got := c.Discover(context.Background(), srv.URL+"/", w, 10)
	require.Len(t, got, 2)
	assert.Equal(t, srv.URL+"/2024/A.nc", got[0].URL)
	assert.Equal(t, srv.URL+"/2024/B.nc", got[1].URL)
	assert.Equal(t, 2024, got[0].Year)
	assert.Equal(t, 0, got[0].Month)
}

func TestDiscoverNestedListing(t *testing.T) {
	ls := newListingServer(map[string]string{
		"/2024/":    listing("../", "01/", "02/", "03/"),
		"/2024/01/": listing("../", "X.nc", "Y.nc"),
		"/2024/02/": listing("../", "Z.nc"),
		"/2024/03/": listing("../", "W.nc"),
	})
	srv := httptest.NewServer(ls)
	defer srv.Close()

	c := NewCrawler(srv.Client(), 5)
	w := Window{StartYear: 2024, EndYear: 2024, StartMonth: 1, EndMonth: 1}

	got := c.Discover(context.Background(), srv.URL+"/", w, 10)
	require.Len(t, got, 2)
	assert.Equal(t, srv.URL+"/2024/01/X.nc", got[0].URL)
	assert.Equal(t, srv.URL+"/2024/01/Y.nc", got[1].URL)
	assert.Equal(t, 1, got[0].Month)

	// months outside the window are never fetched
	assert.Zero(t, ls.hitCount("/2024/02/"))
	assert.Zero(t, ls.hitCount("/2024/03/"))
}

func TestDiscoverDirectFilesWinOverMonths(t *testing.T) {
	// A listing with both direct files and month dirs yields only the
	// direct files.
	ls := newListingServer(map[string]string{
		"/2024/":    listing("A.nc", "01/"),
		"/2024/01/": listing("X.nc"),
	})
	srv := httptest.NewServer(ls)
	defer srv.Close()

	c := NewCrawler(srv.Client(), 5)
	w := Window{StartYear: 2024, EndYear: 2024, StartMonth: 1, EndMonth: 12}

	got := c.Discover(context.Background(), srv.URL+"/", w, 10)
	require.Len(t, got, 1)
	assert.Equal(t, srv.URL+"/2024/A.nc", got[0].URL)
	assert.Zero(t, ls.hitCount("/2024/01/"))
}

func TestDiscoverCaps(t *testing.T) {
	ls := newListingServer(map[string]string{
		"/2023/": listing("a.nc", "b.nc", "c.nc", "d.nc"),
		"/2024/": listing("e.nc", "f.nc", "g.nc"),
	})
	srv := httptest.NewServer(ls)
	defer srv.Close()

	c := NewCrawler(srv.Client(), 2)
	w := Window{StartYear: 2023, EndYear: 2024, StartMonth: 1, EndMonth: 12}

	t.Run("per-period cap", func(t *testing.T) {
		got := c.Discover(context.Background(), srv.URL+"/", w, 10)
		require.Len(t, got, 4, "two per year")
		assert.Equal(t, 2023, got[0].Year)
		assert.Equal(t, 2024, got[2].Year)
	})

	t.Run("global cap", func(t *testing.T) {
		got := c.Discover(context.Background(), srv.URL+"/", w, 3)
		assert.Len(t, got, 3)
	})
}

func TestDiscoverMissingYearContinues(t *testing.T) {
	ls := newListingServer(map[string]string{
		"/2024/": listing("A.nc"),
	})
	srv := httptest.NewServer(ls)
	defer srv.Close()

	c := NewCrawler(srv.Client(), 5)
	w := Window{StartYear: 2023, EndYear: 2024, StartMonth: 1, EndMonth: 12}

	got := c.Discover(context.Background(), srv.URL+"/", w, 10)
	require.Len(t, got, 1, "404 on 2023 yields zero candidates, crawl continues")
	assert.Equal(t, 2024, got[0].Year)
}

func TestParseListingSkipsParentLinks(t *testing.T) {
	ls := newListingServer(map[string]string{
		"/2024/": listing("../", "..", "A.nc"),
	})
	srv := httptest.NewServer(ls)
	defer srv.Close()

	c := NewCrawler(srv.Client(), 5)
	w := Window{StartYear: 2024, EndYear: 2024, StartMonth: 1, EndMonth: 12}

	got := c.Discover(context.Background(), srv.URL+"/", w, 10)
	require.Len(t, got, 1)
}
