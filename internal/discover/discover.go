// Package discover crawls remote HTTP directory listings for NetCDF
// profile files. Data providers publish a year hierarchy that is either
// flat (year directory lists .nc files directly) or nested (year
// directory lists month subdirectories 01/..12/); both shapes are
// handled. A failed listing fetch counts as zero candidates for that
// period and never aborts the crawl.
package discover

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// monthDirRe matches month subdirectory anchors ("01/" .. "12/").
var monthDirRe = regexp.MustCompile(`^(0[1-9]|1[0-2])/$`)

// Candidate is one discovered file reference. Ephemeral: no identity
// beyond the URL, and re-discovery may re-emit the same reference.
type Candidate struct {
	URL   string
	Year  int
	Month int // 0 when found directly under the year directory
}

// Window bounds the crawl to a year range and, for nested listings, a
// month range within each year.
type Window struct {
	StartYear, EndYear   int
	StartMonth, EndMonth int
}

// Crawler discovers candidate files from year-based directory listings.
type Crawler struct {
	Client    *http.Client
	PerPeriod int // candidate cap per year or month listing
}

// NewCrawler returns a crawler with the given HTTP client and
// per-period cap.
func NewCrawler(client *http.Client, perPeriod int) *Crawler {
	return &Crawler{Client: client, PerPeriod: perPeriod}
}

// Discover walks the year range ascending and returns at most maxFiles
// candidates. Within a year, direct files come before month
// subdirectory contents; months are visited in ascending order.
func (c *Crawler) Discover(ctx context.Context, baseURL string, w Window, maxFiles int) []Candidate {
	var out []Candidate

	for year := w.StartYear; year <= w.EndYear; year++ {
		if len(out) >= maxFiles {
			break
		}

		yearURL := joinURL(baseURL, fmt.Sprintf("%d/", year))
		log.Printf("discovering files in %s", yearURL)

		files, months, err := c.listPeriod(ctx, yearURL)
		if err != nil {
			log.Printf("could not access %s: %v", yearURL, err)
			continue
		}

		if len(files) > 0 {
			if len(files) > c.PerPeriod {
				files = files[:c.PerPeriod]
			}
			for _, f := range files {
				out = append(out, Candidate{URL: joinURL(yearURL, f), Year: year})
			}
			log.Printf("found %d direct files for year %d", len(files), year)
			continue
		}

		if len(months) == 0 {
			log.Printf("no candidates found for year %d", year)
			continue
		}

		out = append(out, c.discoverMonths(ctx, yearURL, year, months, w)...)
	}

	if len(out) > maxFiles {
		out = out[:maxFiles]
	}
	return out
}

// discoverMonths scans the target months of one nested year listing.
// Months outside the configured range are never fetched. The combined
// per-year yield is capped at PerPeriod, matching the per-year cap of
// flat listings.
func (c *Crawler) discoverMonths(ctx context.Context, yearURL string, year int, months map[int]bool, w Window) []Candidate {
	var out []Candidate

	for month := w.StartMonth; month <= w.EndMonth; month++ {
		if !months[month] {
			continue
		}
		if len(out) >= c.PerPeriod {
			break
		}

		monthURL := joinURL(yearURL, fmt.Sprintf("%02d/", month))
		files, _, err := c.listPeriod(ctx, monthURL)
		if err != nil {
			log.Printf("could not access %s: %v", monthURL, err)
			continue
		}

		if len(files) > c.PerPeriod {
			files = files[:c.PerPeriod]
		}
		for _, f := range files {
			out = append(out, Candidate{URL: joinURL(monthURL, f), Year: year, Month: month})
		}
		log.Printf("found %d files in %d/%02d", len(files), year, month)
	}

	if len(out) > c.PerPeriod {
		out = out[:c.PerPeriod]
	}
	return out
}

// listPeriod fetches one directory listing and splits its anchors into
// direct .nc files and month subdirectories.
func (c *Crawler) listPeriod(ctx context.Context, listURL string) (files []string, months map[int]bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return nil, nil, err
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	hrefs, err := parseListing(resp.Body)
	if err != nil {
		return nil, nil, err
	}

	months = make(map[int]bool)
	for _, href := range hrefs {
		if href == "" || strings.HasPrefix(href, "..") {
			continue
		}
		switch {
		case strings.HasSuffix(href, ".nc"):
			files = append(files, href)
		case monthDirRe.MatchString(href):
			var m int
			fmt.Sscanf(href, "%d/", &m)
			months[m] = true
		}
	}
	return files, months, nil
}

// parseListing extracts anchor hrefs from an HTML index page in
// document order.
func parseListing(r io.Reader) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var hrefs []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key == "href" {
					hrefs = append(hrefs, attr.Val)
					break
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return hrefs, nil
}

// joinURL resolves ref against base the way a browser would.
func joinURL(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return base + ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return base + ref
	}
	return b.ResolveReference(r).String()
}
