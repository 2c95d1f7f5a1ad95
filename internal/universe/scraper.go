package universe

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/sectorlag/pkg/httputil"
	"github.com/wonny/sectorlag/pkg/logger"
)

// ConstituentScraper pulls index constituent listings from an HTML table
// so a universe file can be cross-checked against current membership.
type ConstituentScraper struct {
	client *httputil.Client
	log    *logger.Logger
}

func NewConstituentScraper(client *httputil.Client, log *logger.Logger) *ConstituentScraper {
	return &ConstituentScraper{client: client, log: log}
}

// FetchConstituents scrapes ticker symbols from the constituents table at
// url. It reads the first cell of each body row, which is the symbol
// column on the supported listing pages.
func (s *ConstituentScraper) FetchConstituents(ctx context.Context, url string) ([]string, error) {
	resp, err := s.client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch constituents: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("fetch constituents: unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse constituents page: %w", err)
	}

	seen := make(map[string]struct{})
	doc.Find("table tbody tr").Each(func(_ int, row *goquery.Selection) {
		cell := row.Find("td").First()
		symbol := strings.ToUpper(strings.TrimSpace(cell.Text()))
		if !validSymbol(symbol) {
			return
		}
		seen[symbol] = struct{}{}
	})

	if len(seen) == 0 {
		return nil, fmt.Errorf("no symbols found at %s", url)
	}

	tickers := make([]string, 0, len(seen))
	for t := range seen {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	s.log.WithFields(map[string]interface{}{
		"url":     url,
		"symbols": len(tickers),
	}).Info("scraped constituents")
	return tickers, nil
}

// Verify reports universe tickers absent from the scraped constituent
// list. A non-empty result means the universe file is stale.
func (s *ConstituentScraper) Verify(u *Universe, constituents []string) []string {
	member := make(map[string]struct{}, len(constituents))
	for _, t := range constituents {
		member[t] = struct{}{}
	}

	var missing []string
	for _, t := range u.AllTickers() {
		if _, ok := member[t]; !ok {
			missing = append(missing, t)
		}
	}
	return missing
}

// validSymbol filters out header junk and footnote cells. US symbols are
// 1 to 6 characters of letters, dots and hyphens.
func validSymbol(s string) bool {
	if len(s) == 0 || len(s) > 6 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
		case r == '.' || r == '-':
		default:
			return false
		}
	}
	return true
}
