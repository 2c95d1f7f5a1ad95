package marketdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/sectorlag/internal/contracts"
	"github.com/wonny/sectorlag/pkg/httputil"
	"github.com/wonny/sectorlag/pkg/logger"
)

// StooqClient fetches daily OHLCV history from the Stooq CSV endpoint.
// Requests run through the shared rate-limited HTTP client; Stooq bans
// aggressive callers.
type StooqClient struct {
	baseURL string
	client  *httputil.Client
	log     *logger.Logger
}

func NewStooqClient(baseURL string, client *httputil.Client, log *logger.Logger) *StooqClient {
	return &StooqClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		log:     log,
	}
}

// FetchDaily downloads daily bars for one US ticker in [from, to].
// Tickers are mapped to Stooq's lowercase ".us" convention.
func (c *StooqClient) FetchDaily(ctx context.Context, ticker string, from, to time.Time) ([]contracts.Price, error) {
	symbol := strings.ToLower(strings.ReplaceAll(ticker, ".", "-")) + ".us"
	url := fmt.Sprintf("%s/q/d/l/?s=%s&d1=%s&d2=%s&i=d",
		c.baseURL, symbol, from.Format("20060102"), to.Format("20060102"))

	resp, err := c.client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", ticker, resp.StatusCode)
	}

	prices, err := parseStooqCSV(resp.Body, ticker)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", ticker, err)
	}

	c.log.WithFields(map[string]interface{}{
		"ticker": ticker,
		"bars":   len(prices),
	}).Debug("fetched daily history")
	return prices, nil
}

// parseStooqCSV reads the Stooq daily format:
// Date,Open,High,Low,Close,Volume. Unknown symbols come back as a short
// plain-text body with no header; that parses to zero bars, not an error.
func parseStooqCSV(r io.Reader, ticker string) ([]contracts.Price, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var prices []contracts.Price
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if first {
			first = false
			if len(record) > 0 && strings.EqualFold(record[0], "Date") {
				continue
			}
		}
		if len(record) < 6 {
			continue
		}

		date, err := time.Parse("2006-01-02", record[0])
		if err != nil {
			continue
		}
		open, err1 := strconv.ParseFloat(record[1], 64)
		high, err2 := strconv.ParseFloat(record[2], 64)
		low, err3 := strconv.ParseFloat(record[3], 64)
		cls, err4 := strconv.ParseFloat(record[4], 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}
		volume, _ := strconv.ParseInt(record[5], 10, 64)

		prices = append(prices, contracts.Price{
			Ticker: ticker,
			Date:   date,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  cls,
			Volume: volume,
		})
	}

	return prices, nil
}
