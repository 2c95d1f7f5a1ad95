package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sectorlag/pkg/httputil"
	"github.com/wonny/sectorlag/pkg/logger"
)

const stooqSample = `Date,Open,High,Low,Close,Volume
2024-01-02,52.10,53.00,51.80,52.75,1200000
2024-01-03,52.80,53.40,52.20,52.30,980000
`

func TestStooqClient_FetchDaily(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.String()
		w.Write([]byte(stooqSample))
	}))
	defer server.Close()

	client := NewStooqClient(server.URL, httputil.New(logger.NewNop()), logger.NewNop())
	prices, err := client.FetchDaily(context.Background(),
		"DOW", day("2024-01-01"), day("2024-01-05"))

	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.Contains(t, gotPath, "s=dow.us")
	assert.Contains(t, gotPath, "d1=20240101")
	assert.Equal(t, "DOW", prices[0].Ticker)
	assert.Equal(t, day("2024-01-02"), prices[0].Date)
	assert.InDelta(t, 52.75, prices[0].Close, 1e-9)
	assert.Equal(t, int64(980000), prices[1].Volume)
}

func TestStooqClient_UnknownSymbol(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("No data"))
	}))
	defer server.Close()

	client := NewStooqClient(server.URL, httputil.New(logger.NewNop()), logger.NewNop())
	prices, err := client.FetchDaily(context.Background(),
		"NOPE", day("2024-01-01"), day("2024-01-05"))

	require.NoError(t, err)
	assert.Empty(t, prices)
}

func TestStooqClient_DottedTicker(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.String()
		w.Write([]byte(stooqSample))
	}))
	defer server.Close()

	client := NewStooqClient(server.URL, httputil.New(logger.NewNop()), logger.NewNop())
	_, err := client.FetchDaily(context.Background(),
		"BRK.B", day("2024-01-01"), day("2024-01-05"))

	require.NoError(t, err)
	assert.Contains(t, gotPath, "s=brk-b.us")
}
