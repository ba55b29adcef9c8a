package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yashashwi-s/VirtualTradingPlatform/internal/domain"
)

const globalQuoteBody = `{
	"Global Quote": {
		"01. symbol": "AAPL",
		"05. price": "189.5000",
		"09. change": "1.2500",
		"10. change percent": "0.6640%"
	}
}`

func TestGetQuoteParsesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "GLOBAL_QUOTE", r.URL.Query().Get("function"))
		require.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		fmt.Fprint(w, globalQuoteBody)
	}))
	defer server.Close()

	svc := NewMarketQuoteService(server.URL, "test-key", time.Minute)

	quote, err := svc.GetQuote(context.Background(), "aapl")
	require.NoError(t, err)
	require.Equal(t, "AAPL", quote.Symbol)
	requireDecimal(t, "189.50", quote.Price)
	requireDecimal(t, "1.25", quote.Change)
	require.Equal(t, "0.6640", quote.ChangePercent)
}

func TestGetQuoteServesFromCache(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, globalQuoteBody)
	}))
	defer server.Close()

	svc := NewMarketQuoteService(server.URL, "test-key", time.Minute)

	_, err := svc.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	_, err = svc.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)

	require.Equal(t, 1, requests)
}

func TestGetQuoteExpiredCacheRefetches(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, globalQuoteBody)
	}))
	defer server.Close()

	svc := NewMarketQuoteService(server.URL, "test-key", time.Nanosecond)

	_, err := svc.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = svc.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)

	require.Equal(t, 2, requests)
}

func TestGetQuoteUpstreamErrorIsQuoteUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	svc := NewMarketQuoteService(server.URL, "test-key", time.Minute)

	_, err := svc.GetQuote(context.Background(), "AAPL")
	require.ErrorIs(t, err, domain.ErrQuoteUnavailable)
}

func TestGetQuoteEmptyPayloadIsQuoteUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Global Quote": {}}`)
	}))
	defer server.Close()

	svc := NewMarketQuoteService(server.URL, "test-key", time.Minute)

	_, err := svc.GetQuote(context.Background(), "UNKNOWN")
	require.ErrorIs(t, err, domain.ErrQuoteUnavailable)
}

func TestGetQuoteEmptySymbol(t *testing.T) {
	svc := NewMarketQuoteService("http://localhost:0", "test-key", time.Minute)

	_, err := svc.GetQuote(context.Background(), "   ")
	require.ErrorIs(t, err, domain.ErrQuoteUnavailable)
}

func TestSearchSymbolsParsesAndCaps(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "SYMBOL_SEARCH", r.URL.Query().Get("function"))
		fmt.Fprint(w, `{
			"bestMatches": [
				{"1. symbol": "AAPL", "2. name": "Apple Inc", "3. type": "Equity", "4. region": "United States", "8. currency": "USD"},
				{"1. symbol": "APLE", "2. name": "Apple Hospitality", "3. type": "Equity", "4. region": "United States", "8. currency": "USD"}
			]
		}`)
	}))
	defer server.Close()

	svc := NewMarketQuoteService(server.URL, "test-key", time.Minute)

	matches, err := svc.SearchSymbols(context.Background(), "apple")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	require.Equal(t, "AAPL", matches[0].Symbol)
	require.Equal(t, "Apple Inc", matches[0].Name)
	require.Equal(t, "USD", matches[0].Currency)
}
