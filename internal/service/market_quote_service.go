package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yashashwi-s/VirtualTradingPlatform/internal/domain"
)

const (
	defaultQuoteTTL  = time.Minute
	searchTTL        = time.Hour
	maxCachedQuotes  = 512
	maxSearchResults = 10
)

// SymbolMatch is one hit from a symbol search.
type SymbolMatch struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Region   string `json:"region"`
	Currency string `json:"currency"`
}

type cachedQuote struct {
	quote     *domain.Quote
	expiresAt time.Time
}

type cachedSearch struct {
	matches   []SymbolMatch
	expiresAt time.Time
}

// MarketQuoteService fetches quotes from Alpha Vantage with a bounded
// in-memory TTL cache. The cache is owned by this service; nothing else in
// the process holds price state.
type MarketQuoteService struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	quoteTTL   time.Duration

	mu       sync.RWMutex
	quotes   map[string]cachedQuote
	searches map[string]cachedSearch
}

var _ domain.QuoteSource = (*MarketQuoteService)(nil)

// NewMarketQuoteService creates a new MarketQuoteService
func NewMarketQuoteService(baseURL, apiKey string, quoteTTL time.Duration) *MarketQuoteService {
	if baseURL == "" {
		baseURL = "https://www.alphavantage.co/query"
	}
	if quoteTTL <= 0 {
		quoteTTL = defaultQuoteTTL
	}
	return &MarketQuoteService{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:  baseURL,
		apiKey:   apiKey,
		quoteTTL: quoteTTL,
		quotes:   make(map[string]cachedQuote),
		searches: make(map[string]cachedSearch),
	}
}

// GetQuote returns the current price for a symbol, serving from cache while
// fresh. Any fetch or parse failure surfaces as ErrQuoteUnavailable.
func (s *MarketQuoteService) GetQuote(ctx context.Context, symbol string) (*domain.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("empty symbol: %w", domain.ErrQuoteUnavailable)
	}

	s.mu.RLock()
	cached, ok := s.quotes[symbol]
	s.mu.RUnlock()
	if ok && time.Now().Before(cached.expiresAt) {
		return cached.quote, nil
	}

	body, err := s.call(ctx, url.Values{
		"function": {"GLOBAL_QUOTE"},
		"symbol":   {symbol},
		"apikey":   {s.apiKey},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quote for %s: %w", symbol, domain.ErrQuoteUnavailable)
	}

	var payload struct {
		GlobalQuote struct {
			Symbol        string `json:"01. symbol"`
			Price         string `json:"05. price"`
			Change        string `json:"09. change"`
			ChangePercent string `json:"10. change percent"`
		} `json:"Global Quote"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal quote for %s: %w", symbol, domain.ErrQuoteUnavailable)
	}

	price, err := decimal.NewFromString(payload.GlobalQuote.Price)
	if err != nil || price.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("no price in quote response for %s: %w", symbol, domain.ErrQuoteUnavailable)
	}

	change, _ := decimal.NewFromString(payload.GlobalQuote.Change)
	quote := &domain.Quote{
		Symbol:        symbol,
		Price:         price,
		Change:        change,
		ChangePercent: strings.TrimSuffix(payload.GlobalQuote.ChangePercent, "%"),
		AsOf:          time.Now().UTC(),
	}

	s.mu.Lock()
	s.storeQuoteLocked(symbol, quote)
	s.mu.Unlock()

	return quote, nil
}

// SearchSymbols looks up symbols matching the given keywords.
func (s *MarketQuoteService) SearchSymbols(ctx context.Context, keywords string) ([]SymbolMatch, error) {
	keywords = strings.TrimSpace(keywords)
	if keywords == "" {
		return nil, nil
	}

	cacheKey := strings.ToLower(keywords)
	s.mu.RLock()
	cached, ok := s.searches[cacheKey]
	s.mu.RUnlock()
	if ok && time.Now().Before(cached.expiresAt) {
		return cached.matches, nil
	}

	body, err := s.call(ctx, url.Values{
		"function": {"SYMBOL_SEARCH"},
		"keywords": {keywords},
		"apikey":   {s.apiKey},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search symbols for %q: %w", keywords, domain.ErrQuoteUnavailable)
	}

	var payload struct {
		BestMatches []struct {
			Symbol   string `json:"1. symbol"`
			Name     string `json:"2. name"`
			Type     string `json:"3. type"`
			Region   string `json:"4. region"`
			Currency string `json:"8. currency"`
		} `json:"bestMatches"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal symbol search for %q: %w", keywords, domain.ErrQuoteUnavailable)
	}

	matches := make([]SymbolMatch, 0, maxSearchResults)
	for i, m := range payload.BestMatches {
		if i == maxSearchResults {
			break
		}
		matches = append(matches, SymbolMatch{
			Symbol:   m.Symbol,
			Name:     m.Name,
			Type:     m.Type,
			Region:   m.Region,
			Currency: m.Currency,
		})
	}

	s.mu.Lock()
	s.searches[cacheKey] = cachedSearch{matches: matches, expiresAt: time.Now().Add(searchTTL)}
	s.mu.Unlock()

	return matches, nil
}

func (s *MarketQuoteService) call(ctx context.Context, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("market data API error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, nil
}

// storeQuoteLocked caches a quote, evicting expired entries when the cache
// is full. Caller holds s.mu.
func (s *MarketQuoteService) storeQuoteLocked(symbol string, quote *domain.Quote) {
	if len(s.quotes) >= maxCachedQuotes {
		now := time.Now()
		for k, v := range s.quotes {
			if now.After(v.expiresAt) {
				delete(s.quotes, k)
			}
		}
		// Still full after dropping stale entries: drop one arbitrary entry
		// so the cache stays bounded.
		if len(s.quotes) >= maxCachedQuotes {
			for k := range s.quotes {
				delete(s.quotes, k)
				break
			}
		}
	}
	s.quotes[symbol] = cachedQuote{quote: quote, expiresAt: time.Now().Add(s.quoteTTL)}
}
