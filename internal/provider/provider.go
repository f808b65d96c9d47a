package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"ADRFlow/internal/model"
)

// Provider fetches daily bars for a symbol. from is inclusive and to is
// exclusive; both are calendar dates.
type Provider interface {
	History(ctx context.Context, symbol string, from, to time.Time) ([]model.Bar, error)
	Name() string
}

// New builds the provider named in configuration.
func New(name, baseURL, apiKey, proxyURL string, timeout time.Duration) (Provider, error) {
	switch name {
	case "", "yahoo":
		p := NewYahooProvider(proxyURL, timeout)
		if baseURL != "" {
			p.BaseURL = baseURL
		}
		return p, nil
	case "financego":
		return NewFinanceGoProvider(), nil
	case "rest":
		if baseURL == "" {
			return nil, fmt.Errorf("provider rest: base_url is required")
		}
		return NewRESTProvider(baseURL, apiKey, proxyURL, timeout), nil
	case "static":
		return NewStaticProvider(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}

// newHTTPClient builds a client with a timeout and optional proxy.
func newHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// inWindow keeps bars dated in [from, to) and sorts them chronologically.
func inWindow(bars []model.Bar, from, to time.Time) []model.Bar {
	out := make([]model.Bar, 0, len(bars))
	for _, b := range bars {
		if b.Date.Before(from) || !b.Date.Before(to) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
