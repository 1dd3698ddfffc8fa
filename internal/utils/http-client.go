package utils

import (
	"net/http"
	"net/url"
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ObitoHTTPClient wraps http.Client and stamps every request with
// browser-like headers so the pack host treats us like a regular visitor.
type ObitoHTTPClient struct {
	client *http.Client
	config HTTPClientConfig
}

func NewObitoHTTPClient(cfg HTTPClientConfig) *ObitoHTTPClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.KATimeout == 0 {
		cfg.KATimeout = DefaultKATimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = GetRandomUserAgent()
	}
	transport := &http.Transport{
		IdleConnTimeout:       cfg.KATimeout,
		ResponseHeaderTimeout: cfg.Timeout,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
		DisableCompression:    true,
	}
	if cfg.ProxyURL != "" {
		if proxyURL, err := url.Parse(cfg.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}
	// No Client.Timeout: a whole-request deadline would abort long valid
	// transfers. Header waits are bounded above; body reads are bounded
	// per chunk by the caller.
	return &ObitoHTTPClient{
		client: &http.Client{
			Transport: transport,
		},
		config: cfg,
	}
}

func (o *ObitoHTTPClient) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", o.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Connection", "keep-alive")
	for k, v := range o.config.Headers {
		req.Header.Set(k, v)
	}
	return o.client.Do(req)
}
