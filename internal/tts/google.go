package tts

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"scango/app/internal/textnorm"
)

const googleTranslateHost = "https://translate.google.com"

// GoogleTranslateProvider streams the keyless translate_tts endpoint.
type GoogleTranslateProvider struct {
	host   string
	client *http.Client
}

// GoogleOptions configures GoogleTranslateProvider.
type GoogleOptions struct {
	Host       string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewGoogleTranslateProvider constructs the default provider.
func NewGoogleTranslateProvider(opts GoogleOptions) *GoogleTranslateProvider {
	host := strings.TrimRight(strings.TrimSpace(opts.Host), "/")
	if host == "" {
		host = googleTranslateHost
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	return &GoogleTranslateProvider{host: host, client: client}
}

// Name implements Provider.
func (p *GoogleTranslateProvider) Name() string {
	return "google"
}

// Open implements Provider.
func (p *GoogleTranslateProvider) Open(ctx context.Context, text, lang string) (io.ReadCloser, error) {
	query := url.Values{}
	query.Set("ie", "UTF-8")
	query.Set("q", text)
	query.Set("tl", lang)
	query.Set("total", "1")
	query.Set("idx", "0")
	query.Set("textlen", strconv.Itoa(textnorm.Len(text)))
	query.Set("client", "tw-ob")
	query.Set("prev", "input")
	query.Set("ttsspeed", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.host+"/translate_tts?"+query.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "building translate_tts request")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "requesting translate_tts audio")
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, eris.Errorf("translate_tts responded with status %d", resp.StatusCode)
	}

	return resp.Body, nil
}
