// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatapi

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/publicsuffix"
)

// Default names used to locate the CSRF token.
const (
	DefaultCSRFCookie = "csrftoken"
	DefaultCSRFMeta   = "csrf-token"
)

// maxPageSize bounds how much of the CSRF page is parsed.
const maxPageSize = 1 << 20

// ErrNoToken is returned by a CSRFSource that found no token.
var ErrNoToken = errors.New("csrf token not found")

// CSRFSource resolves the anti-forgery token sent with each chat request.
type CSRFSource interface {
	Token(ctx context.Context) (string, error)
}

// NewCookieJar creates the cookie jar shared by the chat client and the
// cookie token source.
func NewCookieJar() (http.CookieJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, errors.Wrap(err, "create cookie jar")
	}
	return jar, nil
}

// =============================================================================
// STATIC TOKEN
// =============================================================================

// StaticToken is a fixed token, mostly useful in tests.
type StaticToken string

// Token returns the fixed token, or ErrNoToken if it is empty.
func (s StaticToken) Token(context.Context) (string, error) {
	if s == "" {
		return "", ErrNoToken
	}
	return string(s), nil
}

// =============================================================================
// COOKIE TOKEN
// =============================================================================

// CookieToken reads the token from a named cookie stored in a jar for a URL.
type CookieToken struct {
	jar  http.CookieJar
	url  *url.URL
	name string
}

// NewCookieToken creates a source reading cookie name for rawURL from jar.
func NewCookieToken(jar http.CookieJar, rawURL, name string) (*CookieToken, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrapf(err, "parse csrf cookie url %q", rawURL)
	}
	if name == "" {
		name = DefaultCSRFCookie
	}
	return &CookieToken{jar: jar, url: u, name: name}, nil
}

// Token returns the cookie value.
func (c *CookieToken) Token(context.Context) (string, error) {
	if c.jar == nil {
		return "", ErrNoToken
	}
	for _, cookie := range c.jar.Cookies(c.url) {
		if cookie.Name == c.name && cookie.Value != "" {
			return cookie.Value, nil
		}
	}
	return "", ErrNoToken
}

// =============================================================================
// META TAG TOKEN
// =============================================================================

// MetaTagToken fetches a page and reads the token from
// <meta name="csrf-token" content="...">. The first token found is cached.
type MetaTagToken struct {
	client  *http.Client
	pageURL string
	name    string

	mu     sync.Mutex
	cached string
}

// NewMetaTagToken creates a source that reads meta tag name from pageURL.
func NewMetaTagToken(client *http.Client, pageURL, name string) *MetaTagToken {
	if client == nil {
		client = http.DefaultClient
	}
	if name == "" {
		name = DefaultCSRFMeta
	}
	return &MetaTagToken{client: client, pageURL: pageURL, name: name}
}

// Token fetches and parses the page on first use.
func (m *MetaTagToken) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cached != "" {
		return m.cached, nil
	}
	if m.pageURL == "" {
		return "", ErrNoToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.pageURL, nil)
	if err != nil {
		return "", errors.Wrap(err, "build csrf page request")
	}
	req.Header.Set("Accept", "text/html")

	resp, err := m.client.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "fetch csrf page %s", m.pageURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("fetch csrf page %s: HTTP %d", m.pageURL, resp.StatusCode)
	}

	token, err := ParseMetaToken(io.LimitReader(resp.Body, maxPageSize), m.name)
	if err != nil {
		return "", err
	}
	m.cached = token
	return token, nil
}

// ParseMetaToken scans an HTML document for <meta name=name content=...> and
// returns the content. It returns ErrNoToken if no such tag is present.
func ParseMetaToken(r io.Reader, name string) (string, error) {
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return "", ErrNoToken
			}
			return "", errors.Wrap(z.Err(), "parse csrf page")

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.DataAtom != atom.Meta {
				continue
			}
			var metaName, content string
			for _, attr := range tok.Attr {
				switch attr.Key {
				case "name":
					metaName = attr.Val
				case "content":
					content = attr.Val
				}
			}
			if strings.EqualFold(metaName, name) && content != "" {
				return content, nil
			}
		}
	}
}

// =============================================================================
// CHAIN
// =============================================================================

// ChainToken tries each source in order and returns the first token found.
// Errors other than ErrNoToken are remembered and returned only if no source
// produced a token.
type ChainToken []CSRFSource

// Token implements CSRFSource.
func (c ChainToken) Token(ctx context.Context) (string, error) {
	var firstErr error
	for _, src := range c {
		if src == nil {
			continue
		}
		token, err := src.Token(ctx)
		if err == nil && token != "" {
			return token, nil
		}
		if err != nil && !errors.Is(err, ErrNoToken) && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return "", firstErr
	}
	return "", ErrNoToken
}
