package browse

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http/cookiejar"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/korean"
)

const requestTimeout = 30 * time.Second

// HTTPSession fetches pages over plain HTTP and parses them into goquery-backed
// nodes. Each session carries its own cookie jar, so NewContext gives the
// isolation the expansion strategy needs.
type HTTPSession struct {
	client    *resty.Client
	userAgent string
}

var _ Session = (*HTTPSession)(nil)

func NewHTTPSession(userAgent string) (*HTTPSession, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	client := resty.New().
		SetHeader("User-Agent", userAgent).
		SetTimeout(requestTimeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10)).
		SetCookieJar(jar)

	return &HTTPSession{client: client, userAgent: userAgent}, nil
}

func (s *HTTPSession) Navigate(ctx context.Context, url string) (Node, error) {
	data, err := s.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page %s: %w", url, err)
	}

	return selectionNode{sel: doc.Selection}, nil
}

// Fetch returns the decoded UTF-8 page bytes.
func (s *HTTPSession) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := s.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode(), url)
	}

	return decode(resp.Body(), resp.Header().Get("Content-Type")), nil
}

func (s *HTTPSession) NewContext() (Session, error) {
	return NewHTTPSession(s.userAgent)
}

func (s *HTTPSession) Close() error {
	s.client.GetClient().CloseIdleConnections()
	return nil
}

// decode sniffs the declared charset and falls back to EUC-KR, which legacy
// pages occasionally ship without declaring.
func decode(data []byte, contentType string) []byte {
	if r, err := charset.NewReader(bytes.NewReader(data), contentType); err == nil {
		if decoded, err := io.ReadAll(r); err == nil && utf8.Valid(decoded) {
			return decoded
		}
	}

	if !utf8.Valid(data) {
		if decoded, err := korean.EUCKR.NewDecoder().Bytes(data); err == nil {
			return decoded
		}
	}

	return data
}
