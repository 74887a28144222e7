// Package fetch downloads small remote text documents (panel fixtures and
// markdown sources) with hard limits on time, redirects and size.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/John-Robertt/dashpanel/internal/model"
)

type Kind int

const (
	KindFixture Kind = iota
	KindMarkdown
)

func (k Kind) stage() string {
	switch k {
	case KindFixture:
		return "fetch_fixture"
	case KindMarkdown:
		return "fetch_markdown"
	default:
		return "fetch"
	}
}

func (k Kind) defaultMaxBytes() int64 {
	switch k {
	case KindFixture:
		return 1 << 20
	case KindMarkdown:
		return 256 << 10
	default:
		return 1 << 20
	}
}

type Options struct {
	Timeout      time.Duration // default 15s
	MaxBytes     int64         // default per kind
	MaxRedirects int           // default 5
}

func (o Options) withDefaults(k Kind) Options {
	if o.Timeout == 0 {
		o.Timeout = 15 * time.Second
	}
	if o.MaxRedirects == 0 {
		o.MaxRedirects = 5
	}
	if o.MaxBytes == 0 {
		o.MaxBytes = k.defaultMaxBytes()
	}
	return o
}

type FetchError struct {
	Status   int
	AppError model.AppError
	Cause    error
}

func (e *FetchError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

var (
	errTooManyRedirects   = errors.New("too many redirects")
	errRedirectBadScheme  = errors.New("redirect target scheme is not http/https")
	errInvalidURLOrScheme = errors.New("invalid url or scheme")
)

// IsRemote reports whether source names an http(s) URL rather than a local
// path.
func IsRemote(source string) bool {
	u, err := url.Parse(source)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func FetchTextWithOptions(ctx context.Context, kind Kind, rawURL string, opt Options) (string, error) {
	opt = opt.withDefaults(kind)
	fail := func(status int, code, msg string, cause error) error {
		return &FetchError{
			Status: status,
			AppError: model.AppError{
				Code:    code,
				Message: msg,
				Stage:   kind.stage(),
				URL:     rawURL,
			},
			Cause: cause,
		}
	}

	if opt.MaxBytes <= 0 {
		return "", fail(http.StatusBadRequest, "INVALID_ARGUMENT", "response size limit must be positive", nil)
	}
	u, err := url.Parse(rawURL)
	if err != nil || u == nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fail(http.StatusBadRequest, "INVALID_ARGUMENT", "only http/https URLs are allowed", errors.Join(errInvalidURLOrScheme, err))
	}

	client := &http.Client{
		Timeout:   opt.Timeout,
		Transport: http.DefaultTransport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// len(via) counts requests already made: the 1st redirect sees 1.
			if len(via) > opt.MaxRedirects {
				return errTooManyRedirects
			}
			if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
				return errRedirectBadScheme
			}
			return nil
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fail(http.StatusBadRequest, "INVALID_ARGUMENT", "invalid request URL", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		switch {
		case errors.Is(err, errTooManyRedirects):
			return "", fail(http.StatusBadGateway, "FETCH_FAILED", fmt.Sprintf("too many redirects (>%d)", opt.MaxRedirects), err)
		case errors.Is(err, errRedirectBadScheme):
			return "", fail(http.StatusBadRequest, "INVALID_ARGUMENT", "redirect target must be http/https", err)
		case isTimeout(err):
			return "", fail(http.StatusGatewayTimeout, "FETCH_TIMEOUT", "timed out fetching remote resource", err)
		default:
			return "", fail(http.StatusBadGateway, "FETCH_FAILED", "failed to fetch remote resource", err)
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fail(http.StatusBadGateway, "FETCH_FAILED", fmt.Sprintf("upstream returned non-2xx status: %d", resp.StatusCode), nil)
	}

	// Read one byte past the limit so overflow is detected deterministically.
	body, err := io.ReadAll(io.LimitReader(resp.Body, opt.MaxBytes+1))
	if err != nil {
		if isTimeout(err) {
			return "", fail(http.StatusGatewayTimeout, "FETCH_TIMEOUT", "timed out fetching remote resource", err)
		}
		return "", fail(http.StatusBadGateway, "FETCH_FAILED", "failed to read upstream response", err)
	}
	if int64(len(body)) > opt.MaxBytes {
		return "", fail(http.StatusUnprocessableEntity, "TOO_LARGE", fmt.Sprintf("remote resource too large (>%d bytes)", opt.MaxBytes), nil)
	}
	if !utf8.Valid(body) {
		return "", fail(http.StatusUnprocessableEntity, "FETCH_INVALID_UTF8", "remote resource is not valid UTF-8 text", nil)
	}
	return string(body), nil
}

func isTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
