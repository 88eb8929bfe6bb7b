// Package fragment is the partial-page transport: it fetches HTML fragments
// over HTTP and swaps them into the host document, announcing each settled
// swap the way htmx does.
package fragment

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"garden-graph/backend/internal/constants"
	"garden-graph/backend/internal/dom"
	"garden-graph/backend/internal/loop"
	apperrors "garden-graph/backend/pkg/errors"
	"garden-graph/backend/pkg/logger"
)

const maxFragmentBytes = 2 << 20

// Request describes one fragment fetch.
type Request struct {
	// URL is absolute.
	URL string
	// Target is the id of the element the fragment replaces.
	Target string
	Swap   dom.SwapMode
	// CurrentURL is sent as HX-Current-URL for server-side fragment selection.
	CurrentURL string
}

// Response is a fetched fragment ready to swap.
type Response struct {
	Request Request
	Status  int
	Body    string
}

// Client fetches fragments with net/http and swaps them on the loop.
type Client struct {
	httpClient *http.Client
	sched      loop.Scheduler
	logger     *zap.Logger
}

// NewClient creates a transport. Swaps announce settle on sched.
func NewClient(sched loop.Scheduler, timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		sched:      sched,
		logger:     logger.OrNop(log),
	}
}

// WithHTTPClient swaps the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// Page loads a whole document the way a browser's first visit does, without
// any HX headers.
func (c *Client) Page(ctx context.Context, url string) (string, error) {
	resp, err := c.get(ctx, Request{URL: url}, false)
	if err != nil {
		return "", err
	}
	return resp.Body, nil
}

// Fetch performs the GET. It does not touch the document and is safe off the
// loop. Non-2xx answers are errors.
func (c *Client) Fetch(ctx context.Context, req Request) (Response, error) {
	resp, err := c.get(ctx, req, true)
	if err != nil {
		return Response{}, err
	}
	resp.Body = narrow(resp.Body, req.Target)
	return resp, nil
}

func (c *Client) get(ctx context.Context, req Request, hx bool) (Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return Response{}, apperrors.NewFetchFailed(req.URL, 0, err)
	}
	httpReq.Header.Set("Accept", "text/html")
	if !hx {
		return c.do(httpReq, req)
	}
	httpReq.Header.Set(constants.HeaderRequest, "true")
	if req.Target != "" {
		httpReq.Header.Set(constants.HeaderTarget, req.Target)
	}
	if req.CurrentURL != "" {
		httpReq.Header.Set(constants.HeaderCurrentURL, req.CurrentURL)
	}
	return c.do(httpReq, req)
}

func (c *Client) do(httpReq *http.Request, req Request) (Response, error) {
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Response{}, apperrors.NewFetchFailed(req.URL, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxFragmentBytes))
		return Response{}, apperrors.NewFetchFailed(req.URL, resp.StatusCode, nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFragmentBytes+1))
	if err != nil {
		return Response{}, apperrors.NewFetchFailed(req.URL, resp.StatusCode, fmt.Errorf("read body: %w", err))
	}
	if len(body) > maxFragmentBytes {
		return Response{}, apperrors.NewFetchFailed(req.URL, resp.StatusCode,
			fmt.Errorf("body exceeds %d bytes", maxFragmentBytes))
	}

	c.logger.Debug("Fragment fetched",
		zap.String("url", req.URL),
		zap.String("target", req.Target),
		zap.Int("bytes", len(body)),
	)
	return Response{Request: req, Status: resp.StatusCode, Body: string(body)}, nil
}

// narrow reduces a full page answer to the target's contents.
func narrow(body, target string) string {
	if target == "" || !looksLikePage(body) {
		return body
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return body
	}
	sel := doc.Find("#" + target).First()
	if sel.Length() == 0 {
		return body
	}
	inner, err := sel.Html()
	if err != nil {
		return body
	}
	return inner
}

func looksLikePage(body string) bool {
	head := strings.ToLower(strings.TrimSpace(body))
	if len(head) > 64 {
		head = head[:64]
	}
	return strings.HasPrefix(head, "<!doctype") || strings.HasPrefix(head, "<html")
}

// Swap writes the fragment into w and posts htmx:afterSettle for the target
// on the next loop turn. Must run on the loop.
func (c *Client) Swap(w *dom.Window, resp Response) error {
	mode := resp.Request.Swap
	if mode == "" {
		mode = dom.SwapInnerHTML
	}
	if err := w.Document.Swap(resp.Request.Target, resp.Body, mode); err != nil {
		return err
	}

	target := resp.Request.Target
	c.sched.Post(func() {
		w.Events.Dispatch(dom.NewCustomEvent(constants.EventAfterSettle, map[string]string{
			constants.DetailTarget: target,
		}))
	})
	return nil
}

// SignalsSettle reports that Swap announces settle itself.
func (c *Client) SignalsSettle() bool {
	return true
}
