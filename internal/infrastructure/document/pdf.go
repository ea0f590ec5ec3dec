package document

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	appdoc "github.com/pharmawms/backend/internal/application/document"
)

const (
	contentTypePDF       = "application/pdf"
	defaultRenderTimeout = 30 * time.Second

	// A4 in inches, 10mm margins
	a4Width  = 8.27
	a4Height = 11.69
	a4Margin = 0.39
)

// PDFConfig configures the Chrome-backed renderer.
type PDFConfig struct {
	// RemoteURL points at a running DevTools endpoint; empty launches a
	// local headless browser.
	RemoteURL     string
	NoSandbox     bool
	RenderTimeout time.Duration
	Logger        *zap.Logger
}

// PDFRenderer prints the HTML documents to A4 PDF through headless Chrome.
type PDFRenderer struct {
	html        *HTMLRenderer
	timeout     time.Duration
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

var _ appdoc.Renderer = (*PDFRenderer)(nil)

func NewPDFRenderer(html *HTMLRenderer, cfg PDFConfig) *PDFRenderer {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.RenderTimeout
	if timeout <= 0 {
		timeout = defaultRenderTimeout
	}

	r := &PDFRenderer{html: html, timeout: timeout, logger: logger}
	if cfg.RemoteURL != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
		return r
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if cfg.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	return r
}

func (r *PDFRenderer) Render(ctx context.Context, kind appdoc.Kind, data any) ([]byte, string, error) {
	body, _, err := r.html.Render(ctx, kind, data)
	if err != nil {
		return nil, "", err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	browserCtx, browserCancel := chromedp.NewContext(r.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			r.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer browserCancel()
	// chromedp contexts derive from the allocator, so the caller's deadline
	// is enforced separately.
	stop := context.AfterFunc(ctx, browserCancel)
	defer stop()

	start := time.Now()
	var pdf []byte
	err = chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, string(body)).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			out, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(a4Width).
				WithPaperHeight(a4Height).
				WithMarginTop(a4Margin).
				WithMarginBottom(a4Margin).
				WithMarginLeft(a4Margin).
				WithMarginRight(a4Margin).
				Do(ctx)
			pdf = out
			return err
		}),
	)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %v: %w", r.timeout, err)
		}
		return nil, "", &RenderError{Kind: kind, Cause: err}
	}
	if len(pdf) == 0 {
		return nil, "", &RenderError{Kind: kind, Cause: errors.New("empty pdf")}
	}

	r.logger.Debug("document printed",
		zap.String("kind", string(kind)),
		zap.Int("bytes", len(pdf)),
		zap.Duration("duration", time.Since(start)),
	)
	return pdf, contentTypePDF, nil
}

// Close shuts the browser allocator down.
func (r *PDFRenderer) Close() {
	if r.allocCancel != nil {
		r.allocCancel()
	}
}
