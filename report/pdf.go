package report

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"weeromzet/models"
	"weeromzet/utils"
)

// chartSettle is how long the page gets to draw its charts before printing.
const chartSettle = 1500 * time.Millisecond

// PDFExporter prints the HTML chart report to PDF with headless Chrome.
type PDFExporter struct {
	chromeBin string
	timeout   time.Duration
	logger    *utils.Logger
}

// NewPDFExporter creates an exporter. An empty chromeBin is resolved from
// CHROME_BIN, PATH and the usual install locations.
func NewPDFExporter(chromeBin string, logger *utils.Logger) *PDFExporter {
	return &PDFExporter{
		chromeBin: findChromeBinary(chromeBin),
		timeout:   60 * time.Second,
		logger:    logger,
	}
}

// Export renders r and returns the printed PDF bytes.
func (e *PDFExporter) Export(ctx context.Context, r *models.AnalysisResult) ([]byte, error) {
	var html bytes.Buffer
	if err := RenderHTML(&html, r); err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "weeromzet-report-")
	if err != nil {
		return nil, fmt.Errorf("pdf: temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "report.html")
	if err := os.WriteFile(path, html.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("pdf: write html: %w", err)
	}

	e.logger.Info("[pdf] Using browser binary: %s", e.chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
	)
	if e.chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(e.chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	timeoutCtx, cancelTimeout := context.WithTimeout(browserCtx, e.timeout)
	defer cancelTimeout()

	var pdf []byte
	err = chromedp.Run(timeoutCtx,
		chromedp.Navigate("file://"+path),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(chartSettle),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithLandscape(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("pdf: print: %w", err)
	}

	e.logger.Info("[pdf] Rendered %d bytes", len(pdf))
	return pdf, nil
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
