// Package laudo exports a case record as a finished laudo document.
//
// Export is the only entry point the commands use. It assembles the report once,
// prefetches every image and attachment the report references, hands both to the
// renderer of the requested format and names the result after the process number.
// Degraded assets are logged and never fail an export. A failure of the renderer itself
// is logged once and surfaced as ErrExportFailed, and no partial bytes are returned.
//
// Main Functions:
//
// - Export: case record -> Result{Filename, ContentType, Data}
// - Filename: file name convention for an exported laudo
package laudo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gardar/laudo/pkg/casedata"
	"github.com/gardar/laudo/pkg/docx"
	"github.com/gardar/laudo/pkg/imaging"
	"github.com/gardar/laudo/pkg/pdf"
	"github.com/gardar/laudo/pkg/report"
)

var (
	// ErrExportFailed is the single user-facing error of a failed render.
	ErrExportFailed = errors.New("document export failed")
	// ErrUnknownFormat is returned for a format other than pdf or docx.
	ErrUnknownFormat = errors.New("unknown export format")
)

// ExportError carries the cause of a failed export. Its message is always the generic
// ErrExportFailed text so that library internals never reach the user.
type ExportError struct {
	Format Format
	Cause  error
}

func (e *ExportError) Error() string { return ErrExportFailed.Error() }

func (e *ExportError) Unwrap() error { return e.Cause }

// Is makes errors.Is(err, ErrExportFailed) hold for every ExportError.
func (e *ExportError) Is(target error) bool { return target == ErrExportFailed }

// Options holds user options for an export
type Options struct {
	ReportType    string            // insalubridade, periculosidade or completo (empty = from the case)
	SafeMode      bool              // Skip every image on top of the case flag
	Today         time.Time         // Date of the file name and closing line (zero = today)
	Resolver      *imaging.Resolver // Image and attachment source (nil = default resolver without storage)
	PrefetchLimit int               // Concurrent downloads (0 = imaging.DefaultPrefetchLimit)
	Logger        *zap.Logger       // nil = no logging
	PDF           pdf.Options
	DOCX          docx.Options
}

// DefaultOptions returns a config with sensible defaults
func DefaultOptions() Options {
	return Options{
		PrefetchLimit: imaging.DefaultPrefetchLimit,
		PDF:           pdf.DefaultOptions(),
		DOCX:          docx.DefaultOptions(),
	}
}

// Result is an exported document.
type Result struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Export renders a case in the given format.
func Export(ctx context.Context, c *casedata.Case, format Format, opts Options) (*Result, error) {
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}
	if c == nil {
		c = &casedata.Case{}
	}
	today := opts.Today
	if today.IsZero() {
		today = time.Now()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	renderID := uuid.NewString()
	log := logger.With(zap.String("render_id", renderID), zap.String("format", string(format)))

	r := report.Assemble(c, report.Options{ReportType: opts.ReportType, SafeMode: opts.SafeMode, Today: today})
	log.Debug("report assembled",
		zap.String("process", r.ProcessNumber),
		zap.Bool("insalubrity", r.Inclusion.Insalubrity),
		zap.Bool("periculosity", r.Inclusion.Periculosity),
		zap.Int("sections", len(r.TOC)))

	resolver := opts.Resolver
	if resolver == nil {
		cfg := imaging.DefaultResolverConfig()
		cfg.Logger = logger
		resolver = imaging.NewResolver(cfg)
	}
	var files []string
	if format == FormatPDF && opts.PDF.Attachments {
		files = r.FileRefs()
	}
	if opts.DOCX.Created.IsZero() {
		opts.DOCX.Created = today
	}
	assets := resolver.Prefetch(ctx, r.ImageRefs(), files, opts.PrefetchLimit, zap.String("render_id", renderID))

	start := time.Now()
	data, err := render(format, r, assets, opts, log)
	if err != nil {
		log.Error("export failed", zap.Error(err))
		return nil, &ExportError{Format: format, Cause: err}
	}
	log.Info("export finished",
		zap.Int("bytes", len(data)),
		zap.Int("assets", assets.Len()),
		zap.Duration("elapsed", time.Since(start)))

	return &Result{
		Filename:    Filename(r.ProcessNumber, today, format),
		ContentType: format.ContentType(),
		Data:        data,
	}, nil
}

// renderFunc draws an assembled report with its prefetched assets.
type renderFunc func(r *report.Report, assets *imaging.Set, opts Options, log *zap.Logger) ([]byte, error)

var renderers = map[Format]renderFunc{
	FormatPDF: func(r *report.Report, assets *imaging.Set, opts Options, log *zap.Logger) ([]byte, error) {
		o := opts.PDF
		o.Logger = log
		return pdf.Render(r, assets, o)
	},
	FormatDOCX: func(r *report.Report, assets *imaging.Set, opts Options, log *zap.Logger) ([]byte, error) {
		o := opts.DOCX
		o.Logger = log
		return docx.Render(r, assets, o)
	},
}

// render runs the renderer of a format. A panic inside the drawing libraries becomes an
// error so that a broken asset can never take the process down.
func render(format Format, r *report.Report, assets *imaging.Set, opts Options, log *zap.Logger) (data []byte, err error) {
	defer func() {
		if p := recover(); p != nil {
			data, err = nil, fmt.Errorf("renderer panic: %v", p)
		}
	}()
	fn, ok := renderers[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return fn(r, assets, opts, log)
}
