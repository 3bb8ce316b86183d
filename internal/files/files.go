// Package files handles assignment uploads: type sniffing, hosting and PDF text extraction.
package files

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"github.com/m3rciful/scholarbot/core/logger"
)

const (
	// MaxTextChars caps extracted text kept per document.
	MaxTextChars = 12000
	// MaxUploadBytes matches the Bot API download limit.
	MaxUploadBytes = 20 << 20

	pdfMIME = "application/pdf"
)

var (
	ErrUnsupported = errors.New("files: only PDF documents are supported")
	ErrTooLarge    = errors.New("files: document is too large")
	ErrNoText      = errors.New("files: no extractable text")
)

// Processed is the outcome of Process.
type Processed struct {
	URL  string
	Text string
	MIME string
}

// Service turns an uploaded document into hosted URL plus text.
type Service struct {
	uploader Uploader
}

// NewService accepts a nil uploader; documents are then only read, not hosted.
func NewService(uploader Uploader) *Service {
	if s, ok := uploader.(*S3Storage); ok && s == nil {
		uploader = nil
	}
	return &Service{uploader: uploader}
}

// Process reads body fully, verifies it is a PDF and extracts its text. Only
// documents with usable text are hosted.
func (s *Service) Process(ctx context.Context, name string, body io.Reader) (Processed, error) {
	data, err := io.ReadAll(io.LimitReader(body, MaxUploadBytes+1))
	if err != nil {
		return Processed{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return Processed{}, ErrTooLarge
	}
	mime := mimetype.Detect(data)
	if !mime.Is(pdfMIME) {
		return Processed{}, fmt.Errorf("%w (got %s)", ErrUnsupported, mime.String())
	}

	text, err := ExtractPDF(data, MaxTextChars)
	if err != nil {
		return Processed{}, err
	}
	out := Processed{MIME: pdfMIME, Text: text}
	if s.uploader != nil {
		key := "assignments/" + uuid.NewString() + mime.Extension()
		url, err := s.uploader.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), pdfMIME)
		if err != nil {
			// hosting is optional; the text is still useful
			logger.Warn(ctx, logger.CompFiles, "upload.failed",
				slog.String("name", logger.Sanitize(name)),
				slog.String("err", err.Error()),
			)
		} else {
			out.URL = url
		}
	}

	logger.Info(ctx, logger.CompFiles, "document.processed",
		slog.Int("bytes", len(data)),
		slog.Int("chars", len([]rune(text))),
		slog.Bool("hosted", out.URL != ""),
	)
	return out, nil
}

// ExtractPDF returns the plain text of a PDF, cut to limit runes.
func ExtractPDF(data []byte, limit int) (text string, err error) {
	// the pdf reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	raw, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	text = strings.TrimSpace(string(raw))
	if text == "" {
		return "", ErrNoText
	}
	if runes := []rune(text); limit > 0 && len(runes) > limit {
		text = string(runes[:limit])
	}
	return text, nil
}
