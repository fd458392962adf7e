// Package docval performs structural validation of DIAN document pairs:
// a PDF rendition and its XML invoice. Validation is syntactic only — it
// checks that the PDF carries extractable text and that the XML is
// well-formed. Semantic content is never inspected.
//
// Usage:
//
//	v := docval.New(docval.Config{})
//	outcome := v.Validate(pdfBytes, xmlBytes)
//	if !outcome.Accepted() {
//		fmt.Println(outcome.Reason)
//	}
package docval

import (
	"fmt"
	"log/slog"
)

// minExtractedRunes is the minimum stripped text length a PDF must yield.
const minExtractedRunes = 10

// pdfMagic is the 4-byte signature every PDF must start with.
var pdfMagic = []byte("%PDF")

// Config configures the validator.
type Config struct {
	// MaxFileSize is the maximum size of either input (default: 100 MB).
	MaxFileSize int64 `json:"max_file_size" yaml:"max_file_size"`

	// Logger for debug messages.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 100 * 1024 * 1024
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Validator checks document pairs for structural well-formedness.
// It is pure and safe for concurrent use.
type Validator struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Validator with the given configuration.
func New(cfg Config) *Validator {
	cfg.defaults()
	return &Validator{cfg: cfg, logger: cfg.Logger}
}

// Validate checks the PDF first, then the XML. The first failure
// short-circuits: an XML problem is never reported for a pair whose PDF
// is already invalid. Rejection reasons carry the stage prefix expected
// by downstream consumers ("Error en PDF:", "Error en XML:").
func (v *Validator) Validate(pdfBytes, xmlBytes []byte) Outcome {
	if err := v.checkPDF(pdfBytes); err != nil {
		v.logger.Debug("docval: pdf rejected", "error", err)
		return Outcome{Status: StatusRejected, Reason: fmt.Sprintf("Error en PDF: %v", err)}
	}
	if err := v.checkXML(xmlBytes); err != nil {
		v.logger.Debug("docval: xml rejected", "error", err)
		return Outcome{Status: StatusRejected, Reason: fmt.Sprintf("Error en XML: %v", err)}
	}
	return Outcome{Status: StatusAccepted}
}
