package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/valmera/docgate/gemini"
)

// maxUploadBytes bounds the in-memory multipart buffer.
const maxUploadBytes = 64 << 20

// upload is one decoded multipart request: both payloads plus the caller's
// metadata object.
type upload struct {
	pdfBytes    []byte
	xmlBytes    []byte
	pdfFileName string
	xmlFileName string
	metadata    map[string]any
}

// originalCategory returns the submitted categoria_aplicada, if any.
func (u *upload) originalCategory() string {
	v, _ := u.metadata["categoria_aplicada"].(string)
	return v
}

// handleValidate runs structural validation only and merges the outcome
// into the caller's metadata. Validation problems are a normalized Error
// response, never an HTTP error.
func (s *Service) handleValidate(w http.ResponseWriter, r *http.Request) {
	up, err := s.decodeUpload(r)
	if err != nil {
		s.metrics.recordRequest("validate", 400)
		writeJSON(w, 400, map[string]string{"error": err.Error()})
		return
	}

	result := make(map[string]any, len(up.metadata)+4)
	for k, v := range up.metadata {
		result[k] = v
	}
	result["xmlFileName"] = up.xmlFileName
	result["pdfFileName"] = up.pdfFileName
	result["categoria_aplicada"] = up.metadata["categoria_aplicada"]
	result["detalle_error"] = nil

	outcome := s.validator.Validate(up.pdfBytes, up.xmlBytes)
	if outcome.Accepted() {
		result["estado"] = "Procesada"
	} else {
		result["estado"] = "Error"
		result["categoria_aplicada"] = MapErrorCategory(up.originalCategory())
		result["detalle_error"] = outcome.Reason
	}

	s.metrics.recordRequest("validate", 200)
	s.metrics.recordValidation(result["estado"].(string))
	s.logger.Info("validate",
		"xml", up.xmlFileName, "pdf", up.pdfFileName, "estado", result["estado"])
	writeJSON(w, 200, result)
}

// handleClassify persists the pair to a scoped temp directory (the agent
// session attaches files by path), runs exactly one classification
// attempt, and maps every failure mode to the normalized shape.
func (s *Service) handleClassify(w http.ResponseWriter, r *http.Request) {
	up, err := s.decodeUpload(r)
	if err != nil {
		s.metrics.recordRequest("validate_via_gemini", 400)
		writeJSON(w, 400, map[string]string{"error": err.Error()})
		return
	}

	tmpDir, err := os.MkdirTemp("", "docgate-*")
	if err != nil {
		s.metrics.recordRequest("validate_via_gemini", 500)
		writeJSON(w, 500, map[string]string{"error": "temp storage unavailable"})
		return
	}
	defer os.RemoveAll(tmpDir)

	pdfPath := filepath.Join(tmpDir, filepath.Base(up.pdfFileName))
	xmlPath := filepath.Join(tmpDir, filepath.Base(up.xmlFileName))
	if err := os.WriteFile(pdfPath, up.pdfBytes, 0o600); err == nil {
		err = os.WriteFile(xmlPath, up.xmlBytes, 0o600)
	}
	if err != nil {
		s.metrics.recordRequest("validate_via_gemini", 500)
		writeJSON(w, 500, map[string]string{"error": "temp storage unavailable"})
		return
	}

	start := time.Now()
	res, err := s.classifier.Classify(r.Context(), pdfPath, xmlPath)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		category := res.AppliedCategory
		if category == "" {
			category = up.originalCategory()
		}
		s.metrics.recordRequest("validate_via_gemini", 200)
		s.metrics.recordClassify("ok", elapsed)
		s.logger.Info("classify ok",
			"tipo_documento", res.DocumentType, "categoria", category, "elapsed", elapsed)
		writeJSON(w, 200, map[string]any{
			"tipo_documento":     res.DocumentType,
			"categoria_aplicada": category,
		})

	case errors.Is(err, gemini.ErrBusy):
		s.metrics.recordRequest("validate_via_gemini", 503)
		s.metrics.recordClassify("busy", elapsed)
		writeJSON(w, 503, map[string]string{"error": "classifier busy"})

	default:
		// Parse failures and session failures alike collapse to the
		// Desconocido shape; diagnostics live in logs and snapshots.
		result := "gateway_error"
		var pe *gemini.ParseError
		if errors.As(err, &pe) {
			result = "parse_error"
		}
		s.metrics.recordRequest("validate_via_gemini", 200)
		s.metrics.recordClassify(result, elapsed)
		s.logger.Warn("classify failed", "error", err, "elapsed", elapsed)
		writeJSON(w, 200, map[string]any{
			"tipo_documento":     "Desconocido",
			"categoria_aplicada": MapErrorCategory(up.originalCategory()),
		})
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, 200, map[string]string{"status": "ok"})
}

func (s *Service) handleDebugProfile(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, 200, s.profile)
}

// decodeUpload reads the multipart parts. A missing part or malformed
// metadata JSON is an input error (HTTP 400), with no side effects.
func (s *Service) decodeUpload(r *http.Request) (*upload, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, fmt.Errorf("multipart inválido: %v", err)
	}

	xmlBytes, xmlName, err := formFile(r, "xml")
	if err != nil {
		return nil, err
	}
	pdfBytes, pdfName, err := formFile(r, "pdf")
	if err != nil {
		return nil, err
	}

	raw := r.FormValue("metadata")
	var metadata map[string]any
	if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
		return nil, fmt.Errorf("Metadata inválida: %v", err)
	}

	return &upload{
		pdfBytes:    pdfBytes,
		xmlBytes:    xmlBytes,
		pdfFileName: pdfName,
		xmlFileName: xmlName,
		metadata:    metadata,
	}, nil
}

func formFile(r *http.Request, field string) ([]byte, string, error) {
	f, hdr, err := r.FormFile(field)
	if err != nil {
		return nil, "", fmt.Errorf("archivo %q faltante: %v", field, err)
	}
	defer f.Close()
	// Read one byte past the cap so an oversized part is rejected rather
	// than silently truncated.
	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("archivo %q ilegible: %v", field, err)
	}
	if len(data) > maxUploadBytes {
		return nil, "", fmt.Errorf("archivo %q demasiado grande (máximo %d bytes)", field, maxUploadBytes)
	}
	return data, hdr.Filename, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
