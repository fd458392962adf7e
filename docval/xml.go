package docval

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
)

// checkXML verifies the bytes parse as well-formed XML with a root element
// and non-empty trimmed content.
func (v *Validator) checkXML(raw []byte) error {
	if int64(len(raw)) > v.cfg.MaxFileSize {
		return fmt.Errorf("file too large: %d bytes (max %d)", len(raw), v.cfg.MaxFileSize)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return fmt.Errorf("XML vacío o inválido")
	}

	dec := xml.NewDecoder(bytes.NewReader(raw))
	sawRoot := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("parse: %v", err)
		}
		if _, ok := tok.(xml.StartElement); ok {
			sawRoot = true
		}
	}
	if !sawRoot {
		return fmt.Errorf("XML vacío o inválido")
	}
	return nil
}
