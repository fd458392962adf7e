package server

import "strings"

// MapErrorCategory derives the error category from the submitted one by
// prefix: FEV_* → FEV_Error, NC_* → NC_Error, ND_* → ND_Error, anything
// else (including empty) → Otros_Error. Pure and total.
func MapErrorCategory(category string) string {
	switch {
	case category == "":
		return "Otros_Error"
	case strings.HasPrefix(category, "FEV_"):
		return "FEV_Error"
	case strings.HasPrefix(category, "NC_"):
		return "NC_Error"
	case strings.HasPrefix(category, "ND_"):
		return "ND_Error"
	default:
		return "Otros_Error"
	}
}
