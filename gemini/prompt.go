package gemini

// classifyPrompt is the fixed instruction submitted with every document
// pair. The agent is asked for bare JSON; anything else is handled by the
// balanced-brace extraction in jsonx.go.
const classifyPrompt = `Recibirás DOS archivos: un XML (DIAN Colombia) y su PDF. Devuelve SOLO un JSON válido sin texto extra:
{
  "tipo_documento": "Factura" | "Nota credito" | "Nota debito",
  "categoria_aplicada": "FEV_procesadas" | "NC_procesadas" | "ND_procesadas"
}
Si el XML no se entiende, devuelve:
{"tipo_documento":"Desconocido","categoria_aplicada":"Otros_Error"}`

// noAnswer is the terminal raw string when the poll window closes without
// any readable text. It is a valid outcome, not a failure.
const noAnswer = "(no answer read)"
