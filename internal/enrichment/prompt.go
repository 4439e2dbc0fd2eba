package enrichment

import (
	"fmt"
	"strings"
)

// SystemPrompt frames every generation request. Keep it stable; the
// response schema below is what Apply validates.
const SystemPrompt = `Eres un asistente litúrgico que prepara una misa virtual en español.
Devuelve ÚNICAMENTE un JSON válido, sin markdown y sin texto adicional.
No reescribas ni modifiques las lecturas; úsalas solo como contexto.
No inventes referencias bíblicas (capítulos o versículos).
Tono pastoral, respetuoso y cálido. Textos listos para narración, con puntuación y pausas naturales.`

const responseSchema = `{
  "language": "%s",
  "sections": [
    {"id": "welcome", "type": "speech", "title": "Bienvenida", "text": "..."},
    {"id": "homily", "type": "homily", "title": "Homilía", "text": "..."},
    {"id": "final_reflection", "type": "speech", "title": "Reflexión final", "text": "..."},
    {"id": "closing", "type": "speech", "title": "Cierre", "text": "..."}
  ]
}`

// UserPrompt renders the readings and the expected response shape.
func UserPrompt(r Readings) string {
	language := strings.TrimSpace(r.Language)
	if language == "" {
		language = "es-CO"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Genera las partes variables de la misa (%s) para el día %s.\n\n", language, r.Date)
	b.WriteString("Lecturas (contexto):\n")
	writeReading(&b, "EVANGELIO", r.Gospel)
	writeReading(&b, "PRIMERA LECTURA", r.FirstReading)
	writeReading(&b, "SALMO", r.Psalm)
	writeReading(&b, "SEGUNDA LECTURA", r.SecondReading)
	b.WriteString("Salida: un JSON con este esquema exacto:\n")
	fmt.Fprintf(&b, responseSchema, language)
	b.WriteString("\n\nLongitudes sugeridas (aprox):\n")
	b.WriteString("- Bienvenida: 15 a 30 segundos\n")
	b.WriteString("- Homilía: 3 a 5 minutos\n")
	b.WriteString("- Reflexión final: 45 a 90 segundos\n")
	b.WriteString("- Cierre: 30 a 60 segundos\n")
	return b.String()
}

func writeReading(b *strings.Builder, label, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	fmt.Fprintf(b, "%s:\n%s\n\n", label, text)
}
