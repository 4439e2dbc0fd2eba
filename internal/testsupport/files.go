package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// ReadingsText mimics the text pdftotext produces for a daily readings PDF:
// the gospel header appears twice, the second reading is present, and the
// gospel is followed by the video and reflection blocks.
const ReadingsText = `Evangelio del día
Domingo, 2 de marzo de 2025

Primera lectura
Lectura del libro del Eclesiástico 27, 4-7
Se agita la criba y quedan las granzas;
así el desecho de un hombre cuando es discutido.

Salmo de hoy
Sal 91, 2-3. 13-14. 15-16 R/. Es bueno darte gracias, Señor.

Segunda lectura
Lectura de la primera carta del apóstol san Pablo a los Corintios 15, 54-58
Hermanos: Cuando esto corruptible se vista de incorrupción,
se cumplirá la palabra escrita.

Evangelio del día
Lectura del santo evangelio según san Lucas 6, 39-45
En aquel tiempo, decía Jesús a sus discípulos una parábola:
«¿Acaso puede un ciego guiar a otro ciego?».

Evangelio de hoy en vídeo
Reflexión del Evangelio de hoy
El árbol se conoce por sus frutos.`

// WriteReadings writes ReadingsText to a file under dir and returns its path.
func WriteReadings(t testing.TB, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "lecturas.txt")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(ReadingsText), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
