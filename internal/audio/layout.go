package audio

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"

	"misa/internal/manifest"
)

// AudioHash is the cache key for a rendering: anything that changes the audio
// must be part of it.
func AudioHash(textHash, model, voice, styleProfileID string) string {
	sum := sha256.Sum256([]byte(textHash + "|" + model + "|" + voice + "|" + styleProfileID))
	return hex.EncodeToString(sum[:])
}

// Layout resolves artifact locations under an audio root directory.
type Layout struct {
	Root string
}

// CacheDir is the directory holding every cached rendering.
func (l Layout) CacheDir() string {
	return filepath.Join(l.Root, "cache")
}

// CachePath is the content-addressed location of a rendering.
func (l Layout) CachePath(styleProfileID, voice, audioHash string) string {
	return filepath.Join(l.CacheDir(), styleProfileID, voice, audioHash+".wav")
}

// DailyDir holds the per-day copies for date.
func (l Layout) DailyDir(date string) string {
	return filepath.Join(l.Root, "by-date", date)
}

// DailyPath is the stable per-day location of a section's audio.
func (l Layout) DailyPath(date string, id manifest.SectionID) string {
	return filepath.Join(l.DailyDir(date), string(id)+".wav")
}
