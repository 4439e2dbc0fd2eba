package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"misa/internal/fileutil"
)

const (
	// MimeType is recorded on every audio reference.
	MimeType = "audio/wav"
	// Channels and BitDepth describe the PCM the speech endpoint returns.
	Channels = 1
	BitDepth = 16

	wavPCMFormat = 1
	// wavHeaderSize is the canonical RIFF/fmt/data header; anything not
	// larger carries no samples.
	wavHeaderSize = 44
)

// WriteWAV wraps little-endian 16-bit mono PCM in a WAV container at path.
// The file appears atomically.
func WriteWAV(path string, pcm []byte, sampleRate int) error {
	if len(pcm) == 0 {
		return errors.New("write wav: no samples")
	}
	if len(pcm)%2 != 0 {
		return fmt.Errorf("write wav: odd pcm length %d", len(pcm))
	}
	samples := make([]int, len(pcm)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[2*i:])))
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: Channels, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: BitDepth,
	}
	return fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		ws, ok := w.(io.WriteSeeker)
		if !ok {
			return errors.New("write wav: destination is not seekable")
		}
		enc := wav.NewEncoder(ws, sampleRate, BitDepth, Channels, wavPCMFormat)
		if err := enc.Write(buf); err != nil {
			return fmt.Errorf("write wav: encode: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("write wav: finalize: %w", err)
		}
		return nil
	})
}

// ValidWAV reports whether path holds a readable WAV container with audio data.
func ValidWAV(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.Size() <= wavHeaderSize {
		return false
	}
	return wav.NewDecoder(f).IsValidFile()
}
