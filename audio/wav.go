package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"

	apperrors "github.com/skillsenselab/audiopipe/errors"
)

const wavHeaderSize = 44

// wavFile holds the decoded shape of a RIFF/WAVE file: the PCM parameters
// from the fmt chunk and the location of the data payload within the
// original bytes.
type wavFile struct {
	raw []byte

	channels      uint16
	sampleRate    uint32
	byteRate      uint32
	blockAlign    uint16
	bitsPerSample uint16

	dataOffset int
	dataLen    int
}

// decodeWAV parses the RIFF container and locates the fmt and data chunks.
// It accepts any chunk ordering and skips unknown chunks (LIST, fact, etc).
func decodeWAV(data []byte) (*wavFile, error) {
	if len(data) < 12 || !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return nil, apperrors.Decode("wav", fmt.Errorf("missing RIFF/WAVE header"))
	}

	f := &wavFile{raw: data}
	sawFmt := false

	pos := 12
	for pos+8 <= len(data) {
		chunkID := data[pos : pos+4]
		chunkLen := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+chunkLen > len(data) {
			// Tolerate a data chunk whose declared length overruns the
			// buffer (common with streamed writers); clamp to what exists.
			if bytes.Equal(chunkID, []byte("data")) {
				chunkLen = len(data) - body
			} else {
				return nil, apperrors.Decode("wav", fmt.Errorf("chunk %q overruns file", chunkID))
			}
		}

		switch {
		case bytes.Equal(chunkID, []byte("fmt ")):
			if chunkLen < 16 {
				return nil, apperrors.Decode("wav", fmt.Errorf("fmt chunk too short: %d bytes", chunkLen))
			}
			f.channels = binary.LittleEndian.Uint16(data[body+2 : body+4])
			f.sampleRate = binary.LittleEndian.Uint32(data[body+4 : body+8])
			f.byteRate = binary.LittleEndian.Uint32(data[body+8 : body+12])
			f.blockAlign = binary.LittleEndian.Uint16(data[body+12 : body+14])
			f.bitsPerSample = binary.LittleEndian.Uint16(data[body+14 : body+16])
			sawFmt = true
		case bytes.Equal(chunkID, []byte("data")):
			f.dataOffset = body
			f.dataLen = chunkLen
		}

		// Chunks are word-aligned; odd lengths carry a pad byte.
		pos = body + chunkLen + (chunkLen & 1)
	}

	if !sawFmt {
		return nil, apperrors.Decode("wav", fmt.Errorf("missing fmt chunk"))
	}
	if f.dataOffset == 0 {
		return nil, apperrors.Decode("wav", fmt.Errorf("missing data chunk"))
	}
	if f.byteRate == 0 || f.blockAlign == 0 {
		return nil, apperrors.Decode("wav", fmt.Errorf("zero byte rate or block align"))
	}

	return f, nil
}

// duration returns the play time of the data payload in seconds.
func (f *wavFile) duration() float64 {
	return float64(f.dataLen) / float64(f.byteRate)
}

// slice re-encodes the interval [startSec, endSec) as a standalone WAV file.
// Byte offsets are snapped down to frame (blockAlign) boundaries so a sample
// frame is never split across two chunks.
func (f *wavFile) slice(startSec, endSec float64) []byte {
	startByte := f.frameAligned(startSec)
	endByte := f.frameAligned(endSec)
	if endByte > f.dataLen {
		endByte = f.dataLen
	}
	if startByte > endByte {
		startByte = endByte
	}

	payload := f.raw[f.dataOffset+startByte : f.dataOffset+endByte]
	return f.encode(payload)
}

// frameAligned converts a time offset to a byte offset into the data chunk,
// aligned down to a whole sample frame.
func (f *wavFile) frameAligned(sec float64) int {
	b := int(sec * float64(f.byteRate))
	return b - b%int(f.blockAlign)
}

// encode wraps a PCM payload in a canonical 44-byte WAV header carrying this
// file's format parameters.
func (f *wavFile) encode(payload []byte) []byte {
	out := make([]byte, wavHeaderSize+len(payload))

	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+len(payload)))
	copy(out[8:12], "WAVE")

	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(out[22:24], f.channels)
	binary.LittleEndian.PutUint32(out[24:28], f.sampleRate)
	binary.LittleEndian.PutUint32(out[28:32], f.byteRate)
	binary.LittleEndian.PutUint16(out[32:34], f.blockAlign)
	binary.LittleEndian.PutUint16(out[34:36], f.bitsPerSample)

	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(payload)))
	copy(out[wavHeaderSize:], payload)

	return out
}
