// Package audio writes and probes canonical 16-bit PCM WAV data. It exists
// for the warmup path, which feeds one second of silence through the model,
// and for recording the duration of incoming uploads when they are WAV.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

const headerSize = 44

var ErrNotWAV = errors.New("not a RIFF/WAVE file")

// Info is the subset of the fmt chunk the service cares about.
type Info struct {
	SampleRate  int
	Channels    int
	BitsPerSamp int
	Duration    time.Duration
}

// WriteSilence writes a mono 16-bit PCM WAV of the given duration filled
// with zero samples.
func WriteSilence(w io.Writer, sampleRate int, d time.Duration) error {
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	samples := int(float64(sampleRate) * d.Seconds())
	dataSize := samples * 2

	var hdr [headerSize]byte
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(36+dataSize))
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(hdr[22:24], 1) // mono
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(hdr[28:32], uint32(sampleRate*2))
	binary.LittleEndian.PutUint16(hdr[32:34], 2)
	binary.LittleEndian.PutUint16(hdr[34:36], 16)
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], uint32(dataSize))

	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}

	zeros := make([]byte, 8192)
	for dataSize > 0 {
		n := dataSize
		if n > len(zeros) {
			n = len(zeros)
		}
		if _, err := w.Write(zeros[:n]); err != nil {
			return err
		}
		dataSize -= n
	}
	return nil
}

// Probe reads the header of a WAV file. Non-WAV input returns ErrNotWAV so
// callers can skip duration bookkeeping for other formats.
func Probe(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var hdr [headerSize]byte
	if _, err := io.ReadFull(f, hdr[:]); err != nil {
		return nil, ErrNotWAV
	}
	if string(hdr[0:4]) != "RIFF" || string(hdr[8:12]) != "WAVE" || string(hdr[12:16]) != "fmt " {
		return nil, ErrNotWAV
	}

	channels := int(binary.LittleEndian.Uint16(hdr[22:24]))
	sampleRate := int(binary.LittleEndian.Uint32(hdr[24:28]))
	bits := int(binary.LittleEndian.Uint16(hdr[34:36]))
	dataSize := int(binary.LittleEndian.Uint32(hdr[40:44]))
	if channels <= 0 || sampleRate <= 0 || bits <= 0 {
		return nil, ErrNotWAV
	}

	bytesPerSec := sampleRate * channels * bits / 8
	return &Info{
		SampleRate:  sampleRate,
		Channels:    channels,
		BitsPerSamp: bits,
		Duration:    time.Duration(float64(dataSize) / float64(bytesPerSec) * float64(time.Second)),
	}, nil
}
