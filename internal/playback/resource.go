package playback

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Format describes raw PCM audio parameters.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// DefaultFormat matches the pcm_22050 output requested from synthesis:
// 22050Hz, mono, 16-bit little-endian samples.
var DefaultFormat = Format{SampleRate: 22050, Channels: 1, BitDepth: 16}

// BytesPerSecond returns the PCM data rate for the format.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.Channels * (f.BitDepth / 8)
}

func (f Format) valid() bool {
	return f.SampleRate > 0 && f.Channels > 0 && f.BitDepth >= 8 && f.BitDepth%8 == 0
}

// Error reports a resource that failed to decode or play.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("playback %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Resource is one decoded audio payload owned by a Session. At most one
// Resource is live per session; the previous one is released on replacement.
type Resource struct {
	pcm      []byte
	format   Format
	duration time.Duration
	released bool
}

// decodeResource interprets synthesized bytes as PCM audio. A RIFF/WAVE
// header, if present, overrides the default format and is stripped; anything
// else is treated as headerless PCM in the given format.
func decodeResource(data []byte, def Format) (*Resource, error) {
	format := def
	pcm := data

	if len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE" {
		wavFormat, wavData, err := parseWAV(data)
		if err != nil {
			return nil, &Error{Op: "decode", Err: err}
		}
		format = wavFormat
		pcm = wavData
	}

	if !format.valid() {
		return nil, &Error{Op: "decode", Err: fmt.Errorf("invalid audio format %+v", format)}
	}

	bytesPerFrame := format.Channels * (format.BitDepth / 8)
	if len(pcm) < bytesPerFrame {
		return nil, &Error{Op: "decode", Err: fmt.Errorf("audio payload too short: %d bytes", len(pcm))}
	}

	// Truncate a trailing partial frame rather than failing.
	pcm = pcm[:len(pcm)-len(pcm)%bytesPerFrame]

	duration := time.Duration(len(pcm)) * time.Second / time.Duration(format.BytesPerSecond())
	return &Resource{pcm: pcm, format: format, duration: duration}, nil
}

// parseWAV extracts the format and data chunks from a RIFF/WAVE payload.
func parseWAV(data []byte) (Format, []byte, error) {
	var format Format
	var pcm []byte
	haveFmt := false

	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if body+size > len(data) {
			size = len(data) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return format, nil, fmt.Errorf("wav fmt chunk too short: %d bytes", size)
			}
			format = Format{
				Channels:   int(binary.LittleEndian.Uint16(data[body+2 : body+4])),
				SampleRate: int(binary.LittleEndian.Uint32(data[body+4 : body+8])),
				BitDepth:   int(binary.LittleEndian.Uint16(data[body+14 : body+16])),
			}
			haveFmt = true
		case "data":
			pcm = data[body : body+size]
		}

		// Chunks are word-aligned.
		off = body + size + size%2
	}

	if !haveFmt || pcm == nil {
		return format, nil, fmt.Errorf("wav payload missing fmt or data chunk")
	}
	return format, pcm, nil
}

// Duration returns the resource's total play time.
func (r *Resource) Duration() time.Duration { return r.duration }

// WAV returns the resource as a complete RIFF/WAVE payload for HTTP serving.
func (r *Resource) WAV() []byte {
	dataLen := len(r.pcm)
	buf := make([]byte, 0, 44+dataLen)

	u32 := func(v int) []byte {
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, uint32(v))
		return b
	}
	u16 := func(v int) []byte {
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, uint16(v))
		return b
	}

	buf = append(buf, "RIFF"...)
	buf = append(buf, u32(36+dataLen)...)
	buf = append(buf, "WAVE"...)
	buf = append(buf, "fmt "...)
	buf = append(buf, u32(16)...)
	buf = append(buf, u16(1)...) // PCM
	buf = append(buf, u16(r.format.Channels)...)
	buf = append(buf, u32(r.format.SampleRate)...)
	buf = append(buf, u32(r.format.BytesPerSecond())...)
	buf = append(buf, u16(r.format.Channels*(r.format.BitDepth/8))...)
	buf = append(buf, u16(r.format.BitDepth)...)
	buf = append(buf, "data"...)
	buf = append(buf, u32(dataLen)...)
	buf = append(buf, r.pcm...)
	return buf
}

// release frees the resource's backing buffer. Safe to call once only per
// the at-most-one-live-resource invariant; Released reports whether it ran.
func (r *Resource) release() {
	r.pcm = nil
	r.released = true
}

// Released reports whether the resource has been released.
func (r *Resource) Released() bool { return r.released }
