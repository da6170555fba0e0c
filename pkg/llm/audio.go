package llm

import (
	"bytes"
	"encoding/binary"
)

// Audio is raw PCM returned by speech synthesis (s16le).
type Audio struct {
	Data       []byte
	SampleRate int
	Channels   int
}

// WAV wraps the raw PCM in a RIFF/WAVE header so it can be written to
// a playable file.
func (a *Audio) WAV() []byte {
	const bitsPerSample = 16
	byteRate := a.SampleRate * a.Channels * bitsPerSample / 8
	blockAlign := a.Channels * bitsPerSample / 8

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(a.Data)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(a.Channels))
	binary.Write(&buf, binary.LittleEndian, uint32(a.SampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(a.Data)))
	buf.Write(a.Data)

	return buf.Bytes()
}
