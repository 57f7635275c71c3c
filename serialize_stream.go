package treelite

import (
	"encoding/binary"
	"io"
)

// SerializeToStream writes m to w as a sequence of length-prefixed byte
// blocks: the same logical frame sequence GetPyBuffer returns, packed for
// an in-order byte stream instead of exported as zero-copy buffers.
// Frames are written to w one at a time, so on error w may already hold
// part of the sequence; the caller should treat any returned error as
// "nothing usable was written".
func SerializeToStream(m AnyModel, w io.Writer) error {
	frames, err := GetPyBuffer(m)
	if err != nil {
		return err
	}
	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(len(frames)))
	if _, err := w.Write(countBuf[:]); err != nil {
		return &SerializationError{Detail: "write frame count: " + err.Error()}
	}
	for _, f := range frames {
		if err := writeFrame(w, f); err != nil {
			return err
		}
	}
	return nil
}

func writeFrame(w io.Writer, f Frame) error {
	var hdr [2 + 4 + 8]byte
	formatBytes := []byte(f.Format)
	binary.LittleEndian.PutUint16(hdr[0:2], uint16(len(formatBytes)))
	binary.LittleEndian.PutUint32(hdr[2:6], uint32(f.ItemSize))
	binary.LittleEndian.PutUint64(hdr[6:14], uint64(len(f.Data)))
	if _, err := w.Write(hdr[:]); err != nil {
		return &SerializationError{Detail: "write frame header: " + err.Error()}
	}
	if _, err := w.Write(formatBytes); err != nil {
		return &SerializationError{Detail: "write frame format: " + err.Error()}
	}
	if len(f.Data) > 0 {
		if _, err := w.Write(f.Data); err != nil {
			return &SerializationError{Detail: "write frame data: " + err.Error()}
		}
	}
	return nil
}

// DeserializeFromStream reads a model previously written by
// SerializeToStream.
func DeserializeFromStream(r io.Reader) (AnyModel, error) {
	var countBuf [4]byte
	if _, err := io.ReadFull(r, countBuf[:]); err != nil {
		return nil, &SerializationError{Detail: "read frame count: " + err.Error()}
	}
	n := binary.LittleEndian.Uint32(countBuf[:])
	frames := make([]Frame, n)
	for i := range frames {
		f, err := readFrame(r)
		if err != nil {
			return nil, err
		}
		frames[i] = f
	}
	return FromPyBuffer(frames)
}

func readFrame(r io.Reader) (Frame, error) {
	var hdr [2 + 4 + 8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Frame{}, &SerializationError{Detail: "read frame header: " + err.Error()}
	}
	formatLen := binary.LittleEndian.Uint16(hdr[0:2])
	itemSize := binary.LittleEndian.Uint32(hdr[2:6])
	dataLen := binary.LittleEndian.Uint64(hdr[6:14])

	formatBytes := make([]byte, formatLen)
	if formatLen > 0 {
		if _, err := io.ReadFull(r, formatBytes); err != nil {
			return Frame{}, &SerializationError{Detail: "read frame format: " + err.Error()}
		}
	}
	data := make([]byte, dataLen)
	if dataLen > 0 {
		if _, err := io.ReadFull(r, data); err != nil {
			return Frame{}, &SerializationError{Detail: "read frame data: " + err.Error()}
		}
	}
	return Frame{Format: string(formatBytes), ItemSize: int(itemSize), Data: data}, nil
}
