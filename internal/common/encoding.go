package common

import (
	"encoding/binary"
	"io"
)

func WriteUint32(w io.Writer, v uint32) (int, error) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return w.Write(buf[:])
}

func ReadUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func WriteBytes(w io.Writer, data []byte) (int, error) {
	return w.Write(data)
}

func ReadBytes(r io.Reader, length uint64) ([]byte, error) {
	if length == 0 {
		return nil, nil
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}
