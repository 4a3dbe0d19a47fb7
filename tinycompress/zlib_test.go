package tinycompress

import (
	"bytes"
	"compress/zlib"
	"io"
	"testing"
)

func inflate(t *testing.T, data []byte) []byte {
	t.Helper()
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("zlib.NewReader: %v", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("inflate: %v", err)
	}
	return out
}

func TestCompressReadableByZlib(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"dictionary", []byte(`{"version":"gomorse","commands":{"identify offset=%u count=%c":1}}`)},
		{"multi block", bytes.Repeat([]byte(".-/ "), 40000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := inflate(t, Compress(tt.data))
			if !bytes.Equal(got, tt.data) {
				t.Errorf("round trip lost data: %d bytes in, %d out", len(tt.data), len(got))
			}
		})
	}
}

func TestWriterAfterClose(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, 0)
	w.Write([]byte("SOS"))
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("x")); err == nil {
		t.Error("Write after Close should fail")
	}
	if got := inflate(t, buf.Bytes()); string(got) != "SOS" {
		t.Errorf("got %q", got)
	}
}
