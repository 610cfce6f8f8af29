package determin

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"testing"
)

func gzipBase64(t *testing.T, s string) string {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write([]byte(s)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestDecompressPayloadGzipRoundTrip(t *testing.T) {
	want := "a,b\n1,2\n3,4\n"
	encoded := gzipBase64(t, want)
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("base64 decode: %v", err)
	}
	got, err := decompressPayload(raw, "gzip")
	if err != nil {
		t.Fatalf("decompressPayload: %v", err)
	}
	if string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDecompressPayloadNoneIsIdentity(t *testing.T) {
	got, err := decompressPayload([]byte("hello"), "")
	if err != nil {
		t.Fatalf("decompressPayload: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("got %q, want %q", got, "hello")
	}
}

func TestDecompressPayloadUnknownSchemeErrors(t *testing.T) {
	if _, err := decompressPayload([]byte("x"), "lz4"); err == nil {
		t.Fatal("expected error for unknown compression scheme")
	}
}

func TestDecodeInputCSVGzipCompressed(t *testing.T) {
	csv := "a,b\n1,2\n3,4\n"
	payload := &InputPayload{
		MediaType: "csv",
		Data:      gzipBase64(t, csv),
		Options:   &InputOptions{Compression: "gzip"},
	}
	df, err := DecodeInput(payload)
	if err != nil {
		t.Fatalf("DecodeInput: %v", err)
	}
	if df.Height() != 2 {
		t.Fatalf("expected 2 rows, got %d", df.Height())
	}
	col, _ := df.Column("a")
	if v, _ := col[0].AsString(); v != "1" {
		t.Errorf("row 0 a = %v, want \"1\"", col[0])
	}
}
