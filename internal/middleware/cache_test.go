package middleware

import (
	"net/http"
	"testing"
)

func TestEncodeDecodePayload(t *testing.T) {
	hdr := http.Header{}
	hdr.Set("Content-Type", "application/json")
	hdr.Set("X-Custom", "v")
	body := []byte(`{"trips":[]}`)

	raw, err := encodePayload(http.StatusOK, hdr, body)
	if err != nil {
		t.Fatalf("encodePayload() error = %v", err)
	}
	status, gotHdr, gotBody, ok := decodePayload(raw)
	if !ok {
		t.Fatal("decodePayload() failed on freshly encoded payload")
	}
	if status != http.StatusOK {
		t.Errorf("status = %d, want %d", status, http.StatusOK)
	}
	if got := gotHdr.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", got)
	}
	if got := gotHdr.Get("X-Custom"); got != "v" {
		t.Errorf("X-Custom = %q, want v", got)
	}
	if string(gotBody) != string(body) {
		t.Errorf("body = %q, want %q", gotBody, body)
	}
}

func TestDecodePayloadRejectsGarbage(t *testing.T) {
	cases := [][]byte{
		nil,
		{},
		{1, 2, 3},
		[]byte("not a payload at all"),
	}
	for _, bs := range cases {
		if _, _, _, ok := decodePayload(bs); ok && len(bs) < 8 {
			t.Errorf("decodePayload(%v) = ok, want rejection", bs)
		}
	}
	// Declared header length running past the buffer must be rejected.
	bad, _ := encodePayload(200, http.Header{"A": {"b"}}, []byte("x"))
	if _, _, _, ok := decodePayload(bad[:9]); ok {
		t.Error("decodePayload accepted truncated payload")
	}
}
