package plugin

import (
	"bufio"
	"bytes"
	"testing"
)

func TestFramingRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("a BSON-encoded document would go here")

	if err := writeFramed(&buf, payload); err != nil {
		t.Fatal(err)
	}

	got, err := readFramed(bufio.NewReader(&buf))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(payload) {
		t.Fatalf("got %q, want %q", got, payload)
	}
}

func TestFramingEmptyPayload(t *testing.T) {
	var buf bytes.Buffer
	if err := writeFramed(&buf, nil); err != nil {
		t.Fatal(err)
	}
	got, err := readFramed(bufio.NewReader(&buf))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d bytes, want 0", len(got))
	}
}

func TestErrReplyFormatsKindAndMsg(t *testing.T) {
	e := errReply{Kind: "no_such_id", Msg: "block not found"}
	if e.Error() == "" {
		t.Fatal("expected non-empty error string")
	}
}
