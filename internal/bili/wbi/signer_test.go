package wbi

import (
	"context"
	"errors"
	"testing"
	"time"

	"bilisum/internal/bili"
	"bilisum/internal/services"
)

const testMixinKey = "abcdefghijklmnopqrstuvwxyz012345"

func TestSignWithKeyDeterministic(t *testing.T) {
	params := map[string]string{"mid": "1", "pn": "1"}
	signed := signWithKey(params, testMixinKey, 1700000000)

	if signed["wts"] != "1700000000" {
		t.Fatalf("unexpected wts: %q", signed["wts"])
	}
	if signed["w_rid"] != "d5e9bbde1a2c5bce0d7818d23f90fa82" {
		t.Fatalf("unexpected signature: %q", signed["w_rid"])
	}
	// Signing twice with the same inputs must reproduce the signature.
	again := signWithKey(params, testMixinKey, 1700000000)
	if again["w_rid"] != signed["w_rid"] {
		t.Fatalf("signature not reproducible: %q vs %q", again["w_rid"], signed["w_rid"])
	}
	if _, ok := params["wts"]; ok {
		t.Fatal("input map was mutated")
	}
}

func TestSignWithKeyFiltersValueCharacters(t *testing.T) {
	signed := signWithKey(map[string]string{"key": "a!b'c(d)e*f"}, testMixinKey, 1700000000)
	// Hash input sees the value as "abcdef".
	if signed["w_rid"] != "4f647ccdb18518d61f5ceacdce4868d3" {
		t.Fatalf("unexpected signature: %q", signed["w_rid"])
	}
	// The outgoing parameter keeps its original value.
	if signed["key"] != "a!b'c(d)e*f" {
		t.Fatalf("parameter value was rewritten: %q", signed["key"])
	}
}

func TestSignWithKeyLeavesKeysUntouched(t *testing.T) {
	signed := signWithKey(map[string]string{"a!": "x"}, testMixinKey, 1700000000)
	if signed["w_rid"] != "e994c91fd559b1cba255c601495af6ec" {
		t.Fatalf("unexpected signature: %q", signed["w_rid"])
	}
}

type stubNavSource struct {
	calls int
	img   string
	sub   string
	err   error
}

func (s *stubNavSource) Nav(context.Context, *bili.Credential) (bili.NavData, error) {
	s.calls++
	if s.err != nil {
		return bili.NavData{}, s.err
	}
	return bili.NavData{WbiImg: bili.WbiImg{ImgURL: s.img, SubURL: s.sub}}, nil
}

func TestSignerDerivesMixinKeyFromFragments(t *testing.T) {
	source := &stubNavSource{
		img: "https://i0.hdslb.com/bfs/wbi/7cd084941338484aae1ad9425b84077c.png",
		sub: "https://i0.hdslb.com/bfs/wbi/4932caff0ff746eab6f01bf08b70ac45.png",
	}
	frozen := time.Unix(1700000000, 0)
	signer := NewSigner(source, WithClock(func() time.Time { return frozen }))

	signed, err := signer.Sign(context.Background(), map[string]string{"mid": "1", "pn": "1"}, nil)
	if err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}
	if signed["w_rid"] != "dbe63909fd29c3f240cc72b2ac1cd6df" {
		t.Fatalf("unexpected signature: %q", signed["w_rid"])
	}
}

func TestSignerCachesKeyWithinWindow(t *testing.T) {
	source := &stubNavSource{
		img: "https://example.com/7cd084941338484aae1ad9425b84077c.png",
		sub: "https://example.com/4932caff0ff746eab6f01bf08b70ac45.png",
	}
	current := time.Unix(1700000000, 0)
	signer := NewSigner(source, WithClock(func() time.Time { return current }))

	for i := 0; i < 2; i++ {
		if _, err := signer.Sign(context.Background(), map[string]string{"pn": "1"}, nil); err != nil {
			t.Fatalf("Sign %d returned error: %v", i, err)
		}
	}
	if source.calls != 1 {
		t.Fatalf("expected a single nav fetch within the window, got %d", source.calls)
	}

	// A call after the validity window triggers exactly one more fetch.
	current = current.Add(time.Hour + time.Second)
	if _, err := signer.Sign(context.Background(), map[string]string{"pn": "2"}, nil); err != nil {
		t.Fatalf("Sign after expiry returned error: %v", err)
	}
	if source.calls != 2 {
		t.Fatalf("expected a second nav fetch after expiry, got %d", source.calls)
	}
}

func TestSignerSingleFlightUnderConcurrency(t *testing.T) {
	source := &stubNavSource{
		img: "https://example.com/7cd084941338484aae1ad9425b84077c.png",
		sub: "https://example.com/4932caff0ff746eab6f01bf08b70ac45.png",
	}
	signer := NewSigner(source)

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			_, err := signer.Sign(context.Background(), map[string]string{"pn": "1"}, nil)
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		if err := <-done; err != nil {
			t.Fatalf("concurrent Sign returned error: %v", err)
		}
	}
	if source.calls != 1 {
		t.Fatalf("expected one nav fetch across concurrent signers, got %d", source.calls)
	}
}

func TestSignerSurfacesSigningUnavailable(t *testing.T) {
	source := &stubNavSource{err: errors.New("network down")}
	signer := NewSigner(source)

	_, err := signer.Sign(context.Background(), map[string]string{"pn": "1"}, nil)
	if !errors.Is(err, services.ErrSigning) {
		t.Fatalf("expected ErrSigning, got %v", err)
	}
}

func TestExtractKey(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://i0.hdslb.com/bfs/wbi/abc123.png", "abc123"},
		{"https://example.com/nested/deadbeef.jpeg", "deadbeef"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := extractKey(tc.in); got != tc.want {
			t.Fatalf("extractKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
