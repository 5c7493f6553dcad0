package blob

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/mpre5ley/tts-eval-platform/internal/config"
)

func newTestStore(t *testing.T) *localStore {
	t.Helper()
	s, err := newLocalStore(config.StorageLocalConfig{Directory: t.TempDir()})
	if err != nil {
		t.Fatalf("newLocalStore: %v", err)
	}
	return s
}

func TestLocalPutGetRoundTrip(t *testing.T) {
	s := newTestStore(t)

	payload := []byte("fake-wav-bytes")
	info, err := s.Put(t.Context(), "sessions/abc/00-google.wav", bytes.NewReader(payload), PutOptions{
		ContentType: "audio/wav",
		Metadata:    map[string]string{"provider": "google"},
	})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if info.Size != int64(len(payload)) {
		t.Errorf("size = %d, want %d", info.Size, len(payload))
	}

	body, got, err := s.Get(t.Context(), "sessions/abc/00-google.wav")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("payload mismatch: %q", data)
	}
	if got.ContentType != "audio/wav" || got.Metadata["provider"] != "google" {
		t.Errorf("object info = %+v", got)
	}
}

func TestLocalGetMissing(t *testing.T) {
	s := newTestStore(t)
	if _, _, err := s.Get(t.Context(), "nope.wav"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestLocalDeleteIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Put(t.Context(), "k.wav", bytes.NewReader([]byte("x")), PutOptions{}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Delete(t.Context(), "k.wav"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(t.Context(), "k.wav"); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
	if _, _, err := s.Get(t.Context(), "k.wav"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted object still readable: %v", err)
	}
}

func TestLocalRejectsTraversal(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Put(t.Context(), "../outside.wav", bytes.NewReader([]byte("x")), PutOptions{}); err == nil {
		t.Fatal("traversal key must be rejected")
	}
}
