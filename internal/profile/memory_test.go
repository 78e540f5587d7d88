package profile

import "testing"

func TestMemoryStoreDefaultsToBare(t *testing.T) {
	s := NewMemoryStore()

	got := s.Get("u1")
	if got != Bare("u1") {
		t.Fatalf("unknown user: got %+v, want bare profile", got)
	}

	want := Profile{ID: "u1", DisplayName: "Alice", ImageFilename: "a.png"}
	if err := s.Put(want); err != nil {
		t.Fatal(err)
	}
	if got := s.Get("u1"); got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}
