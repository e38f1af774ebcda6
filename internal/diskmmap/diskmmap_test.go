package diskmmap

import "testing"

func TestCreateReturnsZeroedRegionOfRequestedSize(t *testing.T) {
	r, err := Create("", 4096)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer r.Close()

	b := r.Bytes()
	if len(b) != 4096 {
		t.Fatalf("len(Bytes()) = %d, want 4096", len(b))
	}
	for i, v := range b {
		if v != 0 {
			t.Fatalf("byte %d = %d, want 0", i, v)
		}
	}
}

func TestWriteIsVisibleThroughSameRegion(t *testing.T) {
	r, err := Create("", 4096)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer r.Close()

	b := r.Bytes()
	b[0] = 0x42
	b[4095] = 0x99
	if r.Bytes()[0] != 0x42 || r.Bytes()[4095] != 0x99 {
		t.Fatal("writes through Bytes() were not visible on a subsequent call")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	r, err := Create("", 4096)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
