package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestPageParamsNormalize(t *testing.T) {
	tests := []struct {
		name       string
		in         PageParams
		wantPage   int
		wantSize   int
		wantOffset int
	}{
		{name: "defaults", in: PageParams{}, wantPage: 0, wantSize: DefaultLimit, wantOffset: 0},
		{name: "negative page clamps", in: PageParams{Page: -3, Size: 10}, wantPage: 0, wantSize: 10, wantOffset: 0},
		{name: "size capped", in: PageParams{Page: 2, Size: 500}, wantPage: 2, wantSize: MaxLimit, wantOffset: 200},
		{name: "plain", in: PageParams{Page: 3, Size: 20}, wantPage: 3, wantSize: 20, wantOffset: 60},
	}

	for _, tt := range tests {
		got := tt.in.Normalize()
		if got.Page != tt.wantPage || got.Size != tt.wantSize {
			t.Fatalf("%s: normalized to page=%d size=%d", tt.name, got.Page, got.Size)
		}
		if off := tt.in.Offset(); off != tt.wantOffset {
			t.Fatalf("%s: offset %d, want %d", tt.name, off, tt.wantOffset)
		}
	}
}

func TestPageParamsSortDirIsPreserved(t *testing.T) {
	p := PageParams{SortDir: "sideways"}
	if !p.Descending() {
		t.Fatal("unknown sort dir should fall back to descending")
	}
	if p.Normalize().SortDir != "sideways" {
		t.Fatal("Normalize must not rewrite the requested sort dir")
	}

	asc := PageParams{SortDir: " ASC "}
	if asc.Descending() {
		t.Fatal("asc should sort ascending regardless of case/spacing")
	}
}

func TestCursorRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	id := uuid.New()

	encoded := EncodeCursor(Cursor{CreatedAt: now, ID: id})
	decoded, err := ParseCursor(encoded)
	if err != nil {
		t.Fatalf("ParseCursor failed: %v", err)
	}
	if !decoded.CreatedAt.Equal(now) || decoded.ID != id {
		t.Fatalf("cursor round trip mismatch: %+v", decoded)
	}
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	if _, err := ParseCursor("not-base64!!"); err == nil {
		t.Fatal("expected decode error")
	}
	if c, err := ParseCursor("   "); err != nil || c != nil {
		t.Fatalf("blank cursor should be nil, got %+v err=%v", c, err)
	}
}
