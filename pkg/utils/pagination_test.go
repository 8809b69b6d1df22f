package utils

import "testing"

// TestSetSizeCapsListingPage pins the default, the upper cap and the
// rejection of non-positive sizes.
func TestSetSizeCapsListingPage(t *testing.T) {
	cases := []struct {
		query   string
		want    int
		wantErr bool
	}{
		{"", defaultSize, false},
		{"25", 25, false},
		{"5000", maxSize, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
	}
	for _, tc := range cases {
		p := &Pagination{}
		err := p.SetSize(tc.query)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("SetSize(%q) expected error", tc.query)
			}
			continue
		}
		if err != nil {
			t.Fatalf("SetSize(%q): %v", tc.query, err)
		}
		if p.Size != tc.want {
			t.Fatalf("SetSize(%q) size = %d, want %d", tc.query, p.Size, tc.want)
		}
	}
}

// TestGetOffsetPageOneIsZero keeps page 0 and page 1 on the same window so
// clients that count from either base see the first page.
func TestGetOffsetPageOneIsZero(t *testing.T) {
	p := &Pagination{Page: 0, Size: 10}
	if got := p.GetOffset(); got != 0 {
		t.Fatalf("offset for page 0 = %d, want 0", got)
	}
	p.Page = 1
	if got := p.GetOffset(); got != 0 {
		t.Fatalf("offset for page 1 = %d, want 0", got)
	}
	p.Page = 3
	if got := p.GetOffset(); got != 20 {
		t.Fatalf("offset for page 3 = %d, want 20", got)
	}
}
