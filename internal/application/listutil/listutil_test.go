package listutil

import (
	"net/url"
	"testing"
)

func TestParsePageParams(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		wantPage    int
		wantPerPage int
	}{
		{"defaults", "", 1, DefaultPerPage},
		{"explicit", "page=3&per_page=20", 3, 20},
		{"zero page clamped", "page=0", 1, DefaultPerPage},
		{"negative page clamped", "page=-5", 1, DefaultPerPage},
		{"per_page capped", "per_page=9999", 1, MaxPerPage},
		{"garbage ignored", "page=abc&per_page=xyz", 1, DefaultPerPage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			got := ParsePageParams(q)
			if got.Page != tt.wantPage || got.PerPage != tt.wantPerPage {
				t.Errorf("got page=%d per_page=%d, want page=%d per_page=%d",
					got.Page, got.PerPage, tt.wantPage, tt.wantPerPage)
			}
		})
	}
}

func TestParseSortParams(t *testing.T) {
	allowed := []string{"personName", "courseStartDate"}

	q, _ := url.ParseQuery("sort=personName&dir=desc")
	got := ParseSortParams(q, allowed)
	if got.Sort != "personName" || got.Dir != "desc" {
		t.Errorf("unexpected params: %+v", got)
	}

	q, _ = url.ParseQuery("sort=secret_column&dir=sideways")
	got = ParseSortParams(q, allowed)
	if got.Sort != "" {
		t.Errorf("expected disallowed column dropped, got %q", got.Sort)
	}
	if got.Dir != "asc" {
		t.Errorf("expected dir defaulted to asc, got %q", got.Dir)
	}
}

func TestParseListParamsSearch(t *testing.T) {
	q, _ := url.ParseQuery("q=acme&page=2")
	got := ParseListParams(q, nil)
	if got.Search != "acme" {
		t.Errorf("expected search term parsed, got %q", got.Search)
	}
	if got.Page != 2 {
		t.Errorf("expected page 2, got %d", got.Page)
	}
}

func TestNewPageInfo(t *testing.T) {
	tests := []struct {
		name           string
		page, perPage  int
		total          int
		wantPage       int
		wantTotalPages int
	}{
		{"first page", 1, 20, 45, 1, 3},
		{"exact fit", 2, 20, 40, 2, 2},
		{"page beyond end clamped", 9, 20, 45, 3, 3},
		{"empty list", 1, 20, 0, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewPageInfo(tt.page, tt.perPage, tt.total)
			if got.Page != tt.wantPage || got.TotalPages != tt.wantTotalPages {
				t.Errorf("got page=%d totalPages=%d, want page=%d totalPages=%d",
					got.Page, got.TotalPages, tt.wantPage, tt.wantTotalPages)
			}
		})
	}
}

func TestPageInfoSlice(t *testing.T) {
	info := NewPageInfo(2, 10, 25)
	start, end := info.Slice()
	if start != 10 || end != 20 {
		t.Errorf("expected [10, 20), got [%d, %d)", start, end)
	}

	info = NewPageInfo(3, 10, 25)
	start, end = info.Slice()
	if start != 20 || end != 25 {
		t.Errorf("expected last partial page [20, 25), got [%d, %d)", start, end)
	}
}
