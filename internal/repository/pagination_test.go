package repository

import "testing"

func TestPageWindow(t *testing.T) {
	cases := []struct {
		page, pageSize int
		limit, offset  int
		paged          bool
	}{
		{page: 1, pageSize: 20, limit: 20, offset: 0, paged: true},
		{page: 3, pageSize: 20, limit: 20, offset: 40, paged: true},
		{page: 0, pageSize: 10, limit: 10, offset: 0, paged: true},
		{page: -2, pageSize: 10, limit: 10, offset: 0, paged: true},
		{page: 2, pageSize: 1000, limit: maxPageSize, offset: maxPageSize, paged: true},
		{page: 2, pageSize: 0, paged: false},
	}
	for _, tc := range cases {
		limit, offset, paged := pageWindow(tc.page, tc.pageSize)
		if limit != tc.limit || offset != tc.offset || paged != tc.paged {
			t.Fatalf("pageWindow(%d,%d) want %d,%d,%v got %d,%d,%v",
				tc.page, tc.pageSize, tc.limit, tc.offset, tc.paged, limit, offset, paged)
		}
	}
}
