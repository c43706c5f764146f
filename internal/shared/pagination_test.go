package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPagination(t *testing.T) {
	cases := []struct {
		name                  string
		page, perPage, total  int
		wantPage, wantPer     int
		wantPages, wantOffset int
		wantNext              bool
	}{
		{name: "defaults", total: 45, wantPage: 1, wantPer: DefaultPerPage, wantPages: 3, wantNext: true},
		{name: "last page", page: 3, perPage: 20, total: 45, wantPage: 3, wantPer: 20, wantPages: 3, wantOffset: 40},
		{name: "exact multiple", page: 2, perPage: 10, total: 20, wantPage: 2, wantPer: 10, wantPages: 2, wantOffset: 10},
		{name: "empty", page: 1, perPage: 10, wantPage: 1, wantPer: 10},
		{name: "clamped", page: 1, perPage: 10000, total: 1200, wantPage: 1, wantPer: MaxPerPage, wantPages: 3, wantNext: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPagination(tc.page, tc.perPage, tc.total)
			require.Equal(t, tc.wantPage, p.Page)
			require.Equal(t, tc.wantPer, p.PerPage)
			require.Equal(t, tc.wantPages, p.TotalPages)
			require.Equal(t, tc.wantOffset, p.Offset())
			require.Equal(t, tc.wantNext, p.HasNext())
		})
	}
}
