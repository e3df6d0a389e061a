package grid

import "testing"

func TestGetGridCoords(t *testing.T) {
	tests := []struct {
		index int
		cols  int
		wantX int
		wantY int
	}{
		// 32 words per screen row
		{0, 32, 0, 0},
		{31, 32, 31, 0},
		{32, 32, 0, 1},
		{63, 32, 31, 1},
		{8191, 32, 31, 255},

		// 512 pixels per screen row
		{0, 512, 0, 0},
		{511, 512, 511, 0},
		{512, 512, 0, 1},
		{131071, 512, 511, 255},
	}

	for _, tc := range tests {
		gotX, gotY := GetGridCoords(tc.index, tc.cols)
		if gotX != tc.wantX || gotY != tc.wantY {
			t.Errorf("GetGridCoords(%d, %d) = (%d, %d); want (%d, %d)", tc.index, tc.cols, gotX, gotY, tc.wantX, tc.wantY)
		}
		if got := Index(gotX, gotY, tc.cols); got != tc.index {
			t.Errorf("Index(%d, %d, %d) = %d; want %d", gotX, gotY, tc.cols, got, tc.index)
		}
	}
}
