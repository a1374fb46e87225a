package layout

import "testing"

func TestCompute_Table(t *testing.T) {
	tests := []struct {
		name                 string
		w, h                 int
		wantHeight, wantFont int
		wantSide, wantBottom int
	}{
		{"widescreen 1080p", 1920, 1080, 108, 29, 96, 21},
		{"ultrawide", 2560, 1080, 86, 36, 128, 21},
		{"standard 4:3", 1024, 768, 92, 16, 51, 15},
		{"portrait", 1080, 1920, 288, 23, 54, 38},
		{"tiny", 160, 120, 60, 14, 10, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Compute(tt.w, tt.h)
			if p.SubtitleHeight != tt.wantHeight {
				t.Fatalf("SubtitleHeight = %d, want %d", p.SubtitleHeight, tt.wantHeight)
			}
			if p.FontSize != tt.wantFont {
				t.Fatalf("FontSize = %d, want %d", p.FontSize, tt.wantFont)
			}
			if p.SideMargin != tt.wantSide || p.BottomMargin != tt.wantBottom {
				t.Fatalf("margins = %d/%d, want %d/%d", p.SideMargin, p.BottomMargin, tt.wantSide, tt.wantBottom)
			}
			if p.SubtitleWidth != tt.w-2*tt.wantSide {
				t.Fatalf("SubtitleWidth = %d", p.SubtitleWidth)
			}
		})
	}
}

func TestCompute_ZeroSize(t *testing.T) {
	if p := Compute(0, 1080); p != (Params{}) {
		t.Fatalf("expected zero params, got %+v", p)
	}
}
