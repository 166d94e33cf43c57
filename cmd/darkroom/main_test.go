package main

import (
	"testing"

	"github.com/gogpu/darkroom"
)

func TestParseRect(t *testing.T) {
	tests := []struct {
		in      string
		want    darkroom.Rect
		wantErr bool
	}{
		{"0,0,1,1", darkroom.FullRect(), false},
		{" 0.1, 0.2 ,0.9,0.8", darkroom.Rect{Left: 0.1, Top: 0.2, Right: 0.9, Bottom: 0.8}, false},
		{"0,0,1", darkroom.Rect{}, true},
		{"a,0,1,1", darkroom.Rect{}, true},
	}
	for _, tt := range tests {
		got, err := parseRect(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseRect(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseRect(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}
