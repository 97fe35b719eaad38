package common

import (
	"encoding/json"
	"testing"
)

func TestParseGridPosition(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    GridPosition
		wantErr bool
	}{
		{name: "origin", input: "0,0", want: GridPosition{X: 0, Y: 0}},
		{name: "plain", input: "12,7", want: GridPosition{X: 12, Y: 7}},
		{name: "spaces", input: " 3 , 4 ", want: GridPosition{X: 3, Y: 4}},
		{name: "missing comma", input: "12", wantErr: true},
		{name: "negative", input: "-1,2", wantErr: true},
		{name: "not a number", input: "a,b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGridPosition(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseGridPosition(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseGridPosition(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSpritesDecode(t *testing.T) {
	payload := `{
		"static_sprites": [{"position": "2,3", "index": 5, "layer": 1, "z": 0, "rotate_deg": 90}],
		"animated_sprites": [{"position": "4,4", "indices": [7, 8, 9], "layer": 3, "z": -1, "rotate_deg": 0}],
		"fallback_sprites": [{"position": "1,1", "index": 35, "z": 2}]
	}`

	var s Sprites
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(s.StaticSprites) != 1 || len(s.AnimatedSprites) != 1 || len(s.FallbackSprites) != 1 {
		t.Fatalf("unexpected batch sizes: %+v", s)
	}
	st := s.StaticSprites[0]
	if st.Position != (GridPosition{X: 2, Y: 3}) || st.Index != 5 || st.Layer != 1 || st.RotateDeg != 90 {
		t.Errorf("static sprite = %+v", st)
	}
	an := s.AnimatedSprites[0]
	if an.Z != -1 || len(an.Indices) != 3 || an.Indices[2] != 9 {
		t.Errorf("animated sprite = %+v", an)
	}
	fb := s.FallbackSprites[0]
	if fb.Index != 35 || fb.Z != 2 {
		t.Errorf("fallback sprite = %+v", fb)
	}
	if s.Empty() {
		t.Error("Empty() = true for a populated batch")
	}
}

func TestGridPositionMarshal(t *testing.T) {
	data, err := json.Marshal(StaticSprite{Position: GridPosition{X: 9, Y: 1}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"position":"9,1","index":0,"layer":0,"z":0,"rotate_deg":0}`
	if string(data) != want {
		t.Errorf("marshal = %s, want %s", data, want)
	}
}

func TestSpriteLayerFor(t *testing.T) {
	tests := []struct {
		tileLayer uint32
		kind      SpriteKind
		want      uint32
	}{
		{0, SpriteKindBackground, 0},
		{0, SpriteKindForeground, 1},
		{3, SpriteKindBackground, 6},
		{3, SpriteKindForeground, 7},
	}
	for _, tt := range tests {
		if got := SpriteLayerFor(tt.tileLayer, tt.kind); got != tt.want {
			t.Errorf("SpriteLayerFor(%d, %d) = %d, want %d", tt.tileLayer, tt.kind, got, tt.want)
		}
	}
}
