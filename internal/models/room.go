package models

// Room is a rectangular zone on the floor plan. Type drives the display
// color unless Color overrides it; LabelPosition nudges the name label.
type Room struct {
	ID            string  `json:"id" yaml:"id"`
	Name          string  `json:"name" yaml:"name"`
	Label         string  `json:"label,omitempty" yaml:"label,omitempty"`
	X             float64 `json:"x" yaml:"x"`
	Y             float64 `json:"y" yaml:"y"`
	Width         float64 `json:"width" yaml:"width"`
	Height        float64 `json:"height" yaml:"height"`
	Type          string  `json:"type" yaml:"type"`
	Capacity      int     `json:"capacity,omitempty" yaml:"capacity,omitempty"`
	Description   string  `json:"description,omitempty" yaml:"description,omitempty"`
	Color         string  `json:"color,omitempty" yaml:"color,omitempty"`
	LabelPosition string  `json:"position,omitempty" yaml:"position,omitempty"`
}

// Contains reports whether a point lies within the room rectangle. The map
// assumes desk coordinates are inside their room; the engine does not
// enforce it.
func (r Room) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}
