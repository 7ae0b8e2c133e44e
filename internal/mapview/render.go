package mapview

import (
	"fmt"
	"time"

	"deskmap/internal/availability"
	"deskmap/internal/config"
	"deskmap/internal/models"
)

// Desk marker colors by availability for the requested slot.
const (
	ColorFree     = "#4caf50"
	ColorBusy     = "#f44336"
	ColorSelected = "#2196f3"
)

// Room fill colors by room type.
var roomColors = map[string]string{
	"meeting":    "#ffcccc",
	"workspace":  "#cce6ff",
	"lounge":     "#ccffcc",
	"bathroom":   "#e6ccff",
	"conference": "#ffcc99",
	"private":    "#e6e6e6",
	"kitchen":    "#d9f2e6",
}

const defaultRoomColor = "#f2f2f2"

// RoomColor resolves the fill color for a room: an explicit override wins,
// otherwise the type decides.
func RoomColor(room models.Room) string {
	if room.Color != "" {
		return room.Color
	}
	if c, ok := roomColors[room.Type]; ok {
		return c
	}
	return defaultRoomColor
}

// Marker is one desk rendered on the floor plan.
type Marker struct {
	DeskID    string          `json:"desk_id"`
	Label     string          `json:"label"`
	X         float64         `json:"x"`
	Y         float64         `json:"y"`
	Color     string          `json:"color"`
	Available bool            `json:"available"`
	Selected  bool            `json:"selected"`
	Blocking  *models.Booking `json:"blocking,omitempty"`
}

// RoomShape is one room rectangle with its label.
type RoomShape struct {
	RoomID        string  `json:"room_id"`
	Label         string  `json:"label"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Width         float64 `json:"width"`
	Height        float64 `json:"height"`
	Color         string  `json:"color"`
	LabelPosition string  `json:"label_position,omitempty"`
}

// View is the full render model for one (date, period) query. It is a pure
// recomputation from current state; drawing is the client's job.
type View struct {
	Image   string      `json:"image"`
	Width   float64     `json:"width"`
	Height  float64     `json:"height"`
	Date    string      `json:"date"`
	Period  string      `json:"period"`
	Rooms   []RoomShape `json:"rooms"`
	Markers []Marker    `json:"markers"`
}

// Build computes the render model for the given slot. Rooms come from the
// backend, merged with local floor-plan overrides; selectedDeskID may be
// empty when no flow is in progress.
func Build(plan *config.Floorplan, rooms []models.Room, desks []models.Desk, date time.Time, period models.Period, selectedDeskID string) View {
	view := View{
		Image:   plan.Image,
		Width:   plan.Width,
		Height:  plan.Height,
		Date:    models.FormatDate(date),
		Period:  string(period),
		Rooms:   make([]RoomShape, 0, len(rooms)),
		Markers: make([]Marker, 0, len(desks)),
	}

	merged := MergeRooms(rooms, plan.Rooms)
	for _, room := range merged {
		view.Rooms = append(view.Rooms, RoomShape{
			RoomID:        room.ID,
			Label:         roomLabel(room),
			X:             room.X,
			Y:             room.Y,
			Width:         room.Width,
			Height:        room.Height,
			Color:         RoomColor(room),
			LabelPosition: room.LabelPosition,
		})
	}

	for _, desk := range desks {
		result := availability.CheckDesk(desk, date, period)
		marker := Marker{
			DeskID:    desk.ID,
			Label:     desk.Name,
			X:         desk.X,
			Y:         desk.Y,
			Available: result.Available,
			Selected:  desk.ID == selectedDeskID,
		}
		switch {
		case marker.Selected:
			marker.Color = ColorSelected
		case result.Available:
			marker.Color = ColorFree
		default:
			marker.Color = ColorBusy
			marker.Blocking = result.First()
		}
		view.Markers = append(view.Markers, marker)
	}

	return view
}

// MergeRooms applies local overrides to the backend's room list. Overrides
// matching a backend room by ID replace color and label position only;
// overrides with no match are appended as-is.
func MergeRooms(rooms, overrides []models.Room) []models.Room {
	if len(overrides) == 0 {
		return rooms
	}

	byID := make(map[string]int, len(rooms))
	merged := make([]models.Room, len(rooms))
	copy(merged, rooms)
	for i, r := range merged {
		byID[r.ID] = i
	}

	for _, o := range overrides {
		i, ok := byID[o.ID]
		if !ok {
			merged = append(merged, o)
			continue
		}
		if o.Color != "" {
			merged[i].Color = o.Color
		}
		if o.LabelPosition != "" {
			merged[i].LabelPosition = o.LabelPosition
		}
	}
	return merged
}

func roomLabel(room models.Room) string {
	label := room.Label
	if label == "" {
		label = room.Name
	}
	if room.Capacity > 0 {
		return fmt.Sprintf("%s (%d)", label, room.Capacity)
	}
	return label
}
