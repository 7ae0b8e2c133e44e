package config

import (
	"fmt"
	"os"

	"deskmap/internal/models"

	yamlv2 "gopkg.in/yaml.v2"
)

// Floorplan describes the office map image and local display overrides for
// rooms. Room records themselves come from the backend; entries here only
// override color and label position for matching room IDs, or fill in when
// the backend has no room data yet.
type Floorplan struct {
	Image  string        `yaml:"image"`
	Width  float64       `yaml:"width"`
	Height float64       `yaml:"height"`
	Rooms  []models.Room `yaml:"rooms"`
}

func LoadFloorplan(path string) (*Floorplan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read floorplan: %w", err)
	}

	var plan Floorplan
	if err := yamlv2.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("parse floorplan: %w", err)
	}

	if plan.Width <= 0 {
		plan.Width = 1000
	}
	if plan.Height <= 0 {
		plan.Height = 1500
	}
	if plan.Image == "" {
		plan.Image = "/map.png"
	}

	seen := make(map[string]bool, len(plan.Rooms))
	for _, room := range plan.Rooms {
		if room.ID == "" {
			return nil, fmt.Errorf("floorplan room %q has empty id", room.Name)
		}
		if seen[room.ID] {
			return nil, fmt.Errorf("duplicate floorplan room id: %s", room.ID)
		}
		seen[room.ID] = true
	}

	return &plan, nil
}
