// Package rwa tracks the real-world assets shown on the dashboard map.
package rwa

import "time"

// Asset is one tracked real-world asset.
type Asset struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	TeamID    string    `json:"teamId"`
	Status    string    `json:"status"`
	Latitude  float64   `json:"lat"`
	Longitude float64   `json:"lng"`
	UpdatedAt time.Time `json:"updatedAt"`
}
