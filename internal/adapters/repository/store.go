// Package repository provides read access to projects, stations, players
// and measurements, plus measurement capture.
package repository

import (
	"context"

	"github.com/okian/kickscore/internal/domain/model"
)

// Store provides access to the testing data of projects.
type Store interface {
	// Project returns the project or ErrNotFound.
	Project(ctx context.Context, projectID string) (model.Project, error)
	// Stations lists the project's stations in storage order.
	Stations(ctx context.Context, projectID string) ([]model.Station, error)
	// Players lists the project's players.
	Players(ctx context.Context, projectID string) ([]model.Player, error)
	// Measurements lists every measurement of the project, re-takes included.
	Measurements(ctx context.Context, projectID string) ([]model.Measurement, error)
	// AddMeasurement stores m. It reports false when a measurement with the
	// same ID already exists. Unknown players or stations are rejected.
	AddMeasurement(ctx context.Context, projectID string, m model.Measurement) (bool, error)
	// Close releases resources.
	Close()
}
