package api

import (
	"github.com/sebastiankruger/trajectory-dataset/internal/artifact"
	"github.com/sebastiankruger/trajectory-dataset/internal/store"
)

// StatusResponse is returned by GET /api/status
type StatusResponse struct {
	Stats     store.Stats `json:"stats"`
	LatestRun *store.Run  `json:"latestRun,omitempty"`
}

// RocketListResponse is returned by GET /api/rockets
type RocketListResponse struct {
	Rockets []store.Rocket `json:"rockets"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
	Total   int            `json:"total"`
}

// TrajectoryResponse is returned by GET /api/rockets/{id}/trajectory
type TrajectoryResponse struct {
	RocketID   string                      `json:"rocketId"`
	Trajectory []artifact.TrajectorySample `json:"trajectory"`
	Wind       []artifact.WindSample       `json:"wind,omitempty"`
}

// ErrorResponse carries a failed request's message
type ErrorResponse struct {
	Error string `json:"error"`
}
