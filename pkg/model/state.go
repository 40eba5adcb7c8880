package model

import "time"

// State is a read only snapshot of session and drivers.
type State struct {
	Session Session  `json:"session"`
	Drivers []Driver `json:"drivers"`
}

// CompletedLap is emitted when a driver starts a new lap.
type CompletedLap struct {
	SessionUID  uint64     `json:"sessionUid"`
	SessionType int        `json:"sessionType"`
	Track       int        `json:"track"`
	DriverIndex int        `json:"driverIndex"`
	DriverName  string     `json:"driverName"`
	TeamID      int        `json:"teamId"`
	LapNum      int        `json:"lapNum"`
	LapTime     uint32     `json:"lapTime"`
	Sectors     [3]float64 `json:"sectors"`
	Invalid     bool       `json:"invalid"`
	TyreVisual  int        `json:"tyreVisual"`
	TyresAge    int        `json:"tyresAge"`
}

// ClassificationEntry is the final result of one car.
type ClassificationEntry struct {
	SessionUID  uint64 `json:"sessionUid"`
	SessionType int    `json:"sessionType"`
	Track       int    `json:"track"`
	DriverIndex int    `json:"driverIndex"`
	DriverName  string `json:"driverName"`
	TeamID      int    `json:"teamId"`
	Result      Result `json:"result"`
}

// Snapshot is the state handed to feed consumers once per interval.
type Snapshot struct {
	Timestamp time.Time         `json:"timestamp"`
	Session   Session           `json:"session"`
	Drivers   []Driver          `json:"drivers"`
	Reception map[string]uint32 `json:"reception"` // packets per kind during the last second
}
