package store

import (
	"math/rand"
	"time"

	"github.com/oceandata/argo-ingest/internal/argo"
)

// conditions.go - Derived condition summaries and the fleet roster
//
// Surface conditions are synthesized from a prefix of the aggregated
// dataset: real position, time, temperature and salinity, with the
// remaining environmental fields drawn from fixed uniform ranges. The
// fleet roster is a static placeholder set for downstream consumers.

// ConditionSampleSize is how many leading dataset rows seed condition
// summaries.
const ConditionSampleSize = 25

// Condition is one synthesized surface-condition summary row.
type Condition struct {
	Latitude       float64
	Longitude      float64
	Time           time.Time
	Temperature    *float64
	Salinity       *float64
	CurrentSpeed   float64
	WaveHeight     float64
	WindSpeed      float64
	PollutionIndex float64
	AlertLevel     string
}

// Bot is one fleet-status row.
type Bot struct {
	ID           string
	Name         string
	Status       string
	Latitude     float64
	Longitude    float64
	LastUpdate   time.Time
	Temperature  float64
	Salinity     float64
	PH           float64
	BatteryLevel float64
}

// SampleConditions derives up to n condition summaries from the head of
// the dataset.
func SampleConditions(ds argo.Dataset, n int) []Condition {
	if n > len(ds) {
		n = len(ds)
	}

	conds := make([]Condition, 0, n)
	for _, rec := range ds[:n] {
		conds = append(conds, Condition{
			Latitude:       rec.Latitude,
			Longitude:      rec.Longitude,
			Time:           rec.Time,
			Temperature:    rec.Temperature,
			Salinity:       rec.Salinity,
			CurrentSpeed:   uniform(0.3, 2.5),
			WaveHeight:     uniform(0.8, 3.5),
			WindSpeed:      uniform(8.0, 28.0),
			PollutionIndex: uniform(1.2, 3.8),
			AlertLevel:     randomAlertLevel(),
		})
	}
	return conds
}

// FleetStatus returns the static monitoring-fleet roster.
func FleetStatus() []Bot {
	now := time.Now().UTC().Truncate(time.Second)
	return []Bot{
		{ID: "BOT001", Name: "Agro-Bot Alpha", Status: "ACTIVE", Latitude: 20.5, Longitude: 68.5,
			LastUpdate: now, Temperature: 25.2, Salinity: 35.1, PH: 8.1, BatteryLevel: 85.5},
		{ID: "BOT002", Name: "Agro-Bot Beta", Status: "ACTIVE", Latitude: 21.0, Longitude: 69.0,
			LastUpdate: now, Temperature: 26.1, Salinity: 34.9, PH: 8.2, BatteryLevel: 92.3},
		{ID: "BOT003", Name: "Agro-Bot Gamma", Status: "MAINTENANCE", Latitude: 19.8, Longitude: 67.2,
			LastUpdate: now, Temperature: 23.5, Salinity: 35.4, PH: 7.8, BatteryLevel: 45.2},
		{ID: "BOT004", Name: "Agro-Bot Delta", Status: "ACTIVE", Latitude: 15.2, Longitude: 73.1,
			LastUpdate: now, Temperature: 27.8, Salinity: 33.8, PH: 8.3, BatteryLevel: 78.9},
	}
}

func uniform(lo, hi float64) float64 {
	return lo + rand.Float64()*(hi-lo)
}

// randomAlertLevel draws LOW/MEDIUM/HIGH with weights 0.6/0.3/0.1.
func randomAlertLevel() string {
	switch r := rand.Float64(); {
	case r < 0.6:
		return "LOW"
	case r < 0.9:
		return "MEDIUM"
	default:
		return "HIGH"
	}
}
