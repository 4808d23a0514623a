package routing

import (
	"math"

	"github.com/1F47E/camina-segura/pkg/models"
)

// Mode is a means of travel used for time estimates
type Mode string

const (
	ModeWalking Mode = "walking"
	ModeTransit Mode = "transit"
	ModeDriving Mode = "driving"
	ModeCycling Mode = "cycling"
)

// speedsKmh are the average speeds per mode
var speedsKmh = map[Mode]float64{
	ModeWalking: 5,
	ModeTransit: 20,
	ModeDriving: 30,
	ModeCycling: 15,
}

// Speed returns the average speed of mode in km/h; unknown modes walk.
func Speed(mode Mode) float64 {
	if v, ok := speedsKmh[mode]; ok {
		return v
	}
	return speedsKmh[ModeWalking]
}

// EstimateTime converts a distance into hours and whole minutes
func EstimateTime(distanceKm float64, mode Mode) models.EstimatedTime {
	hours := distanceKm / Speed(mode)
	return models.EstimatedTime{
		Hours:   hours,
		Minutes: int(math.Round(hours * 60)),
	}
}
