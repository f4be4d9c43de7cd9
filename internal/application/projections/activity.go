package projections

import (
	"time"

	"gymdash/internal/domain/checkin"
	"gymdash/internal/domain/schedule"
)

// CountCheckInsBy counts check-ins per key.
func CountCheckInsBy(checkins []checkin.CheckIn, key func(checkin.CheckIn) string) map[string]int {
	out := make(map[string]int)
	for _, c := range checkins {
		out[key(c)]++
	}
	return out
}

// CheckInMethod keys check-ins by method.
func CheckInMethod(c checkin.CheckIn) string { return c.Method }

// CheckInDay keys check-ins by calendar date (YYYY-MM-DD) in UTC.
func CheckInDay(c checkin.CheckIn) string { return c.CheckInTime.UTC().Format(time.DateOnly) }

// CheckInHour keys check-ins by hour of day ("07", "18").
func CheckInHour(c checkin.CheckIn) string { return c.CheckInTime.UTC().Format("15") }

// RoomUtilization returns enrolled/capacity as a percentage per room.
// Rooms are keyed "<franchise>/<room>" so equally named rooms of different
// franchises stay apart; events without a franchise use the bare room name.
// Cancelled events and events without capacity are skipped.
func RoomUtilization(events []schedule.Event) map[string]float64 {
	return utilization(events, RoomKey)
}

// RoomKey is the RoomUtilization key for e.
func RoomKey(e schedule.Event) string {
	if e.Room == "" || e.FranchiseID == "" {
		return e.Room
	}
	return e.FranchiseID + "/" + e.Room
}

// TrainerUtilization returns enrolled/capacity as a percentage per trainer
// ID. Events without a trainer are skipped.
func TrainerUtilization(events []schedule.Event) map[string]float64 {
	return utilization(events, func(e schedule.Event) string { return e.TrainerID })
}

func utilization(events []schedule.Event, key func(schedule.Event) string) map[string]float64 {
	type acc struct{ enrolled, capacity int }
	sums := make(map[string]acc)
	for _, e := range events {
		k := key(e)
		if k == "" || e.Status == schedule.StatusCancelled || e.Capacity <= 0 {
			continue
		}
		a := sums[k]
		a.enrolled += e.Enrolled
		a.capacity += e.Capacity
		sums[k] = a
	}
	out := make(map[string]float64, len(sums))
	for k, a := range sums {
		out[k] = float64(a.enrolled) / float64(a.capacity) * 100
	}
	return out
}
