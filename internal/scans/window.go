package scans

import "time"

// ComputeWindow derives the inclusive collection window from month/year
// bounds: the first instant of the start month through the last second of
// the end month's last calendar day, in UTC. time.Date normalizes month 13,
// which handles the December rollover.
func ComputeWindow(startMonth, startYear, endMonth, endYear int) (start, end time.Time) {
	start = time.Date(startYear, time.Month(startMonth), 1, 0, 0, 0, 0, time.UTC)
	end = time.Date(endYear, time.Month(endMonth)+1, 1, 0, 0, 0, 0, time.UTC).Add(-time.Second)
	return start, end
}
