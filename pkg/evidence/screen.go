package evidence

import "github.com/dayrec-dev/dayrec/pkg/timeline"

// Granularity names the precision level of the day's screen-time evidence.
// Exactly one variant is populated per day; the choice is made once, at
// construction, rather than re-branching on every lookup.
type Granularity int

// Screen-time granularities, most precise first.
const (
	GranularityNone Granularity = iota
	GranularitySessions
	GranularityAppHourly
	GranularityAggregate
)

func (g Granularity) String() string {
	switch g {
	case GranularitySessions:
		return "sessions"
	case GranularityAppHourly:
		return "app_hourly"
	case GranularityAggregate:
		return "aggregate_hourly"
	default:
		return "none"
	}
}

// AggregateApp is the app key used for aggregate-hourly evidence, which has
// no per-app attribution.
const AggregateApp = "screen"

// ScreenTime is the tagged union of the three screen-time evidence shapes an
// evidence source may supply: precise per-app sessions, per-app-per-hour
// second totals, or a bare 24-slot seconds-per-hour array.
type ScreenTime struct {
	Granularity Granularity    `json:"granularity"`
	Sessions    []AppSession   `json:"sessions,omitempty"`
	AppHourly   []AppHourlyRow `json:"app_hourly,omitempty"`
	Aggregate   [24]int        `json:"aggregate,omitempty"`
}

// ScreenFromSessions builds session-granularity screen evidence, skipping
// sessions with inverted or out-of-day intervals.
func ScreenFromSessions(sessions []AppSession) ScreenTime {
	st := ScreenTime{Granularity: GranularitySessions}
	for _, s := range sessions {
		if s.EndMinutes <= s.StartMinutes || s.StartMinutes < 0 || s.EndMinutes > 1440 {
			continue
		}
		st.Sessions = append(st.Sessions, s)
	}
	if len(st.Sessions) == 0 {
		st.Granularity = GranularityNone
	}
	return st
}

// ScreenFromAppHourly builds per-app-hourly screen evidence.
func ScreenFromAppHourly(rows []AppHourlyRow) ScreenTime {
	st := ScreenTime{Granularity: GranularityAppHourly}
	for _, r := range rows {
		if r.Hour < 0 || r.Hour > 23 || r.Seconds <= 0 {
			continue
		}
		if r.Seconds > 3600 {
			r.Seconds = 3600
		}
		st.AppHourly = append(st.AppHourly, r)
	}
	if len(st.AppHourly) == 0 {
		st.Granularity = GranularityNone
	}
	return st
}

// ScreenFromAggregate builds aggregate-hourly screen evidence from a
// 24-slot seconds-per-hour array.
func ScreenFromAggregate(secondsPerHour [24]int) ScreenTime {
	st := ScreenTime{Granularity: GranularityAggregate}
	any := false
	for h, s := range secondsPerHour {
		if s < 0 {
			s = 0
		}
		if s > 3600 {
			s = 3600
		}
		st.Aggregate[h] = s
		if s > 0 {
			any = true
		}
	}
	if !any {
		st.Granularity = GranularityNone
	}
	return st
}

// AppOverlapMinutes returns the minutes of per-app screen use overlapping
// the given interval. For session data the overlap is exact. For hourly
// data the hour's total is distributed proportionally over the overlapped
// fraction of the hour. Aggregate evidence is reported under AggregateApp.
func (st ScreenTime) AppOverlapMinutes(iv timeline.TimeInterval) map[string]float64 {
	out := make(map[string]float64)
	switch st.Granularity {
	case GranularitySessions:
		for _, s := range st.Sessions {
			if ov := s.Interval().OverlapMinutes(iv); ov > 0 {
				out[s.App] += float64(ov)
			}
		}
	case GranularityAppHourly:
		for _, r := range st.AppHourly {
			hour := timeline.TimeInterval{StartMinutes: r.Hour * 60, Duration: 60}
			if ov := hour.OverlapMinutes(iv); ov > 0 {
				out[r.App] += float64(r.Seconds) / 60.0 * float64(ov) / 60.0
			}
		}
	case GranularityAggregate:
		for h, secs := range st.Aggregate {
			if secs == 0 {
				continue
			}
			hour := timeline.TimeInterval{StartMinutes: h * 60, Duration: 60}
			if ov := hour.OverlapMinutes(iv); ov > 0 {
				out[AggregateApp] += float64(secs) / 60.0 * float64(ov) / 60.0
			}
		}
	case GranularityNone:
	}
	return out
}

// TotalOverlapMinutes sums screen use across all apps over the interval.
func (st ScreenTime) TotalOverlapMinutes(iv timeline.TimeInterval) float64 {
	total := 0.0
	for _, m := range st.AppOverlapMinutes(iv) {
		total += m
	}
	return total
}

// TopApp returns the app with the most overlap minutes in the interval and
// its minute count, or false if there is no screen use there.
func (st ScreenTime) TopApp(iv timeline.TimeInterval) (string, float64, bool) {
	best, bestMin := "", 0.0
	for app, m := range st.AppOverlapMinutes(iv) {
		if m > bestMin || (m == bestMin && m > 0 && app < best) {
			best, bestMin = app, m
		}
	}
	return best, bestMin, bestMin > 0
}
