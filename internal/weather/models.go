package weather

import (
	"time"
)

// DateLayout is the wire and storage format for a calendar day.
const DateLayout = "2006-01-02"

// Record is a stored per-city, per-day weather observation.
// Date is always midnight UTC.
type Record struct {
	ID       int64
	City     string
	Date     time.Time
	MinTemp  float64
	MaxTemp  float64
	AvgTemp  float64
	Humidity float64
}

// RecordInput is a Record before the store has assigned it an ID.
type RecordInput struct {
	City     string
	Date     time.Time
	MinTemp  float64
	MaxTemp  float64
	AvgTemp  float64
	Humidity float64
}

// Key returns the de-facto cache key for this record.
func (r Record) Key() string {
	return Key(r.City, r.Date)
}

// Key builds the canonical "city:YYYY-MM-DD" key used in logs and metrics.
func Key(city string, date time.Time) string {
	return city + ":" + date.Format(DateLayout)
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// UpstreamObservation is the provider-shaped history payload. Pointers
// distinguish a missing field from a zero value.
type UpstreamObservation struct {
	Forecast *UpstreamForecast `json:"forecast"`
}

// UpstreamForecast holds the per-day entries returned by the provider.
type UpstreamForecast struct {
	ForecastDay *[]UpstreamForecastDay `json:"forecastday"`
}

// UpstreamForecastDay is a single "forecast day" entry.
type UpstreamForecastDay struct {
	Day *UpstreamDay `json:"day"`
}

// UpstreamDay holds the daily aggregates. Any of them may be null.
type UpstreamDay struct {
	MinTempC    *float64 `json:"mintemp_c"`
	MaxTempC    *float64 `json:"maxtemp_c"`
	AvgTempC    *float64 `json:"avgtemp_c"`
	AvgHumidity *float64 `json:"avghumidity"`
}
