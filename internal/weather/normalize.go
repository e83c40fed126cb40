package weather

import "time"

// Normalize turns an upstream payload into a RecordInput for city and date.
// Missing forecast.forecastday is a schema error; an empty forecastday list
// means the provider has nothing for that day. Null measurements become 0.
func Normalize(provider, city string, date time.Time, obs UpstreamObservation) (RecordInput, error) {
	if obs.Forecast == nil {
		return RecordInput{}, &UpstreamSchemaError{Provider: provider, Reason: "missing forecast"}
	}
	if obs.Forecast.ForecastDay == nil {
		return RecordInput{}, &UpstreamSchemaError{Provider: provider, Reason: "missing forecast.forecastday"}
	}

	days := *obs.Forecast.ForecastDay
	if len(days) == 0 {
		return RecordInput{}, ErrNotFound
	}
	day := days[0].Day
	if day == nil {
		return RecordInput{}, &UpstreamSchemaError{Provider: provider, Reason: "missing forecastday[0].day"}
	}

	return RecordInput{
		City:     city,
		Date:     Day(date),
		MinTemp:  valueOrZero(day.MinTempC),
		MaxTemp:  valueOrZero(day.MaxTempC),
		AvgTemp:  valueOrZero(day.AvgTempC),
		Humidity: valueOrZero(day.AvgHumidity),
	}, nil
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
