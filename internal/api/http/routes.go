package httpapi

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/i474232898/weather-history-cache/internal/weather"
)

// Response details. These strings are part of the public contract.
const (
	detailInvalidDate = "Invalid date format. Use 'YYYY-MM-DD'."
	detailFutureDate  = "Date must not be in the future."
	detailCityMissing = "City is required."
	detailNotFound    = "Weather data not found"
	detailInternal    = "Internal server error. Please try again later."
)

var validate = validator.New()

// Resolver is the part of weather.Service the handlers need.
type Resolver interface {
	GetOrFetch(ctx context.Context, city string, date time.Time) (weather.Record, error)
}

// NewApp returns a Fiber app with the JSON codec, error handler and panic
// recovery every deployment of this service uses.
func NewApp(appName string) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		// Query values outlive the handler (the memory store keeps the city).
		Immutable:             true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ErrorHandler:          ErrorHandler,
	})
	app.Use(recover.New())
	return app
}

// ErrorHandler renders every error as {"detail": ...}. Errors that are not
// *fiber.Error never leak their message.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	detail := detailInternal

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		detail = fe.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"detail": detail,
	})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, resolver Resolver, logger zerolog.Logger) {
	app.Get("/weather", func(c *fiber.Ctx) error {
		q, err := parseWeatherQuery(c)
		if err != nil {
			return err
		}

		rec, err := resolver.GetOrFetch(c.UserContext(), q.City, q.date)
		if err != nil {
			return mapError(c, logger, q, err)
		}

		return c.JSON(newWeatherResponse(rec))
	})
}

// weatherQuery holds query parameters for the weather endpoint.
type weatherQuery struct {
	City string `validate:"required"`
	Date string `validate:"required,datetime=2006-01-02"`

	date time.Time
}

func parseWeatherQuery(c *fiber.Ctx) (weatherQuery, error) {
	q := weatherQuery{
		City: c.Query("city"),
		Date: c.Query("date"),
	}

	if err := validate.Struct(q); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if fe.Field() == "Date" {
					return q, fiber.NewError(fiber.StatusBadRequest, detailInvalidDate)
				}
			}
		}
		return q, fiber.NewError(fiber.StatusBadRequest, detailCityMissing)
	}

	d, err := weather.ParseDate(q.Date)
	if err != nil {
		return q, fiber.NewError(fiber.StatusBadRequest, detailInvalidDate)
	}
	q.date = d

	return q, nil
}

func mapError(c *fiber.Ctx, logger zerolog.Logger, q weatherQuery, err error) error {
	var inErr *weather.InvalidInputError
	switch {
	case errors.As(err, &inErr):
		if inErr.Field == "city" {
			return fiber.NewError(fiber.StatusBadRequest, detailCityMissing)
		}
		return fiber.NewError(fiber.StatusBadRequest, detailFutureDate)
	case errors.Is(err, weather.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, detailNotFound)
	}

	logger.Error().
		Err(err).
		Str("city", q.City).
		Str("date", q.Date).
		Str("path", c.Path()).
		Msg("weather request failed")
	return fiber.NewError(fiber.StatusInternalServerError, detailInternal)
}

type weatherResponse struct {
	ID       int64   `json:"id"`
	City     string  `json:"city"`
	Date     string  `json:"date"`
	MinTemp  float64 `json:"min_temp"`
	MaxTemp  float64 `json:"max_temp"`
	AvgTemp  float64 `json:"avg_temp"`
	Humidity float64 `json:"humidity"`
}

func newWeatherResponse(r weather.Record) weatherResponse {
	return weatherResponse{
		ID:       r.ID,
		City:     r.City,
		Date:     r.Date.Format(weather.DateLayout),
		MinTemp:  r.MinTemp,
		MaxTemp:  r.MaxTemp,
		AvgTemp:  r.AvgTemp,
		Humidity: r.Humidity,
	}
}
