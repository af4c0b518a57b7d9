// Package httpapi exposes the latest quality reports, metrics snapshots
// and raw observations over HTTP. The handlers perform no computation of
// their own; they read what the pipeline recorded.
package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"energypulse/internal/model"
	"energypulse/internal/pipeline"
	"energypulse/internal/store"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, st store.Store, pipe *pipeline.Pipeline) {
	v1 := app.Group("/api/v1")

	v1.Get("/observations", func(c *fiber.Ctx) error {
		var req observationsQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		observations, err := st.QueryObservations(c.Context(), store.Query{
			Location: req.Location,
			From:     req.From,
			To:       req.To,
		})
		if err != nil {
			return storageError(err)
		}

		return c.JSON(fiber.Map{
			"location":     req.Location,
			"count":        len(observations),
			"observations": observations,
		})
	})

	v1.Get("/quality/latest", func(c *fiber.Ctx) error {
		location, err := parseLocation(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		report, err := st.LatestQualityReport(c.Context(), location)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no quality report for requested location")
			}
			return storageError(err)
		}

		return c.JSON(report)
	})

	v1.Get("/metrics/latest", func(c *fiber.Ctx) error {
		location, err := parseLocation(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snapshot, err := st.LatestMetricsSnapshot(c.Context(), location)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no metrics snapshot for requested location")
			}
			return storageError(err)
		}

		return c.JSON(snapshot)
	})

	v1.Post("/pipeline/run", func(c *fiber.Ctx) error {
		location, err := parseLocation(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := pipe.Run(c.Context(), location); err != nil {
			if errors.Is(err, model.ErrUnknownLocation) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return storageError(err)
		}

		report, err := st.LatestQualityReport(c.Context(), location)
		if err != nil {
			return storageError(err)
		}
		snapshot, err := st.LatestMetricsSnapshot(c.Context(), location)
		if err != nil {
			return storageError(err)
		}

		return c.JSON(fiber.Map{
			"location": location,
			"quality":  report,
			"metrics":  snapshot,
		})
	})
}

func storageError(err error) error {
	if errors.Is(err, store.ErrUnavailable) {
		return fiber.NewError(fiber.StatusServiceUnavailable, "storage unavailable")
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}

// locationQuery holds the location query parameter.
type locationQuery struct {
	Location string `validate:"required"`
}

func parseLocation(c *fiber.Ctx) (string, error) {
	q := locationQuery{Location: c.Query("location")}
	if err := validate.Struct(q); err != nil {
		return "", err
	}
	if _, err := model.LocationByName(q.Location); err != nil {
		return "", err
	}
	return q.Location, nil
}

// observationsQuery holds query parameters for the observations endpoint.
type observationsQuery struct {
	Location string `validate:"required"`
	From     time.Time
	To       time.Time
}

func (o *observationsQuery) bind(c *fiber.Ctx) error {
	location, err := parseLocation(c)
	if err != nil {
		return err
	}
	o.Location = location

	if fromStr := c.Query("from"); fromStr != "" {
		from, err := parseTime(fromStr)
		if err != nil {
			return err
		}
		o.From = from
	}
	if toStr := c.Query("to"); toStr != "" {
		to, err := parseTime(toStr)
		if err != nil {
			return err
		}
		o.To = to
	}

	if !o.From.IsZero() && !o.To.IsZero() && o.To.Before(o.From) {
		return errors.New("to must not be before from")
	}
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
