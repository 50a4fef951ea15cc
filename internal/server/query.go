package server

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/hurttlocker/chronomap/internal/cluster"
	"github.com/hurttlocker/chronomap/internal/filter"
)

const (
	minZoom = 1.0
	maxZoom = 22.0
)

// ParseCriteria reads filter criteria from query parameters. year selects a
// single year; from and to select an inclusive range and must come
// together. category, location and person may repeat. q is a person name
// substring.
func ParseCriteria(q url.Values) (filter.Criteria, error) {
	var c filter.Criteria

	if raw := strings.TrimSpace(q.Get("year")); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			return c, fmt.Errorf("invalid year %q", raw)
		}
		c.Year = &y
	}

	from, to := strings.TrimSpace(q.Get("from")), strings.TrimSpace(q.Get("to"))
	if from != "" || to != "" {
		if from == "" || to == "" {
			return c, fmt.Errorf("from and to must be given together")
		}
		start, err := strconv.Atoi(from)
		if err != nil {
			return c, fmt.Errorf("invalid from %q", from)
		}
		end, err := strconv.Atoi(to)
		if err != nil {
			return c, fmt.Errorf("invalid to %q", to)
		}
		c.Range = &filter.YearRange{Start: start, End: end}
	}

	c.Categories = setParam(q, "category")
	c.Locations = setParam(q, "location")
	c.People = setParam(q, "person")
	c.PersonQuery = strings.TrimSpace(q.Get("q"))
	return c, nil
}

// setParam returns nil when the parameter is absent so that it matches
// everything.
func setParam(q url.Values, key string) filter.Set {
	vals, ok := q[key]
	if !ok {
		return nil
	}
	return filter.NewSet(vals...)
}

// ParseView reads zoom, radius and mode, falling back to defaults for
// absent values.
func ParseView(q url.Values, defaults cluster.ViewOptions) (cluster.ViewOptions, error) {
	opts := defaults

	if raw := strings.TrimSpace(q.Get("zoom")); raw != "" {
		z, err := strconv.ParseFloat(raw, 64)
		if err != nil || z < minZoom || z > maxZoom {
			return opts, fmt.Errorf("zoom must be a number between %g and %g", minZoom, maxZoom)
		}
		opts.Zoom = z
	}
	if raw := strings.TrimSpace(q.Get("radius")); raw != "" {
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil || r <= 0 {
			return opts, fmt.Errorf("radius must be a positive number")
		}
		opts.Radius = r
	}
	if raw := q.Get("mode"); raw != "" {
		m, err := cluster.ParseMode(raw)
		if err != nil {
			return opts, err
		}
		opts.Mode = m
	}
	return opts, nil
}

func parseBoundedInt(raw string, def, min, max int) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
