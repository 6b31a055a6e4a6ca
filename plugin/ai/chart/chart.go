// Package chart turns labeled numeric data into an opaque renderable chart
// spec consumed by the projection layer.
package chart

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// DataPoint is one labeled value on a chart.
type DataPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Spec is the renderable chart description.
type Spec struct {
	Type  string      `json:"type"`
	Title string      `json:"title,omitempty"`
	Data  []DataPoint `json:"data"`
}

// ChartTypeBar is the default chart type.
const ChartTypeBar = "bar"

// Render validates the data points and builds a chart spec.
func Render(title string, points []DataPoint) (*Spec, error) {
	if len(points) == 0 {
		return nil, errors.New("chart requires at least one data point")
	}
	for i, p := range points {
		if p.Label == "" {
			return nil, errors.Errorf("data point %d has an empty label", i)
		}
	}
	return &Spec{
		Type:  ChartTypeBar,
		Title: title,
		Data:  points,
	}, nil
}

// JSON serializes the spec for embedding in a turn payload.
func (s *Spec) JSON() (string, error) {
	buf, err := json.Marshal(s)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal chart spec")
	}
	return string(buf), nil
}

// ParseSpec decodes a serialized chart spec.
func ParseSpec(raw string) (*Spec, error) {
	var spec Spec
	if err := json.Unmarshal([]byte(raw), &spec); err != nil {
		return nil, errors.Wrap(err, "invalid chart spec")
	}
	return &spec, nil
}
