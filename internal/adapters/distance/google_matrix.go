package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"trip-route-service/internal/domain"
	"trip-route-service/internal/ports"
)

type matrixValue struct {
	Value float64 `json:"value"`
	Text  string  `json:"text"`
}

type matrixElement struct {
	Status   string       `json:"status"`
	Distance *matrixValue `json:"distance"`
	Duration *matrixValue `json:"duration"`
}

type matrixResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Rows         []struct {
		Elements []matrixElement `json:"elements"`
	} `json:"rows"`
}

// fetchMatrixRow retrieves distance and duration from one origin to many
// destinations for a single mode. Elements with NOT_FOUND or ZERO_RESULTS are
// left out of the result.
func (g *GoogleDistanceProvider) fetchMatrixRow(
	ctx context.Context,
	origin domain.Coordinates,
	destinations []domain.Coordinates,
	mode domain.TransportMode,
) (map[string]ports.DistanceResult, error) {
	if len(destinations) == 0 {
		return map[string]ports.DistanceResult{}, nil
	}

	dest := make([]string, 0, len(destinations))
	for _, d := range destinations {
		dest = append(dest, d.String())
	}

	q := url.Values{}
	q.Set("origins", origin.String())
	q.Set("destinations", strings.Join(dest, "|"))
	q.Set("mode", string(mode))
	q.Set("units", "metric")
	q.Set("key", g.apiKey)
	endpoint := g.baseURL + "/maps/api/distancematrix/json?" + q.Encode()

	resp, err := g.doWithRetry(ctx, func() (*http.Request, error) {
		return g.newRequest(ctx, endpoint)
	})
	if err != nil {
		return nil, fmt.Errorf("matrix request failed: %w", err)
	}
	defer resp.Body.Close()

	var mr matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return nil, fmt.Errorf("decode matrix response: %w", err)
	}

	if mr.Status != "OK" {
		return nil, fmt.Errorf("matrix status %s: %s", mr.Status, mr.ErrorMessage)
	}

	if len(mr.Rows) != 1 {
		return nil, fmt.Errorf("expected 1 origin row; got %d", len(mr.Rows))
	}

	elements := mr.Rows[0].Elements
	if len(elements) != len(destinations) {
		return nil, fmt.Errorf(
			"row length does not match destinations: elements=%d destinations=%d",
			len(elements), len(destinations),
		)
	}

	out := make(map[string]ports.DistanceResult, len(destinations))
	for i, el := range elements {
		switch el.Status {
		case "OK":
		case "NOT_FOUND", "ZERO_RESULTS", "MAX_ROUTE_LENGTH_EXCEEDED":
			continue
		default:
			return nil, fmt.Errorf("element %d status %s", i, el.Status)
		}

		if el.Distance == nil || el.Duration == nil {
			return nil, fmt.Errorf("matrix returned invalid metrics for %s", destinations[i])
		}

		out[destinations[i].Key()] = ports.DistanceResult{
			DistanceMeters:  el.Distance.Value,
			DurationSeconds: el.Duration.Value,
		}
	}

	return out, nil
}
