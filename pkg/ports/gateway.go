package ports

import (
	"context"

	"github.com/aretw0/citychat/pkg/sensor"
)

// DataGateway is the engine's view of the smart-city backend.
type DataGateway interface {
	// FetchLatestReadings returns the latest reading of every node, indexed by node_id.
	FetchLatestReadings(ctx context.Context) ([]sensor.Reading, error)

	// AskNaturalLanguage answers a free-text question. Failures degrade to a
	// user-facing apology, so it never returns an error.
	AskNaturalLanguage(ctx context.Context, question string) string

	// PublishTable uploads a markdown document and returns its shareable URL.
	PublishTable(ctx context.Context, markdown string) (string, error)

	// FetchVisualizationData returns chartable data for a question.
	FetchVisualizationData(ctx context.Context, query string) (*sensor.Visualization, error)
}
