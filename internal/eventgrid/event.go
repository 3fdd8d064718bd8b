// Package eventgrid parses Event Grid webhook payloads: the subscription
// validation handshake and BlobCreated notifications. The event schema
// mirrors Microsoft.Storage.BlobCreated as delivered by Azure Event Grid.
package eventgrid

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Event-type literals are vendor-specific wire constants, retained verbatim.
const (
	ValidationEventType  = "Microsoft.EventGrid.SubscriptionValidationEvent"
	BlobCreatedEventType = "Microsoft.Storage.BlobCreated"
)

// Kind classifies a parsed ImageEvent.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindBlobCreated Kind = "blob-created"
	KindOther       Kind = "other"
)

// wireEvent is the raw JSON shape of one Event Grid event.
type wireEvent struct {
	EventType string `json:"eventType"`
	Data      struct {
		ValidationCode string `json:"validationCode"`
		URL            string `json:"url"`
	} `json:"data"`
}

// ImageEvent is one delivery notification, normalized from the raw wire
// event.
type ImageEvent struct {
	Kind           Kind
	BlobURL        string // set when Kind == KindBlobCreated
	ValidationCode string // set when Kind == KindValidation
}

// ParseEvents parses a webhook body as an array of Event Grid events. A
// direct (non-array) request body is the caller's responsibility to detect
// before calling ParseEvents.
func ParseEvents(body []byte) ([]ImageEvent, error) {
	var raw []wireEvent
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("eventgrid: invalid event array: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("eventgrid: empty event array")
	}

	events := make([]ImageEvent, 0, len(raw))
	for _, e := range raw {
		switch e.EventType {
		case ValidationEventType:
			events = append(events, ImageEvent{Kind: KindValidation, ValidationCode: e.Data.ValidationCode})
		case BlobCreatedEventType:
			events = append(events, ImageEvent{Kind: KindBlobCreated, BlobURL: e.Data.URL})
		default:
			events = append(events, ImageEvent{Kind: KindOther})
		}
	}
	return events, nil
}

// ParseBlobURL splits a blob-created event's absolute URL into its
// container (first path segment) and blob name (remainder).
func ParseBlobURL(blobURL string) (container, blobName string, err error) {
	u, err := url.Parse(blobURL)
	if err != nil {
		return "", "", fmt.Errorf("eventgrid: invalid blob url: %w", err)
	}
	path := strings.TrimPrefix(u.Path, "/")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("eventgrid: blob url missing container/blob segments: %s", blobURL)
	}
	return parts[0], parts[1], nil
}
