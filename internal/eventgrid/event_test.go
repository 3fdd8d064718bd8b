package eventgrid

import "testing"

func TestParseEventsValidationHandshake(t *testing.T) {
	body := []byte(`[{"eventType":"Microsoft.EventGrid.SubscriptionValidationEvent","data":{"validationCode":"ABC-123"}}]`)
	events, err := ParseEvents(body)
	if err != nil {
		t.Fatalf("ParseEvents: %v", err)
	}
	if len(events) != 1 || events[0].Kind != KindValidation || events[0].ValidationCode != "ABC-123" {
		t.Errorf("got %+v", events)
	}
}

func TestParseEventsBlobCreated(t *testing.T) {
	body := []byte(`[{"eventType":"Microsoft.Storage.BlobCreated","data":{"url":"https://acct.blob.core.windows.net/ingest/img_0.png"}}]`)
	events, err := ParseEvents(body)
	if err != nil {
		t.Fatalf("ParseEvents: %v", err)
	}
	if events[0].Kind != KindBlobCreated || events[0].BlobURL == "" {
		t.Errorf("got %+v", events)
	}
}

func TestParseEventsOtherKind(t *testing.T) {
	body := []byte(`[{"eventType":"Something.Else","data":{}}]`)
	events, err := ParseEvents(body)
	if err != nil {
		t.Fatalf("ParseEvents: %v", err)
	}
	if events[0].Kind != KindOther {
		t.Errorf("got %+v", events)
	}
}

func TestParseBlobURLSplitsContainerAndBlob(t *testing.T) {
	container, blob, err := ParseBlobURL("https://acct.blob.core.windows.net/ingest/sub/img_0.png")
	if err != nil {
		t.Fatalf("ParseBlobURL: %v", err)
	}
	if container != "ingest" {
		t.Errorf("container = %q", container)
	}
	if blob != "sub/img_0.png" {
		t.Errorf("blob = %q", blob)
	}
}

func TestParseEventsEmptyArrayErrors(t *testing.T) {
	if _, err := ParseEvents([]byte(`[]`)); err == nil {
		t.Error("expected error for empty event array")
	}
}
