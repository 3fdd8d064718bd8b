package describer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/mkastner/imagealt-pipeline/internal/visionhints"
)

const maxCaptionAltLen = 125

type captionResponse struct {
	Caption struct {
		Text string `json:"text"`
	} `json:"description"`
}

type tagsResponse struct {
	Tags []struct {
		Name string `json:"name"`
	} `json:"tags"`
}

// visionCaptionDescriber calls a caption+tags style vision API as a
// fallback when a multimodal chat-completion endpoint is unavailable.
type visionCaptionDescriber struct {
	httpClient *http.Client
	tokens     TokenSource
	endpoint   string
}

func (d *visionCaptionDescriber) Describe(ctx context.Context, req Request) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, describerTimeout)
	defer cancel()

	token, err := d.tokens.GetToken(ctx, cognitiveServicesAudience)
	if err != nil {
		return Result{}, fmt.Errorf("describer: acquire token: %w", err)
	}

	caption, err := d.fetchCaption(ctx, token, req.ImageRef)
	if err != nil {
		log.Warn().Err(err).Msg("describer: caption request failed")
		return Result{}, nil
	}

	angle := req.Hints.Angle
	if providerTags, err := d.fetchTags(ctx, token, req.ImageRef); err != nil {
		log.Warn().Err(err).Msg("describer: tags request failed, continuing without provider tags")
	} else {
		angle = visionhints.Derive(req.BlobName, providerTags, string(req.Hints.Angle)).Angle
	}

	brand := ""
	model := ""
	if req.Metadata != nil {
		brand = req.Metadata.Make
		model = req.Metadata.Model
	}

	alt := joinNonEmpty(brand, model, angleDescription(angle), caption)
	if len(alt) > maxCaptionAltLen {
		alt = alt[:maxCaptionAltLen-3] + "..."
	}

	return Result{AltEn: alt}, nil
}

func (d *visionCaptionDescriber) fetchTags(ctx context.Context, token, imageURL string) ([]string, error) {
	q := url.Values{}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.endpoint+"/vision/v3.2/tag?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.URL.RawQuery += "&url=" + url.QueryEscape(imageURL)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("vision API status %d", resp.StatusCode)
	}

	var parsed tagsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(parsed.Tags))
	for _, t := range parsed.Tags {
		names = append(names, t.Name)
	}
	return names, nil
}

// angleDescription renders a provider-derived angle as a short phrase
// suitable for joining into the caption sentence; it returns "" for
// AngleNone so joinNonEmpty drops it.
func angleDescription(a visionhints.Angle) string {
	switch a {
	case visionhints.AngleFront:
		return "front view"
	case visionhints.AngleAngle:
		return "angled view"
	case visionhints.AngleSide:
		return "side view"
	case visionhints.AngleTop:
		return "top view"
	case visionhints.AngleDetail:
		return "detail view"
	case visionhints.AngleAction:
		return "in use"
	default:
		return ""
	}
}

func (d *visionCaptionDescriber) fetchCaption(ctx context.Context, token, imageURL string) (string, error) {
	q := url.Values{}
	q.Set("visualFeatures", "Description")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.endpoint+"/vision/v3.2/analyze?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.URL.RawQuery += "&url=" + url.QueryEscape(imageURL)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("vision API status %d", resp.StatusCode)
	}

	var parsed captionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", err
	}
	return parsed.Caption.Text, nil
}

func joinNonEmpty(parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += p
	}
	return out
}
