// Package visionhints derives a coarse camera-angle hint and observed
// object list for an image, used to enrich the prompt sent to the
// describer.
package visionhints

import "strings"

// Angle is one of the recognized camera-angle categories.
type Angle string

const (
	AngleFront  Angle = "front"
	AngleAngle  Angle = "angle"
	AngleSide   Angle = "side"
	AngleTop    Angle = "top"
	AngleDetail Angle = "detail"
	AngleAction Angle = "action"
	AngleNone   Angle = ""
)

// angleKeywords lists, per angle, the substrings whose case-insensitive
// presence in a blob name or tag identifies that angle. Order matters: the
// first angle with a matching substring wins.
var angleKeywords = []struct {
	angle    Angle
	keywords []string
}{
	{AngleFront, []string{"front view", "front-facing", "face-on", "straight on", "frontal"}},
	{AngleAngle, []string{"angled", "perspective", "iso", "3/4 view", "three-quarter"}},
	{AngleSide, []string{"side view", "profile", "left side", "right side"}},
	{AngleTop, []string{"top view", "overhead", "above", "bird's eye"}},
	{AngleDetail, []string{"close-up", "close up", "detail", "macro", "zoom"}},
	{AngleAction, []string{"in use", "action shot", "printing", "scanning", "operating"}},
}

// Hints is the derived vision context for one image.
type Hints struct {
	Angle           Angle
	ObservedObjects []string
}

// Derive resolves the angle from, in priority order: the blob name, then
// providerTags, then an explicit metadata angle field. ObservedObjects is
// whatever the caller passed as providerTags (untouched).
func Derive(blobName string, providerTags []string, explicitAngle string) Hints {
	angle := matchAngle(blobName)
	if angle == AngleNone {
		angle = matchAngleInList(providerTags)
	}
	if angle == AngleNone && explicitAngle != "" {
		angle = normalizeExplicitAngle(explicitAngle)
	}
	return Hints{Angle: angle, ObservedObjects: providerTags}
}

func matchAngle(text string) Angle {
	lower := strings.ToLower(text)
	for _, entry := range angleKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.angle
			}
		}
	}
	return AngleNone
}

func matchAngleInList(tags []string) Angle {
	for _, tag := range tags {
		if a := matchAngle(tag); a != AngleNone {
			return a
		}
	}
	return AngleNone
}

func normalizeExplicitAngle(explicit string) Angle {
	switch strings.ToLower(strings.TrimSpace(explicit)) {
	case string(AngleFront), string(AngleAngle), string(AngleSide), string(AngleTop), string(AngleDetail), string(AngleAction):
		return Angle(strings.ToLower(strings.TrimSpace(explicit)))
	default:
		return AngleNone
	}
}
