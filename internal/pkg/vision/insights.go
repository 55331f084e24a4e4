package vision

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"sort"
	"time"
)

// Insights is the normalized analysis attached to a photo.
type Insights struct {
	Tags              []string    `json:"tags"`
	Objects           []string    `json:"objects"`
	Categories        []string    `json:"categories"`
	DominantColors    []string    `json:"dominant_colors"`
	Caption           *string     `json:"caption"`
	CaptionConfidence *float64    `json:"caption_confidence"`
	Moderation        *Moderation `json:"moderation"`
	ModelVersion      *string     `json:"model_version"`
	AnalyzedAt        time.Time   `json:"analyzed_at"`
}

type Moderation struct {
	IsAdultContent *bool    `json:"is_adult_content"`
	IsRacyContent  *bool    `json:"is_racy_content"`
	IsGoryContent  *bool    `json:"is_gory_content"`
	AdultScore     *float64 `json:"adult_score"`
	RacyScore      *float64 `json:"racy_score"`
	GoreScore      *float64 `json:"gore_score"`
}

func (m *Moderation) empty() bool {
	return m.IsAdultContent == nil && m.IsRacyContent == nil && m.IsGoryContent == nil &&
		m.AdultScore == nil && m.RacyScore == nil && m.GoreScore == nil
}

// Value stores insights as JSONB.
func (i Insights) Value() (driver.Value, error) {
	return json.Marshal(i)
}

// Scan reads insights from a JSONB column.
func (i *Insights) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, i)
	case string:
		return json.Unmarshal([]byte(v), i)
	default:
		return errors.New("vision: unsupported insights column type")
	}
}

// analysis mirrors the parts of the analyze response that are used.
type analysis struct {
	Description struct {
		Tags     []string `json:"tags"`
		Captions []struct {
			Text       string  `json:"text"`
			Confidence float64 `json:"confidence"`
		} `json:"captions"`
	} `json:"description"`
	Tags []struct {
		Name string `json:"name"`
	} `json:"tags"`
	Objects []struct {
		Object string `json:"object"`
	} `json:"objects"`
	Categories []struct {
		Name string `json:"name"`
	} `json:"categories"`
	Color struct {
		DominantColors []string `json:"dominantColors"`
	} `json:"color"`
	Adult        *rawAdult `json:"adult"`
	ModelVersion *string   `json:"modelVersion"`
}

type rawAdult struct {
	IsAdultContent *bool    `json:"isAdultContent"`
	IsRacyContent  *bool    `json:"isRacyContent"`
	IsGoryContent  *bool    `json:"isGoryContent"`
	AdultScore     *float64 `json:"adultScore"`
	RacyScore      *float64 `json:"racyScore"`
	GoreScore      *float64 `json:"goreScore"`
}

// buildInsights normalizes a raw analysis. Tags are the sorted union of
// the tag list and the description tags.
func buildInsights(a *analysis, now time.Time) *Insights {
	tagSet := make(map[string]struct{})
	for _, t := range a.Tags {
		if t.Name != "" {
			tagSet[t.Name] = struct{}{}
		}
	}
	for _, t := range a.Description.Tags {
		if t != "" {
			tagSet[t] = struct{}{}
		}
	}
	tags := make([]string, 0, len(tagSet))
	for t := range tagSet {
		tags = append(tags, t)
	}
	sort.Strings(tags)

	objects := []string{}
	for _, o := range a.Objects {
		if o.Object != "" {
			objects = append(objects, o.Object)
		}
	}

	categories := []string{}
	for _, c := range a.Categories {
		if c.Name != "" {
			categories = append(categories, c.Name)
		}
	}

	colors := a.Color.DominantColors
	if colors == nil {
		colors = []string{}
	}

	insights := &Insights{
		Tags:           tags,
		Objects:        objects,
		Categories:     categories,
		DominantColors: colors,
		ModelVersion:   a.ModelVersion,
		AnalyzedAt:     now.UTC(),
	}

	if len(a.Description.Captions) > 0 {
		c := a.Description.Captions[0]
		text, confidence := c.Text, c.Confidence
		insights.Caption = &text
		insights.CaptionConfidence = &confidence
	}

	if a.Adult != nil {
		m := &Moderation{
			IsAdultContent: a.Adult.IsAdultContent,
			IsRacyContent:  a.Adult.IsRacyContent,
			IsGoryContent:  a.Adult.IsGoryContent,
			AdultScore:     a.Adult.AdultScore,
			RacyScore:      a.Adult.RacyScore,
			GoreScore:      a.Adult.GoreScore,
		}
		if !m.empty() {
			insights.Moderation = m
		}
	}

	return insights
}
