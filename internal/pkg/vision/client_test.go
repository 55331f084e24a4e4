package vision

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const sampleAnalysis = `{
  "categories": [{"name": "outdoor_"}, {"name": ""}],
  "tags": [{"name": "sky"}, {"name": "sunset"}],
  "description": {
    "tags": ["sunset", "beach"],
    "captions": [{"text": "a sunset over the sea", "confidence": 0.91}]
  },
  "objects": [{"object": "boat"}],
  "color": {"dominantColors": ["Orange", "Blue"]},
  "adult": {"isAdultContent": false, "isRacyContent": false, "isGoryContent": false,
            "adultScore": 0.01, "racyScore": 0.02, "goreScore": 0.0},
  "modelVersion": "2021-05-01"
}`

func TestAnalyzeSendsRequestAndBuildsInsights(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/vision/v3.2/analyze" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.URL.Query().Get("visualFeatures") != "Description,Tags,Categories,Objects,Color,Adult" ||
			r.URL.Query().Get("language") != "en" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.Header.Get("Ocp-Apim-Subscription-Key") != "k" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, _ := io.ReadAll(r.Body)
		var payload map[string]string
		if err := json.Unmarshal(body, &payload); err != nil || payload["url"] != "https://cdn.test/p.jpg" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(sampleAnalysis))
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL+"/", "k", time.Second)
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	client.now = func() time.Time { return fixed }

	insights, err := client.Analyze(context.Background(), "https://cdn.test/p.jpg")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	wantTags := []string{"beach", "sky", "sunset"}
	if len(insights.Tags) != len(wantTags) {
		t.Fatalf("unexpected tags %v", insights.Tags)
	}
	for i, tag := range wantTags {
		if insights.Tags[i] != tag {
			t.Fatalf("unexpected tags %v", insights.Tags)
		}
	}
	if len(insights.Categories) != 1 || insights.Categories[0] != "outdoor_" {
		t.Fatalf("unexpected categories %v", insights.Categories)
	}
	if len(insights.Objects) != 1 || insights.Objects[0] != "boat" {
		t.Fatalf("unexpected objects %v", insights.Objects)
	}
	if insights.Caption == nil || *insights.Caption != "a sunset over the sea" || *insights.CaptionConfidence != 0.91 {
		t.Fatalf("unexpected caption %+v", insights)
	}
	if insights.Moderation == nil || *insights.Moderation.RacyScore != 0.02 {
		t.Fatalf("expected moderation block")
	}
	if insights.ModelVersion == nil || *insights.ModelVersion != "2021-05-01" || !insights.AnalyzedAt.Equal(fixed) {
		t.Fatalf("unexpected metadata %+v", insights)
	}
}

func TestAnalyzeFailureReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	if _, err := NewClient(server.URL, "k", time.Second).Analyze(context.Background(), "u"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNewClientDisabledWithoutCredentials(t *testing.T) {
	if NewClient("", "k", time.Second) != nil || NewClient("https://x", "", time.Second) != nil {
		t.Fatalf("expected nil client when not configured")
	}
}

func TestBuildInsightsDropsEmptyModeration(t *testing.T) {
	var a analysis
	if err := json.Unmarshal([]byte(`{"adult": {}}`), &a); err != nil {
		t.Fatal(err)
	}
	insights := buildInsights(&a, time.Now())
	if insights.Moderation != nil {
		t.Fatalf("expected nil moderation")
	}
	if insights.Caption != nil || len(insights.Tags) != 0 || insights.DominantColors == nil {
		t.Fatalf("unexpected insights %+v", insights)
	}
}

func TestInsightsScanRoundTrip(t *testing.T) {
	caption := "x"
	in := Insights{Tags: []string{"a"}, Caption: &caption}
	v, err := in.Value()
	if err != nil {
		t.Fatal(err)
	}
	var out Insights
	if err := out.Scan(v); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if out.Tags[0] != "a" || *out.Caption != "x" {
		t.Fatalf("unexpected %+v", out)
	}
}
