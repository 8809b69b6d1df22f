package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/clipforge/pipeline/internal/models"
)

// HTTP clients for the external transcription and detection services. The
// services own their model internals; this side only speaks their request
// and response shapes.

type httpTranscriber struct {
	url    string
	client *http.Client
}

func NewHTTPTranscriber(url string) TranscriptionProvider {
	return &httpTranscriber{
		url:    url,
		client: &http.Client{Timeout: 15 * time.Minute},
	}
}

type transcribeRequest struct {
	MediaURL string `json:"media_url"`
	Language string `json:"language,omitempty"`
}

type transcribeResponse struct {
	Language string        `json:"language"`
	Words    []models.Word `json:"words"`
}

func (t *httpTranscriber) Transcribe(ctx context.Context, mediaURL, language string) ([]models.Word, string, error) {
	var resp transcribeResponse
	if err := postJSON(ctx, t.client, t.url, transcribeRequest{MediaURL: mediaURL, Language: language}, &resp); err != nil {
		return nil, "", err
	}
	return resp.Words, resp.Language, nil
}

type httpDetector struct {
	url    string
	client *http.Client
}

func NewHTTPDetector(url string) MomentDetector {
	return &httpDetector{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Minute},
	}
}

type detectRequest struct {
	Words    []models.Word       `json:"words"`
	Language string              `json:"language,omitempty"`
	Settings models.ClipSettings `json:"settings"`
}

type detectResponse struct {
	Moments []*models.Moment `json:"moments"`
}

func (d *httpDetector) Detect(ctx context.Context, transcript *models.Transcript, settings models.ClipSettings) ([]*models.Moment, error) {
	var resp detectResponse
	req := detectRequest{Words: transcript.Words, Language: transcript.Language, Settings: settings}
	if err := postJSON(ctx, d.client, d.url, req, &resp); err != nil {
		return nil, err
	}
	return resp.Moments, nil
}

func postJSON(ctx context.Context, client *http.Client, url string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("provider returned status %d", resp.StatusCode)
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode provider response: %w", err)
	}
	return nil
}
