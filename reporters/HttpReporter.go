package reporters

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/reaandrew/secsweep/core"
	log "github.com/sirupsen/logrus"
)

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type DefaultHttpClient struct {
}

func (d DefaultHttpClient) Do(req *http.Request) (*http.Response, error) {
	return http.DefaultClient.Do(req)
}

func NewDefaultHttpReporter(baseUrl string) HttpReporter {
	return HttpReporter{
		BaseURL:    baseUrl,
		HTTPClient: DefaultHttpClient{},
	}
}

// HttpReporter pushes a run to a collection endpoint: one POST per
// finding batch, then a PATCH marking the run complete.
type HttpReporter struct {
	BaseURL    string
	HTTPClient HttpClient
}

func (h HttpReporter) Report(run *core.Run, repository core.FindingRepository) error {
	iterator := repository.NewIterator()
	for iterator.HasNext() {
		set, err := iterator.Next()
		if err != nil {
			return fmt.Errorf("failed to retrieve findings: %w", err)
		}
		if err := h.postFindings(run.ID, set); err != nil {
			return fmt.Errorf("failed to post findings: %w", err)
		}
	}

	if err := h.signalCompletion(run); err != nil {
		return fmt.Errorf("failed to signal completion: %w", err)
	}

	log.Infof("Run %s posted to %s", run.ID, h.BaseURL)
	return nil
}

func (h HttpReporter) postFindings(runID string, set core.FindingSet) error {
	url := fmt.Sprintf("%s/runs/%s/findings", h.BaseURL, runID)

	payload, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("failed to marshal findings: %w", err)
	}

	req, err := http.NewRequest("POST", url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected response status: %d", resp.StatusCode)
	}

	return nil
}

func (h HttpReporter) signalCompletion(run *core.Run) error {
	url := fmt.Sprintf("%s/runs/%s", h.BaseURL, run.ID)

	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	req, err := http.NewRequest("PATCH", url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected response status: %d", resp.StatusCode)
	}

	return nil
}
