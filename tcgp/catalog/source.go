package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Source fetches one rarity bucket of one generation. A bucket that does not
// exist upstream yields an empty list and a nil error; only transport and
// decode failures are errors.
type Source interface {
	Bucket(ctx context.Context, genID string, rarity Rarity) ([]Card, error)
}

// HTTPSource reads bucket files from a static file host laid out as
// {base}/data/{gen}/{rarity}.json.
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

func NewHTTPSource(baseURL string) *HTTPSource {
	return &HTTPSource{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *HTTPSource) Bucket(ctx context.Context, genID string, rarity Rarity) ([]Card, error) {
	url := fmt.Sprintf("%s/data/%s/%s.json", s.baseURL, genID, rarity)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build bucket request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bucket %s/%s: %w", genID, rarity, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bucket %s/%s: unexpected status %d", genID, rarity, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read bucket %s/%s: %w", genID, rarity, err)
	}

	return decodeBucket(body, genID, rarity)
}

func decodeBucket(data []byte, genID string, rarity Rarity) ([]Card, error) {
	var cards []Card
	if err := json.Unmarshal(data, &cards); err != nil {
		return nil, fmt.Errorf("failed to decode bucket %s/%s: %w", genID, rarity, err)
	}
	return cards, nil
}
