package webapi

import (
	"bytes"
	"context"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/kiryu-dev/scoreboard-sync/internal/domain"
	"github.com/pkg/errors"
)

const defaultClientTimeout = 5 * time.Second

// repository keeps the scoreboard on a remote HTTP endpoint: GET returns the stored record (404
// when there is none) and POST replaces it.
type repository struct {
	cli *http.Client
	url string
}

func New(url string, timeout time.Duration) repository {
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}
	return repository{
		cli: &http.Client{Timeout: timeout},
		url: url,
	}
}

func (r repository) Load(ctx context.Context) (*domain.Scoreboard, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, errors.WithMessage(err, "new get request")
	}
	resp, err := r.cli.Do(request)
	if err != nil {
		return nil, errors.WithMessagef(err, "call http endpoint '%s'", r.url)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusNoContent:
		return nil, nil
	default:
		return nil, errors.Errorf("unexpected response status '%s'", resp.Status)
	}
	result := new(domain.Scoreboard)
	if err := jsoniter.NewDecoder(resp.Body).Decode(result); err != nil {
		return nil, errors.WithMessage(err, "decode json response body")
	}
	return result, nil
}

func (r repository) Save(ctx context.Context, board domain.Scoreboard) error {
	body, err := jsoniter.Marshal(board)
	if err != nil {
		return errors.WithMessage(err, "marshal json body")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return errors.WithMessage(err, "new post request")
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.cli.Do(req)
	if err != nil {
		return errors.WithMessagef(err, "call http endpoint '%s'", r.url)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return errors.Errorf("unexpected response status '%s'", resp.Status)
	}
	return nil
}
