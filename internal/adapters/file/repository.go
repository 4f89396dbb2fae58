package file

import (
	"context"
	"os"
	"path/filepath"

	"github.com/kiryu-dev/scoreboard-sync/internal/domain"
	"github.com/kiryu-dev/scoreboard-sync/pkg/utils"
	"github.com/pkg/errors"
)

const DefaultPath = "./data/current_game.json"

// repository stores the scoreboard as pretty printed JSON. Writes go to a temporary file that is
// renamed over the target so readers never see a partial record.
type repository struct {
	path string
}

func New(path string) repository {
	if path == "" {
		path = DefaultPath
	}
	return repository{path: path}
}

func (r repository) Load(_ context.Context) (*domain.Scoreboard, error) {
	data, err := os.ReadFile(r.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, nil
	case err != nil:
		return nil, errors.WithMessagef(err, "read '%s'", r.path)
	}
	board, err := utils.UnmarshalJson[domain.Scoreboard](data)
	if err != nil {
		return nil, errors.WithMessagef(err, "parse '%s'", r.path)
	}
	return &board, nil
}

func (r repository) Save(ctx context.Context, board domain.Scoreboard) error {
	data, err := utils.MarshalIndentJson(board)
	if err != nil {
		return err
	}
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.WithMessagef(err, "create directory '%s'", dir)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return errors.WithMessage(err, "create temp file")
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.WithMessage(err, "write temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.WithMessage(err, "close temp file")
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return errors.WithMessagef(err, "replace '%s'", r.path)
	}
	return nil
}
