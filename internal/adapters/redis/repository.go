package redis

import (
	"context"

	"github.com/kiryu-dev/scoreboard-sync/internal/domain"
	"github.com/kiryu-dev/scoreboard-sync/pkg/utils"
	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
)

const DefaultKey = "scoreboard:current_game"

type Options struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// repository stores the scoreboard as a JSON string under a single key.
type repository struct {
	rdb *goredis.Client
	key string
}

func New(ctx context.Context, opts Options) (*repository, error) {
	key := opts.Key
	if key == "" {
		key = DefaultKey
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.WithMessagef(err, "ping redis at '%s'", opts.Addr)
	}
	return &repository{rdb: rdb, key: key}, nil
}

func (r *repository) Load(ctx context.Context) (*domain.Scoreboard, error) {
	data, err := r.rdb.Get(ctx, r.key).Bytes()
	switch {
	case errors.Is(err, goredis.Nil):
		return nil, nil
	case err != nil:
		return nil, errors.WithMessagef(err, "get '%s'", r.key)
	}
	board, err := utils.UnmarshalJson[domain.Scoreboard](data)
	if err != nil {
		return nil, errors.WithMessage(err, "decode scoreboard")
	}
	return &board, nil
}

func (r *repository) Save(ctx context.Context, board domain.Scoreboard) error {
	data, err := utils.MarshalJson(board)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, r.key, data, 0).Err(); err != nil {
		return errors.WithMessagef(err, "set '%s'", r.key)
	}
	return nil
}

func (r *repository) Close() error {
	return r.rdb.Close()
}
