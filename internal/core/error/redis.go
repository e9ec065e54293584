package errx

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
)

// WrapRedis maps session store errors from Redis to AppError.
// A missing key surfaces as ErrSessionNotFound and an aborted
// WATCH transaction as ErrVersionConflict.
func WrapRedis(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrSessionNotFound):
		return New(err, http.StatusNotFound, ErrSessionNotFound.Error())
	case errors.Is(err, redis.Nil):
		return New(fmt.Errorf("%w: %w", ErrSessionNotFound, err), http.StatusNotFound, ErrSessionNotFound.Error())
	case errors.Is(err, ErrVersionConflict):
		return New(err, http.StatusConflict, ErrVersionConflict.Error())
	case errors.Is(err, redis.TxFailedErr):
		return New(fmt.Errorf("%w: %w", ErrVersionConflict, err), http.StatusConflict, ErrVersionConflict.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return New(err, http.StatusGatewayTimeout, RedisErrorMessage)
	}

	return New(err, http.StatusBadGateway, RedisErrorMessage)
}
