// Package errors maps job and janitor failures onto a small set of metric tag values.
package errors

import (
	"context"
	goerrors "errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"

	"github.com/target/balancedesk/internal/domain/model"
)

// Error classes used as the error_class tag.
const (
	ClassParse       = "parse"
	ClassPersistence = "persistence"
	ClassTimeout     = "timeout"
	ClassCanceled    = "canceled"
	ClassPostgres    = "postgres"
	ClassRedis       = "redis"
)

// Classify names the kind of failure err represents. Known domain and
// infrastructure errors get a fixed class; anything else is tagged with the
// innermost error's type, e.g. "fs_patherror".
func Classify(err error) string {
	if err == nil {
		return ""
	}

	var (
		parseErr *model.ParseError
		persist  *model.PersistenceError
		pgErr    *pgconn.PgError
		redisErr redis.Error
	)
	switch {
	case goerrors.As(err, &parseErr):
		return ClassParse
	case goerrors.As(err, &persist):
		return ClassPersistence
	case goerrors.Is(err, context.DeadlineExceeded):
		return ClassTimeout
	case goerrors.Is(err, context.Canceled):
		return ClassCanceled
	case goerrors.As(err, &pgErr):
		return ClassPostgres
	case goerrors.As(err, &redisErr):
		return ClassRedis
	}

	for inner := goerrors.Unwrap(err); inner != nil; inner = goerrors.Unwrap(err) {
		err = inner
	}
	return typeClass(err)
}

func typeClass(err error) string {
	name := strings.TrimLeft(fmt.Sprintf("%T", err), "*")
	if name == "" {
		return "unknown"
	}
	return strings.ToLower(strings.ReplaceAll(name, ".", "_"))
}
