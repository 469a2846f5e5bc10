package repository

import (
	"errors"

	"github.com/lib/pq"
)

// pgUniqueViolation - код ошибки PostgreSQL для нарушения уникального ограничения.
const pgUniqueViolation = "23505"

// isUniqueViolation проверяет, вызвана ли ошибка нарушением UNIQUE ограничения.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
}

// isUniqueViolationOn проверяет нарушение конкретного UNIQUE ограничения.
func isUniqueViolationOn(err error, constraint string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation && pqErr.Constraint == constraint
}
