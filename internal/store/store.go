// Package store is the data-access layer. Every function performs one
// operation against the database (a few documented ones run a short
// transaction) and publishes the resulting row change on the realtime hub.
package store

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"

	"projecthub-api/internal/database"
	"projecthub-api/internal/realtime"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrForbidden    = errors.New("not allowed")
	ErrConflict     = errors.New("record already exists")
	ErrInvalidState = errors.New("invalid state")
)

func db(ctx context.Context) *gorm.DB {
	return database.GetDB().WithContext(ctx)
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value") {
		return ErrConflict
	}
	return err
}

func publish(t realtime.EventType, table, id string, record any, columns map[string]string) {
	realtime.GetHub().Publish(realtime.NewChange(t, table, id, record, columns))
}

func newID() string {
	return uuid.NewString()
}

// newToken returns a URL-safe random token of n bytes of entropy.
func newToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
