package client

import (
	"context"
	"fmt"
)

// Identity is what the chat transport knows about a user.
type Identity struct {
	UserID   int64
	Name     string
	Username string
	Phone    string
	Email    string
}

// Key derives the deterministic client key from the transport user id.
func (i Identity) Key() string {
	return fmt.Sprintf("tg_%d", i.UserID)
}

// DisplayName falls back to the username, then the key.
func (i Identity) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	if i.Username != "" {
		return i.Username
	}
	return i.Key()
}

// Record is a persisted client. ID is the record store handle.
type Record struct {
	ID               string
	Key              string
	Name             string
	Phone            string
	Email            string
	PreferredChannel string
}

type Repository interface {
	FindByKey(ctx context.Context, key string) (Record, bool, error)
	Create(ctx context.Context, rec Record) (Record, error)
}
