package service

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ping-backend/internal/domain"
)

// encodeCursor serializes a pagination position as an opaque token. The
// position is the (created_at, id) pair of the last message of a page, which
// totally orders messages even when timestamps collide.
func encodeCursor(p domain.MessagePosition) string {
	raw := fmt.Sprintf("%d:%d", p.CreatedAt.UTC().UnixNano(), p.ID)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// decodeCursor parses a token produced by encodeCursor.
func decodeCursor(cursor string) (*domain.MessagePosition, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	parts := strings.SplitN(string(raw), ":", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("malformed cursor")
	}
	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed cursor timestamp: %w", err)
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed cursor id: %w", err)
	}
	return &domain.MessagePosition{CreatedAt: time.Unix(0, nanos).UTC(), ID: id}, nil
}
