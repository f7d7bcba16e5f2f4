package utils

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"
)

// CourseCursor points at the last course of a page (created_at DESC, id DESC).
type CourseCursor struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
}

// FirstCourseCursor sorts after every real row in DESC order.
func FirstCourseCursor() CourseCursor {
	return CourseCursor{
		CreatedAt: time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC),
		ID:        "ffffffff-ffff-ffff-ffff-ffffffffffff",
	}
}

func EncodeCourseCursor(createdAt time.Time, id string) (string, error) {
	b, err := json.Marshal(CourseCursor{CreatedAt: createdAt, ID: id})
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeCourseCursor(cursor string) (CourseCursor, error) {
	if cursor == "" {
		return CourseCursor{}, errors.New("empty cursor")
	}

	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return CourseCursor{}, err
	}

	var c CourseCursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return CourseCursor{}, err
	}
	if !IsUUID(c.ID) || c.CreatedAt.IsZero() {
		return CourseCursor{}, errors.New("invalid cursor payload")
	}
	return c, nil
}
