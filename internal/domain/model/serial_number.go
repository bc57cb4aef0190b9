package model

import (
	"fmt"
	"strings"
	"time"

	"serial-codegen/internal/domain"
)

// MaxCodeLength caps both generated and redeemed codes; matches the column width.
const MaxCodeLength = 64

// SerialStatus is the redemption state stored in serial_numbers.status.
type SerialStatus int

const (
	SerialUnused SerialStatus = 0
	SerialUsed   SerialStatus = 1
)

func (s SerialStatus) String() string {
	switch s {
	case SerialUnused:
		return "unused"
	case SerialUsed:
		return "used"
	default:
		return "unknown"
	}
}

// SerialNumber represents a single-use activation code row.
type SerialNumber struct {
	ID             int64
	SerialNumber   string
	Status         SerialStatus
	CreatedAt      time.Time
	UsedAt         *time.Time // Pointer to allow for NULL
	UsedByTestType *string
	UsedByTestID   *int64
	UsedByNickname *string
}

// IsUsed reports whether the code has already been redeemed.
func (s *SerialNumber) IsUsed() bool {
	return s.Status == SerialUsed
}

// Usage describes who consumed a code. All fields are optional.
type Usage struct {
	TestType string
	TestID   int64
	Nickname string
}

// MarkUsed flips the status and stamps the usage columns.
func (s *SerialNumber) MarkUsed(now time.Time, u Usage) {
	s.Status = SerialUsed
	s.UsedAt = &now
	if u.TestType != "" {
		tt := u.TestType
		s.UsedByTestType = &tt
	}
	if u.TestID != 0 {
		id := u.TestID
		s.UsedByTestID = &id
	}
	if u.Nickname != "" {
		nn := u.Nickname
		s.UsedByNickname = &nn
	}
}

// SerialStats mirrors the aggregate report query.
type SerialStats struct {
	Total  int
	Unused int
	Used   int
}

// NormalizeCode trims and upper-cases user input and checks it is a non-empty
// run of letters A-Z no longer than MaxCodeLength.
func NormalizeCode(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if c == "" {
		return "", fmt.Errorf("%w: empty code", domain.ErrInvalidArgument)
	}
	if len(c) > MaxCodeLength {
		return "", fmt.Errorf("%w: code longer than %d", domain.ErrInvalidArgument, MaxCodeLength)
	}
	for i := 0; i < len(c); i++ {
		if c[i] < 'A' || c[i] > 'Z' {
			return "", fmt.Errorf("%w: code must contain only letters", domain.ErrInvalidArgument)
		}
	}
	return c, nil
}
