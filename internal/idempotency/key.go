package idempotency

import (
	"strconv"
	"strings"
)

// Key identifies one Telegram update. Telegram repeats the update id on every redelivery.
type Key struct {
	ChatID   int64
	UpdateID int
}

// Valid reports whether the key can be tracked. Synthetic updates carry no update id.
func (k Key) Valid() bool {
	return k.UpdateID != 0
}

func (k Key) String() string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(k.ChatID, 10))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(k.UpdateID))
	return b.String()
}
