package keyboard

import (
	"errors"
	"fmt"
	"strings"
)

const (
	CallbackDataSeparator  = ":"
	CallbackDataLimitBytes = 64
)

// Callback uniques routed by the bot.
const (
	UniqueLocale         = "loc"
	UniqueCategory       = "cat"
	UniqueCenter         = "ctr"
	UniqueDepartment     = "dep"
	UniqueService        = "svc"
	UniqueBookMore       = "more"
	UniqueChangeCategory = "chg"
	UniquePage           = "pg"
)

var knownUniques = []string{
	UniqueLocale,
	UniqueCategory,
	UniqueCenter,
	UniqueDepartment,
	UniqueService,
	UniqueBookMore,
	UniqueChangeCategory,
	UniquePage,
}

// Uniques lists every callback unique the keyboards produce.
func Uniques() []string {
	return append([]string{}, knownUniques...)
}

// IsKnownUnique reports whether unique is one the keyboards produce.
func IsKnownUnique(unique string) bool {
	for _, known := range knownUniques {
		if known == unique {
			return true
		}
	}
	return false
}

// EncodeCallback joins unique and data into Telegram callback data.
func EncodeCallback(unique, data string) (string, error) {
	if data == "" {
		if len(unique) > CallbackDataLimitBytes {
			return "", fmt.Errorf("callback data exceeds %d byte limit: got %d", CallbackDataLimitBytes, len(unique))
		}
		return unique, nil
	}

	payload := unique + CallbackDataSeparator + data
	if len(payload) > CallbackDataLimitBytes {
		return "", fmt.Errorf("callback data exceeds %d byte limit: got %d", CallbackDataLimitBytes, len(payload))
	}

	return payload, nil
}

// DecodeCallback splits callback data at the first separator.
func DecodeCallback(callbackData string) (unique, data string, err error) {
	if callbackData == "" {
		return "", "", errors.New("callback data is empty")
	}

	// telebot prefixes data of buttons created with a Unique; tolerate it.
	callbackData = strings.TrimPrefix(callbackData, "\f")

	idx := strings.Index(callbackData, CallbackDataSeparator)
	if idx == -1 {
		return callbackData, "", nil
	}

	return callbackData[:idx], callbackData[idx+len(CallbackDataSeparator):], nil
}
