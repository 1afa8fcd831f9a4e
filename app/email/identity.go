package email

import (
	"strconv"
	"strings"
	"unicode/utf16"
)

// ContentID fingerprints raw content with a 31-multiplier rolling hash over
// UTF-16 code units, wrapped to int32 and rendered as zero-padded base36.
// Not collision resistant; only used for idempotent re-ingestion.
func ContentID(raw string) string {
	var hash int32
	for _, unit := range utf16.Encode([]rune(raw)) {
		hash = hash*31 + int32(unit)
	}

	v := int64(hash)
	if v < 0 {
		v = -v
	}

	id := strconv.FormatInt(v, 36)
	if len(id) < 8 {
		id = strings.Repeat("0", 8-len(id)) + id
	}
	return id
}
