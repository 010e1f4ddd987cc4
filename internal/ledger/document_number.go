package ledger

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// DocumentNumber formats PREFIX-YYYYMMDD-NNNN. Sequences above 9999 keep growing in width.
func DocumentNumber(prefix string, day time.Time, seq int) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, day.Format("20060102"), seq)
}

// SequenceScope is the per-day key a sequence counter is kept under, e.g. SL-20261018
func SequenceScope(prefix string, day time.Time) string {
	return prefix + "-" + day.Format("20060102")
}

var documentNumberPattern = regexp.MustCompile(`^([A-Z][A-Z0-9]*)-(\d{8})-(\d{4,})$`)

// ParseDocumentNumber splits a document number into prefix, day and sequence
func ParseDocumentNumber(number string, loc *time.Location) (prefix string, day time.Time, seq int, err error) {
	m := documentNumberPattern.FindStringSubmatch(number)
	if m == nil {
		return "", time.Time{}, 0, fmt.Errorf("malformed document number %q", number)
	}
	day, err = time.ParseInLocation("20060102", m[2], loc)
	if err != nil {
		return "", time.Time{}, 0, fmt.Errorf("malformed document date in %q: %w", number, err)
	}
	seq, err = strconv.Atoi(m[3])
	if err != nil {
		return "", time.Time{}, 0, err
	}
	return m[1], day, seq, nil
}
