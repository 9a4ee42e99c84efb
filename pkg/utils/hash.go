package utils

import (
	"crypto/md5"
	"fmt"
	"strings"
	"time"
)

func HashString(input string) string {
	hash := md5.Sum([]byte(input))
	return fmt.Sprintf("%x", hash)
}

// TicketID derives a reference like TICKET-3F2A9C01 from the ticket text
// and the current time, so resubmitting the same text still gets a fresh ID.
func TicketID(subject, description string) string {
	seed := fmt.Sprintf("%s%s%d", subject, description, time.Now().UnixNano())
	return "TICKET-" + strings.ToUpper(HashString(seed)[:8])
}
