package validators

import (
	"regexp"
	"strings"
)

// Brazilian numbers in E.164 without the plus sign: 55 + DDD + 8 or 9 digits.
var phonePattern = regexp.MustCompile(`^55\d{10,11}$`)

func IsPhoneValid(phone string) bool {
	return phonePattern.MatchString(phone)
}

// NormalizePhone strips formatting characters commonly typed by clients.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
