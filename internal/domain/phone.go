package domain

import "strings"

// NormalizePhone converts a raw phone number to E.164 (+<countrycode><digits>).
// Numbers without a leading + are assumed to be US/Canada 10-digit numbers, or
// 11-digit numbers with a leading 1, matching how invitations were matched in
// the mobile clients. Returns ErrInvalidInput for anything else.
func NormalizePhone(raw string) (string, error) {
	hasPlus := strings.HasPrefix(strings.TrimSpace(raw), "+")
	digits := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] >= '0' && raw[i] <= '9' {
			digits = append(digits, raw[i])
		}
	}
	if hasPlus {
		if len(digits) < 8 || len(digits) > 15 {
			return "", ErrInvalidInput
		}
		return "+" + string(digits), nil
	}
	switch len(digits) {
	case 10:
		return "+1" + string(digits), nil
	case 11:
		if digits[0] != '1' {
			return "", ErrInvalidInput
		}
		return "+" + string(digits), nil
	default:
		return "", ErrInvalidInput
	}
}
