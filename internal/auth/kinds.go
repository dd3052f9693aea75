package auth

// FailureKind is a discriminated failure tag. Callers branch on the kind;
// the user-facing message is derived from it at the presentation boundary so
// control flow never depends on message text.
type FailureKind int

const (
	KindNone FailureKind = iota
	KindRateLimited
	KindInvalidCode
	KindExpired
	KindAlreadyUsed
	KindNotFound
	KindUnavailable
)

func (k FailureKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindRateLimited:
		return "rate_limited"
	case KindInvalidCode:
		return "invalid_code"
	case KindExpired:
		return "expired"
	case KindAlreadyUsed:
		return "already_used"
	case KindNotFound:
		return "not_found"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Message returns the German user-facing message for the kind. The generic
// invalid-code text deliberately does not reveal whether a code was ever
// issued for the address.
func (k FailureKind) Message() string {
	switch k {
	case KindRateLimited:
		return "Zu viele Anfragen. Bitte versuchen Sie es in einer Stunde erneut."
	case KindInvalidCode:
		return "Ungültiger Code. Bitte überprüfen Sie Ihre Eingabe."
	case KindExpired:
		return "Der Code ist abgelaufen. Bitte fordern Sie einen neuen Code an."
	case KindAlreadyUsed:
		return "Dieser Code wurde bereits verwendet. Bitte fordern Sie einen neuen Code an."
	case KindNotFound:
		return "Mitglied nicht gefunden."
	case KindUnavailable:
		return "Der Dienst ist derzeit nicht verfügbar. Bitte versuchen Sie es später erneut."
	default:
		return ""
	}
}
