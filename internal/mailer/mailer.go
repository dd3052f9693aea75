package mailer

import (
	"context"
	"fmt"
)

// Mailer sends transactional mail. Sends are fire-and-forget from the
// caller's point of view: failures are logged at the call site and never
// surfaced to the requester.
type Mailer interface {
	SendLoginCode(ctx context.Context, to, code string) error
	SendModerationAlert(ctx context.Context, to, subject, body string) error
}

// loginCodeSubject and body are German; the portal's audience is German
// businesses.
const loginCodeSubject = "Ihr Login-Code"

func loginCodeBody(code string) string {
	return fmt.Sprintf(`<p>Guten Tag,</p>
<p>Ihr Login-Code lautet:</p>
<p style="font-size:24px;font-weight:bold;letter-spacing:4px;">%s</p>
<p>Der Code ist 10 Minuten gültig und kann nur einmal verwendet werden.</p>
<p>Falls Sie diesen Code nicht angefordert haben, können Sie diese E-Mail ignorieren.</p>`, code)
}
