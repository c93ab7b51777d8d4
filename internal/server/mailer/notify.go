package mailer

import (
	"context"
	"fmt"
)

// Notifier renders the portal's messages on top of a Mailer.
type Notifier struct {
	m Mailer
}

func NewNotifier(m Mailer) *Notifier {
	return &Notifier{m: m}
}

// AccountCreated sends the initial credentials of an admin-created account.
func (n *Notifier) AccountCreated(ctx context.Context, email, password string) error {
	body := fmt.Sprintf("Hello,\n\nYour account has been created.\n\nEmail: %s\nPassword: %s\n\nPlease change your password after first login.\n", email, password)
	return n.m.Send(ctx, email, "Your Account Credentials", body)
}

// FileAwaitingReview tells a manager that a file was assigned to them.
func (n *Notifier) FileAwaitingReview(ctx context.Context, managerEmail, ownerEmail, filename string) error {
	body := fmt.Sprintf("Hello,\n\n%s uploaded %q and it is waiting for your review.\n", ownerEmail, filename)
	return n.m.Send(ctx, managerEmail, "File awaiting review", body)
}

// FileDecision tells the owner whether their file was approved or rejected.
func (n *Notifier) FileDecision(ctx context.Context, ownerEmail, filename, decision, reviewer string) error {
	body := fmt.Sprintf("Hello,\n\nYour file %q was %s by %s.\n", filename, decision, reviewer)
	return n.m.Send(ctx, ownerEmail, "File "+decision, body)
}
