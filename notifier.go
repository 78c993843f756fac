package accounts

import (
	"context"
	"fmt"
)

// NotificationGateway delivers verification codes and reset links. Delivery
// happens after the owning transaction commits; a failed send is logged but
// never reverts an applied mutation.
type NotificationGateway interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NotificationGatewayFunc adapts a function to the NotificationGateway
// interface.
type NotificationGatewayFunc func(ctx context.Context, to, subject, body string) error

// Send implements NotificationGateway.
func (f NotificationGatewayFunc) Send(ctx context.Context, to, subject, body string) error {
	if f == nil {
		return nil
	}
	return f(ctx, to, subject, body)
}

type noopNotificationGateway struct{}

func (noopNotificationGateway) Send(context.Context, string, string, string) error {
	return nil
}

func normalizeNotificationGateway(g NotificationGateway) NotificationGateway {
	if g == nil {
		return noopNotificationGateway{}
	}
	return g
}

// dispatchNotification sends best-effort. Call sites pass the logger of the
// owning handler so failures surface in its log stream.
func dispatchNotification(ctx context.Context, gateway NotificationGateway, logger Logger, to, subject, body string) {
	if err := normalizeNotificationGateway(gateway).Send(ctx, to, subject, body); err != nil {
		normalizeLogger(logger).Warn("notification delivery failed to %s: %v", to, err)
	}
}

func verificationMessage(code string) (subject, body string) {
	subject = "Verify Your Email"
	body = fmt.Sprintf("<p>Your verification code is: <strong>%s</strong></p>", code)
	return subject, body
}

func resetMessage(link string) (subject, body string) {
	subject = "Password Reset Request"
	body = fmt.Sprintf("<p>Click <a href='%s'>here</a> to reset your password.</p>", link)
	return subject, body
}
