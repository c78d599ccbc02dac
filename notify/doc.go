// Package notify provides notification services for ticket lifecycle events.
//
// Core types:
//   - Notifier: Interface for sending notifications
//   - Event: Notification event with type, message, and metadata
//   - EventType: Type of event (run started, approval needed, etc.)
//
// Implementations:
//   - SlackNotifier: Sends notifications to Slack webhooks
//   - WebhookNotifier: Sends notifications to generic webhooks
//   - LogNotifier: Logs notifications (for testing/debugging)
//   - MultiNotifier: Combines multiple notifiers
//   - NopNotifier: No-op notifier (for testing)
//
// Example usage:
//
//	notifier := notify.NewSlackNotifier(webhookURL,
//	    notify.WithSlackChannel("#dev-alerts"),
//	    notify.WithSlackUsername("aura-bot"),
//	)
//	err := notifier.Notify(ctx, notify.Event{
//	    Type:     notify.EventTicketCompleted,
//	    TicketID: "tick-20260831-a1b2c3",
//	    Message:  "Ticket completed successfully",
//	})
package notify
