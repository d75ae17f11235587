package pushnotification

import (
	"context"
	"fmt"
	"log/slog"

	"boardd/internal/eventbus"
)

// Dispatcher turns board events into push notifications. Only assignment
// style events notify; pure bookkeeping events (registry recompute, task
// deletion) stay quiet.
type Dispatcher struct {
	bus    *eventbus.Bus
	sender *Sender
}

func NewDispatcher(bus *eventbus.Bus, sender *Sender) *Dispatcher {
	return &Dispatcher{
		bus:    bus,
		sender: sender,
	}
}

func (d *Dispatcher) Run(ctx context.Context) error {
	id, ch := d.bus.Subscribe(64)
	defer d.bus.Unsubscribe(id)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-ch:
			if !ok {
				return nil
			}
			if payload := d.payloadFor(event); payload != nil {
				d.sender.SendToAll(ctx, payload)
			}
		}
	}
}

func (d *Dispatcher) payloadFor(event *eventbus.Event) *NotificationPayload {
	switch event.Type {
	case eventbus.EventOwnerAssigned:
		return &NotificationPayload{
			Title: "Task assigned",
			Body:  fmt.Sprintf("%s was assigned to a task", event.Metadata["owner"]),
			URL:   "/tasks/" + event.ResourceID,
			Tag:   "owner-assigned",
		}
	case eventbus.EventOwnershipTransferred:
		return &NotificationPayload{
			Title: "Task ownership transferred",
			Body:  fmt.Sprintf("Ownership moved to %s", event.Metadata["owner"]),
			URL:   "/tasks/" + event.ResourceID,
			Tag:   "owner-transferred",
		}
	case eventbus.EventOwnersBulkAssigned:
		return &NotificationPayload{
			Title: "Bulk assignment",
			Body:  fmt.Sprintf("%s was assigned to %s tasks", event.ResourceID, event.Metadata["tasks_updated"]),
			Tag:   "owner-bulk-assigned",
		}
	default:
		slog.Debug("push notification: ignoring event", "type", string(event.Type))
		return nil
	}
}
