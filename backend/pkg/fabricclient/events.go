package fabricclient

import (
	"context"
)

// Event is a chaincode event delivered after its transaction committed
type Event struct {
	Name        string
	TxID        string
	BlockNumber uint64
	Payload     []byte
}

// WatchEvents forwards chaincode events whose name matches filter, a
// regular expression, until ctx is done. An empty filter matches every
// event. The returned channel is closed once the registration is released.
func (c *Client) WatchEvents(ctx context.Context, filter string) (<-chan Event, error) {
	if filter == "" {
		filter = ".*"
	}
	contract, err := c.ensureConnection(ctx)
	if err != nil {
		return nil, opError("WatchEvents", "", err)
	}
	registration, notifier, err := contract.RegisterEvent(filter)
	if err != nil {
		return nil, opError("WatchEvents", "", err)
	}
	c.logger.Debug("registered for chaincode events", "filter", filter)

	events := make(chan Event)
	go func() {
		defer close(events)
		defer contract.Unregister(registration)
		for {
			select {
			case <-ctx.Done():
				return
			case ccEvent, ok := <-notifier:
				if !ok {
					return
				}
				event := Event{
					Name:        ccEvent.EventName,
					TxID:        ccEvent.TxID,
					BlockNumber: ccEvent.BlockNumber,
					Payload:     ccEvent.Payload,
				}
				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return events, nil
}
