package pubsub

import "context"

// Broker fans workspace events out to their subscribers: the websocket hub
// of the one server holding the instance lease, and with the Redis broker
// any outside process listening on the channel.
type Broker interface {
	Publish(ctx context.Context, channel string, message []byte) error
	// Subscribe delivers messages to handler until ctx is done.
	Subscribe(ctx context.Context, channel string, handler func(message []byte)) error
}

func WorkspaceChannel(workspaceId string) string {
	return "workspace:" + workspaceId
}
