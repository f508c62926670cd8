package ws

import (
	"context"
	"log"

	"github.com/zlnvch/cocreate/pubsub"
)

type broadcast struct {
	workspaceId string
	message     []byte
}

// Hub maintains the set of active clients per workspace and forwards
// workspace events from the broker to them.
type Hub struct {
	broker                      pubsub.Broker
	OpenCh                      chan *Client
	CloseCh                     chan *Client
	BroadcastCh                 chan broadcast
	workspaceToClients          map[string]map[*Client]struct{}
	workspaceToSubscriberCancel map[string]context.CancelFunc
}

func NewHub(broker pubsub.Broker) *Hub {
	return &Hub{
		broker:                      broker,
		OpenCh:                      make(chan *Client, 256),
		CloseCh:                     make(chan *Client, 256),
		BroadcastCh:                 make(chan broadcast, 1024),
		workspaceToClients:          make(map[string]map[*Client]struct{}),
		workspaceToSubscriberCancel: make(map[string]context.CancelFunc),
	}
}

const maxConnectionsPerWorkspace = 8

func (h *Hub) Run(shutdownCtx context.Context) {
	for {
		select {
		case client := <-h.OpenCh:
			workspaceId := client.workspaceId
			if len(h.workspaceToClients[workspaceId]) >= maxConnectionsPerWorkspace {
				log.Printf("Workspace %s reached max connections (%d)", workspaceId, maxConnectionsPerWorkspace)
				client.close()
				continue
			}

			if h.workspaceToClients[workspaceId] == nil {
				log.Printf("Subscriber does not exist, creating for workspace: %s", workspaceId)

				ctx, cancel := context.WithCancel(shutdownCtx)
				channel := pubsub.WorkspaceChannel(workspaceId)

				// The handler may run on any goroutine, so it only hands
				// the message back to this loop
				err := h.broker.Subscribe(ctx, channel, func(messageBytes []byte) {
					select {
					case h.BroadcastCh <- broadcast{workspaceId: workspaceId, message: messageBytes}:
					case <-ctx.Done():
					}
				})
				if err != nil {
					cancel()
					log.Printf("Failed to subscribe to channel %s: %v", channel, err)
					client.close()
					continue
				}

				h.workspaceToClients[workspaceId] = make(map[*Client]struct{})
				h.workspaceToSubscriberCancel[workspaceId] = cancel
			}
			h.workspaceToClients[workspaceId][client] = struct{}{}

		case client := <-h.CloseCh:
			clients, ok := h.workspaceToClients[client.workspaceId]
			if !ok {
				continue
			}
			if _, ok := clients[client]; !ok {
				continue
			}
			delete(clients, client)
			client.close()
			if len(clients) == 0 {
				// Nobody is drawing; the next client mounts a fresh surface anyway
				client.board.Unmount()
				if cancel, ok := h.workspaceToSubscriberCancel[client.workspaceId]; ok {
					cancel()
					delete(h.workspaceToSubscriberCancel, client.workspaceId)
				}
				delete(h.workspaceToClients, client.workspaceId)
			}

		case b := <-h.BroadcastCh:
			for client := range h.workspaceToClients[b.workspaceId] {
				if !client.trySend(b.message) {
					log.Printf("Dropping message for slow client in workspace %s", b.workspaceId)
				}
			}

		case <-shutdownCtx.Done():
			for workspaceId, cancel := range h.workspaceToSubscriberCancel {
				cancel()
				delete(h.workspaceToSubscriberCancel, workspaceId)
			}
			return
		}
	}
}
