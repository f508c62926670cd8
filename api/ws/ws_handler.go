package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/zlnvch/cocreate/canvas"
	"github.com/zlnvch/cocreate/service"
)

const Subprotocol = "cocreate-v1"

type Handler struct {
	Service *service.Service
	Hub     *Hub
}

func NewHandler(svc *service.Service, hub *Hub) *Handler {
	return &Handler{
		Service: svc,
		Hub:     hub,
	}
}

// NewWsUpgrader accepts any origin when allowedOrigin is empty.
func (h *Handler) NewWsUpgrader(allowedOrigin string) websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
		Subprotocols: []string{Subprotocol},
	}
}

// ServeWS handles websocket requests for the workspace named in the route.
func (h *Handler) ServeWS(wsUpgrader websocket.Upgrader, w http.ResponseWriter, r *http.Request, shutdownCtx context.Context) {
	if !slices.Contains(websocket.Subprotocols(r), Subprotocol) {
		http.Error(w, "unsupported subprotocol", http.StatusBadRequest)
		return
	}

	workspaceId := chi.URLParam(r, "ws")
	board, err := h.Service.Whiteboard(r.Context(), workspaceId)
	if err != nil {
		if errors.Is(err, service.ErrInvalidWorkspace) {
			http.Error(w, "invalid workspace id", http.StatusBadRequest)
			return
		}
		log.Printf("Failed to load workspace %s for ws: %v", workspaceId, err)
		http.Error(w, "failed to load workspace", http.StatusInternalServerError)
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade ws connection: %v", err)
		return
	}

	client := NewClient(h.Hub, conn, workspaceId, board, h.HandleWsMessage)

	h.Hub.OpenCh <- client

	// Start pumps
	go client.ReadPump()
	go client.WritePump(shutdownCtx)
}

// Websocket message structs
type message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type mountMessage struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type toolMessage struct {
	Tool string `json:"tool"`
}

type layerMessage struct {
	LayerId string `json:"layerId"`
}

type responseMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func (h *Handler) HandleWsMessage(client *Client, messageType int, messageBytes []byte) {
	var msg message
	if err := json.Unmarshal(messageBytes, &msg); err != nil {
		log.Printf("Invalid JSON: %v", err)
		return
	}

	board := client.Board()
	var resp responseMessage

	switch msg.Type {
	case "pointer_down", "pointer_move":
		var p canvas.Point
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			log.Printf("Invalid %s data: %v", msg.Type, err)
			return
		}
		if msg.Type == "pointer_down" {
			board.PointerDown(p)
		} else {
			board.PointerMove(p)
		}

	case "pointer_up":
		board.PointerUp()

	case "pointer_leave":
		board.PointerLeave()

	case "mount":
		var mountMsg mountMessage
		if err := json.Unmarshal(msg.Data, &mountMsg); err != nil {
			log.Printf("Invalid mount data: %v", err)
			return
		}
		resp = handleMount(board, mountMsg)

	case "select_tool":
		var toolMsg toolMessage
		if err := json.Unmarshal(msg.Data, &toolMsg); err != nil {
			log.Printf("Invalid select_tool data: %v", err)
			return
		}
		resp = handleSelectTool(board, toolMsg)

	case "clear":
		board.Clear()
		resp = responseMessage{Type: "clear_response", Data: map[string]any{"success": true}}

	case "add_layer":
		layer, err := board.AddLayer()
		if err != nil {
			resp = responseMessage{Type: "add_layer_response", Data: map[string]any{"success": false, "selectedLayer": board.SelectedLayer()}}
			break
		}
		resp = responseMessage{Type: "add_layer_response", Data: map[string]any{"success": true, "layer": layer, "selectedLayer": board.SelectedLayer()}}

	case "select_layer", "toggle_layer_visibility", "toggle_layer_lock":
		var layerMsg layerMessage
		if err := json.Unmarshal(msg.Data, &layerMsg); err != nil {
			log.Printf("Invalid %s data: %v", msg.Type, err)
			return
		}
		resp = handleLayer(board, msg.Type, layerMsg)

	default:
		log.Printf("Unknown message type: %v", msg.Type)
	}

	if resp.Type != "" {
		respBytes, err := json.Marshal(resp)
		if err != nil {
			log.Printf("Error marshaling response JSON: %v", err)
			return
		}
		client.trySend(respBytes)
	}
}

func handleMount(board *canvas.Board, mountMsg mountMessage) responseMessage {
	resp := responseMessage{
		Type: "mount_response",
	}

	if err := board.Mount(mountMsg.Width, mountMsg.Height); err != nil {
		log.Printf("Mount failed: %v", err)
		resp.Data = map[string]any{"success": false, "width": mountMsg.Width, "height": mountMsg.Height}
		return resp
	}

	resp.Data = map[string]any{
		"success":       true,
		"width":         mountMsg.Width,
		"height":        mountMsg.Height,
		"tool":          board.Tool(),
		"layers":        board.Layers(),
		"selectedLayer": board.SelectedLayer(),
	}
	return resp
}

func handleSelectTool(board *canvas.Board, toolMsg toolMessage) responseMessage {
	resp := responseMessage{
		Type: "select_tool_response",
	}

	tool, err := canvas.ParseTool(toolMsg.Tool)
	if err == nil {
		err = board.SelectTool(tool)
	}
	if err != nil {
		resp.Data = map[string]any{"success": false, "tool": toolMsg.Tool}
		return resp
	}

	resp.Data = map[string]any{"success": true, "tool": tool}
	return resp
}

func handleLayer(board *canvas.Board, messageType string, layerMsg layerMessage) responseMessage {
	resp := responseMessage{
		Type: messageType + "_response",
	}

	var err error
	data := map[string]any{"layerId": layerMsg.LayerId}
	switch messageType {
	case "select_layer":
		err = board.SelectLayer(layerMsg.LayerId)
	case "toggle_layer_visibility":
		data["layer"], err = board.ToggleVisibility(layerMsg.LayerId)
	case "toggle_layer_lock":
		data["layer"], err = board.ToggleLock(layerMsg.LayerId)
	}

	if err != nil {
		data = map[string]any{"layerId": layerMsg.LayerId}
	}
	data["success"] = err == nil
	data["selectedLayer"] = board.SelectedLayer()
	resp.Data = data
	return resp
}
