package websocket

import (
	"context"
	"encoding/json"
	"regexp"

	"github.com/sirupsen/logrus"
	"github.com/zishang520/engine.io/v2/types"
	socketio "github.com/zishang520/socket.io/v2/socket"

	"workspace-collab/collab"
)

// TokenRegistrar is implemented by resolvers that authenticate connections
// from handshake tokens.
type TokenRegistrar interface {
	Register(connectionID, token string)
	Forget(connectionID string)
}

// socketConn adapts a socket.io socket to the hub's connection interface.
type socketConn struct {
	socket *socketio.Socket
}

func (c *socketConn) ID() string { return string(c.socket.Id()) }

func (c *socketConn) Emit(event string, payload any) error {
	return c.socket.Emit(event, payload)
}

// SetupSocketIO wires the collaboration event protocol onto a socket.io
// server. Malformed events are dropped with a warning; they never crash the
// connection or affect other rooms.
func SetupSocketIO(hub *collab.Hub, tokens TokenRegistrar) *socketio.Server {
	opts := socketio.DefaultServerOptions()
	opts.SetMaxHttpBufferSize(5000000)
	opts.SetPath("/socket.io")
	opts.SetAllowEIO3(true)
	localhostOrigin := regexp.MustCompile(`^https?://(localhost|127\.0\.0\.1|\[::1\])(:\d+)?$`)
	opts.SetCors(&types.Cors{
		Origin:      []any{localhostOrigin},
		Credentials: true,
	})
	srv := socketio.NewServer(nil, opts)

	//nolint:errcheck // Socket.IO event handlers do not return useful errors
	srv.On("connection", func(clients ...any) {
		socket, ok := clients[0].(*socketio.Socket)
		if !ok {
			return
		}

		conn := &socketConn{socket: socket}
		connID := conn.ID()
		log := logrus.WithField("connection_id", connID)
		log.Debug("connection established")

		if tokens != nil {
			if auth, ok := socket.Handshake().Auth.(map[string]any); ok {
				if token, ok := auth["token"].(string); ok {
					tokens.Register(connID, token)
				}
			}
		}

		//nolint:errcheck // Socket.IO event handlers do not return useful errors
		socket.On("join", func(datas ...any) {
			fields := eventFields(datas)
			documentID, _ := fields["documentId"].(string)
			if err := hub.Join(context.Background(), conn, documentID); err != nil {
				log.WithError(err).Warn("join dropped")
			}
		})

		//nolint:errcheck // Socket.IO event handlers do not return useful errors
		socket.On("announce", func(datas ...any) {
			fields := eventFields(datas)
			userID, _ := fields["userId"].(string)
			displayName, _ := fields["displayName"].(string)
			avatarRef, _ := fields["avatarRef"].(string)
			if err := hub.Announce(context.Background(), connID, userID, displayName, avatarRef); err != nil {
				log.WithError(err).Warn("announce dropped")
			}
		})

		//nolint:errcheck // Socket.IO event handlers do not return useful errors
		socket.On("delta", func(datas ...any) {
			fields := eventFields(datas)
			documentID, _ := fields["documentId"].(string)
			if err := hub.Delta(connID, documentID, fields["payload"], contentBytes(fields["content"])); err != nil {
				log.WithError(err).Warn("delta dropped")
			}
		})

		//nolint:errcheck // Socket.IO event handlers do not return useful errors
		socket.On("cursor", func(datas ...any) {
			fields := eventFields(datas)
			documentID, _ := fields["documentId"].(string)
			participantID, _ := fields["participantId"].(string)
			if err := hub.Cursor(connID, documentID, participantID, fields["range"]); err != nil {
				log.WithError(err).Warn("cursor dropped")
			}
		})

		socket.On("leave", func(datas ...any) {
			hub.Disconnect(connID)
		})

		socket.On("disconnecting", func(datas ...any) {
			log.Debug("connection disconnecting")
			hub.Disconnect(connID)
			if tokens != nil {
				tokens.Forget(connID)
			}
		})

		socket.On("disconnect", func(datas ...any) {
			socket.RemoveAllListeners("")
		})
	})

	return srv
}

// eventFields extracts the event's single object argument. Anything else
// yields an empty map, which downstream dispatch rejects as malformed.
func eventFields(datas []any) map[string]any {
	if len(datas) == 0 {
		return map[string]any{}
	}
	if fields, ok := datas[0].(map[string]any); ok {
		return fields
	}
	return map[string]any{}
}

// contentBytes normalizes the optional full-content field of a delta event.
// Editors send the serialized snapshot as a string; structured values are
// re-serialized so the store always receives bytes.
func contentBytes(v any) []byte {
	switch content := v.(type) {
	case nil:
		return nil
	case string:
		return []byte(content)
	case []byte:
		return content
	default:
		raw, err := json.Marshal(content)
		if err != nil {
			return nil
		}
		return raw
	}
}
