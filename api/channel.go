package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/the-lightning-land/wifiiotd/channel"
	"golang.org/x/sync/errgroup"
)

const (
	maxArgumentsSize = 64 * 1024
	pongWait         = 60 * time.Second
	pingPeriod       = 54 * time.Second
	writeWait        = 10 * time.Second
)

// callRequest is a call sent over the websocket.
type callRequest struct {
	Id        string          `json:"id"`
	Method    string          `json:"method"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

func (a *Api) handlePostCall() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		method := vars["method"]

		body, err := io.ReadAll(io.LimitReader(r.Body, maxArgumentsSize))
		if err != nil {
			a.jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}

		res := a.dispatcher.Dispatch(r.Context(), channel.Call{
			Method:    method,
			Arguments: body,
		})

		code := http.StatusOK
		if res.NotImplemented {
			code = http.StatusNotImplemented
		}

		a.jsonResponse(w, res, code)
	}
}

// withId adds the request id to the response envelope.
func withId(id string, res channel.Response) (map[string]json.RawMessage, error) {
	payload, err := json.Marshal(res)
	if err != nil {
		return nil, err
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, err
	}

	rawId, err := json.Marshal(id)
	if err != nil {
		return nil, err
	}

	fields["id"] = rawId

	return fields, nil
}

func (a *Api) handleGetChannel() http.HandlerFunc {
	upgrader := &websocket.Upgrader{}

	return func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			a.log.Errorf("Could not upgrade channel: %v", err)
			return
		}

		defer c.Close()

		a.log.Infof("Opened channel for %v", r.RemoteAddr)

		g, ctx := errgroup.WithContext(context.Background())
		responses := make(chan map[string]json.RawMessage)
		calls := sync.WaitGroup{}

		respond := func(id string, res channel.Response) {
			fields, err := withId(id, res)
			if err != nil {
				a.log.Errorf("Could not encode response to %v: %v", id, err)
				return
			}

			select {
			case responses <- fields:
			case <-ctx.Done():
			}
		}

		// read pump
		g.Go(func() error {
			defer c.Close()

			c.SetReadLimit(maxArgumentsSize)
			c.SetReadDeadline(time.Now().Add(pongWait))
			c.SetPongHandler(func(string) error {
				c.SetReadDeadline(time.Now().Add(pongWait))
				return nil
			})

			for {
				_, message, err := c.ReadMessage()
				if err != nil {
					if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
						a.log.Errorf("unexpected websocket closure: %v", err)
					}
					return err
				}

				req := callRequest{}
				if err := json.Unmarshal(message, &req); err != nil {
					respond("", channel.Failed(channel.InvalidArguments, "Invalid request", err.Error()))
					continue
				}

				calls.Add(1)

				go func() {
					defer calls.Done()

					respond(req.Id, a.dispatcher.Dispatch(ctx, channel.Call{
						Method:    req.Method,
						Arguments: req.Arguments,
					}))
				}()
			}
		})

		// write pump
		g.Go(func() error {
			defer c.Close()

			ticker := time.NewTicker(pingPeriod)
			defer ticker.Stop()

			for {
				select {
				case fields := <-responses:
					c.SetWriteDeadline(time.Now().Add(writeWait))

					if err := c.WriteJSON(fields); err != nil {
						return err
					}
				case <-ticker.C:
					c.SetWriteDeadline(time.Now().Add(writeWait))

					if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
						return err
					}
				case <-ctx.Done():
					c.SetWriteDeadline(time.Now().Add(writeWait))
					c.WriteMessage(websocket.CloseMessage, []byte{})
					return nil
				}
			}
		})

		err = g.Wait()
		calls.Wait()

		a.log.Infof("Closed channel for %v: %v", r.RemoteAddr, err)
	}
}
