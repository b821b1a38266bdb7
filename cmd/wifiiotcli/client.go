package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/the-lightning-land/wifiiotd/channel"
)

type client struct {
	base string
	http *http.Client
}

func newClient(host string) *client {
	base := host
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}

	return &client{
		base: strings.TrimSuffix(base, "/"),
		http: http.DefaultClient,
	}
}

// call posts the arguments to the method channel and decodes its envelope.
func (c *client) call(ctx context.Context, method string, args interface{}) (channel.Response, error) {
	res := channel.Response{}

	body := []byte{}
	if args != nil {
		payload, err := json.Marshal(args)
		if err != nil {
			return res, errors.Wrap(err, "could not encode arguments")
		}
		body = payload
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.base+"/api/v1/channel/"+url.PathEscape(method), bytes.NewReader(body))
	if err != nil {
		return res, errors.Wrap(err, "could not create request")
	}

	req.Header.Set("Content-Type", "application/json")

	httpRes, err := c.http.Do(req)
	if err != nil {
		return res, errors.Wrap(err, "could not reach wifiiotd")
	}
	defer httpRes.Body.Close()

	if err := json.NewDecoder(httpRes.Body).Decode(&res); err != nil {
		return res, errors.Wrapf(err, "could not decode response with status %v", httpRes.StatusCode)
	}

	return res, nil
}

type status struct {
	Version      string   `json:"version"`
	Connectivity string   `json:"connectivity"`
	Methods      []string `json:"methods"`
}

func (c *client) status(ctx context.Context) (*status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/v1/status", nil)
	if err != nil {
		return nil, errors.Wrap(err, "could not create request")
	}

	httpRes, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "could not reach wifiiotd")
	}
	defer httpRes.Body.Close()

	if httpRes.StatusCode != http.StatusOK {
		return nil, errors.Errorf("unexpected status %v", httpRes.Status)
	}

	s := &status{}
	if err := json.NewDecoder(httpRes.Body).Decode(s); err != nil {
		return nil, errors.Wrap(err, "could not decode status")
	}

	return s, nil
}

type wsRequest struct {
	Id        string          `json:"id"`
	Method    string          `json:"method"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// callOverChannel sends the call over the websocket channel and waits for
// the response carrying its id.
func (c *client) callOverChannel(ctx context.Context, method string, args interface{}) (channel.Response, error) {
	res := channel.Response{}

	req := &wsRequest{Id: uuid.New().String(), Method: method}
	if args != nil {
		payload, err := json.Marshal(args)
		if err != nil {
			return res, errors.Wrap(err, "could not encode arguments")
		}
		req.Arguments = payload
	}

	wsURL := "ws" + strings.TrimPrefix(c.base, "http") + "/api/v1/channel"

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return res, errors.Wrap(err, "could not open channel")
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
	}

	if err := conn.WriteJSON(req); err != nil {
		return res, errors.Wrap(err, "could not send call")
	}

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return res, errors.Wrap(err, "could not read response")
		}

		var id struct {
			Id string `json:"id"`
		}
		if err := json.Unmarshal(message, &id); err != nil {
			return res, errors.Wrap(err, "could not decode response")
		}

		if id.Id != req.Id {
			continue
		}

		if err := json.Unmarshal(message, &res); err != nil {
			return res, errors.Wrap(err, "could not decode response")
		}

		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))

		return res, nil
	}
}
