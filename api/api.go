package api

import (
	"context"
	"net"
	"net/http"

	"github.com/go-errors/errors"
	"github.com/gorilla/mux"
	"github.com/the-lightning-land/wifiiotd/channel"
	"github.com/the-lightning-land/wifiiotd/connectivity"
)

// Dispatcher answers method channel calls.
type Dispatcher interface {
	Dispatch(ctx context.Context, call channel.Call) channel.Response
	Methods() []string
}

type Config struct {
	Dispatcher Dispatcher
	Reporter   connectivity.Reporter
	Version    string
	Log        Logger
}

type Api struct {
	dispatcher Dispatcher
	reporter   connectivity.Reporter
	version    string
	router     *mux.Router
	server     *http.Server
	log        Logger
}

func New(config *Config) *Api {
	api := &Api{
		dispatcher: config.Dispatcher,
		reporter:   config.Reporter,
		version:    config.Version,
		router:     mux.NewRouter(),
	}

	if config.Log != nil {
		api.log = config.Log
	} else {
		api.log = noopLogger{}
	}

	api.router.Handle("/api/v1/status", api.handleGetStatus()).Methods(http.MethodGet)

	api.router.Handle("/api/v1/channel", api.handleGetChannel()).Methods(http.MethodGet)
	api.router.Handle("/api/v1/channel/{method}", api.handlePostCall()).Methods(http.MethodPost)

	api.server = &http.Server{Handler: api.router}

	return api
}

// Handler exposes the routes, e.g. to mount them elsewhere.
func (a *Api) Handler() http.Handler {
	return a.router
}

func (a *Api) Serve(l net.Listener) error {
	err := a.server.Serve(l)
	if err != nil && err != http.ErrServerClosed {
		return errors.Errorf("Unable to serve api: %v", err)
	}

	return nil
}

// Shutdown stops accepting requests and waits for running ones.
func (a *Api) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	if err != nil {
		return errors.Errorf("Unable to shut down api: %v", err)
	}

	return nil
}
