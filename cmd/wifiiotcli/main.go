package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/the-lightning-land/wifiiotd/channel"
	"github.com/urfave/cli/v2"
)

// These values are set at compile-time.
var (
	Version = ""
	Commit  = ""
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	cli.VersionPrinter = func(cCtx *cli.Context) {
		fmt.Fprintf(cCtx.App.Writer, "%s (%s)\n", Version, Commit)
	}

	return &cli.App{
		Name:                   "wifiiotcli",
		Usage:                  "Control wifiiotd over its method channel.",
		Version:                Version + " (" + Commit + ")",
		EnableBashCompletion:   true,
		UseShortOptionHandling: true,
		Suggest:                true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "host",
				Aliases: []string{"H"},
				EnvVars: []string{"WIFIIOTCLI_HOST"},
				Value:   "localhost:9080",
				Usage:   "Address of the wifiiotd api.",
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Aliases: []string{"t"},
				Value:   time.Minute,
				Usage:   "Give up waiting for wifiiotd after this long.",
			},
			&cli.BoolFlag{
				Name:    "websocket",
				Aliases: []string{"w"},
				Usage:   "Send calls over the websocket channel.",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "call",
				Usage:     "Call any method with JSON arguments.",
				ArgsUsage: "<method> [arguments]",
				Action: func(cCtx *cli.Context) error {
					if cCtx.NArg() < 1 {
						return errors.New("a method name is required")
					}

					var args interface{}
					if cCtx.NArg() > 1 {
						raw := json.RawMessage(cCtx.Args().Get(1))
						if !json.Valid(raw) {
							return errors.Errorf("arguments are not valid JSON: %v", cCtx.Args().Get(1))
						}
						args = raw
					}

					return call(cCtx, cCtx.Args().First(), args)
				},
			},
			{
				Name:      "connect",
				Usage:     "Join a WiFi network.",
				ArgsUsage: "<ssid>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "Passphrase of the network.",
					},
					&cli.StringFlag{
						Name:    "security",
						Aliases: []string{"s"},
						Usage:   "Security of the network, one of OPEN, WEP or WPA.",
					},
					&cli.BoolFlag{
						Name:    "join-once",
						Aliases: []string{"o"},
						Usage:   "Do not keep the network after this session.",
					},
				},
				Action: func(cCtx *cli.Context) error {
					if cCtx.NArg() != 1 {
						return errors.New("exactly one ssid is required")
					}

					args := map[string]interface{}{
						"ssid":      cCtx.Args().First(),
						"join_once": cCtx.Bool("join-once"),
					}

					if cCtx.IsSet("password") {
						args["password"] = cCtx.String("password")
					}

					if cCtx.IsSet("security") {
						args["security"] = cCtx.String("security")
					} else if cCtx.IsSet("password") {
						args["security"] = "WPA"
					}

					return call(cCtx, "connect", args)
				},
			},
			{
				Name:  "disconnect",
				Usage: "Leave the current WiFi network.",
				Action: func(cCtx *cli.Context) error {
					return call(cCtx, "disconnect", nil)
				},
			},
			{
				Name:  "history",
				Usage: "Show the most recent connect attempts.",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Value:   10,
						Usage:   "Number of attempts to show, 0 for all.",
					},
				},
				Action: func(cCtx *cli.Context) error {
					return call(cCtx, "getConnectHistory", map[string]interface{}{
						"limit": cCtx.Int("limit"),
					})
				},
			},
			{
				Name:  "status",
				Usage: "Show the status of wifiiotd.",
				Action: func(cCtx *cli.Context) error {
					ctx, cancel := context.WithTimeout(cCtx.Context, cCtx.Duration("timeout"))
					defer cancel()

					s, err := newClient(cCtx.String("host")).status(ctx)
					if err != nil {
						return err
					}

					if s.Connectivity != "ONLINE" {
						printWarn("wifiiotd is not associated with a network")
					}

					return printResult(s)
				},
			},
		},
	}
}

func call(cCtx *cli.Context, method string, args interface{}) error {
	ctx, cancel := context.WithTimeout(cCtx.Context, cCtx.Duration("timeout"))
	defer cancel()

	c := newClient(cCtx.String("host"))

	var (
		res channel.Response
		err error
	)

	if cCtx.Bool("websocket") {
		res, err = c.callOverChannel(ctx, method, args)
	} else {
		res, err = c.call(ctx, method, args)
	}
	if err != nil {
		return err
	}

	return printResponse(res)
}
