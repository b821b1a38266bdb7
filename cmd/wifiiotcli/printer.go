package main

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/the-lightning-land/wifiiotd/channel"
)

// printWarn prints a warning to the screen.
func printWarn(message string) {
	message = "[-] " + message

	color.New(color.FgYellow, color.Bold).Println(message)
}

// printError prints an error to the screen.
func printError(err error) {
	message := "[!] " + err.Error()

	color.New(color.FgRed, color.Bold).Println(message)
}

// printResult prints a result value as indented JSON.
func printResult(v interface{}) error {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	color.New(color.FgGreen).Println(string(payload))

	return nil
}

// printResponse prints whichever part of the envelope is set.
func printResponse(res channel.Response) error {
	switch {
	case res.NotImplemented:
		printWarn("method is not implemented")
	case res.Error != nil:
		message := fmt.Sprintf("%v: %v", res.Error.Code, res.Error.Message)
		if res.Error.Details != "" {
			message += " (" + res.Error.Details + ")"
		}
		color.New(color.FgRed, color.Bold).Println("[!] " + message)
	default:
		return printResult(res.Result)
	}

	return nil
}
