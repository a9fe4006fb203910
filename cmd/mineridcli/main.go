// Package main is the operator CLI for the miner info funding files. It works on the data
// folder directly, so it must not run while the daemon holds the same funding files.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	safeconversion "github.com/bsv-blockchain/go-safe-conversion"
	"github.com/bsv-blockchain/minerid/errors"
	"github.com/bsv-blockchain/minerid/services/minerid"
	"github.com/bsv-blockchain/minerid/settings"
	"github.com/bsv-blockchain/minerid/stores/funding"
	"github.com/bsv-blockchain/minerid/ulogger"
	jsoniter "github.com/json-iterator/go"
	"github.com/urfave/cli/v2"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	tSettings := settings.NewSettings()
	logger := ulogger.New("mineridcli", ulogger.WithLevel(tSettings.LogLevel))

	if err := newApp(logger, tSettings, os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(logger ulogger.Logger, tSettings *settings.Settings, out io.Writer) *cli.App {
	// chain state, mempool and broadcaster are not needed for the funding commands
	service := minerid.New(logger, tSettings, nil, nil, nil, funding.New(logger, tSettings))

	return &cli.App{
		Name:      "mineridcli",
		Usage:     "Manage the miner info transaction funding key and seed",
		Writer:    out,
		ErrWriter: out,
		Commands: []*cli.Command{
			{
				Name:  "makekey",
				Usage: "Create the funding key and a seed file holding its address",
				Action: func(c *cli.Context) error {
					if err := service.MakeSigningKey(c.Context); err != nil {
						return err
					}

					return printAddress(c.Context, service, out)
				},
			},
			{
				Name:  "address",
				Usage: "Print the address that funds the first miner info transaction",
				Action: func(c *cli.Context) error {
					return printAddress(c.Context, service, out)
				},
			},
			{
				Name:  "setoutpoint",
				Usage: "Record the coin funding the first miner info transaction",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "txid",
						Usage:    "Id of the transaction paying the funding address",
						Required: true,
					},
					&cli.UintFlag{
						Name:     "n",
						Usage:    "Output index paying the funding address",
						Required: true,
					},
				},
				Action: func(c *cli.Context) error {
					n, err := safeconversion.IntToUint32(int(c.Uint("n")))
					if err != nil {
						return errors.NewInvalidArgumentError("n must be between 0 and %d (not %d)", ^uint32(0), c.Uint("n"))
					}

					if err = service.SetFundingOutpoint(c.Context, c.String("txid"), n); err != nil {
						return err
					}

					_, err = fmt.Fprintf(out, "%s:%d\n", c.String("txid"), n)

					return err
				},
			},
			{
				Name:  "decode",
				Usage: "Decode the miner info document carried by an output script",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "script",
						Usage:    "Hex encoded output script",
						Required: true,
					},
				},
				Action: func(c *cli.Context) error {
					scriptBytes, err := hex.DecodeString(c.String("script"))
					if err != nil {
						return errors.NewInvalidArgumentError("script must be hexadecimal", err)
					}

					doc, err := minerid.ExtractDocument(scriptBytes)
					if err != nil {
						return err
					}

					b, err := json.MarshalIndent(doc, "", "  ")
					if err != nil {
						return errors.NewProcessingError("could not encode document", err)
					}

					_, err = fmt.Fprintln(out, string(b))

					return err
				},
			},
		},
	}
}

func printAddress(ctx context.Context, service *minerid.Service, out io.Writer) error {
	address, err := service.FundingAddress(ctx)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, address)

	return err
}
