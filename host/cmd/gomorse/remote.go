package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"gomorse/core"
	"gomorse/host/board"
	"gomorse/host/serial"
	"gomorse/host/store"
)

var (
	sendMorse bool
	sendWait  bool
)

func connectBoard(ctx context.Context) (*board.Board, error) {
	cfg := serial.DefaultConfig(device)
	cfg.Baud = baud
	logger.Debug("connecting", "device", device, "baud", baud)
	b, err := board.Connect(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", device, err)
	}
	return b, nil
}

func newSendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send [text]",
		Short: "Transmit text on a gomorse board",
		RunE:  runSend,
	}
	addKeyerFlags(cmd)
	addSerialFlags(cmd)
	cmd.Flags().BoolVar(&sendMorse, "morse", false, "arguments are Morse, sent as given")
	cmd.Flags().BoolVar(&sendWait, "wait", true, "wait for the transmission to finish")
	return cmd
}

func runSend(cmd *cobra.Command, args []string) error {
	text, err := readText(cmd, args)
	if err != nil {
		return err
	}
	m, err := core.ParseEncodeMode(mode)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	b, err := connectBoard(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	if err := b.Configure(ctx, keyerOutputs()); err != nil {
		return err
	}
	if err := b.SetSpeed(ctx, wpm); err != nil {
		return err
	}
	if err := b.SetMode(ctx, m); err != nil {
		return err
	}

	var (
		tx    board.Transmission
		morse string
	)
	if sendMorse {
		morse = text
		tx, err = b.SendMorse(ctx, morse)
		text = core.MorseToText(morse)
	} else {
		tx, err = b.SendText(ctx, text)
		morse, _ = core.Encode(text, m)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", morse)
	logger.Info("transmitting", "length", tx.Length, "duration", tx.Duration)

	entry := store.Entry{
		At:        time.Now(),
		Direction: store.Sent,
		Text:      text,
		Morse:     morse,
		WPM:       wpm,
		Duration:  tx.Duration,
	}
	if !sendWait {
		record(cmd.Context(), entry)
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, tx.Duration+5*time.Second)
	defer cancel()
	aborted, err := b.WaitTransmitEnd(waitCtx)
	if errors.Is(err, context.Canceled) {
		// Interrupted: stop the board too
		abortCtx, cancelAbort := context.WithTimeout(cmd.Context(), time.Second)
		defer cancelAbort()
		if aerr := b.Abort(abortCtx); aerr != nil {
			logger.Warn("abort failed", "error", aerr)
		}
		aborted, err = true, nil
	}
	entry.Aborted = aborted
	record(cmd.Context(), entry)
	if err != nil {
		return err
	}
	if aborted {
		logger.Info("transmission aborted")
	}
	return nil
}

func newMonitorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Print messages decoded by a board from its key input",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			b, err := connectBoard(ctx)
			if err != nil {
				return err
			}
			defer b.Close()

			if err := b.SetSpeed(ctx, wpm); err != nil {
				return err
			}
			if err := b.ConfigureCapture(ctx, core.GPIOPin(inputPin)); err != nil {
				return err
			}
			logger.Info("monitoring", "pin", inputPin, "wpm", wpm)

			for {
				text, err := b.ReadDecoded(ctx)
				if errors.Is(err, context.Canceled) {
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), text)
				record(cmd.Context(), store.Entry{
					At:        time.Now(),
					Direction: store.Received,
					Text:      text,
					WPM:       wpm,
				})
			}
		},
	}
	addSerialFlags(cmd)
	cmd.Flags().IntVar(&wpm, "wpm", core.DefaultWPM, "expected sending speed")
	cmd.Flags().IntVar(&inputPin, "input-pin", defaultInputPin, "board key input pin")
	return cmd
}

func newDictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dict",
		Short: "Print a board's command dictionary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := connectBoard(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()

			dict := b.Dictionary()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "version: %s\n", dict.Version)
			fmt.Fprintf(out, "build:   %s\n", dict.BuildVersions)

			fmt.Fprintln(out, "\nconfig:")
			keys := make([]string, 0, len(dict.Config))
			for k := range dict.Config {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(out, "  %s = %s\n", k, dict.Config[k])
			}

			fmt.Fprintf(out, "\ncommands (%d):\n", len(dict.Commands))
			for _, name := range dict.CommandNames() {
				fmt.Fprintf(out, "  [%d] %s\n", dict.Commands[name], name)
			}
			fmt.Fprintf(out, "\nresponses (%d):\n", len(dict.Responses))
			for _, name := range dict.ResponseNames() {
				fmt.Fprintf(out, "  [%d] %s\n", dict.Responses[name], name)
			}
			return nil
		},
	}
	addSerialFlags(cmd)
	return cmd
}
