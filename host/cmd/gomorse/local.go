package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"gomorse/core"
	"gomorse/host/audio"
	"gomorse/host/console"
	"gomorse/host/rpi"
	"gomorse/host/store"
)

func newEncodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode [text]",
		Short: "Convert text to Morse",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(cmd, args)
			if err != nil {
				return err
			}
			m, err := core.ParseEncodeMode(mode)
			if err != nil {
				return err
			}
			morse, err := core.Encode(text, m)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), morse)
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "strict", "encoding mode: strict or lenient")
	return cmd
}

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode [morse]",
		Short: "Convert Morse to text",
		Long:  "Letters are separated by spaces and words by \" / \". Unknown codes decode as '?'.",
		RunE: func(cmd *cobra.Command, args []string) error {
			morse, err := readText(cmd, args)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), core.MorseToText(morse))
			return nil
		},
	}
}

func newTimingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timing [text]",
		Short: "Show element durations, and the length of a message",
		Long:  "The message is taken from the arguments or from piped stdin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			timing, err := core.NewTiming(wpm)
			if err != nil {
				return fmt.Errorf("--wpm %d: %w", wpm, err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "wpm        %d\n", timing.WPM)
			fmt.Fprintf(out, "dot        %v\n", timing.Dot)
			fmt.Fprintf(out, "dash       %v\n", timing.Dash)
			fmt.Fprintf(out, "symbol gap %v\n", timing.SymbolGap)
			fmt.Fprintf(out, "letter gap %v\n", timing.LetterGap)
			fmt.Fprintf(out, "word gap   %v\n", timing.WordGap)

			text, err := readText(cmd, args)
			if errors.Is(err, errNoText) {
				return nil
			}
			if err != nil {
				return err
			}
			m, err := core.ParseEncodeMode(mode)
			if err != nil {
				return err
			}
			morse, err := core.Encode(text, m)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "message    %v\n", timing.Duration(morse))
			return nil
		},
	}
	cmd.Flags().IntVar(&wpm, "wpm", core.DefaultWPM, "speed in words per minute")
	cmd.Flags().StringVar(&mode, "mode", "strict", "encoding mode: strict or lenient")
	return cmd
}

func newTableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "table",
		Short: "Print the Morse alphabet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			for i := 0; i < core.SymbolCount; i++ {
				char, code := core.SymbolCode(i)
				fmt.Fprintf(out, "%c  %s\n", char, code)
			}
			return nil
		},
	}
}

func newPlayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play [text]",
		Short: "Key text on this machine's speaker, GPIO pins or terminal",
		RunE:  runPlay,
	}
	addKeyerFlags(cmd)
	cmd.Flags().StringVar(&backend, "backend", defaultBackend, "output: speaker, gpio or console")
	cmd.Flags().Float64Var(&volume, "volume", defaultVolume, "speaker volume (0-1)")
	return cmd
}

// openBackend returns the drivers for --backend and a function releasing them
func openBackend(cmd *cobra.Command) (core.GPIODriver, core.ToneDriver, func(), error) {
	switch backend {
	case "speaker":
		tone, err := audio.Open(0, volume)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to open speaker: %w", err)
		}
		return console.NewLamp(cmd.OutOrStdout(), logger), tone, tone.Close, nil
	case "gpio":
		d, err := rpi.NewDriver()
		if err != nil {
			return nil, nil, nil, err
		}
		return d, d, func() {}, nil
	case "console":
		lamp := console.NewLamp(cmd.OutOrStdout(), logger)
		return lamp, lamp, func() {}, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown backend %q", backend)
}

func runPlay(cmd *cobra.Command, args []string) error {
	text, err := readText(cmd, args)
	if err != nil {
		return err
	}
	m, err := core.ParseEncodeMode(mode)
	if err != nil {
		return err
	}
	morse, err := core.Encode(text, m)
	if err != nil {
		return err
	}
	timing, err := core.NewTiming(wpm)
	if err != nil {
		return fmt.Errorf("--wpm %d: %w", wpm, err)
	}

	gpio, tone, release, err := openBackend(cmd)
	if err != nil {
		return err
	}
	defer release()

	keyer, err := core.NewKeyer(gpio, tone, keyerOutputs())
	if err != nil {
		return err
	}
	player := core.NewPlayer(keyer, timing)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	fmt.Fprintln(cmd.OutOrStdout(), morse)
	logger.Info("playing", "backend", backend, "wpm", wpm, "duration", timing.Duration(morse))
	started := time.Now()
	err = player.Play(ctx, morse)
	aborted := errors.Is(err, context.Canceled)
	fmt.Fprintln(cmd.OutOrStdout())

	record(cmd.Context(), store.Entry{
		At:        started,
		Direction: store.Sent,
		Text:      text,
		Morse:     morse,
		WPM:       wpm,
		Duration:  time.Since(started),
		Aborted:   aborted,
	})
	if aborted {
		logger.Info("playback interrupted")
		return nil
	}
	return err
}

func newListenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Decode a key wired to a GPIO pin of this machine",
		RunE: func(cmd *cobra.Command, _ []string) error {
			timing, err := core.NewTiming(wpm)
			if err != nil {
				return fmt.Errorf("--wpm %d: %w", wpm, err)
			}
			d, err := rpi.NewDriver()
			if err != nil {
				return err
			}
			pin := core.GPIOPin(inputPin)
			if err := d.ConfigureInput(pin, core.PullUp); err != nil {
				return err
			}
			in, err := d.Input(pin)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			logger.Info("listening", "pin", inputPin, "wpm", wpm)
			err = rpi.Listen(ctx, in, timing, func(morse, text string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", text, morse)
				record(cmd.Context(), store.Entry{
					At:        time.Now(),
					Direction: store.Received,
					Text:      text,
					Morse:     morse,
					WPM:       wpm,
				})
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().IntVar(&wpm, "wpm", core.DefaultWPM, "expected sending speed")
	cmd.Flags().IntVar(&inputPin, "input-pin", defaultInputPin, "key input pin, pulled up")
	return cmd
}
