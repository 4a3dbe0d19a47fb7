// Package main provides the gomorse command line tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"gomorse/core"
	"gomorse/host/config"
	"gomorse/host/serial"
)

const (
	defaultLightPin = 17
	defaultAudioPin = 18
	defaultInputPin = 27
	defaultBackend  = "speaker"
	defaultVolume   = 0.5
	defaultDevice   = "/dev/ttyACM0"
)

var (
	configPath  string
	historyPath string
	noHistory   bool
	verbose     bool

	wpm       int
	mode      string
	lightPin  int
	audioPin  int
	frequency int
	inputPin  int
	backend   string
	volume    float64
	device    string
	baud      int

	logger *slog.Logger
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "gomorse",
		Short:             "Morse code encoder, decoder and keyer",
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", config.DefaultConfigPath(), "TOML config file")
	flags.StringVar(&historyPath, "history", config.DefaultDBPath(), "message log database")
	flags.BoolVar(&noHistory, "no-history", false, "do not record messages")
	flags.BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(newEncodeCmd())
	rootCmd.AddCommand(newDecodeCmd())
	rootCmd.AddCommand(newTimingCmd())
	rootCmd.AddCommand(newTableCmd())
	rootCmd.AddCommand(newPlayCmd())
	rootCmd.AddCommand(newListenCmd())
	rootCmd.AddCommand(newSendCmd())
	rootCmd.AddCommand(newMonitorCmd())
	rootCmd.AddCommand(newDictCmd())
	rootCmd.AddCommand(newHistoryCmd())

	return rootCmd
}

// loadConfig sets up logging and fills flags the user did not set from the config file
func loadConfig(cmd *cobra.Command, _ []string) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	applyConfig(cmd, "device", &device, fileCfg.Serial.Device)
	applyConfig(cmd, "baud", &baud, fileCfg.Serial.Baud)
	applyConfig(cmd, "wpm", &wpm, fileCfg.Keyer.WPM)
	applyConfig(cmd, "mode", &mode, fileCfg.Keyer.Mode)
	applyConfig(cmd, "light-pin", &lightPin, fileCfg.Keyer.LightPin)
	applyConfig(cmd, "audio-pin", &audioPin, fileCfg.Keyer.AudioPin)
	applyConfig(cmd, "frequency", &frequency, fileCfg.Keyer.Frequency)
	applyConfig(cmd, "input-pin", &inputPin, fileCfg.Keyer.InputPin)
	applyConfig(cmd, "backend", &backend, fileCfg.Playback.Backend)
	applyConfig(cmd, "volume", &volume, fileCfg.Playback.Volume)
	applyConfig(cmd, "history", &historyPath, fileCfg.History.Path)
	applyConfig(cmd, "no-history", &noHistory, fileCfg.History.Disabled)
	return nil
}

// applyConfig copies a config value unless the flag is absent or was given
func applyConfig[T any](cmd *cobra.Command, name string, target, value *T) {
	if value == nil {
		return
	}
	if cmd.Flags().Lookup(name) == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func addKeyerFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&wpm, "wpm", core.DefaultWPM, "speed in words per minute")
	cmd.Flags().StringVar(&mode, "mode", "strict", "encoding mode: strict or lenient")
	cmd.Flags().IntVar(&lightPin, "light-pin", defaultLightPin, "light output pin")
	cmd.Flags().IntVar(&audioPin, "audio-pin", defaultAudioPin, "buzzer pin")
	cmd.Flags().IntVar(&frequency, "frequency", core.DefaultToneFrequency, "tone in Hz, 0 for no audio")
}

func addSerialFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&device, "device", defaultDevice, "board serial device")
	cmd.Flags().IntVar(&baud, "baud", serial.DefaultBaud, "baud rate")
}

func keyerOutputs() core.Outputs {
	outs := core.Outputs{Light: core.GPIOPin(lightPin)}
	if frequency > 0 {
		outs.Audio = &core.ToneOutput{Pin: core.TonePin(audioPin), Frequency: uint32(frequency)}
	}
	return outs
}

var errNoText = errors.New("no text given")

// readText joins args, or reads stdin when no args are given and it is piped
func readText(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "", errNoText
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	text := strings.Join(strings.Fields(string(data)), " ")
	if text == "" {
		return "", errNoText
	}
	return text, nil
}
