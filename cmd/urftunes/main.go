// Package main is the entry point for urftunes CLI
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/james-see/urftunes/pkg/api"
	"github.com/james-see/urftunes/pkg/config"
	"github.com/james-see/urftunes/pkg/converter"
	"github.com/james-see/urftunes/pkg/scheduler"
	"github.com/james-see/urftunes/pkg/seed"
	"github.com/james-see/urftunes/pkg/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configPath   string
	debug        bool
	outputFile   string
	outputFormat string
	trackFilter  string
	limit        int
	serverPort   int

	cfg *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "urftunes",
	Short: "Compose music from League of Legends champion masteries",
	Long: `urftunes turns a seed vector of champion mastery levels into a song:
a form, chord progressions, bass and melody lines and background noise
layers, all reproducible from the same masteries.

Examples:
  urftunes build masteries.json -o song.yaml
  urftunes render masteries.json -o song.mid
  urftunes convert song.msgpack -o song.mid
  urftunes schedule masteries.json --track melody --limit 20
  urftunes inspect song.mid
  urftunes tui
  urftunes serve --port 8080`,
	Version:           fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRunE: loadConfig,
}

var buildCmd = &cobra.Command{
	Use:   "build <seed>",
	Short: "Compose a song and export it (json, yaml, msgpack)",
	Args:  cobra.ExactArgs(1),
	RunE:  runBuild,
}

var renderCmd = &cobra.Command{
	Use:   "render <seed-or-song>",
	Short: "Render a seed vector or exported song to MIDI",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

var convertCmd = &cobra.Command{
	Use:   "convert <input>",
	Short: "Auto-detect and convert between formats",
	Long:  `Reads a seed vector or exported song and writes the format named by the output file extension.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runConvert,
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule <seed-or-song>",
	Short: "Print the instrument triggers of a song",
	Args:  cobra.ExactArgs(1),
	RunE:  runSchedule,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.mid>",
	Short: "Summarise a MIDI file",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List the seed vector keys each stage reads",
	RunE:  runKeys,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	// build command
	buildCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path")
	buildCmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format when -o has no known extension")

	// render command
	renderCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .mid file path")

	// convert command
	convertCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path (required)")
	_ = convertCmd.MarkFlagRequired("output")

	// schedule command
	scheduleCmd.Flags().StringVarP(&trackFilter, "track", "t", "", "Only show this track (drums, bass, melody, background)")
	scheduleCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most n triggers (0 for all)")

	// serve command
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 0, "Server port (overrides config)")

	// Add commands
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	config.LoadDotEnv()
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}
	cfg.ApplyLogLevel()
	if debug {
		log.SetLevel(log.DebugLevel)
	}
	return nil
}

func newConverter() *converter.Converter {
	return converter.New(cfg.Session(), cfg.MIDI.TicksPerQuarter)
}

func getOutputPath(input, defaultExt string) string {
	if outputFile != "" {
		return outputFile
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	out := base + defaultExt
	if out == input {
		out = base + ".song" + defaultExt
	}
	return out
}

func readDocument(conv *converter.Converter, input string) (*converter.Document, error) {
	data, err := os.ReadFile(input)
	if err != nil {
		return nil, err
	}
	return conv.Decode(data, converter.DetectFormat(input))
}

func writeDocument(conv *converter.Converter, doc *converter.Document, format converter.Format, output string) error {
	result, err := conv.Export(doc, format)
	if err != nil {
		return err
	}
	return os.WriteFile(output, result.Data, 0644)
}

func runBuild(cmd *cobra.Command, args []string) error {
	input := args[0]
	conv := newConverter()

	v, err := seed.Load(input)
	if err != nil {
		return err
	}
	doc, err := conv.Compose(v)
	if err != nil {
		return err
	}

	format := converter.DetectFormat(outputFile)
	if format == converter.FormatUnknown {
		format = converter.ParseFormat(outputFormat)
	}
	if format == converter.FormatUnknown {
		return fmt.Errorf("unknown format %q", outputFormat)
	}
	output := getOutputPath(input, format.Extension())

	if err := writeDocument(conv, doc, format, output); err != nil {
		return err
	}
	fmt.Printf("Composed %s -> %s (%.1f bpm, form %v)\n", input, output, doc.Tempo.BeatsPerMinute, doc.Song.Form)
	return nil
}

func runRender(cmd *cobra.Command, args []string) error {
	input := args[0]
	output := getOutputPath(input, ".mid")
	conv := newConverter()

	doc, err := readDocument(conv, input)
	if err != nil {
		return err
	}
	if err := writeDocument(conv, doc, converter.FormatMIDI, output); err != nil {
		return err
	}
	fmt.Printf("Rendered %s -> %s\n", input, output)
	return nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	input := args[0]
	conv := newConverter()

	fmt.Printf("Converting %s -> %s\n", input, outputFile)
	result, err := conv.ConvertFile(input, outputFile)
	if err != nil {
		return err
	}
	fmt.Printf("Conversion complete! %d bytes of %s (%.1f bpm, form %v)\n",
		len(result.Data), result.Format, result.Document.Tempo.BeatsPerMinute, result.Document.Song.Form)
	return nil
}

func runSchedule(cmd *cobra.Command, args []string) error {
	conv := newConverter()
	doc, err := readDocument(conv, args[0])
	if err != nil {
		return err
	}
	triggers, err := scheduler.New(cfg.Playback).Schedule(doc.Song, doc.Tempo)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tTRACK\tINSTRUMENT\tPITCH\tDURATION")
	shown := 0
	for _, tr := range triggers {
		if trackFilter != "" && string(tr.Track) != trackFilter {
			continue
		}
		if limit > 0 && shown >= limit {
			break
		}
		fmt.Fprintf(w, "%.3f\t%s\t%s\t%.2f\t%.3f\n",
			tr.Options.StartTime, tr.Track, tr.Instrument, tr.Options.Pitch, tr.Options.Duration)
		shown++
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("%d of %d triggers at %.1f bpm\n", shown, len(triggers), doc.Tempo.BeatsPerMinute)
	return nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	summary, err := converter.NewMIDIConverter(cfg.MIDI.TicksPerQuarter).ParseMIDIFile(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Tracks:   %d %v\n", summary.Tracks, summary.TrackNames)
	fmt.Printf("Notes:    %d\n", summary.Notes)
	fmt.Printf("Tempo:    %.1f bpm (%d ticks per quarter)\n", summary.Tempo, summary.TicksPerQuarter)
	fmt.Printf("Length:   %.1fs\n", summary.Seconds)
	return nil
}

func runKeys(cmd *cobra.Command, args []string) error {
	fmt.Printf("tempo:   %s\n", strings.Join(seed.TempoKeys, ", "))
	fmt.Printf("form:    %s\n", strings.Join(seed.FormKeys, ", "))
	fmt.Printf("harmony: %s\n", strings.Join(seed.HarmonyKeys, ", "))
	fmt.Printf("melody:  %s\n", strings.Join(seed.MelodyKeys, ", "))
	for i, keys := range seed.BackgroundKeys {
		fmt.Printf("background %c: %s\n", 'A'+i, strings.Join(keys, ", "))
	}
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	return tui.Run(newConverter())
}

func runServe(cmd *cobra.Command, args []string) error {
	if serverPort > 0 {
		cfg.Server.Port = serverPort
	}
	fmt.Printf("Starting API server on port %d...\n", cfg.Server.Port)
	return api.StartServer(cfg)
}
