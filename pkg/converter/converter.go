package converter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	log "github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/james-see/urftunes/pkg/composer"
	"github.com/james-see/urftunes/pkg/scheduler"
	"github.com/james-see/urftunes/pkg/seed"
	"github.com/james-see/urftunes/pkg/voice"
)

// Format represents a file format
type Format string

const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatMsgpack Format = "msgpack"
	FormatMIDI    Format = "midi"
	FormatUnknown Format = "unknown"
)

// Formats lists every output format.
var Formats = []Format{FormatJSON, FormatYAML, FormatMsgpack, FormatMIDI}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatYAML:
		return ".yaml"
	case FormatMsgpack:
		return ".msgpack"
	case FormatMIDI:
		return ".mid"
	default:
		return ""
	}
}

// ParseFormat accepts a format name or extension.
func ParseFormat(name string) Format {
	name = strings.ToLower(strings.TrimPrefix(name, "."))
	switch name {
	case "json":
		return FormatJSON
	case "yaml", "yml":
		return FormatYAML
	case "msgpack", "mpk":
		return FormatMsgpack
	case "midi", "mid":
		return FormatMIDI
	default:
		return FormatUnknown
	}
}

// DetectFormat detects the format of a file based on extension
func DetectFormat(filename string) Format {
	ext := filepath.Ext(filename)
	if ext == "" {
		return FormatUnknown
	}
	return ParseFormat(ext)
}

// DetectFormatFromContent detects format from file content
func DetectFormatFromContent(data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return FormatUnknown
	}

	// Check for MIDI file signature "MThd"
	if len(data) >= 4 && string(data[:4]) == "MThd" {
		return FormatMIDI
	}

	if trimmed[0] == '{' {
		return FormatJSON
	}

	// MessagePack maps start with a fixmap (0x80-0x8F), map16 or map32 byte.
	if b := data[0]; (b >= 0x80 && b <= 0x8F) || b == 0xDE || b == 0xDF {
		return FormatMsgpack
	}

	return FormatYAML
}

// Compose builds the song for v and the tempo it plays at.
func (c *Converter) Compose(v seed.Vector) (*Document, error) {
	song, err := composer.Build(v)
	if err != nil {
		return nil, err
	}
	return &Document{
		Seed:  v.Clone(),
		Tempo: scheduler.TempoFor(v, c.settings.TempoBase, c.settings.TempoWeight, c.settings.TempoKeys),
		Song:  song,
	}, nil
}

// Encode writes doc in format.
func (c *Converter) Encode(doc *Document, format Format) ([]byte, error) {
	if doc == nil || doc.Song == nil {
		return nil, errors.New("nil document")
	}
	switch format {
	case FormatJSON:
		return json.MarshalIndent(doc, "", "  ")
	case FormatYAML:
		return yaml.Marshal(doc)
	case FormatMsgpack:
		return msgpack.Marshal(doc)
	case FormatMIDI:
		return c.RenderMIDI(doc)
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// Decode reads a document, or a bare seed vector which is then composed.
func (c *Converter) Decode(data []byte, format Format) (*Document, error) {
	if format == FormatUnknown {
		format = DetectFormatFromContent(data)
	}

	var doc Document
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &doc)
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	case FormatMsgpack:
		err = msgpack.Unmarshal(data, &doc)
	default:
		return nil, fmt.Errorf("cannot read a song from %s", format)
	}
	if err != nil || doc.Song == nil {
		if format == FormatMsgpack {
			if err == nil {
				err = errors.New("no song in document")
			}
			return nil, fmt.Errorf("failed to decode song: %w", err)
		}
		v, perr := seed.Parse(data)
		if perr != nil {
			return nil, fmt.Errorf("input is neither a song nor a seed vector: %w", perr)
		}
		return c.Compose(v)
	}
	if err := doc.Song.Validate(); err != nil {
		return nil, fmt.Errorf("decoded song is invalid: %w", err)
	}
	if doc.Tempo.BeatsPerMinute <= 0 {
		doc.Tempo = scheduler.TempoFor(doc.Seed, c.settings.TempoBase, c.settings.TempoWeight, c.settings.TempoKeys)
	}
	return &doc, nil
}

// Record schedules doc into a recorder, as an offline stand-in for an audio
// backend.
func (c *Converter) Record(doc *Document) (*voice.Recorder, error) {
	rec := voice.NewRecorder()
	if _, err := scheduler.New(c.settings.Playback).Play(rec, doc.Song, doc.Tempo); err != nil {
		return nil, err
	}
	return rec, nil
}

// RenderMIDI plays doc into a recorder and writes the result as MIDI.
func (c *Converter) RenderMIDI(doc *Document) ([]byte, error) {
	rec, err := c.Record(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule song: %w", err)
	}
	return c.midi.GenerateMIDI(rec.Sorted(), doc.Tempo.BeatsPerMinute)
}

// Export encodes doc in format.
func (c *Converter) Export(doc *Document, format Format) (*ConversionResult, error) {
	data, err := c.Encode(doc, format)
	if err != nil {
		return nil, err
	}
	return &ConversionResult{Document: doc, Format: format, Data: data}, nil
}

// ConvertFile reads a seed vector or exported song and writes it to outputPath
// in the format its extension names.
func (c *Converter) ConvertFile(inputPath, outputPath string) (*ConversionResult, error) {
	logger := log.WithFields(log.Fields{
		"function": "converter.ConvertFile",
		"input":    inputPath,
		"output":   outputPath,
	})

	outputFormat := DetectFormat(outputPath)
	if outputFormat == FormatUnknown {
		return nil, errors.New("cannot determine output format from filename")
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}

	doc, err := c.Decode(data, DetectFormat(inputPath))
	if err != nil {
		return nil, fmt.Errorf("conversion failed: %w", err)
	}

	result, err := c.Export(doc, outputFormat)
	if err != nil {
		return nil, fmt.Errorf("conversion failed: %w", err)
	}

	if err := os.WriteFile(outputPath, result.Data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write output file: %w", err)
	}
	result.Filename = outputPath
	logger.Debugf("wrote %d bytes of %s", len(result.Data), outputFormat)
	return result, nil
}

// GetSupportedConversions returns a list of supported conversion paths
func GetSupportedConversions() []string {
	return []string{
		"seed (json/yaml) -> json",
		"seed (json/yaml) -> yaml",
		"seed (json/yaml) -> msgpack",
		"seed (json/yaml) -> midi",
		"song (json/yaml/msgpack) -> midi",
		"song (json/yaml/msgpack) -> json/yaml/msgpack",
	}
}
