package board

import (
	"bytes"
	"compress/zlib"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"gomorse/protocol"
)

// Dictionary is the board's self description, fetched with identify
type Dictionary struct {
	Version       string            `json:"version"`
	BuildVersions string            `json:"build_versions"`
	Config        map[string]string `json:"config"`
	Commands      map[string]int    `json:"commands"`
	Responses     map[string]int    `json:"responses"`
}

// Message is one command or response with its decoded format
type Message struct {
	ID     uint16
	Name   string
	Format string
	Params []protocol.Param
}

// ParseDictionary inflates and decodes a dictionary blob.
// Uncompressed JSON is accepted as well.
func ParseDictionary(data []byte) (*Dictionary, error) {
	raw := data
	if len(data) >= 2 && data[0] == 0x78 {
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to open zlib stream: %w", err)
		}
		raw, err = io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("failed to inflate dictionary: %w", err)
		}
	}

	dict := &Dictionary{}
	if err := json.Unmarshal(raw, dict); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dictionary: %w", err)
	}
	return dict, nil
}

// messages splits "name format" keys into Messages indexed by name
func messages(entries map[string]int) (map[string]*Message, error) {
	out := make(map[string]*Message, len(entries))
	for key, id := range entries {
		name, format, _ := strings.Cut(key, " ")
		params, err := protocol.ParseFormat(format)
		if err != nil {
			return nil, fmt.Errorf("message %s: %w", name, err)
		}
		out[name] = &Message{ID: uint16(id), Name: name, Format: format, Params: params}
	}
	return out, nil
}

// ConfigUint returns a numeric constant from the config section
func (d *Dictionary) ConfigUint(name string) (uint32, bool) {
	v, ok := d.Config[name]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

// CommandNames returns the command keys sorted by ID
func (d *Dictionary) CommandNames() []string {
	return sortedByID(d.Commands)
}

// ResponseNames returns the response keys sorted by ID
func (d *Dictionary) ResponseNames() []string {
	return sortedByID(d.Responses)
}

func sortedByID(entries map[string]int) []string {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return entries[keys[i]] < entries[keys[j]] })
	return keys
}
