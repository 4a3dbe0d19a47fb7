package core

import (
	"sync"

	"gomorse/protocol"
	"gomorse/tinycompress"
)

// Constant is a firmware value published to the host in the "config" section
type Constant struct {
	Name  string
	Value string
}

// Dictionary describes the board to the host: version, constants and the
// "name format" of every command and response with its ID.
// It is served zlib wrapped, in chunks, by the identify command.
type Dictionary struct {
	mu            sync.RWMutex
	commandReg    *CommandRegistry
	constants     []Constant
	version       string
	buildVersions string
	cached        []byte
}

var globalDictionary = NewDictionary(globalRegistry)

// NewDictionary creates a dictionary over a command registry
func NewDictionary(cmdReg *CommandRegistry) *Dictionary {
	return &Dictionary{
		commandReg:    cmdReg,
		version:       "gomorse-" + protocol.Version,
		buildVersions: "go-tinygo",
	}
}

// RegisterConstant publishes a constant in the global dictionary
func RegisterConstant(name string, value uint32) {
	globalDictionary.AddConstant(name, utoa(value))
}

// AddConstant adds or replaces a constant
func (d *Dictionary) AddConstant(name, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cached = nil
	for i := range d.constants {
		if d.constants[i].Name == name {
			d.constants[i].Value = value
			return
		}
	}
	d.constants = append(d.constants, Constant{Name: name, Value: value})
}

// SetBuildVersions sets the toolchain description
func (d *Dictionary) SetBuildVersions(versions string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cached = nil
	d.buildVersions = versions
}

// BuildDictionary compresses and caches the dictionary.
// Call it once every command is registered.
func (d *Dictionary) BuildDictionary() {
	// Read the registry before taking our own lock
	commands := d.commandReg.Commands()

	d.mu.Lock()
	defer d.mu.Unlock()

	raw := d.buildJSON(commands)
	d.cached = tinycompress.Compress(raw)
	DebugPrintln("[DICT] " + itoa(len(raw)) + " bytes, " + itoa(len(d.cached)) + " wrapped")
}

// Generate returns the zlib wrapped dictionary, building it if needed
func (d *Dictionary) Generate() []byte {
	d.mu.RLock()
	cached := d.cached
	d.mu.RUnlock()
	if cached != nil {
		return cached
	}
	d.BuildDictionary()
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cached
}

// buildJSON writes the dictionary by hand; encoding/json is too heavy for
// the firmware. Names and formats never need escaping.
func (d *Dictionary) buildJSON(commands []*Command) []byte {
	out := make([]byte, 0, 1024)
	out = append(out, `{"version":"`...)
	out = append(out, d.version...)
	out = append(out, `","build_versions":"`...)
	out = append(out, d.buildVersions...)
	out = append(out, `","config":{`...)
	for i, c := range d.constants {
		if i > 0 {
			out = append(out, ',')
		}
		out = append(out, '"')
		out = append(out, c.Name...)
		out = append(out, `":"`...)
		out = append(out, c.Value...)
		out = append(out, '"')
	}

	out = append(out, `},"commands":{`...)
	out = appendMessages(out, commands, true)
	out = append(out, `},"responses":{`...)
	out = appendMessages(out, commands, false)
	out = append(out, "}}"...)
	return out
}

func appendMessages(out []byte, commands []*Command, handlers bool) []byte {
	first := true
	for _, cmd := range commands {
		if (cmd.Handler != nil) != handlers {
			continue
		}
		if !first {
			out = append(out, ',')
		}
		first = false
		out = append(out, '"')
		out = append(out, cmd.Name...)
		if cmd.Format != "" {
			out = append(out, ' ')
			out = append(out, cmd.Format...)
		}
		out = append(out, `":`...)
		out = append(out, utoa(uint32(cmd.ID))...)
	}
	return out
}

// GetChunk returns a copy of count bytes of the dictionary starting at offset
func (d *Dictionary) GetChunk(offset uint32, count uint32) []byte {
	data := d.Generate()
	if offset >= uint32(len(data)) {
		return nil
	}
	end := offset + count
	if end > uint32(len(data)) {
		end = uint32(len(data))
	}
	chunk := make([]byte, end-offset)
	copy(chunk, data[offset:end])
	return chunk
}

// GetGlobalDictionary returns the dictionary served by identify
func GetGlobalDictionary() *Dictionary {
	return globalDictionary
}
