package cpu

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
)

// machineState is the JSON part of a snapshot. Memory goes in separate
// binary entries.
type machineState struct {
	A        uint16 `json:"a"`
	D        uint16 `json:"d"`
	PC       uint16 `json:"pc"`
	Halted   bool   `json:"halted"`
	Cycles   uint64 `json:"cycles"`
	ROMWords int    `json:"rom_words"`
}

const (
	entryState = "cpu_state.json"
	entryROM   = "rom.bin"
	entryRAM   = "ram.bin"
)

// HibernateToBytes serialises registers, ROM and RAM into an in-memory ZIP
// archive.
func (c *CPU) HibernateToBytes() ([]byte, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	state := machineState{
		A:        c.A,
		D:        c.D,
		PC:       c.PC,
		Halted:   c.Halted,
		Cycles:   c.Cycles,
		ROMWords: len(c.ROM),
	}
	jsonData, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "marshal cpu_state")
	}
	if err := writeZipEntry(zw, entryState, jsonData); err != nil {
		return nil, err
	}
	if err := writeZipEntry(zw, entryROM, uint16SliceToLE(c.ROM)); err != nil {
		return nil, err
	}
	if err := writeZipEntry(zw, entryRAM, uint16SliceToLE(c.RAM[:])); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(err, "close zip")
	}
	return buf.Bytes(), nil
}

// RestoreFromBytes applies a snapshot produced by HibernateToBytes.
func (c *CPU) RestoreFromBytes(data []byte) error {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return errors.Wrap(err, "open zip")
	}
	fileMap := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		fileMap[f.Name] = f
	}

	jsonData, err := readZipEntry(fileMap, entryState)
	if err != nil {
		return err
	}
	var state machineState
	if err := json.Unmarshal(jsonData, &state); err != nil {
		return errors.Wrap(err, "unmarshal cpu_state")
	}
	if state.ROMWords < 0 || state.ROMWords > ROMSize {
		return errors.Errorf("snapshot ROM size %d out of range", state.ROMWords)
	}

	rom, err := readZipEntry(fileMap, entryROM)
	if err != nil {
		return err
	}
	if len(rom) != state.ROMWords*2 {
		return errors.Errorf("%s holds %d bytes, want %d", entryROM, len(rom), state.ROMWords*2)
	}
	ram, err := readZipEntry(fileMap, entryRAM)
	if err != nil {
		return err
	}

	c.ROM = make([]uint16, state.ROMWords)
	leToUint16Slice(rom, c.ROM)
	c.RAM = [RAMSize]uint16{}
	leToUint16Slice(ram, c.RAM[:])
	c.A = state.A
	c.D = state.D
	c.PC = state.PC
	c.Halted = state.Halted
	c.Cycles = state.Cycles
	return nil
}

func (c *CPU) HibernateToFile(path string) error {
	data, err := c.HibernateToBytes()
	if err != nil {
		return err
	}
	return errors.Wrapf(os.WriteFile(path, data, 0644), "writing snapshot %s", path)
}

func (c *CPU) RestoreFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading snapshot")
	}
	return errors.Wrapf(c.RestoreFromBytes(data), "restoring %s", path)
}

func writeZipEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return errors.Wrapf(err, "create zip entry %q", name)
	}
	_, err = w.Write(data)
	return err
}

func readZipEntry(fileMap map[string]*zip.File, name string) ([]byte, error) {
	f, ok := fileMap[name]
	if !ok {
		return nil, errors.Errorf("zip entry %q not found", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "open zip entry %q", name)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func uint16SliceToLE(src []uint16) []byte {
	out := make([]byte, len(src)*2)
	for i, v := range src {
		binary.LittleEndian.PutUint16(out[i*2:], v)
	}
	return out
}

func leToUint16Slice(src []byte, dst []uint16) {
	for i := range dst {
		if i*2+1 < len(src) {
			dst[i] = binary.LittleEndian.Uint16(src[i*2:])
		}
	}
}
