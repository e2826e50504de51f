// Package binfile reads and writes the fixed 24-byte historical trade
// record format.
//
// Layout, little-endian, repeated to EOF:
//
//	[0..8)   timestamp, unix milliseconds, int64
//	[8..16)  price, float64
//	[16..24) volume, float64
//	[23]     side flag, 1 = buy, 0 = sell
//
// Byte 23 is shared: it is both the last byte of the volume encoding
// and the side flag. Writers encode the volume first and then
// overwrite byte 23 with the flag; readers decode the volume with the
// flag byte still in place. The symbol is not stored in the file, it
// is taken from the filename prefix before the first underscore.
package binfile

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/avolkov/backsim/internal/domain"
)

const recordSize = 24

// SymbolFromPath derives the symbol from a .bin filename.
func SymbolFromPath(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if i := strings.Index(name, "_"); i > 0 {
		return name[:i]
	}
	if name == "" {
		return "UNKNOWN"
	}
	return name
}

// Reader decodes trade records from a .bin file.
type Reader struct {
	r      *bufio.Reader
	f      *os.File
	symbol string
}

// OpenReader opens a .bin file and derives its symbol from the path.
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("binfile.OpenReader: %w", err)
	}
	return &Reader{
		r:      bufio.NewReader(f),
		f:      f,
		symbol: SymbolFromPath(path),
	}, nil
}

// Symbol returns the symbol derived from the filename.
func (r *Reader) Symbol() string { return r.symbol }

// ReadAll decodes every record until EOF. A trailing partial record is
// dropped silently, matching the historical writer's behavior.
func (r *Reader) ReadAll() ([]domain.TradeTick, error) {
	var ticks []domain.TradeTick
	buf := make([]byte, recordSize)

	for {
		_, err := io.ReadFull(r.r, buf)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("binfile.ReadAll: %w", err)
		}

		timestampMs := int64(binary.LittleEndian.Uint64(buf[0:8]))
		price := math.Float64frombits(binary.LittleEndian.Uint64(buf[8:16]))
		volume := math.Float64frombits(binary.LittleEndian.Uint64(buf[16:24]))
		side := buf[23] != 0

		ticks = append(ticks, domain.TradeTick{
			Timestamp: time.UnixMilli(timestampMs).UTC(),
			Symbol:    r.symbol,
			Price:     price,
			Volume:    volume,
			Side:      domain.SideFromBool(side),
			TradeID:   strconv.Itoa(len(ticks)),
		})
	}

	return ticks, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error { return r.f.Close() }

// Writer encodes trade records into a .bin file.
type Writer struct {
	w *bufio.Writer
	f *os.File
}

// CreateWriter creates (or truncates) a .bin file.
func CreateWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("binfile.CreateWriter: %w", err)
	}
	return &Writer{w: bufio.NewWriter(f), f: f}, nil
}

// WriteTrade appends one record: volume first, then the side flag over
// byte 23.
func (w *Writer) WriteTrade(tick domain.TradeTick) error {
	var buf [recordSize]byte

	binary.LittleEndian.PutUint64(buf[0:8], uint64(tick.Timestamp.UnixMilli()))
	binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(tick.Price))
	binary.LittleEndian.PutUint64(buf[16:24], math.Float64bits(tick.Volume))

	if tick.Side.IsBuy() {
		buf[23] = 1
	} else {
		buf[23] = 0
	}

	if _, err := w.w.Write(buf[:]); err != nil {
		return fmt.Errorf("binfile.WriteTrade: %w", err)
	}
	return nil
}

// WriteAll appends every tick and flushes.
func (w *Writer) WriteAll(ticks []domain.TradeTick) error {
	for _, t := range ticks {
		if err := w.WriteTrade(t); err != nil {
			return err
		}
	}
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("binfile.WriteAll: flush: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	if err := w.w.Flush(); err != nil {
		w.f.Close()
		return fmt.Errorf("binfile.Close: flush: %w", err)
	}
	return w.f.Close()
}
