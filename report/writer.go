package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"tidings/config"
	"tidings/logger"
)

// Writer appends typed records to the report file. It buffers writes behind a
// mutex, rotates the file when it grows past the configured size, and mirrors
// each record to the OTLP exporter when one is configured.
type Writer struct {
	file    *os.File
	buf     *bufio.Writer
	mu      sync.Mutex
	first   bool
	metrics *Metrics
	cfg     *config.Config
	host    *HostInfo
	otel    *otelLogger
	base    string
	ext     string
	index   int
	format  string
}

func New(cfg *config.Config, host *HostInfo, m *Metrics) (*Writer, error) {
	ext := filepath.Ext(cfg.OutputFileName)
	base := strings.TrimSuffix(cfg.OutputFileName, ext)
	format := strings.ToLower(cfg.OutputFormat)
	if format == "" {
		format = "ndjson"
	}
	if host == nil {
		host = &HostInfo{}
	}

	w := &Writer{
		first:   true,
		metrics: m,
		cfg:     cfg,
		host:    host,
		base:    base,
		ext:     ext,
		format:  format,
	}
	if cfg != nil {
		otel, err := newOtelLogger(cfg)
		if err != nil {
			logger.Warnf("OTEL export disabled: %v", err)
		} else {
			w.otel = otel
		}
	}
	if err := w.openFile(); err != nil {
		return nil, err
	}
	if w.otel != nil {
		w.otel.Emit("host_info", w.host)
	}
	return w, nil
}

func (w *Writer) openFile() error {
	name := w.base + w.ext
	if w.index > 0 {
		name = fmt.Sprintf("%s.%d%s", w.base, w.index, w.ext)
	}
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	w.file = f
	w.buf = bufio.NewWriterSize(f, 1024*1024)
	w.first = true

	switch w.format {
	case "json":
		if _, err := w.buf.WriteString("{\n"); err != nil {
			return err
		}
		if err := w.writeDocumentHeader(); err != nil {
			return err
		}
	default:
		if err := w.writeLine("host_info", w.host); err != nil {
			return err
		}
	}
	return w.buf.Flush()
}

func (w *Writer) writeDocumentHeader() error {
	if _, err := fmt.Fprintf(w.buf, "  \"schema_version\": %q,\n", SchemaVersion); err != nil {
		return err
	}
	hostBytes, err := json.MarshalIndent(w.host, "  ", "  ")
	if err != nil {
		return err
	}
	if _, err := w.buf.WriteString("  \"host_info\": "); err != nil {
		return err
	}
	if _, err := w.buf.Write(hostBytes); err != nil {
		return err
	}
	if _, err := w.buf.WriteString(",\n  \"records\": [\n"); err != nil {
		return err
	}
	return nil
}

type envelope struct {
	Type          string `json:"type"`
	SchemaVersion string `json:"schema_version"`
	Record        any    `json:"record"`
}

func (w *Writer) writeLine(recordType string, payload any) error {
	bytes, err := json.Marshal(envelope{Type: recordType, SchemaVersion: SchemaVersion, Record: payload})
	if err != nil {
		return err
	}
	if _, err := w.buf.Write(bytes); err != nil {
		return err
	}
	return w.buf.WriteByte('\n')
}

// WriteRecord appends one record of the given type.
func (w *Writer) WriteRecord(recordType string, payload any) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.format {
	case "json":
		if !w.first {
			_, _ = w.buf.WriteString(",\n")
		}
		bytes, err := json.MarshalIndent(envelope{Type: recordType, SchemaVersion: SchemaVersion, Record: payload}, "    ", "  ")
		if err == nil {
			_, _ = w.buf.WriteString("    ")
			_, _ = w.buf.Write(bytes)
		}
		w.first = false
	default:
		if err := w.writeLine(recordType, payload); err != nil {
			logger.Warnf("Failed to write record: %v", err)
		}
	}
	if w.otel != nil {
		w.otel.Emit(recordType, payload)
	}

	w.flush()

	if w.cfg != nil && w.cfg.MaxOutputFileSize > 0 {
		if info, err := w.file.Stat(); err == nil && info.Size() >= w.cfg.MaxOutputFileSize {
			w.rotate()
		}
	}
}

func (w *Writer) WriteHeaderRecord(rec *HeaderRecord) {
	w.WriteRecord("header", rec)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.metrics == nil {
		return
	}
	w.metrics.FilesChecked++
	switch {
	case rec.Status != "parsed":
		w.metrics.HeadersUnparsed++
	case rec.LicenseIdentifier != "" && rec.LicenseIdentifier != "unknown" &&
		rec.CopyrightIdentifier != "" && rec.CopyrightIdentifier != "unknown":
		w.metrics.HeadersKnown++
	default:
		w.metrics.HeadersUnknown++
	}
}

func (w *Writer) WriteTidyRecord(rec *TidyRecord) {
	w.WriteRecord("tidy", rec)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.metrics != nil {
		w.metrics.TidyDiagnostics++
	}
}

// UpdateMetrics applies fn to the shared metrics under the writer lock.
func (w *Writer) UpdateMetrics(fn func(*Metrics)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.metrics != nil {
		fn(w.metrics)
	}
}

// Metrics returns a copy of the current counters.
func (w *Writer) Metrics() Metrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.metrics == nil {
		return Metrics{}
	}
	return *w.metrics
}

func (w *Writer) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.otel != nil && w.metrics != nil {
		w.otel.Emit("metrics", w.metrics)
	}
	w.closeFile()
	if w.otel != nil {
		w.otel.Shutdown()
	}
}

func (w *Writer) rotate() {
	w.closeFile()
	w.index++
	if err := w.openFile(); err != nil {
		logger.Errorf("Failed to open rotated report file: %v", err)
	}
}

func (w *Writer) closeFile() {
	switch w.format {
	case "json":
		_, _ = w.buf.WriteString("\n  ]")
		if w.metrics != nil {
			mBytes, err := json.MarshalIndent(w.metrics, "  ", "  ")
			if err == nil {
				_, _ = w.buf.WriteString(",\n  \"metrics\": ")
				_, _ = w.buf.Write(mBytes)
			}
		}
		_, _ = w.buf.WriteString("\n}\n")
	default:
		if w.metrics != nil {
			_ = w.writeLine("metrics", w.metrics)
		}
	}
	w.flush()
	_ = w.file.Sync()
	_ = w.file.Close()
}

func (w *Writer) flush() {
	if w.buf != nil {
		_ = w.buf.Flush()
	}
}
