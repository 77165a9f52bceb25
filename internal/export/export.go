package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"astra-msgdb/internal/msgdb"
	"astra-msgdb/internal/textutil"

	"github.com/rs/zerolog/log"
)

type jsonEntry struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Archive string `json:"archive"`
}

// WriteTSV writes entries as key, value and archive columns under a header row.
func WriteTSV(w io.Writer, entries []msgdb.Entry) error {
	if _, err := fmt.Fprintln(w, "key\tvalue\tarchive"); err != nil {
		return fmt.Errorf("write TSV header: %w", err)
	}
	for _, e := range entries {
		_, err := fmt.Fprintf(w, "%s\t%s\t%s\n",
			textutil.EscapeTSV(e.Key),
			textutil.EscapeTSV(e.Value),
			textutil.EscapeTSV(e.Archive),
		)
		if err != nil {
			return fmt.Errorf("write TSV row: %w", err)
		}
	}
	return nil
}

// WriteJSON writes entries as an indented JSON array.
func WriteJSON(w io.Writer, entries []msgdb.Entry) error {
	rows := make([]jsonEntry, len(entries))
	for i, e := range entries {
		rows[i] = jsonEntry{Key: e.Key, Value: e.Value, Archive: e.Archive}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(rows); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

// ExportFile writes entries to path in the given format ("tsv" or "json").
func ExportFile(path, format string, entries []msgdb.Entry) error {
	var write func(io.Writer, []msgdb.Entry) error
	switch format {
	case "tsv":
		write = WriteTSV
	case "json":
		write = WriteJSON
	default:
		return fmt.Errorf("unknown export format %q", format)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s file: %w", format, err)
	}
	if err := write(f, entries); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s file: %w", format, err)
	}

	log.Info().Str("path", path).Int("entries", len(entries)).Str("format", format).Msg("Exported messages")
	return nil
}
