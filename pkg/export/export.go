// Package export writes persisted message history as JSON, CSV or an HTML
// temperature chart.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/iqrfdash/core/history"
)

// WriteJSON writes entries to w as a JSON array.
func WriteJSON(w io.Writer, entries []history.Entry) error {
	if entries == nil {
		entries = []history.Entry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

// WriteCSV writes entries to w with a header row.
func WriteCSV(w io.Writer, entries []history.Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "topic", "kind", "variant", "qos", "payload"}); err != nil {
		return err
	}
	for _, e := range entries {
		rec := []string{
			e.Time.UTC().Format(time.RFC3339Nano),
			e.Topic,
			e.Kind,
			e.Variant,
			strconv.Itoa(int(e.QoS)),
			e.Payload,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
