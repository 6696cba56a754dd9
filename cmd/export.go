package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/iqrfdash/core/history"
	"github.com/kilianp07/iqrfdash/pkg/export"
)

var (
	exportFormat string
	exportOut    string
	exportSince  time.Duration
	exportTopic  string
	exportKind   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export persisted message history as csv, json or an html chart",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "csv, json or html")
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "-", "output file, - for stdout")
	exportCmd.Flags().DurationVar(&exportSince, "since", 0, "only entries newer than this duration")
	exportCmd.Flags().StringVar(&exportTopic, "topic", "", "only entries on this topic")
	exportCmd.Flags().StringVar(&exportKind, "kind", "", "only entries of this kind (temperature, actuator, unrecognized)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.History.Backend == history.BackendNone {
		return fmt.Errorf("history backend is %q, nothing to export", cfg.History.Backend)
	}
	store, err := history.Open(cfg.History)
	if err != nil {
		return err
	}
	defer store.Close()

	q := history.Query{Topic: exportTopic, Kind: exportKind}
	if exportSince > 0 {
		q.Start = time.Now().Add(-exportSince)
	}
	entries, err := store.Query(cmd.Context(), q)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if exportOut != "-" {
		f, err := os.Create(exportOut)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	switch exportFormat {
	case "csv":
		return export.WriteCSV(w, entries)
	case "json":
		return export.WriteJSON(w, entries)
	case "html":
		return export.WriteTemperatureChart(w, entries)
	default:
		return fmt.Errorf("unknown format %q", exportFormat)
	}
}
