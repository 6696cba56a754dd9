package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/kilianp07/iqrfdash/app"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print every decoded record as JSON lines",
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

type watchLine struct {
	Kind   string `json:"kind"`
	Record any    `json:"record"`
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	records := svc.Session.Records().Subscribe()
	defer svc.Session.Records().Unsubscribe(records)
	svc.Start(ctx)
	if err := connectAndWait(ctx, svc); err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	for {
		select {
		case <-ctx.Done():
			return nil
		case rec, ok := <-records:
			if !ok {
				return nil
			}
			if err := enc.Encode(watchLine{Kind: rec.Kind().String(), Record: rec}); err != nil {
				return err
			}
		}
	}
}
