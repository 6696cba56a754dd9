package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/iqrfdash/app"
	"github.com/kilianp07/iqrfdash/core/model"
)

var ledTimeout time.Duration

var ledCmd = &cobra.Command{
	Use:   "led <r|g> <on|off|pulse>",
	Short: "Send one LED command and wait for the gateway report",
	Args:  cobra.ExactArgs(2),
	RunE:  runLED,
}

func init() {
	ledCmd.Flags().DurationVar(&ledTimeout, "timeout", 10*time.Second, "time to wait for connection and report")
	rootCmd.AddCommand(ledCmd)
}

func runLED(cmd *cobra.Command, args []string) error {
	if _, err := model.ParseActuator(args[0]); err != nil {
		return err
	}
	if _, err := model.ParseAction(args[1]); err != nil {
		return err
	}

	sigCtx, stop := signalContext()
	defer stop()
	ctx, cancel := context.WithTimeout(sigCtx, ledTimeout)
	defer cancel()

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
	sent, err := svc.Session.SendCommand(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "sent %s %s pid=%d\n", sent.Actuator, sent.Action, sent.PID)

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("no report for pid %d: %w", sent.PID, ctx.Err())
		case rec, ok := <-records:
			if !ok {
				return errors.New("session closed")
			}
			r, isReport := rec.(model.ActuatorReport)
			if !isReport || !r.Handled() || r.PID != sent.PID {
				continue
			}
			if !r.RCode.OK() {
				return fmt.Errorf("gateway answered %s (%s)", r.RCode, r.RCode.Description())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "STATUS: %s\n", r.Action)
			return nil
		}
	}
}

// connectAndWait connects the session and blocks until the broker
// acknowledged and the subscriptions were made.
func connectAndWait(ctx context.Context, svc *app.Service) error {
	if err := svc.Session.Connect(ctx); err != nil {
		return err
	}
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for !svc.Session.View().Connected {
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for connection: %w", ctx.Err())
		case <-ticker.C:
		}
	}
	return nil
}
