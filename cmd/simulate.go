package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/iqrfdash/core/model"
	"github.com/kilianp07/iqrfdash/core/session"
	"github.com/kilianp07/iqrfdash/infra/logger"
	"github.com/kilianp07/iqrfdash/infra/mqtt"
	"github.com/kilianp07/iqrfdash/simulator"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Emulate the IQRF gateway on the configured broker",
	RunE:  runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	simCfg := cfg.Simulator
	mqttCfg := cfg.MQTT
	mqttCfg.ClientID = mqtt.NewClientID("iqrf-gw-sim")

	var responder simulator.Responder = simulator.AutoResponse{}
	if simCfg.FailureRate > 0 || simCfg.DropRate > 0 {
		responder = simulator.NewRandomResponse(simCfg.DropRate, simCfg.FailureRate,
			model.RCode(simCfg.FailureCode), time.Now().UnixNano())
	}

	var gw *simulator.Gateway
	transport, err := mqtt.NewPahoTransport(mqttCfg, func(ev session.Event) { gw.Handle(ev) })
	if err != nil {
		return err
	}
	log := logger.New("simulator")
	gw = simulator.New(simCfg, transport, responder, log)
	log.Infof("simulating gateway %s on %s", simCfg.DeviceID, transport.Endpoint())
	err = gw.Run(ctx)
	st := gw.Stats()
	log.Infof("requests=%d responses=%d dropped=%d temperatures=%d", st.Requests, st.Responses, st.Dropped, st.Temperatures)
	return err
}
