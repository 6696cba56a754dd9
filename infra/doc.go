// Package infra groups the adapters behind the dashboard core: the Paho
// transport for the gateway broker, the Prometheus and InfluxDB sinks, the
// zerolog logger and Sentry reporting. Core packages never import them; app
// wires them in.
package infra
