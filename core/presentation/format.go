package presentation

import (
	"strconv"
	"strings"

	"github.com/kilianp07/iqrfdash/core/model"
)

// CelsiusMarker is appended to every displayed temperature.
const CelsiusMarker = "°C"

var payloadEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// EscapePayload makes an inbound payload safe to embed in HTML markup.
func EscapePayload(raw []byte) string { return payloadEscaper.Replace(string(raw)) }

// FormatValue renders v with the shortest representation that round-trips.
func FormatValue(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// TemperatureText is the display line for a reading in the given slot.
func TemperatureText(v model.Variant, value float64) string {
	label := "TEMPERATURE"
	if v == model.VariantLowPower {
		label = "TEMPERATURE 2"
	}
	return label + ": " + FormatValue(value) + " " + CelsiusMarker
}

// StatusText is the LED status line for a successful report.
func StatusText(a model.Action) string { return "STATUS: " + string(a) }

// ErrorStatusText is the LED status line for a failed report.
func ErrorStatusText(rc model.RCode) string { return "STATUS: ERROR " + string(rc) }

// Image paths of the two LED frames.
func OnImage(a model.Actuator) string  { return "img/" + string(a) + "-on.png" }
func OffImage(a model.Actuator) string { return "img/" + string(a) + "-off.png" }

// Frames returns the pulse animation frames, off first.
func Frames(a model.Actuator) [2]string { return [2]string{OffImage(a), OnImage(a)} }
