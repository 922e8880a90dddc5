package main

import (
	"fmt"
	"log"

	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/spacer/pkg/config"
	"github.com/itohio/spacer/pkg/sample"
)

// handleTare stores the current mean reading of every channel as its offset
// so that an unloaded sensor reads zero.
func handleTare(state *appState) {
	if !state.connected() {
		return
	}

	samples := state.chain.meter.Samples()
	if len(samples) == 0 {
		dialog.ShowError(fmt.Errorf("no samples to tare from"), state.window)
		return
	}

	// The converter reads channel settings, so stop it before changing them
	disconnect(state)
	tareOffsets(state.cfg.Channels, samples)
	for _, ch := range state.cfg.Channels {
		log.Printf("Tare %s: offset %.6f", ch.Name, ch.Offset)
	}
	state.saveConfig()
	handleConnect(state)
}

// tareOffsets sets each channel offset to the mean raw value over samples.
func tareOffsets(channels []config.ChannelConfig, samples []sample.Sample) {
	for i := range channels {
		sum := 0.0
		n := 0
		for _, s := range samples {
			if i < len(s.Values) {
				sum += s.Values[i]
				n++
			}
		}
		if n > 0 {
			channels[i].Offset = sum / float64(n)
		}
	}
}

// setPressed updates indicator buttons when the press state changed.
func setPressed(state *appState, active []bool) {
	changed := false
	for i := range state.pressed {
		if i < len(active) && state.pressed[i] != active[i] {
			state.pressed[i] = active[i]
			changed = true
		}
	}
	if changed {
		updateChannelButtons(state)
	}
}

// updateChannelButtons updates the visual state of the press indicators.
func updateChannelButtons(state *appState) {
	for i, btn := range state.channelBtns {
		updateChannelButton(btn, state.pressed[i])
	}
}

func updateChannelButton(btn *widget.Button, pressed bool) {
	if pressed {
		btn.Importance = widget.HighImportance
	} else {
		btn.Importance = widget.MediumImportance
	}
	btn.Refresh()
}
