package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/spacer/pkg/stream"
)

// showSettingsDialog displays a settings dialog with tabs for all configuration options.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createDividerTab(state),
		createChannelsTab(state),
		createMeasurementTab(state),
		createMockTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(600, 500))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(600, 500))
	d.Show()
}

// createSerialTab creates the Serial configuration tab.
func createSerialTab(state *appState) *container.TabItem {
	ports, err := stream.Ports()
	portOptions := []string{}
	portMap := make(map[string]string) // Display name to port name

	if err == nil {
		for _, port := range ports {
			displayName := port.Name
			if port.Description != "" && port.Description != port.Name {
				displayName = fmt.Sprintf("%s (%s)", port.Name, port.Description)
			}
			portOptions = append(portOptions, displayName)
			portMap[displayName] = port.Name
		}
	}

	// Keep the configured port selectable even when it is not plugged in
	currentPort := state.cfg.Serial.Port
	currentDisplay := currentPort
	found := false
	for _, opt := range portOptions {
		if portMap[opt] == currentPort {
			currentDisplay = opt
			found = true
			break
		}
	}
	if !found && currentPort != "" {
		portOptions = append(portOptions, currentPort)
		portMap[currentPort] = currentPort
	}

	portSelect := widget.NewSelect(portOptions, nil)
	if currentDisplay != "" {
		portSelect.SetSelected(currentDisplay)
	}

	baudEntry := widget.NewEntry()
	baudEntry.SetText(strconv.Itoa(state.cfg.Serial.BaudRate))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Serial Port", Widget: portSelect},
			{Text: "Baud Rate", Widget: baudEntry},
		},
		OnSubmit: func() {
			changed := false
			if portSelect.Selected != "" {
				selectedPort := portMap[portSelect.Selected]
				if selectedPort == "" {
					selectedPort = portSelect.Selected
				}
				changed = state.cfg.Serial.Port != selectedPort
				state.cfg.Serial.Port = selectedPort
			}
			if baud, err := strconv.Atoi(baudEntry.Text); err == nil && baud > 0 {
				changed = changed || state.cfg.Serial.BaudRate != baud
				state.cfg.Serial.BaudRate = baud
			}
			state.saveConfig()

			if changed && !state.useMock {
				restart(state)
			}
		},
	}

	return container.NewTabItem("Serial", form)
}

// createDividerTab creates the voltage divider tab. Resistor and reference
// values are recorded for documentation only.
func createDividerTab(state *appState) *container.TabItem {
	bitsEntry := widget.NewEntry()
	bitsEntry.SetText(strconv.Itoa(int(state.cfg.Divider.ADCBits)))

	rRefEntry := widget.NewEntry()
	rRefEntry.SetText(fmt.Sprintf("%.0f", state.cfg.Divider.RRef))

	vRefEntry := widget.NewEntry()
	vRefEntry.SetText(fmt.Sprintf("%.3f", state.cfg.Divider.VRef))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "ADC Resolution (bits)", Widget: bitsEntry},
			{Text: "R ref (Ω)", Widget: rRefEntry},
			{Text: "V ref (V)", Widget: vRefEntry},
		},
		OnSubmit: func() {
			if bits, err := strconv.Atoi(bitsEntry.Text); err == nil && bits > 0 && bits <= 16 {
				state.cfg.Divider.ADCBits = uint8(bits)
			}
			if r, err := strconv.ParseFloat(rRefEntry.Text, 64); err == nil {
				state.cfg.Divider.RRef = r
			}
			if v, err := strconv.ParseFloat(vRefEntry.Text, 64); err == nil {
				state.cfg.Divider.VRef = v
			}
			state.saveConfig()
		},
	}

	return container.NewTabItem("Divider", form)
}

// createChannelsTab edits the offset and gain of every channel.
func createChannelsTab(state *appState) *container.TabItem {
	type row struct {
		name, offset, gain *widget.Entry
	}
	rows := make([]row, len(state.cfg.Channels))

	items := make([]*widget.FormItem, 0, len(rows))
	for i, ch := range state.cfg.Channels {
		r := row{name: widget.NewEntry(), offset: widget.NewEntry(), gain: widget.NewEntry()}
		r.name.SetText(ch.Name)
		r.offset.SetText(fmt.Sprintf("%.6f", ch.Offset))
		r.gain.SetText(fmt.Sprintf("%.3f", ch.Gain))
		rows[i] = r

		items = append(items, &widget.FormItem{
			Text:   fmt.Sprintf("Channel %d", i),
			Widget: container.NewGridWithColumns(3, r.name, r.offset, r.gain),
		})
	}

	form := &widget.Form{
		Items: items,
		OnSubmit: func() {
			wasConnected := state.connected()
			if wasConnected {
				disconnect(state)
			}
			for i, r := range rows {
				ch := &state.cfg.Channels[i]
				if r.name.Text != "" {
					ch.Name = r.name.Text
				}
				if v, err := strconv.ParseFloat(r.offset.Text, 64); err == nil {
					ch.Offset = v
				}
				if v, err := strconv.ParseFloat(r.gain.Text, 64); err == nil && v != 0 {
					ch.Gain = v
				}
			}
			for i, btn := range state.channelBtns {
				btn.SetText(state.cfg.Channels[i].Name)
			}
			state.saveConfig()
			if wasConnected {
				handleConnect(state)
			}
		},
	}

	return container.NewTabItem("Channels", container.NewVScroll(form))
}

// createMeasurementTab creates the Measurement configuration tab.
func createMeasurementTab(state *appState) *container.TabItem {
	windowSecondsEntry := widget.NewEntry()
	windowSecondsEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Measurement.WindowSeconds))

	thresholdEntry := widget.NewEntry()
	thresholdEntry.SetText(fmt.Sprintf("%.3f", state.cfg.Measurement.PressThreshold))

	minPressEntry := widget.NewEntry()
	minPressEntry.SetText(fmt.Sprintf("%.3f", state.cfg.Measurement.MinPressDuration))

	averageSamplesEntry := widget.NewEntry()
	averageSamplesEntry.SetText(strconv.Itoa(state.cfg.Measurement.AverageSamples))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Window (seconds)", Widget: windowSecondsEntry},
			{Text: "Press Threshold (level)", Widget: thresholdEntry},
			{Text: "Min Press Duration (s)", Widget: minPressEntry},
			{Text: "Average Samples (0=disabled)", Widget: averageSamplesEntry},
		},
		OnSubmit: func() {
			if ws, err := strconv.ParseFloat(windowSecondsEntry.Text, 64); err == nil && ws > 0 {
				state.cfg.Measurement.WindowSeconds = ws
			}
			if pt, err := strconv.ParseFloat(thresholdEntry.Text, 64); err == nil {
				state.cfg.Measurement.PressThreshold = pt
			}
			if mpd, err := strconv.ParseFloat(minPressEntry.Text, 64); err == nil && mpd >= 0 {
				state.cfg.Measurement.MinPressDuration = mpd
			}
			if avg, err := strconv.Atoi(averageSamplesEntry.Text); err == nil && avg >= 0 {
				state.cfg.Measurement.AverageSamples = avg
			}
			state.saveConfig()
			// The meter is rebuilt with the new settings
			restart(state)
		},
	}

	return container.NewTabItem("Measurement", form)
}

// createMockTab creates the simulated board configuration tab.
func createMockTab(state *appState) *container.TabItem {
	noiseLevelEntry := widget.NewEntry()
	noiseLevelEntry.SetText(fmt.Sprintf("%.4f", state.cfg.Mock.NoiseLevel))

	restLevelEntry := widget.NewEntry()
	restLevelEntry.SetText(fmt.Sprintf("%.3f", state.cfg.Mock.RestLevel))

	pressLevelEntry := widget.NewEntry()
	pressLevelEntry.SetText(fmt.Sprintf("%.3f", state.cfg.Mock.PressLevel))

	pressDurationEntry := widget.NewEntry()
	pressDurationEntry.SetText(state.cfg.Mock.PressDuration.String())

	pressPeriodEntry := widget.NewEntry()
	pressPeriodEntry.SetText(state.cfg.Mock.PressPeriod.String())

	cyclePeriodEntry := widget.NewEntry()
	cyclePeriodEntry.SetText(state.cfg.Mock.CyclePeriod.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Noise Level", Widget: noiseLevelEntry},
			{Text: "Rest Level", Widget: restLevelEntry},
			{Text: "Press Level", Widget: pressLevelEntry},
			{Text: "Press Duration", Widget: pressDurationEntry},
			{Text: "Press Period", Widget: pressPeriodEntry},
			{Text: "Cycle Period", Widget: cyclePeriodEntry},
		},
		OnSubmit: func() {
			if nl, err := strconv.ParseFloat(noiseLevelEntry.Text, 64); err == nil {
				state.cfg.Mock.NoiseLevel = nl
			}
			if rl, err := strconv.ParseFloat(restLevelEntry.Text, 64); err == nil {
				state.cfg.Mock.RestLevel = rl
			}
			if pl, err := strconv.ParseFloat(pressLevelEntry.Text, 64); err == nil {
				state.cfg.Mock.PressLevel = pl
			}
			if pd, err := time.ParseDuration(pressDurationEntry.Text); err == nil && pd > 0 {
				state.cfg.Mock.PressDuration = pd
			}
			if pp, err := time.ParseDuration(pressPeriodEntry.Text); err == nil && pp > 0 {
				state.cfg.Mock.PressPeriod = pp
			}
			if cp, err := time.ParseDuration(cyclePeriodEntry.Text); err == nil && cp > 0 {
				state.cfg.Mock.CyclePeriod = cp
			}
			state.saveConfig()

			if state.useMock {
				restart(state)
			}
		},
	}

	return container.NewTabItem("Mock", form)
}
