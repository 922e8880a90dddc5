package main

import (
	"flag"
	"fmt"
	"log"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/spacer/pkg/config"
	"github.com/itohio/spacer/pkg/meter"
	"github.com/itohio/spacer/pkg/sample"
	"github.com/itohio/spacer/pkg/scope"
	"github.com/itohio/spacer/pkg/stream"
)

// Throttle scope updates to ~60 FPS
const updateInterval = 16 * time.Millisecond

func main() {
	var (
		portFlag           = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag         = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag           = flag.Bool("mock", false, "Use simulated sensor board instead of serial port")
		averageSamplesFlag = flag.Int("average-samples", -1, "Number of frames to average (0 = disabled, overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *averageSamplesFlag >= 0 {
		cfg.Measurement.AverageSamples = *averageSamplesFlag
	}

	application := app.NewWithID("com.itohio.spacer")

	window := application.NewWindow("Spacer Fabric Sensors")
	window.Resize(fyne.NewSize(1200, 800))
	window.CenterOnScreen()

	state := &appState{
		cfg:        cfg,
		configPath: *configFlag,
		window:     window,
		useMock:    *mockFlag,
	}

	toolbar := createToolbar(state)

	state.scopeWidget = scope.New(cfg)

	window.SetContent(container.NewBorder(toolbar, nil, nil, nil, state.scopeWidget))
	window.SetOnClosed(func() {
		closeMeasurementChain(state.chain)
	})
	window.ShowAndRun()
}

// measurementChain tracks the components of the measurement chain for graceful shutdown.
type measurementChain struct {
	device         stream.Device
	meter          *meter.Meter
	samplesStream  <-chan sample.Sample
	meterGoroutine chan struct{} // Closed when meter goroutine exits
}

// appState holds the application state.
type appState struct {
	cfg         *config.Config
	configPath  string
	scopeWidget *scope.ScopeWidget
	window      fyne.Window
	connectBtn  *widget.Button
	tareBtn     *widget.Button
	channelBtns []*widget.Button
	useMock     bool
	pressed     []bool            // Last shown press state per channel
	chain       *measurementChain // Current measurement chain (nil if not connected)

	lastUpdateTime time.Time
	updateMu       sync.Mutex
}

func (s *appState) connected() bool {
	return s.chain != nil && s.chain.device.IsConnected()
}

// saveConfig writes the configuration and reports failures in a dialog.
func (s *appState) saveConfig() {
	if err := s.cfg.Save(s.configPath); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save config: %w", err), s.window)
	}
}

// createToolbar creates the toolbar with Connect, Settings and Tare buttons on
// the left and one press indicator per channel on the right.
func createToolbar(state *appState) fyne.CanvasObject {
	connectBtn := widget.NewButtonWithIcon("", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	state.connectBtn = connectBtn

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	tareBtn := widget.NewButtonWithIcon("Tare", theme.ViewRefreshIcon(), func() {
		handleTare(state)
	})
	tareBtn.Disable()
	state.tareBtn = tareBtn

	indicators := container.NewHBox()
	state.channelBtns = state.channelBtns[:0]
	for _, name := range state.cfg.ChannelNames() {
		btn := widget.NewButton(name, nil)
		btn.Disable()
		state.channelBtns = append(state.channelBtns, btn)
		indicators.Add(btn)
	}
	state.pressed = make([]bool, len(state.channelBtns))

	return container.NewBorder(
		nil,
		nil,
		container.NewHBox(connectBtn, settingsBtn, tareBtn),
		indicators,
		nil,
	)
}

// closeMeasurementChain closes the device and waits for the chain to drain.
func closeMeasurementChain(chain *measurementChain) {
	if chain == nil {
		return
	}

	// Closing the device closes its frames channel, which drains the converters
	if chain.device != nil {
		chain.device.Close()
	}

	if chain.meterGoroutine != nil {
		<-chain.meterGoroutine
	}
}

// disconnect tears down the running chain and resets the toolbar.
func disconnect(state *appState) {
	closeMeasurementChain(state.chain)
	state.chain = nil
	state.tareBtn.Disable()
	for i := range state.pressed {
		state.pressed[i] = false
	}
	updateChannelButtons(state)
	if state.useMock {
		log.Println("Disconnected from simulated board")
	} else {
		log.Println("Disconnected from serial port")
	}
}

// handleConnect handles the connect/disconnect button click.
func handleConnect(state *appState) {
	if state.connected() {
		disconnect(state)
		return
	}

	channels := len(state.cfg.Channels)
	var device stream.Device
	if state.useMock {
		device = stream.NewMock(&state.cfg.Mock, channels)
		log.Println("Using simulated board")
	} else {
		device = stream.New(state.cfg.Serial.Port, state.cfg.Serial.BaudRate, channels, stream.DefaultBufferSize)
	}

	if err := device.Connect(); err != nil {
		if state.useMock {
			dialog.ShowError(fmt.Errorf("failed to start simulated board: %w", err), state.window)
		} else {
			dialog.ShowError(fmt.Errorf("failed to connect to %s: %w", state.cfg.Serial.Port, err), state.window)
		}
		return
	}
	if state.useMock {
		log.Println("Connected to simulated board")
	} else {
		log.Printf("Connected to serial port: %s", state.cfg.Serial.Port)
	}

	// A fresh meter per chain picks up the current measurement settings
	m := meter.New(state.cfg)
	m.OnUpdate(func(samples []sample.Sample, presses []meter.Press) {
		state.updateMu.Lock()
		now := time.Now()
		if now.Sub(state.lastUpdateTime) < updateInterval {
			state.updateMu.Unlock()
			return
		}
		state.lastUpdateTime = now
		state.updateMu.Unlock()

		active := m.Pressed()
		fyne.Do(func() {
			state.scopeWidget.UpdateData(samples, presses)
			setPressed(state, active)
		})
	})

	// Base converter always, averaging converter when enabled
	var samplesStream <-chan sample.Sample
	if state.cfg.Measurement.AverageSamples > 0 {
		samplesStream = sample.NewAveragingConverter(state.cfg, state.cfg.Measurement.AverageSamples, 500)(device.Frames())
	} else {
		samplesStream = sample.NewConverter(state.cfg, 500)(device.Frames())
	}

	meterDone := make(chan struct{})
	go func() {
		defer close(meterDone)
		m.ProcessSamples(samplesStream)
	}()

	state.chain = &measurementChain{
		device:         device,
		meter:          m,
		samplesStream:  samplesStream,
		meterGoroutine: meterDone,
	}
	state.tareBtn.Enable()
}

// restart reconnects a running chain so that new settings take effect.
func restart(state *appState) {
	if !state.connected() {
		return
	}
	disconnect(state)
	handleConnect(state)
}
