package stream

// Device defines the interface for sensor boards (real or mocked).
type Device interface {
	Connect() error
	Close() error
	Frames() <-chan Frame
	IsConnected() bool
}

var _ Device = (*Serial)(nil)

var _ Device = (*Mock)(nil)
