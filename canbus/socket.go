package canbus

import (
	"context"
	"fmt"
	"net"

	"go.einride.tech/can"
	"go.einride.tech/can/pkg/socketcan"
)

// FrameWriter transmits frames to the flight bus.
type FrameWriter interface {
	WriteFrame(ctx context.Context, frame can.Frame) error
	Close() error
}

// FrameReader receives frames from the flight bus.
type FrameReader interface {
	ReadFrame(ctx context.Context) (can.Frame, error)
	Close() error
}

// SocketWriter is a FrameWriter over SocketCAN.
type SocketWriter struct {
	conn net.Conn
	tx   *socketcan.Transmitter
}

// NewSocketWriter opens a SocketCAN connection on the given interface
// (e.g. "can0", "vcan0") for transmit.
func NewSocketWriter(ctx context.Context, iface string) (*SocketWriter, error) {
	conn, err := socketcan.DialContext(ctx, "can", iface)
	if err != nil {
		return nil, fmt.Errorf("socketcan dial %s: %w", iface, err)
	}
	return &SocketWriter{conn: conn, tx: socketcan.NewTransmitter(conn)}, nil
}

func (w *SocketWriter) WriteFrame(ctx context.Context, frame can.Frame) error {
	return w.tx.TransmitFrame(ctx, frame)
}

func (w *SocketWriter) Close() error {
	if w.conn != nil {
		return w.conn.Close()
	}
	return nil
}

// SocketReader is a FrameReader over SocketCAN.
type SocketReader struct {
	conn net.Conn
	recv *socketcan.Receiver
}

// NewSocketReader opens a SocketCAN connection on the given interface for
// receive.
func NewSocketReader(ctx context.Context, iface string) (*SocketReader, error) {
	conn, err := socketcan.DialContext(ctx, "can", iface)
	if err != nil {
		return nil, fmt.Errorf("socketcan dial %s: %w", iface, err)
	}
	return &SocketReader{conn: conn, recv: socketcan.NewReceiver(conn)}, nil
}

// ReadFrame blocks until a frame arrives or ctx is canceled.
func (r *SocketReader) ReadFrame(ctx context.Context) (can.Frame, error) {
	frameCh := make(chan can.Frame, 1)
	errCh := make(chan error, 1)

	go func() {
		if r.recv.Receive() {
			frameCh <- r.recv.Frame()
		} else {
			errCh <- fmt.Errorf("receive failed")
		}
	}()

	select {
	case <-ctx.Done():
		return can.Frame{}, ctx.Err()
	case frame := <-frameCh:
		return frame, nil
	case err := <-errCh:
		return can.Frame{}, err
	}
}

func (r *SocketReader) Close() error {
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
