package export

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"
)

// ErrNoPrinter is returned by the null printer.
var ErrNoPrinter = errors.New("printer: no printer configured")

// Printer sends a PDF to a printer that accepts PDF as a raw job.
type Printer interface {
	Print(ctx context.Context, artifact Artifact) error
	Name() string
}

// networkPrinter streams the job over TCP, e.g. to a JetDirect port 9100.
type networkPrinter struct {
	address string
	timeout time.Duration
}

// NewNetworkPrinter creates a printer that connects via TCP.
// Address should include the port, e.g. "192.168.1.100:9100".
func NewNetworkPrinter(address string) Printer {
	return &networkPrinter{address: address, timeout: 5 * time.Second}
}

func (p *networkPrinter) Name() string { return "network:" + p.address }

func (p *networkPrinter) Print(ctx context.Context, artifact Artifact) error {
	dialer := net.Dialer{Timeout: p.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", p.address)
	if err != nil {
		return fmt.Errorf("printer: connect %s: %w", p.address, err)
	}
	defer func() { _ = conn.Close() }()

	deadline := time.Now().Add(30 * time.Second)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetWriteDeadline(deadline)

	if _, err := conn.Write(artifact.Data); err != nil {
		return fmt.Errorf("printer: write %s: %w", p.address, err)
	}
	return ctx.Err()
}

// devicePrinter writes the job to a device file such as /dev/usb/lp0.
type devicePrinter struct {
	path string
}

// NewDevicePrinter creates a printer that writes to a local device file.
func NewDevicePrinter(path string) Printer {
	return &devicePrinter{path: path}
}

func (p *devicePrinter) Name() string { return "device:" + p.path }

func (p *devicePrinter) Print(ctx context.Context, artifact Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.OpenFile(p.path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("printer: open %s: %w", p.path, err)
	}
	defer func() { _ = f.Close() }()
	if _, err := f.Write(artifact.Data); err != nil {
		return fmt.Errorf("printer: write %s: %w", p.path, err)
	}
	return nil
}

type nullPrinter struct{}

// NewNullPrinter returns a printer that rejects every job.
func NewNullPrinter() Printer { return nullPrinter{} }

func (nullPrinter) Name() string { return "none" }

func (nullPrinter) Print(context.Context, Artifact) error { return ErrNoPrinter }

// NewPrinterFromConfig creates the Printer for printerType: "network",
// "device" or "none".
func NewPrinterFromConfig(printerType, address string) (Printer, error) {
	switch printerType {
	case "network":
		if address == "" {
			return nil, fmt.Errorf("printer: address is required for network printer type")
		}
		return NewNetworkPrinter(address), nil
	case "device":
		if address == "" {
			return nil, fmt.Errorf("printer: device path is required for device printer type")
		}
		return NewDevicePrinter(address), nil
	case "none", "":
		return NewNullPrinter(), nil
	default:
		return nil, fmt.Errorf("printer: unknown printer type %q (use network, device, or none)", printerType)
	}
}
