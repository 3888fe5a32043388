package pulsesource

import (
	"encoding/binary"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/sergiomo/diy-rower-monitor/internal/monitoring"
)

// The pigpio socket interface speaks fixed-size little-endian binary
// commands and responses over a control connection, and streams 12-byte
// notification reports over a second connection once monitoring is armed.
// See the pigpio project's socket interface documentation for the wire
// format; the subset used here is the part needed to watch one GPIO for
// falling edges.
const (
	cmdModes        = 0  // set a GPIO's mode (input/output)
	cmdGlitchFilter = 98 // suppress GPIO transitions shorter than N microseconds
	cmdNotifyOpen   = 31 // allocate a notification handle
	cmdNotifyBegin  = 33 // start streaming reports for a bitmask of GPIOs

	gpioModeInput = 0

	notificationReportSize = 12
)

// LiveGlitchFilterMicros, LiveIPAddress and so on have no package-level
// defaults; every field of LiveSource must be set explicitly by its caller,
// who reads them out of config.Config.

// LiveSource streams falling-edge pulses from a GPIO pin over a pigpio
// daemon's socket interface. The reflective sensor it watches has no
// hysteresis, so GlitchFilterMicros exists to suppress chatter around each
// transition in the daemon itself, before it ever reaches this process.
type LiveSource struct {
	IPAddress          string
	Port               int
	GPIOPin            uint32
	GlitchFilterMicros int

	mu      sync.Mutex
	control net.Conn
	notify  net.Conn
	stopped chan struct{}
	wg      sync.WaitGroup
}

// Start connects to the pigpio daemon, arms the glitch filter and
// notification stream for GPIOPin, and begins delivering one handler call
// per falling edge. It returns once the connection and subscription are
// established; delivery continues on a background goroutine until Stop is
// called or the connection drops.
func (s *LiveSource) Start(handler Handler) error {
	addr := fmt.Sprintf("%s:%d", s.IPAddress, s.Port)

	control, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return &SourceError{Err: fmt.Errorf("connecting to pigpio daemon at %s: %w", addr, err)}
	}

	if err := sendCommand(control, cmdModes, s.GPIOPin, gpioModeInput, 0); err != nil {
		control.Close()
		return &SourceError{Err: fmt.Errorf("setting gpio %d to input: %w", s.GPIOPin, err)}
	}
	if err := sendCommand(control, cmdGlitchFilter, s.GPIOPin, uint32(s.GlitchFilterMicros), 0); err != nil {
		control.Close()
		return &SourceError{Err: fmt.Errorf("setting glitch filter on gpio %d: %w", s.GPIOPin, err)}
	}

	handle, err := sendCommand(control, cmdNotifyOpen, 0, 0, 0)
	if err != nil {
		control.Close()
		return &SourceError{Err: fmt.Errorf("opening notification handle: %w", err)}
	}

	notify, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		control.Close()
		return &SourceError{Err: fmt.Errorf("opening notification stream: %w", err)}
	}
	bitmask := uint32(1) << s.GPIOPin
	if err := sendCommand(notify, cmdNotifyBegin, handle, bitmask, 0); err != nil {
		control.Close()
		notify.Close()
		return &SourceError{Err: fmt.Errorf("starting notification stream: %w", err)}
	}

	s.mu.Lock()
	s.control = control
	s.notify = notify
	s.stopped = make(chan struct{})
	s.mu.Unlock()

	s.wg.Add(1)
	go s.readReports(handler, bitmask)

	return nil
}

// readReports decodes 12-byte notification records and calls handler on
// every 1->0 transition of the watched GPIO.
func (s *LiveSource) readReports(handler Handler, bitmask uint32) {
	defer s.wg.Done()

	buf := make([]byte, notificationReportSize)
	var havePrevLevel bool
	var prevBitSet bool

	for {
		if _, err := readFull(s.notify, buf); err != nil {
			select {
			case <-s.stopped:
				return
			default:
				monitoring.Logf("pulsesource: notification stream closed: %v", err)
				return
			}
		}

		tick := binary.LittleEndian.Uint32(buf[4:8])
		level := binary.LittleEndian.Uint32(buf[8:12])
		bitSet := level&bitmask != 0

		if havePrevLevel && prevBitSet && !bitSet {
			handler(tick)
		}
		prevBitSet = bitSet
		havePrevLevel = true
	}
}

// Stop closes both connections and waits for the reader goroutine to exit.
func (s *LiveSource) Stop() error {
	s.mu.Lock()
	if s.stopped != nil {
		close(s.stopped)
	}
	control, notify := s.control, s.notify
	s.mu.Unlock()

	if control != nil {
		control.Close()
	}
	if notify != nil {
		notify.Close()
	}
	s.wg.Wait()
	return nil
}

// sendCommand writes a 16-byte pigpio command (cmd, p1, p2, p3, all
// little-endian uint32) and returns the response's result field.
func sendCommand(conn net.Conn, cmd, p1, p2, p3 uint32) (uint32, error) {
	req := make([]byte, 16)
	binary.LittleEndian.PutUint32(req[0:4], cmd)
	binary.LittleEndian.PutUint32(req[4:8], p1)
	binary.LittleEndian.PutUint32(req[8:12], p2)
	binary.LittleEndian.PutUint32(req[12:16], p3)
	if _, err := conn.Write(req); err != nil {
		return 0, err
	}

	resp := make([]byte, 16)
	if _, err := readFull(conn, resp); err != nil {
		return 0, err
	}
	result := binary.LittleEndian.Uint32(resp[12:16])
	return result, nil
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
