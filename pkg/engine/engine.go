package engine

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/dougsko/dsss/pkg/config"
	"github.com/dougsko/dsss/pkg/dsss"
	"github.com/dougsko/dsss/pkg/logging"
	"github.com/dougsko/dsss/pkg/protocol"
	"github.com/dougsko/dsss/pkg/spectrum"
)

// Version reported in status responses
const Version = "0.1.0-dev"

// ErrNoWaveform is returned when a waveform is needed before any synthesis
var ErrNoWaveform = errors.New("no transmission calculated yet")

// CoreEngine owns one transmitter and serializes every access to it. It
// serves the line protocol on a Unix socket and fans out new waveforms to
// subscribers.
type CoreEngine struct {
	config     *config.Config
	socketPath string
	listener   net.Listener
	running    bool
	mutex      sync.RWMutex
	startTime  time.Time
	wg         sync.WaitGroup

	tx       *dsss.Transmitter
	analyzer *spectrum.Analyzer

	subMutex    sync.Mutex
	subscribers map[chan *dsss.Waveform]struct{}
}

// NewCoreEngine creates a core engine with the configured code and message
func NewCoreEngine(cfg *config.Config, socketPath string) (*CoreEngine, error) {
	tx, err := dsss.NewTransmitter(cfg.Params(), cfg.Transmitter.Code, cfg.Transmitter.Message)
	if err != nil {
		return nil, fmt.Errorf("failed to create transmitter: %w", err)
	}

	return &CoreEngine{
		config:      cfg,
		socketPath:  socketPath,
		startTime:   time.Now(),
		tx:          tx,
		analyzer:    spectrum.NewAnalyzer(cfg.Spectrum.FFTSize, cfg.Spectrum.OccupiedFraction),
		subscribers: make(map[chan *dsss.Waveform]struct{}),
	}, nil
}

// Start starts the Unix socket server
func (e *CoreEngine) Start() error {
	// Remove stale socket file
	os.Remove(e.socketPath)

	listener, err := net.Listen("unix", e.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create Unix socket: %w", err)
	}

	if err := os.Chmod(e.socketPath, 0660); err != nil {
		logging.Warnf("engine", "failed to set socket permissions: %v", err)
	}

	e.mutex.Lock()
	e.listener = listener
	e.running = true
	e.mutex.Unlock()

	logging.Infof("engine", "listening on %s", e.socketPath)

	e.wg.Add(1)
	go e.acceptConnections()
	return nil
}

// Stop closes the socket and waits for the accept loop to exit
func (e *CoreEngine) Stop() error {
	e.mutex.Lock()
	e.running = false
	listener := e.listener
	e.mutex.Unlock()

	if listener != nil {
		listener.Close()
	}
	e.wg.Wait()

	os.Remove(e.socketPath)

	e.subMutex.Lock()
	for ch := range e.subscribers {
		close(ch)
		delete(e.subscribers, ch)
	}
	e.subMutex.Unlock()

	return nil
}

func (e *CoreEngine) isRunning() bool {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.running
}

func (e *CoreEngine) acceptConnections() {
	defer e.wg.Done()

	for {
		conn, err := e.listener.Accept()
		if err != nil {
			if !e.isRunning() {
				return
			}
			logging.Warnf("engine", "socket accept error: %v", err)
			continue
		}

		go e.handleConnection(conn)
	}
}

func (e *CoreEngine) handleConnection(conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	// full transmissions are large single lines
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		cmd, err := protocol.ParseCommand(line)
		if err != nil {
			response := protocol.NewErrorResponse(fmt.Sprintf("parse error: %v", err))
			conn.Write([]byte(response.String() + "\n"))
			continue
		}

		response := e.HandleCommand(cmd)
		conn.Write([]byte(response.String() + "\n"))

		if cmd.Type == protocol.CmdQuit {
			break
		}
	}
}

// HandleCommand executes a single protocol command
func (e *CoreEngine) HandleCommand(cmd *protocol.Command) *protocol.Response {
	switch cmd.Type {
	case protocol.CmdStatus:
		return protocol.NewSuccessResponse(map[string]interface{}{
			"status": e.Status(),
		})

	case protocol.CmdCode:
		code, _ := cmd.Args["code"].(string)
		if err := e.SetCode(code); err != nil {
			return protocol.NewErrorResponse(err.Error())
		}
		return e.packetResponse()

	case protocol.CmdMessage:
		message, _ := cmd.Args["message"].(string)
		if err := e.SetMessage(message); err != nil {
			return protocol.NewErrorResponse(err.Error())
		}
		return e.packetResponse()

	case protocol.CmdWalsh:
		order, _ := cmd.Args["order"].(int)
		index, _ := cmd.Args["index"].(int)
		if _, err := e.SetWalshCode(order, index); err != nil {
			return protocol.NewErrorResponse(err.Error())
		}
		return e.packetResponse()

	case protocol.CmdPacket:
		return e.packetResponse()

	case protocol.CmdTransmit:
		w, err := e.Transmit()
		if err != nil {
			return protocol.NewErrorResponse(err.Error())
		}
		data := map[string]interface{}{
			"samples":     w.Carrier.Len(),
			"duration":    w.Duration,
			"sample_rate": w.SampleRate,
		}
		if full, _ := cmd.Args["full"].(bool); full {
			data["waveform"] = w
		}
		return protocol.NewSuccessResponse(data)

	case protocol.CmdSpectrum:
		s, err := e.Spectrum()
		if err != nil {
			return protocol.NewErrorResponse(err.Error())
		}
		return protocol.NewSuccessResponse(map[string]interface{}{
			"spectrum": s,
		})

	case protocol.CmdPing:
		return protocol.NewSuccessResponse(map[string]interface{}{
			"pong": time.Now().Unix(),
		})

	case protocol.CmdQuit:
		return protocol.NewSuccessResponse(map[string]interface{}{
			"message": "goodbye",
		})

	default:
		return protocol.NewErrorResponse(fmt.Sprintf("unknown command: %s", cmd.Type))
	}
}

func (e *CoreEngine) packetResponse() *protocol.Response {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	return protocol.NewSuccessResponse(map[string]interface{}{
		"code":          e.tx.Code(),
		"code_flip":     e.tx.CodeFlip(),
		"message":       e.tx.Message(),
		"packet":        e.tx.Packet(),
		"packet_length": len(e.tx.Packet()),
	})
}

// SetCode replaces the spreading code
func (e *CoreEngine) SetCode(code string) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if err := e.tx.SetCode(code); err != nil {
		return err
	}
	logging.Debug("engine", "code updated", logging.Fields{"code": code, "packet_length": len(e.tx.Packet())})
	return nil
}

// SetMessage replaces the message
func (e *CoreEngine) SetMessage(message string) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if err := e.tx.SetMessage(message); err != nil {
		return err
	}
	logging.Debug("engine", "message updated", logging.Fields{"message": message, "packet_length": len(e.tx.Packet())})
	return nil
}

// SetWalshCode selects row index of the order-n Walsh-Hadamard matrix as the code
func (e *CoreEngine) SetWalshCode(order, index int) (string, error) {
	code, err := dsss.WalshCode(order, index)
	if err != nil {
		return "", err
	}
	if err := e.SetCode(code); err != nil {
		return "", err
	}
	return code, nil
}

// Transmit synthesizes the waveform for the current packet and publishes it
func (e *CoreEngine) Transmit() (*dsss.Waveform, error) {
	e.mutex.Lock()
	w, err := e.tx.CalculateTransmission()
	e.mutex.Unlock()
	if err != nil {
		return nil, err
	}

	logging.Infof("engine", "transmission calculated: %d samples over %g time units", w.Carrier.Len(), w.Duration)
	e.publish(w)
	return w, nil
}

// Waveform returns the last synthesized waveform and whether it is stale
func (e *CoreEngine) Waveform() (*dsss.Waveform, bool) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	return e.tx.Waveform(), e.tx.Stale()
}

// Spectrum analyzes the carrier of the last synthesized waveform
func (e *CoreEngine) Spectrum() (spectrum.Spectrum, error) {
	w, _ := e.Waveform()
	if w == nil {
		return spectrum.Spectrum{}, ErrNoWaveform
	}
	return e.analyzer.Analyze(w.Carrier.Samples, w.SampleRate), nil
}

// Status returns a snapshot of the transmitter state
func (e *CoreEngine) Status() protocol.Status {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	p := e.tx.Params()
	status := protocol.Status{
		Code:          e.tx.Code(),
		CodeFlip:      e.tx.CodeFlip(),
		Message:       e.tx.Message(),
		Packet:        e.tx.Packet(),
		PacketLength:  len(e.tx.Packet()),
		Modulation:    p.Modulation,
		SymbolPeriod:  p.SymbolPeriod,
		SymbolSamples: p.SymbolSamples,
		Strict:        p.Strict,
		Stale:         e.tx.Stale(),
		Uptime:        time.Since(e.startTime).String(),
		StartTime:     e.startTime,
		Version:       Version,
	}
	if w := e.tx.Waveform(); w != nil {
		status.Samples = w.Carrier.Len()
	}
	return status
}

// Subscribe returns a channel that receives every new waveform. Slow
// subscribers miss waveforms rather than block Transmit.
func (e *CoreEngine) Subscribe() chan *dsss.Waveform {
	ch := make(chan *dsss.Waveform, 1)
	e.subMutex.Lock()
	e.subscribers[ch] = struct{}{}
	e.subMutex.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscription channel
func (e *CoreEngine) Unsubscribe(ch chan *dsss.Waveform) {
	e.subMutex.Lock()
	defer e.subMutex.Unlock()
	if _, ok := e.subscribers[ch]; ok {
		delete(e.subscribers, ch)
		close(ch)
	}
}

func (e *CoreEngine) publish(w *dsss.Waveform) {
	e.subMutex.Lock()
	defer e.subMutex.Unlock()
	for ch := range e.subscribers {
		select {
		case ch <- w:
		default:
			logging.Debug("engine", "subscriber busy, waveform dropped")
		}
	}
}
