package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/dougsko/dsss/pkg/dsss"
	"github.com/dougsko/dsss/pkg/engine"
	"github.com/dougsko/dsss/pkg/logging"
	"github.com/dougsko/dsss/pkg/render"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

type codeRequest struct {
	Code *string `json:"code" binding:"required"`
}

type messageRequest struct {
	Message *string `json:"message" binding:"required"`
}

type walshRequest struct {
	Order int `json:"order" binding:"required"`
	Index int `json:"index"`
}

// errorStatus maps engine and encoder errors to HTTP status codes
func errorStatus(err error) int {
	switch {
	case errors.Is(err, dsss.ErrInvalidBit), errors.Is(err, dsss.ErrInvalidOrder),
		errors.Is(err, dsss.ErrInvalidIndex):
		return http.StatusBadRequest
	case errors.Is(err, dsss.ErrEmptyCode):
		return http.StatusConflict
	case errors.Is(err, engine.ErrNoWaveform):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (d *DSSSDaemon) packetJSON() gin.H {
	status := d.coreEngine.Status()
	return gin.H{
		"code":          status.Code,
		"code_flip":     status.CodeFlip,
		"message":       status.Message,
		"packet":        status.Packet,
		"packet_length": status.PacketLength,
		"stale":         status.Stale,
	}
}

func (d *DSSSDaemon) handleGetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": d.coreEngine.Status()})
}

func (d *DSSSDaemon) handleGetPacket(c *gin.Context) {
	c.JSON(http.StatusOK, d.packetJSON())
}

func (d *DSSSDaemon) handleSetCode(c *gin.Context) {
	var req codeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := d.coreEngine.SetCode(*req.Code); err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, d.packetJSON())
}

func (d *DSSSDaemon) handleSetWalshCode(c *gin.Context) {
	var req walshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := d.coreEngine.SetWalshCode(req.Order, req.Index); err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, d.packetJSON())
}

func (d *DSSSDaemon) handleSetMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := d.coreEngine.SetMessage(*req.Message); err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, d.packetJSON())
}

func (d *DSSSDaemon) handleTransmit(c *gin.Context) {
	w, err := d.coreEngine.Transmit()
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"samples":     w.Carrier.Len(),
		"duration":    w.Duration,
		"sample_rate": w.SampleRate,
		"plot":        render.NewPlot(w),
	})
}

func (d *DSSSDaemon) handleGetTransmission(c *gin.Context) {
	w, stale := d.coreEngine.Waveform()
	if w == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": engine.ErrNoWaveform.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"samples":     w.Carrier.Len(),
		"duration":    w.Duration,
		"sample_rate": w.SampleRate,
		"stale":       stale,
		"plot":        render.NewPlot(w),
	})
}

func (d *DSSSDaemon) handleGetSpectrum(c *gin.Context) {
	s, err := d.coreEngine.Spectrum()
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"spectrum": s})
}

// handleSaveConfig writes the current code and message back to the config file
func (d *DSSSDaemon) handleSaveConfig(c *gin.Context) {
	if d.configPath == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "daemon was started without a config file"})
		return
	}

	status := d.coreEngine.Status()
	cfg := *d.config
	cfg.Transmitter.Code = status.Code
	cfg.Transmitter.Message = status.Message

	if err := cfg.SaveConfig(d.configPath); err != nil {
		logging.Errorf("web", "Failed to save config: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	logging.Infof("web", "Configuration saved to %s", d.configPath)
	c.JSON(http.StatusOK, gin.H{"success": true, "path": d.configPath})
}

// handleWaveformWebSocket streams every new transmission as a plot. The last
// waveform, if any, is sent on connect.
func (d *DSSSDaemon) handleWaveformWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Errorf("web", "WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	ch := d.coreEngine.Subscribe()
	defer d.coreEngine.Unsubscribe(ch)

	// Reader loop only detects client disconnects
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(w *dsss.Waveform, stale bool) error {
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		return conn.WriteJSON(gin.H{
			"type":  "waveform",
			"stale": stale,
			"plot":  render.NewPlot(w),
		})
	}

	if w, stale := d.coreEngine.Waveform(); w != nil {
		if err := send(w, stale); err != nil {
			return
		}
	}

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-closed:
			return
		case w, ok := <-ch:
			if !ok {
				return
			}
			if err := send(w, false); err != nil {
				logging.Debugf("web", "WebSocket write error: %v", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
