package stream

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	"github.com/optoforge/labcomm/internal/logging"
	"github.com/optoforge/labcomm/internal/observability"
	"github.com/optoforge/labcomm/internal/transport"
)

const (
	startByte  = 0x7E
	escapeByte = 0x7D
	escapeMask = 0x20

	readChunk = 256
)

// Config tunes one Decoder instance.
type Config struct {
	// QueueSize bounds the record queue; overflow drops the oldest record.
	QueueSize int
	// PollInterval bounds each transport read so shutdown is observed
	// promptly.
	PollInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		QueueSize:    4096,
		PollInterval: 100 * time.Millisecond,
	}
}

// Decoder runs one background worker that converts the raw stream into
// records. Corrupt input never stops it: a start marker inside a partial
// frame drops the partial and begins a new one. Only Shutdown or a fatal
// transport error ends the worker.
type Decoder struct {
	tr    transport.Transport
	cfg   Config
	queue *recordQueue
	log   zerolog.Logger

	stop     chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
	workers  conc.WaitGroup

	// worker-only decode state
	buf    []byte
	synced bool
	esc    bool
}

func NewDecoder(tr transport.Transport, cfg Config) *Decoder {
	def := DefaultConfig()
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	return &Decoder{
		tr:    tr,
		cfg:   cfg,
		queue: newRecordQueue(cfg.QueueSize),
		log:   logging.New("stream"),
		stop:  make(chan struct{}),
		buf:   make([]byte, 0, RecordLen),
	}
}

// Start launches the worker. Subsequent calls are no-ops.
func (d *Decoder) Start() {
	if !d.started.CompareAndSwap(false, true) {
		return
	}
	d.workers.Go(d.run)
}

// Shutdown requests a cooperative stop. Safe to call more than once.
func (d *Decoder) Shutdown() {
	d.stopOnce.Do(func() { close(d.stop) })
}

// Join blocks until the worker has exited.
func (d *Decoder) Join() {
	d.workers.Wait()
}

// PopAll drains all queued records in arrival order without blocking.
func (d *Decoder) PopAll() []Record {
	return d.queue.popAll()
}

func (d *Decoder) run() {
	d.log.Debug().Msg("stream worker started")
	for {
		select {
		case <-d.stop:
			d.log.Debug().Int("partial", len(d.buf)).Msg("stream worker stopping")
			return
		default:
		}
		chunk, err := d.tr.ReadUntilTimeout(readChunk, d.cfg.PollInterval)
		if err != nil {
			d.log.Error().Err(err).Msg("stream read failed, worker exiting")
			return
		}
		for _, b := range chunk {
			d.feed(b)
		}
	}
}

// feed advances the frame state machine by one raw byte.
func (d *Decoder) feed(b byte) {
	if b == startByte {
		if d.synced && len(d.buf) > 0 {
			// Corruption recovery: drop the partial frame and resync.
			d.log.Debug().Int("partial", len(d.buf)).Msg("start marker inside frame, resyncing")
			observability.RecordStreamResync()
		}
		d.buf = d.buf[:0]
		d.synced = true
		d.esc = false
		return
	}
	if !d.synced {
		return
	}
	if d.esc {
		b ^= escapeMask
		d.esc = false
	} else if b == escapeByte {
		d.esc = true
		return
	}
	d.buf = append(d.buf, b)
	if len(d.buf) == RecordLen {
		if d.queue.push(decodeRecord(d.buf)) {
			observability.RecordStreamOverflow()
		}
		observability.RecordStreamRecord()
		d.buf = d.buf[:0]
		d.synced = false
	}
}
