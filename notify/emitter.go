package notify

import (
	"io"
	"sync"

	"github.com/SyNdicateFoundation/pockethost/pockettypes"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

// Emitter delivers events to the host. Emit may be called from any goroutine.
type Emitter interface {
	Emit(e pockettypes.Event)
}

type EmitterFunc func(e pockettypes.Event)

func (f EmitterFunc) Emit(e pockettypes.Event) { f(e) }

// Discard drops every event.
var Discard Emitter = EmitterFunc(func(pockettypes.Event) {})

// LogEmitter writes each event as a log line.
type LogEmitter struct {
	Log logrus.FieldLogger
}

func (l LogEmitter) Emit(e pockettypes.Event) {
	log := l.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	args := e.Args
	if e.Name == QRCodeScanned && len(args) == 2 {
		args = []any{e.Arg(0), "<redacted>"}
	}
	log.WithFields(logrus.Fields{"signal": e.Name, "args": args}).Info("emitting signal")
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type wireEvent struct {
	Signal string `json:"signal"`
	Args   []any  `json:"args"`
	Time   string `json:"time"`
}

// WriterEmitter writes one JSON object per event to an io.Writer.
type WriterEmitter struct {
	mu  sync.Mutex
	enc *jsoniter.Encoder
	err error
}

func NewWriterEmitter(w io.Writer) *WriterEmitter {
	return &WriterEmitter{enc: json.NewEncoder(w)}
}

func (w *WriterEmitter) Emit(e pockettypes.Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.err != nil {
		return
	}
	w.err = w.enc.Encode(wireEvent{
		Signal: e.Name,
		Args:   e.Args,
		Time:   e.Time.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}

// Err returns the first write error. Events after it are dropped.
func (w *WriterEmitter) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// ChanEmitter forwards events to a channel, dropping them when it is full.
type ChanEmitter struct {
	C chan pockettypes.Event
}

func NewChanEmitter(size int) *ChanEmitter {
	return &ChanEmitter{C: make(chan pockettypes.Event, size)}
}

func (c *ChanEmitter) Emit(e pockettypes.Event) {
	select {
	case c.C <- e:
	default:
		logrus.WithField("signal", e.Name).Warn("event channel full, dropping signal")
	}
}

// Multi fans every event out to each emitter in order.
func Multi(emitters ...Emitter) Emitter {
	var out []Emitter
	for _, e := range emitters {
		if e != nil {
			out = append(out, e)
		}
	}
	return EmitterFunc(func(e pockettypes.Event) {
		for _, em := range out {
			em.Emit(e)
		}
	})
}
