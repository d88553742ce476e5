package discovery

import (
	"context"
	"sync"
	"time"

	"github.com/ignatzorin/career-compass/internal/goroutine"
	"github.com/ignatzorin/career-compass/internal/models"
)

// DefaultDebounce пауза ввода, после которой запрос уходит в хранилище.
const DefaultDebounce = 250 * time.Millisecond

// Phase фаза машины состояний поиска.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePending
	PhaseDispatched
	PhaseApplied
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePending:
		return "pending"
	case PhaseDispatched:
		return "dispatched"
	case PhaseApplied:
		return "applied"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Timer отменяемый таймер.
type Timer interface {
	Stop() bool
}

// Scheduler откладывает вызов функции. В тестах подменяется ручным планировщиком.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// Snapshot видимое состояние поиска.
type Snapshot struct {
	Phase Phase
	// Query последний введённый запрос.
	Query Query
	// Seq номер последнего отправленного запроса, AppliedSeq номер примененного ответа.
	Seq        uint64
	AppliedSeq uint64
	Results    []models.Opportunity
	Err        error
	// Discarded количество отброшенных устаревших ответов.
	Discarded uint64
}

// Engine машина состояний поиска: idle → pending → dispatched → applied | failed,
// устаревшие ответы отбрасываются.
//
// Новый ввод отменяет отложенную отправку и запускает паузу заново. Каждая отправка
// получает строго возрастающий номер; ответ применяется, только если его номер равен
// номеру последней отправки. Отправленные запросы не отменяются.
type Engine struct {
	fetcher  Fetcher
	debounce time.Duration
	timeout  time.Duration
	sched    Scheduler
	spawn    func(func())
	onChange func(Snapshot)

	mu      sync.Mutex
	timer   Timer
	gen     uint64
	pending Query
	state   Snapshot
}

// Option настраивает Engine.
type Option func(*Engine)

func WithDebounce(d time.Duration) Option {
	return func(e *Engine) { e.debounce = d }
}

// WithTimeout ограничивает длительность одного запроса.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

func WithScheduler(s Scheduler) Option {
	return func(e *Engine) { e.sched = s }
}

// WithSpawner задаёт способ запуска запроса. По умолчанию goroutine.SafeGo.
func WithSpawner(spawn func(func())) Option {
	return func(e *Engine) { e.spawn = spawn }
}

// WithOnChange подписывает на изменения состояния. Колбэк вызывается без блокировки движка.
func WithOnChange(fn func(Snapshot)) Option {
	return func(e *Engine) { e.onChange = fn }
}

func NewEngine(fetcher Fetcher, opts ...Option) *Engine {
	e := &Engine{
		fetcher:  fetcher,
		debounce: DefaultDebounce,
		timeout:  5 * time.Second,
		sched:    realScheduler{},
		spawn:    goroutine.SafeGo,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Input принимает новый ввод и перезапускает паузу.
func (e *Engine) Input(q Query) {
	e.mu.Lock()
	if e.timer != nil {
		e.timer.Stop()
	}
	e.gen++
	gen := e.gen
	e.pending = q
	e.state.Query = q
	e.state.Phase = PhasePending
	e.timer = e.sched.AfterFunc(e.debounce, func() { e.fire(gen) })
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.notify(snap)
}

// Flush отправляет отложенный запрос немедленно.
func (e *Engine) Flush() {
	e.mu.Lock()
	if e.state.Phase != PhasePending {
		e.mu.Unlock()
		return
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	e.gen++
	e.dispatchLocked()
}

// Cancel отменяет отложенную отправку. Уже отправленные запросы продолжают выполняться.
func (e *Engine) Cancel() {
	e.mu.Lock()
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.gen++
	if e.state.Phase == PhasePending {
		if e.state.Seq > e.state.AppliedSeq {
			e.state.Phase = PhaseDispatched
		} else {
			e.state.Phase = PhaseIdle
		}
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.notify(snap)
}

// fire срабатывает по таймеру; таймер, остановленный слишком поздно, узнаётся по поколению.
func (e *Engine) fire(gen uint64) {
	e.mu.Lock()
	if gen != e.gen || e.state.Phase != PhasePending {
		e.mu.Unlock()
		return
	}
	e.dispatchLocked()
}

// dispatchLocked отправляет запрос и снимает блокировку.
func (e *Engine) dispatchLocked() {
	e.timer = nil
	e.state.Seq++
	seq := e.state.Seq
	filter := e.pending.Filter()
	e.state.Phase = PhaseDispatched
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.notify(snap)

	e.spawn(func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()
		results, err := e.fetcher.Search(ctx, filter)
		e.resolve(seq, results, err)
	})
}

// resolve применяет ответ, если он соответствует последней отправке.
func (e *Engine) resolve(seq uint64, results []models.Opportunity, err error) {
	e.mu.Lock()
	if seq != e.state.Seq {
		e.state.Discarded++
		e.mu.Unlock()
		return
	}

	e.state.AppliedSeq = seq
	if err != nil {
		e.state.Results = nil
		e.state.Err = err
	} else {
		e.state.Results = results
		e.state.Err = nil
	}
	// ввод после отправки уже запланировал новый запрос
	if e.state.Phase != PhasePending {
		if err != nil {
			e.state.Phase = PhaseFailed
		} else {
			e.state.Phase = PhaseApplied
		}
	}
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.notify(snap)
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	snap := e.state
	if e.state.Results != nil {
		snap.Results = append([]models.Opportunity(nil), e.state.Results...)
	}
	return snap
}

func (e *Engine) notify(snap Snapshot) {
	if e.onChange != nil {
		e.onChange(snap)
	}
}
