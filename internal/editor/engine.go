// Package editor is the transactional editing engine that owns a live
// document tree. All reads and writes go through Update/Read; each Update
// works on a private copy of the committed tree and replaces it atomically.
package editor

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/starford/stencil/internal/document"
)

// TagHistoric marks a commit that must not become an undo step.
const TagHistoric = "historic"

var (
	ErrAlreadyInitialized = errors.New("editor: already initialized")
	errDeclined           = errors.New("editor: command declined")
)

// Update describes one committed change, as seen by update listeners.
// Root must be treated as read-only.
type Update struct {
	Root      *document.Node
	Selection Selection
	Tags      []string
}

type (
	UpdateListener func(Update)
	Transform      func(tx *Txn)
	InitFunc       func(tx *Txn) error
)

type registration[T any] struct {
	id int
	fn T
}

type snapshot struct {
	root      *document.Node
	selection Selection
}

// Engine holds the committed document state.
type Engine struct {
	mu          sync.Mutex
	keys        *document.Sequence
	root        *document.Node
	selection   Selection
	initialized bool

	nextID     int
	commands   map[Command][]commandReg
	listeners  []registration[UpdateListener]
	transforms []registration[Transform]
	undo       []snapshot
	maxUndo    int

	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithUndoLimit bounds the undo stack.
func WithUndoLimit(n int) Option {
	return func(e *Engine) { e.maxUndo = n }
}

// New returns an uninitialized engine holding an empty document.
func New(opts ...Option) *Engine {
	e := &Engine{
		keys:     document.NewSequence("n"),
		commands: make(map[Command][]commandReg),
		maxUndo:  100,
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	e.root = e.emptyRoot()
	e.selection = Caret(startPoint(e.root))
	registerInlineCommands(e)
	return e
}

func (e *Engine) emptyRoot() *document.Node {
	root := document.NewRoot(e.keys)
	root.Append(document.NewParagraph(e.keys))
	return root
}

// Initialize runs fn once to build the starting document. The commit is
// tagged historic. When fn fails the error is logged, the engine keeps an
// empty document and the error is returned.
func (e *Engine) Initialize(fn InitFunc) error {
	e.mu.Lock()
	if e.initialized {
		e.mu.Unlock()
		return ErrAlreadyInitialized
	}
	e.initialized = true
	e.mu.Unlock()

	err := e.Update(func(tx *Txn) error {
		tx.root.Clear()
		if err := fn(tx); err != nil {
			return err
		}
		if tx.root.ChildCount() == 0 {
			tx.root.Append(document.NewParagraph(tx))
		}
		tx.SelectEnd(tx.root)
		return nil
	}, TagHistoric)
	if err != nil {
		e.logger.Error("editor: initial state failed, using empty document", slog.String("error", err.Error()))
		return fmt.Errorf("editor: initialize: %w", err)
	}
	return nil
}

// Initialized reports whether Initialize has run.
func (e *Engine) Initialized() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initialized
}

// Update runs fn against a copy of the committed tree and commits the result
// unless fn returns an error.
func (e *Engine) Update(fn func(tx *Txn) error, tags ...string) error {
	u, listeners, err := e.commit(fn, tags)
	if err != nil {
		return err
	}
	for _, l := range listeners {
		l(u)
	}
	return nil
}

func (e *Engine) commit(fn func(tx *Txn) error, tags []string) (Update, []UpdateListener, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	tx := &Txn{
		root:      e.root.Clone(),
		selection: e.selection,
		keys:      e.keys,
		tags:      make(map[string]struct{}, len(tags)),
	}
	for _, t := range tags {
		tx.AddTag(t)
	}
	if err := fn(tx); err != nil {
		return Update{}, nil, err
	}
	for _, t := range e.transforms {
		t.fn(tx)
	}
	tx.fixSelection()

	if !tx.HasTag(TagHistoric) {
		e.undo = append(e.undo, snapshot{root: e.root, selection: e.selection})
		if len(e.undo) > e.maxUndo {
			e.undo = e.undo[len(e.undo)-e.maxUndo:]
		}
	}
	e.root, e.selection = tx.root, tx.selection

	listeners := make([]UpdateListener, 0, len(e.listeners))
	for _, l := range e.listeners {
		listeners = append(listeners, l.fn)
	}
	return Update{Root: e.root, Selection: e.selection, Tags: tx.Tags()}, listeners, nil
}

// Read calls fn with the committed tree and selection. fn must not mutate the tree.
func (e *Engine) Read(fn func(root *document.Node, sel Selection)) {
	e.mu.Lock()
	root, sel := e.root, e.selection
	e.mu.Unlock()
	fn(root, sel)
}

// Snapshot returns a detached copy of the committed tree.
func (e *Engine) Snapshot() *document.Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.root.Clone()
}

// SetSelection places the selection without creating an undo step.
func (e *Engine) SetSelection(sel Selection) error {
	return e.Update(func(tx *Txn) error {
		if tx.NodeByKey(sel.Anchor.Key) == nil || tx.NodeByKey(sel.Focus.Key) == nil {
			return fmt.Errorf("editor: set selection: unknown key")
		}
		tx.SetSelection(sel)
		return nil
	}, TagHistoric)
}

// Undo restores the state before the last non-historic commit.
func (e *Engine) Undo() bool {
	e.mu.Lock()
	if len(e.undo) == 0 {
		e.mu.Unlock()
		return false
	}
	last := e.undo[len(e.undo)-1]
	e.undo = e.undo[:len(e.undo)-1]
	e.mu.Unlock()

	return e.Update(func(tx *Txn) error {
		tx.root = last.root.Clone()
		tx.selection = last.selection
		return nil
	}, TagHistoric) == nil
}

// RegisterUpdateListener subscribes l to commits and returns its unsubscribe func.
func (e *Engine) RegisterUpdateListener(l UpdateListener) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := e.nextID
	e.listeners = append(e.listeners, registration[UpdateListener]{id: id, fn: l})
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.listeners = removeReg(e.listeners, id)
	}
}

// RegisterTransform adds a transform that runs at the end of every Update.
func (e *Engine) RegisterTransform(t Transform) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := e.nextID
	e.transforms = append(e.transforms, registration[Transform]{id: id, fn: t})
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.transforms = removeReg(e.transforms, id)
	}
}

func removeReg[T any](regs []registration[T], id int) []registration[T] {
	out := regs[:0:0]
	for _, r := range regs {
		if r.id != id {
			out = append(out, r)
		}
	}
	return out
}

// Command names a request dispatched to registered handlers.
type Command string

const (
	CommandEnter            Command = "enter"
	CommandBackspace        Command = "backspace"
	CommandPaste            Command = "paste"
	CommandInsertChecklist  Command = "insert_checklist"
	CommandInsertVariable   Command = "insert_variable"
	CommandInsertAttachment Command = "insert_attachment"
	CommandToggleLink       Command = "toggle_link"
)

// Priority orders handlers of one command; higher runs first.
type Priority int

const (
	PriorityEditor Priority = iota
	PriorityLow
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

// CommandHandler returns true when it handled the command.
type CommandHandler func(tx *Txn, payload any) bool

type commandReg struct {
	id       int
	priority Priority
	fn       CommandHandler
}

// RegisterCommand adds a handler for cmd and returns its unregister func.
func (e *Engine) RegisterCommand(cmd Command, p Priority, h CommandHandler) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := e.nextID
	regs := append(e.commands[cmd], commandReg{id: id, priority: p, fn: h})
	sort.SliceStable(regs, func(i, j int) bool { return regs[i].priority > regs[j].priority })
	e.commands[cmd] = regs
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		regs := e.commands[cmd][:0:0]
		for _, r := range e.commands[cmd] {
			if r.id != id {
				regs = append(regs, r)
			}
		}
		e.commands[cmd] = regs
	}
}

// Dispatch offers cmd to its handlers inside one Update. It reports whether a
// handler took it; when none did nothing is committed.
func (e *Engine) Dispatch(cmd Command, payload any) bool {
	e.mu.Lock()
	regs := append([]commandReg(nil), e.commands[cmd]...)
	e.mu.Unlock()
	if len(regs) == 0 {
		return false
	}
	err := e.Update(func(tx *Txn) error {
		for _, r := range regs {
			if r.fn(tx, payload) {
				return nil
			}
		}
		return errDeclined
	})
	if err != nil && !errors.Is(err, errDeclined) {
		e.logger.Warn("editor: command failed", slog.String("command", string(cmd)), slog.String("error", err.Error()))
	}
	return err == nil
}
