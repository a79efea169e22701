package docservice

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/starford/stencil/internal/apperr"
	"github.com/starford/stencil/internal/checklist"
	"github.com/starford/stencil/internal/checksum"
	"github.com/starford/stencil/internal/convert"
	"github.com/starford/stencil/internal/document"
	"github.com/starford/stencil/internal/editor"
	"github.com/starford/stencil/internal/parser"
)

// CommandUndo reverts the last edit of a session.
const CommandUndo editor.Command = "undo"

// OutlineEntry exposes a node key so that clients can place a selection.
type OutlineEntry struct {
	Key   document.Key `json:"key"`
	Kind  string       `json:"kind"`
	Depth int          `json:"depth"`
	Text  string       `json:"text,omitempty"`
}

// SessionState is a session as seen by clients.
type SessionState struct {
	ID        string           `json:"id"`
	Path      string           `json:"path"`
	Text      string           `json:"text"`
	Dirty     bool             `json:"dirty"`
	Tree      document.Record  `json:"tree"`
	Outline   []OutlineEntry   `json:"outline"`
	Selection editor.Selection `json:"selection"`
}

// CommandRequest is one editing step. Selection, when set, is placed before
// the command runs. An empty command only moves the selection.
type CommandRequest struct {
	Selection *editor.Selection `json:"selection,omitempty"`
	Command   editor.Command    `json:"command"`
	Payload   json.RawMessage   `json:"payload,omitempty"`
}

// session is a live editing engine bound to one stored document.
type session struct {
	id     string
	path   string
	engine *editor.Engine
	// prefix is the front matter block kept verbatim on save.
	prefix string

	mu       sync.Mutex
	text     string
	saved    string // checksum of the stored file the session is based on
	dirty    bool
	stopOnce sync.Once
	unbind   []func()
}

func (s *session) stop() {
	s.stopOnce.Do(func() {
		for _, u := range s.unbind {
			u()
		}
	})
}

func (s *session) state() *SessionState {
	st := &SessionState{ID: s.id, Path: s.path}
	s.engine.Read(func(root *document.Node, sel editor.Selection) {
		st.Tree = document.Serialize(root)
		st.Outline = outline(root)
		st.Selection = sel
	})
	s.mu.Lock()
	st.Text, st.Dirty = s.text, s.dirty
	s.mu.Unlock()
	return st
}

func outline(root *document.Node) []OutlineEntry {
	var out []OutlineEntry
	var walk func(n *document.Node, depth int)
	walk = func(n *document.Node, depth int) {
		e := OutlineEntry{Key: n.Key(), Kind: n.Kind().String(), Depth: depth}
		if n.Kind().IsInline() {
			e.Text = n.TextContent()
		}
		out = append(out, e)
		for _, c := range n.Children() {
			walk(c, depth+1)
		}
	}
	walk(root, 0)
	return out
}

// OpenSession loads a document into a new editing engine with the checklist
// behaviour registered. The session text tracks every commit.
func (s *Service) OpenSession(_ context.Context, path string) (*SessionState, error) {
	if err := s.checkPath(path); err != nil {
		return nil, err
	}
	data, err := s.read(path)
	if err != nil {
		return nil, err
	}
	res, err := parser.Parse(s.codec, data)
	if err != nil {
		return nil, err
	}
	cat, err := s.Catalog()
	if err != nil {
		return nil, err
	}

	logger := s.logger.With(slog.String("path", path))
	sess := &session{
		id:     uuid.NewString(),
		path:   path,
		engine: editor.New(editor.WithLogger(logger)),
		prefix: string(data[:len(data)-len(res.Body)]),
		saved:  checksum.Sum(data),
	}
	sess.unbind = append(sess.unbind, checklist.Register(sess.engine))
	convert.ApplyTextToInitialState(sess.engine, res.Body, convert.Options{Catalog: cat, Codec: s.codec, Logger: logger})
	sess.text = convert.EncodeCurrentState(sess.engine.Snapshot(), s.codec)
	sess.unbind = append(sess.unbind, convert.Bind(sess.engine, s.codec, func(text string) {
		sess.mu.Lock()
		if text != sess.text {
			sess.text, sess.dirty = text, true
		}
		sess.mu.Unlock()
	}))

	s.sessions.Set(sess.id, sess, cache.DefaultExpiration)
	logger.Info("session: opened", slog.String("id", sess.id))
	return sess.state(), nil
}

// lookup returns a live session and extends its lifetime.
func (s *Service) lookup(id string) (*session, error) {
	v, ok := s.sessions.Get(id)
	if !ok {
		return nil, apperr.ErrSessionNotFound
	}
	sess := v.(*session)
	s.sessions.Set(id, sess, cache.DefaultExpiration)
	return sess, nil
}

// GetSession returns the current state of a session.
func (s *Service) GetSession(_ context.Context, id string) (*SessionState, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return sess.state(), nil
}

// Command applies one editing step. handled is false when every handler
// declined; the document is then unchanged.
func (s *Service) Command(ctx context.Context, id string, req CommandRequest) (state *SessionState, handled bool, err error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, false, err
	}
	if req.Selection != nil {
		if err := sess.engine.SetSelection(*req.Selection); err != nil {
			return nil, false, fmt.Errorf("docservice: %w: %w", apperr.ErrValidation, err)
		}
	}
	switch req.Command {
	case "":
		handled = req.Selection != nil
	case CommandUndo:
		handled = sess.engine.Undo()
	default:
		payload, err := s.commandPayload(req)
		if err != nil {
			return nil, false, err
		}
		handled = sess.engine.Dispatch(req.Command, payload)
	}
	s.logger.Debug("session: command",
		slog.String("id", id), slog.String("command", string(req.Command)), slog.Bool("handled", handled))
	return sess.state(), handled, nil
}

// commandPayload decodes the JSON payload into the type the handlers of
// req.Command expect.
func (s *Service) commandPayload(req CommandRequest) (any, error) {
	bad := func(err error) error {
		return fmt.Errorf("docservice: %w: %s payload: %w", apperr.ErrValidation, req.Command, err)
	}
	switch req.Command {
	case editor.CommandEnter, editor.CommandBackspace, editor.CommandInsertChecklist:
		return nil, nil
	case editor.CommandPaste:
		var records []document.Record
		if err := json.Unmarshal(req.Payload, &records); err != nil {
			return nil, bad(err)
		}
		return records, nil
	case editor.CommandInsertVariable:
		var p editor.VariablePayload
		if err := json.Unmarshal(req.Payload, &p); err != nil {
			return nil, bad(err)
		}
		if p.Title == "" {
			if cat, err := s.Catalog(); err == nil {
				if v, ok := cat.Lookup(p.APIName); ok {
					p.Title, p.Subtitle = v.Title, v.Subtitle
				}
			}
		}
		return p, nil
	case editor.CommandInsertAttachment:
		var uploads []editor.Upload
		if err := json.Unmarshal(req.Payload, &uploads); err != nil {
			return nil, bad(err)
		}
		return uploads, nil
	case editor.CommandToggleLink:
		var p editor.LinkPayload
		if err := json.Unmarshal(req.Payload, &p); err != nil {
			return nil, bad(err)
		}
		return p, nil
	}
	return nil, fmt.Errorf("docservice: %w: unknown command %q", apperr.ErrValidation, req.Command)
}

// SaveSession writes the session text back to its document. It fails with
// apperr.ErrConflict when the stored file changed since the session was
// opened or last saved.
func (s *Service) SaveSession(ctx context.Context, id string) (*DocumentDetail, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	existing, err := s.read(sess.path)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if checksum.Sum(existing) != sess.saved {
		return nil, apperr.ErrConflict
	}
	content := []byte(sess.prefix + sess.text)
	if err := s.write(sess.path, content); err != nil {
		return nil, err
	}
	sess.saved, sess.dirty = checksum.Sum(content), false
	s.logger.Info("session: saved", slog.String("id", id), slog.String("path", sess.path))
	s.emit(EventUpdated, sess.path)
	return s.buildDetail(sess.path, content)
}

// CloseSession discards a session without saving.
func (s *Service) CloseSession(_ context.Context, id string) error {
	if _, ok := s.sessions.Get(id); !ok {
		return apperr.ErrSessionNotFound
	}
	s.sessions.Delete(id)
	return nil
}

// SessionCount reports the number of live sessions.
func (s *Service) SessionCount() int {
	return s.sessions.ItemCount()
}
