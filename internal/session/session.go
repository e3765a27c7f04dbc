// Package session runs live editing sessions. Each session owns one Editor
// and drives it from a single goroutine; websocket clients submit input
// events to it and receive draw commands back.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/inamate/whiteboard/internal/asset"
	"github.com/inamate/whiteboard/internal/engine"
	"github.com/inamate/whiteboard/internal/geom"
	"github.com/inamate/whiteboard/internal/render"
	"github.com/inamate/whiteboard/internal/scene"
	"github.com/inamate/whiteboard/internal/store"
	"github.com/inamate/whiteboard/internal/typeid"
)

var ErrUnknownMessage = errors.New("unknown message type")

type inbound struct {
	client *Client
	msg    *Message
}

type Session struct {
	ID    string
	Board string

	editor  *engine.Editor
	store   engine.Persistence
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client
	inbox      chan inbound
	images     chan *engine.ImageFuture
	done       chan struct{}

	// onEmpty is asked whether the session may stop once its last client
	// has left.
	onEmpty func(*Session) bool

	dirty    bool
	seq      int64
	savedSeq uint64
}

// New creates a session for board. Call Load before Run.
func New(board string, opts engine.Options, st engine.Persistence, assets asset.Store) (*Session, error) {
	s := &Session{
		ID:         typeid.NewSessionID(),
		Board:      board,
		store:      st,
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbox:      make(chan inbound),
		images:     make(chan *engine.ImageFuture),
		done:       make(chan struct{}),
	}
	ed, err := engine.New(opts, engine.Deps{
		Surface:  s,
		Notifier: s,
		Store:    st,
		Assets:   assets,
	})
	if err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}
	s.editor = ed
	ed.Selection().Subscribe(func([]string) { s.dirty = true })
	s.markSaved()
	return s, nil
}

// Editor exposes the session's editor. Only use it from the Run goroutine
// or before Run starts.
func (s *Session) Editor() *engine.Editor { return s.editor }

// Load opens the board from the store. A board that does not exist yet
// starts empty.
func (s *Session) Load(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	data, err := s.store.ReadBytes(ctx, s.Board)
	if errors.Is(err, store.ErrNotFound) {
		slog.Info("new board", "board", s.Board)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", s.Board, err)
	}
	if err := s.editor.LoadBytes(data); err != nil {
		return fmt.Errorf("load %s: %w", s.Board, err)
	}
	s.markSaved()
	return nil
}

// Redraw marks the board for repainting after the current event.
func (s *Session) Redraw() { s.dirty = true }

// Notify forwards an editor notification to every client.
func (s *Session) Notify(message string, severity engine.Severity) {
	engine.SlogNotifier{}.Notify(message, severity)
	s.broadcast(newMessage(TypeNotify, NotifyPayload{Message: message, Severity: string(severity)}))
}

// Register attaches c. It reports false if the session has already stopped.
func (s *Session) Register(c *Client) bool {
	select {
	case s.register <- c:
		return true
	case <-s.done:
		return false
	}
}

func (s *Session) Unregister(c *Client) {
	select {
	case s.unregister <- c:
	case <-s.done:
	}
}

// Submit queues a message for the session loop. It reports false if the
// session has stopped.
func (s *Session) Submit(c *Client, msg *Message) bool {
	select {
	case s.inbox <- inbound{client: c, msg: msg}:
		return true
	case <-s.done:
		return false
	}
}

// Done is closed when Run returns.
func (s *Session) Done() <-chan struct{} { return s.done }

// Run is the session's event loop. Every editor call happens here.
func (s *Session) Run(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case c := <-s.register:
			s.addClient(c)
		case c := <-s.unregister:
			s.removeClient(c)
			if len(s.clients) == 0 {
				s.saveIfChanged(context.WithoutCancel(ctx))
				if s.onEmpty == nil || s.onEmpty(s) {
					return
				}
			}
		case in := <-s.inbox:
			s.handle(ctx, in.client, in.msg)
		case f := <-s.images:
			if err := s.editor.ApplyImage(f); err != nil {
				slog.Warn("image insert failed", "board", s.Board, "name", f.Name, "error", err)
			}
		case <-ctx.Done():
			s.saveIfChanged(context.WithoutCancel(ctx))
			for id, c := range s.clients {
				close(c.send)
				delete(s.clients, id)
			}
			return
		}
		s.flush()
	}
}

func (s *Session) addClient(c *Client) {
	s.clients[c.ClientID] = c
	c.Send(newMessage(TypeWelcome, WelcomePayload{
		SessionID: s.ID,
		ClientID:  c.ClientID,
		Board:     s.Board,
	}))
	c.Send(s.renderMessage())
	slog.Info("client joined", "board", s.Board, "client", c.ClientID, "user", c.UserID)
}

func (s *Session) removeClient(c *Client) {
	if _, ok := s.clients[c.ClientID]; !ok {
		return
	}
	delete(s.clients, c.ClientID)
	close(c.send)
	slog.Info("client left", "board", s.Board, "client", c.ClientID)
}

func (s *Session) handle(ctx context.Context, c *Client, msg *Message) {
	if err := s.dispatch(ctx, msg); err != nil {
		slog.Debug("message failed", "type", msg.Type, "board", s.Board, "error", err)
		if c != nil {
			c.Send(newMessage(TypeError, ErrorPayload{Message: err.Error()}))
		}
	}
}

func (s *Session) dispatch(ctx context.Context, msg *Message) error {
	ed := s.editor
	switch msg.Type {
	case TypePointerDown:
		var p PointerPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		return ed.PointerDown(p.X, p.Y, p.Additive)
	case TypePointerMove:
		var p PointerPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		ed.PointerMove(p.X, p.Y)
		return nil
	case TypePointerUp:
		var p PointerPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		return ed.PointerUp(p.X, p.Y)
	case TypeKey:
		var k engine.Key
		if err := decode(msg, &k); err != nil {
			return err
		}
		_, err := ed.HandleKey(k)
		s.dirty = true
		return err
	case TypeToolSelect:
		var p ToolPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		return ed.SelectTool(p.Tool)
	case TypeTextSet:
		var p TextPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		ed.SetText(p.Content)
		return nil
	case TypeTextEnd:
		s.dirty = true
		return ed.EndTextEditing()
	case TypeSelectionSet:
		var p SelectionPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		ed.Selection().Set(p.IDs...)
		return nil
	case TypeStyleSet:
		var p StylePayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		return s.applyStyle(p)
	case TypeGeometrySet:
		var p GeometryPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		return ed.SetGeometry(p.ID, p.X, p.Y, p.Width, p.Height, p.Rotation)
	case TypeReorder:
		var p ReorderPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		dir := scene.ToFront
		if p.Direction == "back" {
			dir = scene.ToBack
		}
		return ed.Reorder(dir)
	case TypeGroup:
		return ed.Group()
	case TypeUngroup:
		return ed.Ungroup()
	case TypeDelete:
		return ed.DeleteSelected()
	case TypeClear:
		return ed.Clear()
	case TypeUndo:
		_, err := ed.Undo()
		return err
	case TypeRedo:
		_, err := ed.Redo()
		return err
	case TypeCopy:
		ed.Copy()
		return nil
	case TypePaste:
		return ed.Paste()
	case TypeDuplicate:
		return ed.Duplicate()
	case TypeImageInsert:
		var p ImagePayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		s.insertImage(ctx, p)
		return nil
	case TypeLayerAdd:
		var p LayerAddPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		_, err := ed.AddLayer(p.Name)
		return err
	case TypeLayerUpdate:
		var p LayerUpdatePayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		return s.updateLayer(p)
	case TypeViewSet:
		var p ViewPayload
		if err := decode(msg, &p); err != nil {
			return err
		}
		return ed.SetView(p.Pan, p.Zoom)
	case TypeSave:
		return s.save(ctx)
	default:
		return fmt.Errorf("%q: %w", msg.Type, ErrUnknownMessage)
	}
}

func decode(msg *Message, v any) error {
	if len(msg.Payload) == 0 {
		return fmt.Errorf("%s: missing payload", msg.Type)
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("%s: invalid payload: %w", msg.Type, err)
	}
	return nil
}

func (s *Session) applyStyle(p StylePayload) error {
	var edits []engine.StyleEdit
	if p.Fill != nil {
		edits = append(edits, engine.SetFill(*p.Fill))
	}
	if p.Stroke != nil {
		edits = append(edits, engine.SetStroke(*p.Stroke))
	}
	if p.StrokeWidth != nil {
		edits = append(edits, engine.SetStrokeWidth(*p.StrokeWidth))
	}
	if p.Opacity != nil {
		edits = append(edits, engine.SetOpacity(*p.Opacity))
	}
	for _, edit := range edits {
		if err := s.editor.ApplyStyle(edit); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) updateLayer(p LayerUpdatePayload) error {
	ed := s.editor
	if p.Visible != nil {
		if err := ed.SetLayerVisible(p.ID, *p.Visible); err != nil {
			return err
		}
	}
	if p.Locked != nil {
		if err := ed.SetLayerLocked(p.ID, *p.Locked); err != nil {
			return err
		}
	}
	if p.Current {
		return ed.SetCurrentLayer(p.ID)
	}
	return nil
}

// insertImage decodes in the background; the result comes back through
// the images channel so it is applied on the loop like any other edit.
func (s *Session) insertImage(ctx context.Context, p ImagePayload) {
	f := s.editor.InsertImage(p.Name, bytes.NewReader(p.Data), geom.Point{X: p.X, Y: p.Y})
	go func() {
		select {
		case <-f.Done():
		case <-ctx.Done():
			return
		}
		select {
		case s.images <- f:
		case <-s.done:
		}
	}()
}

func (s *Session) save(ctx context.Context) error {
	if err := s.editor.Save(ctx, s.Board); err != nil {
		return err
	}
	s.markSaved()
	return nil
}

func (s *Session) saveIfChanged(ctx context.Context) {
	if s.store == nil {
		return
	}
	if snap, err := s.editor.History().Current(); err == nil && snap.Seq == s.savedSeq {
		return
	}
	if err := s.save(ctx); err != nil {
		slog.Error("autosave", "board", s.Board, "error", err)
	}
}

func (s *Session) markSaved() {
	if snap, err := s.editor.History().Current(); err == nil {
		s.savedSeq = snap.Seq
	}
}

// flush sends a repaint to every client if anything changed.
func (s *Session) flush() {
	if !s.dirty {
		return
	}
	s.dirty = false
	s.broadcast(s.renderMessage())
}

func (s *Session) renderMessage() *Message {
	ed := s.editor
	payload := RenderPayload{
		Commands:  ed.Render(),
		Selection: ed.Selection().IDs(),
		Bounds:    ed.SelectionBounds(),
		Tool:      string(ed.Tools().Tool()),
		State:     ed.Tools().State().String(),
		CanUndo:   ed.History().CanUndo(),
		CanRedo:   ed.History().CanRedo(),
		Current:   ed.Graph().CurrentLayer().ID,
	}
	for _, l := range ed.Graph().Layers() {
		payload.Layers = append(payload.Layers, LayerInfo{
			ID:      l.ID,
			Name:    l.Name,
			Visible: l.Visible,
			Locked:  l.Locked,
			Objects: len(l.ObjectIDs),
		})
	}
	if payload.Commands == nil {
		payload.Commands = []render.DrawCommand{}
	}
	return newMessage(TypeRender, payload)
}

func (s *Session) broadcast(msg *Message) {
	s.seq++
	msg.Seq = s.seq
	msg.SessionID = s.ID
	for _, c := range s.clients {
		c.Send(msg)
	}
}

func newMessage(typ string, payload any) *Message {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal payload", "type", typ, "error", err)
	}
	return &Message{Type: typ, Payload: data}
}
