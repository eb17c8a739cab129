// Package editor holds the state of one meme editing session: the loaded
// image, text, style, the free-mode anchor with its drag state machine, the
// rendered surface and the export change gate.
package editor

import (
	"bytes"
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/memeditor/internal/entity"
	"github.com/ds124wfegd/memeditor/internal/pkg/compositor"
	"github.com/ds124wfegd/memeditor/internal/pkg/layout"
)

// Renderer is the part of the compositor a session needs.
type Renderer interface {
	Render(p compositor.RenderParams) (image.Image, error)
	TextBounds(img image.Image, style entity.TextStyle, text string, anchor entity.Point) (entity.Rect, bool)
	SurfaceSize(img image.Image, mode entity.Mode) (int, int)
}

// Session serializes every operation on its mutex, so renders never
// interleave and each event runs to completion before the next one.
type Session struct {
	mu       sync.Mutex
	id       string
	mode     entity.Mode
	renderer Renderer
	jitter   *layout.Jitter

	image   image.Image
	texts   entity.Texts
	style   entity.TextStyle
	anchor  entity.Point
	drag    dragSession
	surface image.Image
	notice  string

	// revision counts content mutations; the export gate compares against it.
	revision      uint64
	lastExport    []byte
	lastExportRev uint64
	hasLastExport bool
	loadSeq       uint64
}

type Option func(*Session)

func WithMode(mode entity.Mode) Option {
	return func(s *Session) { s.mode = mode }
}

func WithJitter(j *layout.Jitter) Option {
	return func(s *Session) { s.jitter = j }
}

func New(id string, renderer Renderer, opts ...Option) *Session {
	s := &Session{
		id:       id,
		mode:     entity.ModeFree,
		renderer: renderer,
		style:    entity.DefaultTextStyle(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) ID() string {
	return s.id
}

// BeginLoad registers a new image load and returns its ticket. Only the most
// recently issued ticket can complete.
func (s *Session) BeginLoad() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadSeq++
	return s.loadSeq
}

// CompleteLoad installs img if ticket is still the latest one. The anchor is
// re-centred and the surface redrawn. A stale ticket leaves the session as it
// was and returns ErrLoadSuperseded.
func (s *Session) CompleteLoad(ticket uint64, img image.Image) error {
	if img == nil {
		return fmt.Errorf("%w: empty image", entity.ErrImageDecode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ticket != s.loadSeq {
		return entity.ErrLoadSuperseded
	}

	prevImage, prevAnchor := s.image, s.anchor
	s.image = img
	w, h := s.renderer.SurfaceSize(img, entity.ModeFree)
	s.anchor = entity.Point{X: float64(w) / 2, Y: float64(h) / 2}
	s.drag = dragSession{}

	if err := s.render(); err != nil {
		s.image, s.anchor = prevImage, prevAnchor
		return err
	}
	s.revision++
	s.notice = ""
	return nil
}

// SetTexts replaces the text content and redraws. If the redraw fails the
// previous text stays.
func (s *Session) SetTexts(texts entity.Texts) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.texts
	s.texts = texts
	if err := s.render(); err != nil {
		s.texts = prev
		return err
	}
	s.revision++
	return nil
}

// SetStyle replaces the style wholesale. An invalid style is rejected and the
// previous one kept.
func (s *Session) SetStyle(style entity.TextStyle) error {
	if err := compositor.ValidateStyle(style); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.style
	s.style = style
	if err := s.render(); err != nil {
		s.style = prev
		return err
	}
	s.revision++
	return nil
}

func (s *Session) SetMode(mode entity.Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: mode %q", entity.ErrInvalidInput, mode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.mode
	s.mode = mode
	if err := s.render(); err != nil {
		s.mode = prev
		return err
	}
	s.drag = dragSession{}
	s.revision++
	return nil
}

// Reset drops the image and restores the default style and empty text.
// In-flight loads are invalidated.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.image = nil
	s.surface = nil
	s.drag = dragSession{}
	s.anchor = entity.Point{}
	s.texts = entity.Texts{}
	s.style = entity.DefaultTextStyle()
	s.notice = ""
	s.lastExport = nil
	s.hasLastExport = false
	s.loadSeq++
	s.revision++
}

// Surface returns the last rendered surface, nil when no image is loaded.
func (s *Session) Surface() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surface
}

func (s *Session) SetNotice(msg string) {
	s.mu.Lock()
	s.notice = msg
	s.mu.Unlock()
}

func (s *Session) Snapshot() entity.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := entity.SessionSnapshot{
		ID:       s.id,
		Mode:     s.mode,
		HasImage: s.image != nil,
		Texts:    s.texts,
		Style:    s.style,
		Dragging: s.drag.active,
		Revision: s.revision,
		Notice:   s.notice,
	}
	if s.surface != nil {
		snap.Width, snap.Height = s.surface.Bounds().Dx(), s.surface.Bounds().Dy()
	}
	if s.image != nil && s.mode == entity.ModeFree {
		anchor := s.anchor
		snap.Anchor = &anchor
	}
	return snap
}

// render redraws the whole surface from the current state. Callers hold mu.
// The surface is only replaced when the render succeeds.
func (s *Session) render() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: render failed: %v", entity.ErrInvalidStyle, r)
		}
	}()

	if s.image == nil {
		s.surface = nil
		return nil
	}

	params := compositor.RenderParams{
		Image:  s.image,
		Mode:   s.mode,
		Style:  s.style,
		Texts:  s.texts,
		Anchor: s.anchor,
	}
	if s.jitter != nil {
		params.Rotation = s.jitter.Next
	}

	surface, err := s.renderer.Render(params)
	if err != nil {
		return err
	}
	s.surface = surface
	return nil
}

// Artifact is an encoded surface ready to be offered as a download.
type Artifact struct {
	Data     []byte
	Width    int
	Height   int
	revision uint64
}

// Export encodes the current surface as PNG. In banner mode it refuses with
// ErrNoChangeToExport when neither the content nor the encoded bytes changed
// since the last committed export.
func (s *Session) Export() (*Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.image == nil || s.surface == nil {
		return nil, entity.ErrPreconditionNotMet
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, s.surface, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode surface: %w", err)
	}
	data := buf.Bytes()

	if s.mode == entity.ModeBanner && s.hasLastExport &&
		s.lastExportRev == s.revision && bytes.Equal(data, s.lastExport) {
		return nil, entity.ErrNoChangeToExport
	}

	b := s.surface.Bounds()
	return &Artifact{Data: data, Width: b.Dx(), Height: b.Dy(), revision: s.revision}, nil
}

// CommitExport records a delivered artifact as the last export.
func (s *Session) CommitExport(a *Artifact) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastExport = a.Data
	s.lastExportRev = a.revision
	s.hasLastExport = true
}
