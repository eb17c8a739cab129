package editor

import (
	"fmt"

	"github.com/ds124wfegd/memeditor/internal/entity"
)

// dragSession exists between pointer-down on the text and pointer-up/leave.
// offset is pointer minus anchor at the moment the drag started.
type dragSession struct {
	active  bool
	offsetX float64
	offsetY float64
}

// HandlePointer dispatches a pointer event to the drag state machine.
func (s *Session) HandlePointer(ev entity.PointerEvent) error {
	p := entity.Point{X: ev.X, Y: ev.Y}
	switch ev.Type {
	case entity.PointerDown:
		return s.PointerDown(p)
	case entity.PointerMove:
		return s.PointerMove(p)
	case entity.PointerUp, entity.PointerLeave:
		s.PointerUp()
		return nil
	}
	return fmt.Errorf("%w: pointer event %q", entity.ErrInvalidInput, ev.Type)
}

// PointerDown starts a drag when p is strictly inside the text box. The box is
// measured with the metrics the current image and style produce.
func (s *Session) PointerDown(p entity.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != entity.ModeFree {
		return entity.ErrWrongMode
	}
	if s.image == nil {
		return entity.ErrPreconditionNotMet
	}

	box, ok := s.renderer.TextBounds(s.image, s.style, s.texts.Text, s.anchor)
	if !ok || !box.ContainsStrict(p) {
		return nil
	}
	s.drag = dragSession{
		active:  true,
		offsetX: p.X - s.anchor.X,
		offsetY: p.Y - s.anchor.Y,
	}
	return nil
}

// PointerMove moves the anchor to p minus the drag offset and redraws. It does
// nothing while idle.
func (s *Session) PointerMove(p entity.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.drag.active {
		return nil
	}
	s.anchor = entity.Point{X: p.X - s.drag.offsetX, Y: p.Y - s.drag.offsetY}
	s.revision++
	return s.render()
}

// PointerUp ends any drag; pointer-leave behaves the same.
func (s *Session) PointerUp() {
	s.mu.Lock()
	s.drag = dragSession{}
	s.mu.Unlock()
}

func (s *Session) Dragging() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drag.active
}

func (s *Session) Anchor() entity.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.anchor
}
