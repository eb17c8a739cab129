package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"mime/multipart"
	"time"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/memeditor/internal/database"
	"github.com/ds124wfegd/memeditor/internal/entity"
	"github.com/ds124wfegd/memeditor/internal/pkg/editor"
	"github.com/ds124wfegd/memeditor/internal/pkg/layout"
	"github.com/ds124wfegd/memeditor/internal/pkg/source"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func (s *editorService) CreateSession(mode entity.Mode) (entity.SessionSnapshot, error) {
	if mode == "" {
		mode = entity.ModeFree
	}
	if !mode.Valid() {
		return entity.SessionSnapshot{}, fmt.Errorf("%w: mode %q", entity.ErrInvalidInput, mode)
	}

	id := uuid.New().String()
	sess := editor.New(id, s.renderer,
		editor.WithMode(mode),
		editor.WithJitter(layout.NewJitter(s.opts.JitterSeed, s.opts.JitterMax)),
	)

	s.mu.Lock()
	if s.opts.MaxSessions > 0 && len(s.sessions) >= s.opts.MaxSessions {
		s.mu.Unlock()
		return entity.SessionSnapshot{}, entity.ErrSessionLimit
	}
	s.sessions[id] = &sessionEntry{sess: sess, lastUsed: s.opts.Now()}
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{"session_id": id, "mode": mode}).Info("session created")
	return sess.Snapshot(), nil
}

func (s *editorService) GetSession(id string) (entity.SessionSnapshot, error) {
	sess, err := s.session(id)
	if err != nil {
		return entity.SessionSnapshot{}, err
	}
	return sess.Snapshot(), nil
}

func (s *editorService) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return entity.ErrSessionNotFound
	}
	delete(s.sessions, id)
	logrus.WithField("session_id", id).Info("session deleted")
	return nil
}

func (s *editorService) LoadUpload(ctx context.Context, id string, file *multipart.FileHeader) (entity.SessionSnapshot, error) {
	return s.load(id, func(ticket uint64) (image.Image, error) {
		if err := source.CheckSize(file.Size, s.opts.MaxUploadBytes); err != nil {
			return nil, err
		}
		src, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", entity.ErrImageDecode, err)
		}
		defer src.Close()

		img, format, err := source.DecodeBounded(src, s.opts.MaxUploadBytes, s.opts.MaxImagePixels)
		if err != nil {
			return nil, err
		}
		logrus.WithFields(logrus.Fields{"session_id": id, "format": format, "ticket": ticket}).Debug("upload decoded")
		return img, nil
	})
}

func (s *editorService) LoadRandom(ctx context.Context, id string) (entity.SessionSnapshot, error) {
	return s.load(id, func(ticket uint64) (image.Image, error) {
		meme, err := s.catalog.Random(ctx)
		if err != nil {
			return nil, err
		}
		logrus.WithFields(logrus.Fields{"session_id": id, "meme": meme.Name, "ticket": ticket}).Debug("catalog entry picked")
		return s.fetcher.FetchImage(ctx, meme.URL)
	})
}

func (s *editorService) LoadURL(ctx context.Context, id string, url string) (entity.SessionSnapshot, error) {
	return s.load(id, func(uint64) (image.Image, error) {
		return s.fetcher.FetchImage(ctx, url)
	})
}

// load takes a ticket before the slow part so that a later request supersedes
// this one even if it finishes first.
func (s *editorService) load(id string, produce func(ticket uint64) (image.Image, error)) (entity.SessionSnapshot, error) {
	sess, err := s.session(id)
	if err != nil {
		return entity.SessionSnapshot{}, err
	}

	ticket := sess.BeginLoad()
	img, err := produce(ticket)
	if err == nil {
		err = sess.CompleteLoad(ticket, img)
	}
	if err != nil {
		return s.fail(sess, "load", err)
	}

	snap := sess.Snapshot()
	logrus.WithFields(logrus.Fields{
		"session_id": id,
		"width":      snap.Width,
		"height":     snap.Height,
	}).Info("image loaded")
	return snap, nil
}

func (s *editorService) SetTexts(id string, texts entity.Texts) (entity.SessionSnapshot, error) {
	return s.update(id, "set text", func(sess *editor.Session) error {
		return sess.SetTexts(texts)
	})
}

func (s *editorService) SetStyle(id string, style entity.TextStyle) (entity.SessionSnapshot, error) {
	return s.update(id, "set style", func(sess *editor.Session) error {
		return sess.SetStyle(style)
	})
}

func (s *editorService) SetMode(id string, mode entity.Mode) (entity.SessionSnapshot, error) {
	return s.update(id, "set mode", func(sess *editor.Session) error {
		return sess.SetMode(mode)
	})
}

func (s *editorService) Pointer(id string, ev entity.PointerEvent) (entity.SessionSnapshot, error) {
	return s.update(id, "pointer", func(sess *editor.Session) error {
		return sess.HandlePointer(ev)
	})
}

func (s *editorService) Reset(id string) (entity.SessionSnapshot, error) {
	return s.update(id, "reset", func(sess *editor.Session) error {
		sess.Reset()
		return nil
	})
}

func (s *editorService) update(id, op string, fn func(sess *editor.Session) error) (entity.SessionSnapshot, error) {
	sess, err := s.session(id)
	if err != nil {
		return entity.SessionSnapshot{}, err
	}
	if err := fn(sess); err != nil {
		return s.fail(sess, op, err)
	}
	return sess.Snapshot(), nil
}

func (s *editorService) Canvas(id string) ([]byte, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	surface := sess.Surface()
	if surface == nil {
		return nil, entity.ErrPreconditionNotMet
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, surface, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode surface: %w", err)
	}
	return buf.Bytes(), nil
}

// Export stores the current surface and announces it. The change gate only
// advances once the export is stored.
func (s *editorService) Export(ctx context.Context, id string) (*ExportResult, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}

	artifact, err := sess.Export()
	if err != nil {
		_, err = s.fail(sess, "export", err)
		return nil, err
	}

	export := &entity.Export{
		ID:        uuid.New().String(),
		SessionID: id,
		Name:      s.opts.DownloadName,
		Width:     artifact.Width,
		Height:    artifact.Height,
		Size:      len(artifact.Data),
		Status:    entity.ExportStatusStored,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.SaveFile(export.ID, database.FormatOriginal, bytes.NewReader(artifact.Data)); err != nil {
		_, err = s.fail(sess, "export", fmt.Errorf("store export: %w", err))
		return nil, err
	}
	if err := s.repo.Save(export); err != nil {
		_ = s.repo.Delete(export.ID)
		_, err = s.fail(sess, "export", fmt.Errorf("store export metadata: %w", err))
		return nil, err
	}
	sess.CommitExport(artifact)

	event := entity.ExportEvent{
		ExportID:  export.ID,
		SessionID: id,
		Path:      s.repo.GetFilePath(export.ID, database.FormatOriginal),
		Width:     export.Width,
		Height:    export.Height,
	}
	if err := s.producer.SendMessage(ctx, export.ID, event); err != nil {
		logrus.WithError(err).WithField("export_id", export.ID).Warn("failed to publish export event")
	}

	logrus.WithFields(logrus.Fields{
		"session_id": id,
		"export_id":  export.ID,
		"size":       export.Size,
	}).Info("export stored")
	return &ExportResult{Export: export, Filename: s.opts.DownloadName, Data: artifact.Data}, nil
}

func (s *editorService) session(id string) (*editor.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[id]
	if !ok {
		return nil, entity.ErrSessionNotFound
	}
	entry.lastUsed = s.opts.Now()
	return entry.sess, nil
}

func (s *editorService) EvictIdle() int {
	if s.opts.SessionTTL <= 0 {
		return 0
	}
	cutoff := s.opts.Now().Add(-s.opts.SessionTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, entry := range s.sessions {
		if entry.lastUsed.Before(cutoff) {
			delete(s.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		logrus.WithFields(logrus.Fields{"evicted": evicted, "live": len(s.sessions)}).Info("idle sessions evicted")
	}
	return evicted
}

func (s *editorService) RunJanitor(ctx context.Context, interval time.Duration) {
	if s.opts.SessionTTL <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.EvictIdle()
		}
	}
}

// fail records err as the session notice and returns it. A superseded load is
// not the user's concern, the newer load reports for itself.
func (s *editorService) fail(sess *editor.Session, op string, err error) (entity.SessionSnapshot, error) {
	if !errors.Is(err, entity.ErrLoadSuperseded) {
		sess.SetNotice(UserMessage(err))
	}
	logrus.WithError(err).WithFields(logrus.Fields{"session_id": sess.ID(), "op": op}).Warn("editor operation failed")
	return sess.Snapshot(), err
}

// UserMessage turns an error into the text shown to the user.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, entity.ErrFileTooLarge):
		return "File is too large. Maximum size is 5MB."
	case errors.Is(err, entity.ErrImageDecode):
		return "Could not load the selected image."
	case errors.Is(err, entity.ErrFetch):
		return "Could not fetch a meme. Try again later."
	case errors.Is(err, entity.ErrPreconditionNotMet):
		return "Load an image first."
	case errors.Is(err, entity.ErrNoChangeToExport):
		return "Make some changes before downloading again."
	case errors.Is(err, entity.ErrInvalidStyle):
		return "Invalid text style."
	case errors.Is(err, entity.ErrWrongMode):
		return "Not available in this mode."
	case errors.Is(err, entity.ErrSessionNotFound):
		return "Session not found."
	case errors.Is(err, entity.ErrSessionLimit):
		return "Too many open sessions. Try again later."
	case errors.Is(err, entity.ErrInvalidInput):
		return "Invalid input."
	case errors.Is(err, entity.ErrLoadSuperseded):
		return "A newer image replaced this one."
	}
	return "Something went wrong."
}
