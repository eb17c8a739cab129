package entity

import "errors"

var (
	// Image source errors
	ErrFileTooLarge   = errors.New("file too large")
	ErrImageDecode    = errors.New("could not load the selected image")
	ErrFetch          = errors.New("could not fetch a meme")
	ErrLoadSuperseded = errors.New("load superseded by a newer request")

	// Editor errors
	ErrPreconditionNotMet = errors.New("no image loaded")
	ErrNoChangeToExport   = errors.New("nothing changed since the last export")
	ErrWrongMode          = errors.New("operation not supported in this mode")
	ErrInvalidStyle       = errors.New("invalid style")

	// General errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionLimit    = errors.New("session limit reached")
	ErrInvalidInput    = errors.New("invalid input")
)
