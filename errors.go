package epubcards

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the epubcards package.
var (
	// ErrPackageUnreadable wraps every failure that prevents a book from
	// being opened at all. Callers can test any open or load error with
	// errors.Is(err, ErrPackageUnreadable).
	ErrPackageUnreadable = errors.New("epubcards: package unreadable")

	// ErrDRMProtected indicates the book is protected by DRM
	// (e.g., Adobe ADEPT, Apple FairPlay, Readium LCP) and cannot be read.
	ErrDRMProtected = errors.New("epubcards: file is DRM protected")

	// ErrInvalidEPub indicates the file is not a valid ePub
	// (e.g., missing container.xml and no .opf file found).
	ErrInvalidEPub = errors.New("epubcards: invalid ePub file")

	// ErrFileNotFound indicates the requested file does not exist
	// in the ePub archive.
	ErrFileNotFound = errors.New("epubcards: file not found in archive")
)

// unreadable marks err as fatal for the whole package.
func unreadable(err error) error {
	if err == nil || errors.Is(err, ErrPackageUnreadable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrPackageUnreadable, err)
}
