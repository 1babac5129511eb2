package model

// ChangedFile describes one file touched by a review request.
type ChangedFile struct {
	Filename         string
	PreviousFilename string // Set when the file was renamed, otherwise empty.
}
