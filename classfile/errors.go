package classfile

import "fmt"

// MalformedClassFileError is fatal to a parse: bad magic, a truncated
// buffer, an unknown constant-pool tag, an unknown mandatory attribute, or
// an attribute whose declared length runs past the end of the buffer.
type MalformedClassFileError struct {
	File   string
	Reason string
}

func (e *MalformedClassFileError) Error() string {
	return fmt.Sprintf("Class Format Error: %s: %s", e.File, e.Reason)
}

func malformed(file, reason string) error {
	return &MalformedClassFileError{File: file, Reason: reason}
}
