package repository

import "fmt"

// KlassNotFoundError: the repository has never heard of this class name.
type KlassNotFoundError struct{ Name string }

func (e *KlassNotFoundError) Error() string { return fmt.Sprintf("class not found: %s", e.Name) }

// KlassNotLoadedError: the class is known (Mentioned) but its bytes have
// not yet been ingested.
type KlassNotLoadedError struct{ Name string }

func (e *KlassNotLoadedError) Error() string {
	return fmt.Sprintf("class not loaded (mentioned only): %s", e.Name)
}

// MemberNotFoundError: a method or field lookup failed against an
// otherwise-resolved class.
type MemberNotFoundError struct {
	Class, Member string
}

func (e *MemberNotFoundError) Error() string {
	return fmt.Sprintf("member not found: %s.%s", e.Class, e.Member)
}
