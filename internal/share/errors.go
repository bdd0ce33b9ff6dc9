package share

import "errors"

var (
	// ErrFileNotFound signals that the target file does not exist.
	ErrFileNotFound = errors.New("file not found")
	// ErrNotOwner is returned when a non-owner attempts to share a file.
	ErrNotOwner = errors.New("only the owner can share a file")
	// ErrSelfShare is returned when a share names the granter or the file's
	// owner as grantee.
	ErrSelfShare = errors.New("cannot share a file with its owner")
	// ErrNoAccess indicates the actor holds no grant for the file.
	ErrNoAccess = errors.New("no access to this file")
	// ErrInsufficientPrivilege indicates a grant exists but lacks the
	// requested privilege.
	ErrInsufficientPrivilege = errors.New("privilege not granted for this file")
	// ErrUnknownPrivilege is returned for privilege names outside the catalog.
	ErrUnknownPrivilege = errors.New("unknown privilege")
	// ErrUnknownRecipient is returned when the grantee email does not resolve
	// to a user.
	ErrUnknownRecipient = errors.New("unknown share recipient")
)
