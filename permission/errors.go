package permission

import "github.com/pkg/errors"

var (
	ErrUnauthorized   = errors.New("you need to be a channel manager to change who can ping in this channel")
	ErrInvalidTarget  = errors.New("not a valid target, mention the user like @name")
	ErrAlreadyGranted = errors.New("user can already ping in this channel")
	ErrNotGranted     = errors.New("user is not currently granted to ping in this channel")
)
