package service

import "errors"

var (
	ErrInvalidWorkspace = errors.New("invalid workspace id")
	ErrSessionNotFound  = errors.New("session not found")
	ErrMessageNotFound  = errors.New("message not found")
	ErrSnippetNotFound  = errors.New("snippet not found")
	ErrNoCurrentSession = errors.New("no current session")
	ErrEmptyMessage     = errors.New("message cannot be empty")
	ErrEmptySnippet     = errors.New("snippet cannot be empty")
	ErrContentTooLong   = errors.New("content too long")
	ErrInvalidMode      = errors.New("invalid mode")
	ErrInvalidRole      = errors.New("invalid message role")
	ErrInvalidTag       = errors.New("invalid tag")
	ErrEmptyEmail       = errors.New("please enter an email address")
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrInvalidShareLink = errors.New("invalid share link")
)
