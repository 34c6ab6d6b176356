package notify

import "errors"

var (
	ErrNoRecipient        = errors.New("notify: message has no recipient")
	ErrTemplateNotFound   = errors.New("notify: template not found")
	ErrInvalidFrontmatter = errors.New("notify: invalid front matter")
	ErrRenderFailed       = errors.New("notify: failed to render template")
	ErrSendFailed         = errors.New("notify: failed to send email")
	ErrPoolRequired       = errors.New("notify: database pool is required")
)
