package service

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"github.com/zlnvch/cocreate/models"
)

var workspaceIdRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

const (
	maxTags      = 20
	maxTagLength = 32

	maxContentLength = 20000
)

func ValidateWorkspaceId(id string) error {
	if !workspaceIdRegex.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidWorkspace, id)
	}
	return nil
}

func ParseMode(s string) (models.Mode, error) {
	switch m := models.Mode(strings.ToLower(s)); m {
	case models.ModeIdea, models.ModeWrite, models.ModeDesign:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// ParseModeFilter accepts a mode or "all"/"" for no filtering, which it
// returns as the empty mode.
func ParseModeFilter(s string) (models.Mode, error) {
	if s == "" || strings.EqualFold(s, "all") {
		return "", nil
	}
	return ParseMode(s)
}

// NormalizeTags trims every tag, drops blanks and duplicates and keeps the
// first-seen order.
func NormalizeTags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		if len(tag) > maxTagLength {
			return nil, fmt.Errorf("%w: longer than %d characters", ErrInvalidTag, maxTagLength)
		}
		seen[tag] = true
		out = append(out, tag)
	}
	if len(out) > maxTags {
		return nil, fmt.Errorf("%w: more than %d tags", ErrInvalidTag, maxTags)
	}
	return out, nil
}

func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmptyEmail
	}

	addr, err := mail.ParseAddress(email)
	// Reject display-name forms like "Bob <bob@example.com>"
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	return nil
}

func validateMessages(messages []models.Message) error {
	for _, m := range messages {
		if m.Role != models.RoleUser && m.Role != models.RoleAI {
			return fmt.Errorf("%w: %q", ErrInvalidRole, m.Role)
		}
		if len(m.Content) > maxContentLength {
			return fmt.Errorf("%w: message %s", ErrContentTooLong, m.Id)
		}
	}
	return nil
}
