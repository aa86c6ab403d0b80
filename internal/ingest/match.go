package ingest

import (
	"context"
	"regexp"
	"strings"

	"github.com/procupilot/procupilot/internal/store"
)

var replyPrefixes = regexp.MustCompile(`(?i)\s*(re:|fwd:)\s*`)

// CleanSubject strips reply and forward prefixes anywhere in the subject, so
// "Re: Fwd: RFP: Laptops" matches the same as the original dispatch.
func CleanSubject(subject string) string {
	return strings.TrimSpace(replyPrefixes.ReplaceAllString(subject, " "))
}

// matchRFP resolves the RFP a reply belongs to in two stages:
//
//  1. a subject containing "RFP:" names the title directly, matched as a
//     case-insensitive title fragment;
//  2. otherwise the first RFP whose title appears verbatim (case-insensitive)
//     anywhere in the body or subject wins.
//
// Returns nil when neither stage matches; an unmatched reply is still
// persisted.
func (w *Worker) matchRFP(ctx context.Context, subject, body string) (*store.RFP, error) {
	cleaned := CleanSubject(subject)

	if idx := strings.Index(cleaned, "RFP:"); idx != -1 {
		title := strings.TrimSpace(cleaned[idx+len("RFP:"):])
		rfp, err := w.store.RFPByTitleLike(ctx, title)
		if err != nil {
			return nil, err
		}
		if rfp != nil {
			return rfp, nil
		}
	}

	rfps, err := w.store.ListRFPs(ctx)
	if err != nil {
		return nil, err
	}

	haystack := strings.ToLower(body + " " + subject)
	for i := range rfps {
		title := strings.ToLower(strings.TrimSpace(rfps[i].Title))
		if title == "" {
			continue
		}
		if strings.Contains(haystack, title) {
			return &rfps[i], nil
		}
	}

	return nil, nil
}
