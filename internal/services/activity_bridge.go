package services

import (
	"context"

	"github.com/fastygo/tasktracker/domain"
	"github.com/fastygo/tasktracker/pkg/httpcontext"
	"github.com/fastygo/tasktracker/usecase"
)

// ActivityAppender is the write side of the activity journal.
type ActivityAppender interface {
	Append(activity domain.Activity) error
}

// ActivityBridge feeds use case activity into the journal, tagging each entry
// with the authenticated actor when the request carried one.
type ActivityBridge struct {
	journal ActivityAppender
}

func NewActivityBridge(journal ActivityAppender) *ActivityBridge {
	return &ActivityBridge{journal: journal}
}

func (b *ActivityBridge) Record(ctx context.Context, activity domain.Activity) error {
	if b == nil || b.journal == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if actor := httpcontext.Actor(ctx); actor != "" {
		attrs := make(map[string]string, len(activity.Attributes)+1)
		for k, v := range activity.Attributes {
			attrs[k] = v
		}
		attrs["actor"] = actor
		activity.Attributes = attrs
	}
	return b.journal.Append(activity)
}

var _ usecase.ActivityRecorder = (*ActivityBridge)(nil)
