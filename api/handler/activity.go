package handler

import (
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/tasktracker/api/transport"
	"github.com/fastygo/tasktracker/domain"
	"github.com/fastygo/tasktracker/pkg/httpcontext"
)

// ActivityLister reads the activity journal, newest entries first.
type ActivityLister interface {
	List(entity string, limit int) ([]domain.Activity, error)
}

type ActivityHandler struct {
	baseHandler
	journal ActivityLister
}

func NewActivityHandler(journal ActivityLister, adapter *httpcontext.Adapter, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{
		baseHandler: newBaseHandler(adapter, logger),
		journal:     journal,
	}
}

// @Summary List recorded activity
// @Tags activity
// @Router /api/v1/activity [get]
func (h *ActivityHandler) List(ctx *fasthttp.RequestCtx) {
	if h.journal == nil {
		h.respondList(ctx, []domain.Activity{}, transport.ListMeta{})
		return
	}

	entity := queryParam(ctx, "entity")
	if entity != "" && entity != domain.EntityUser && entity != domain.EntityTask {
		h.respondError(ctx, domain.Errorf(domain.ErrCodeInvalid, "entity must be one of %s, %s", domain.EntityUser, domain.EntityTask))
		return
	}
	limit := parseInt(queryParam(ctx, "limit"), 50)

	entries, err := h.journal.List(entity, limit)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondList(ctx, entries, transport.ListMeta{Count: len(entries), Limit: limit})
}
