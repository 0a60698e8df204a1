// internal/websocket/handler/checklist.go
package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"vigilance-service/internal/domain/auth"
	"vigilance-service/internal/domain/checklist"
	wstypes "vigilance-service/internal/domain/websocket"
	ws "vigilance-service/internal/websocket"
)

// ChecklistLister is the part of the checklist service the feed reads from.
type ChecklistLister interface {
	List(ctx context.Context, p *auth.Principal, condominiumID int64, filters *checklist.ListFilters) (*checklist.ListResponse, error)
}

type ChecklistHandler struct {
	checklists ChecklistLister
}

func NewChecklistHandler(checklists ChecklistLister) *ChecklistHandler {
	return &ChecklistHandler{checklists: checklists}
}

func (h *ChecklistHandler) SupportedEvents() []wstypes.EventType {
	return []wstypes.EventType{
		wstypes.EventTypeChecklistRecent,
	}
}

func (h *ChecklistHandler) HandleMessage(ctx context.Context, client *ws.Client, msg *wstypes.WSMessage) error {
	switch msg.Type {
	case wstypes.EventTypeChecklistRecent:
		return h.handleRecent(ctx, client, msg)
	default:
		return fmt.Errorf("%w: %s", ws.ErrUnsupportedType, msg.Type)
	}
}

// handleRecent answers with the newest checklists of one condominium so a
// freshly connected admin can fill its feed before live events arrive.
func (h *ChecklistHandler) handleRecent(ctx context.Context, client *ws.Client, msg *wstypes.WSMessage) error {
	var req wstypes.ChecklistRecentRequest
	if err := mapToStruct(msg.Data, &req); err != nil {
		return fmt.Errorf("%w: %v", ws.ErrInvalidRequest, err)
	}
	if req.CondominiumID <= 0 {
		return fmt.Errorf("%w: condominium_id is required", ws.ErrInvalidRequest)
	}
	if req.Limit <= 0 || req.Limit > 50 {
		req.Limit = 10
	}

	list, err := h.checklists.List(ctx, client.Principal(), req.CondominiumID, &checklist.ListFilters{
		Page:     1,
		PageSize: req.Limit,
	})
	if err != nil {
		return err
	}

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeChecklistRecent, map[string]interface{}{
		"condominium_id": req.CondominiumID,
		"checklists":     list.Checklists,
		"total":          list.Total,
	}))
	return nil
}

func mapToStruct(data interface{}, target interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonData, target)
}
