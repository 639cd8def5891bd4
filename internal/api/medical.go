package api

import (
	"net/http"

	"github.com/stationware/medsync/internal/db"
	"github.com/stationware/medsync/internal/service"
)

func (rt *Routes) listInventory(w http.ResponseWriter, r *http.Request) {
	items, err := rt.inventory.ListStock(r.Context())
	if err != nil {
		rt.writeServiceError(w, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"count": len(items),
	})
}

func (rt *Routes) createItem(w http.ResponseWriter, r *http.Request) {
	var req service.CreateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		rt.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := rt.inventory.CreateItem(r.Context(), req)
	if err != nil {
		rt.writeServiceError(w, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"item":    item,
	})
}

func (rt *Routes) inventorySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := rt.inventory.Summary(r.Context())
	if err != nil {
		rt.writeServiceError(w, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, summary)
}

func (rt *Routes) inventoryReceive(w http.ResponseWriter, r *http.Request) {
	var req service.ReceiveItemRequest
	if err := decodeJSON(r, &req); err != nil {
		rt.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := rt.inventory.Receive(r.Context(), req); err != nil {
		rt.writeServiceError(w, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (rt *Routes) inventoryConsume(w http.ResponseWriter, r *http.Request) {
	var req service.ConsumeItemRequest
	if err := decodeJSON(r, &req); err != nil {
		rt.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	remaining, err := rt.inventory.Consume(r.Context(), req)
	if err != nil {
		rt.writeServiceError(w, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"remaining_stock": remaining,
	})
}

func (rt *Routes) listInventoryEvents(w http.ResponseWriter, r *http.Request) {
	f := db.EventFilter{
		EventType: r.URL.Query().Get("event_type"),
		ItemCode:  r.URL.Query().Get("item_code"),
		Limit:     queryInt(r, "limit", 100),
	}

	events, err := rt.inventory.ListEvents(r.Context(), f)
	if err != nil {
		rt.writeServiceError(w, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"count":  len(events),
	})
}

func (rt *Routes) listBloodInventory(w http.ResponseWriter, r *http.Request) {
	inventory, err := rt.blood.Inventory(r.Context(), r.URL.Query().Get("station_id"))
	if err != nil {
		rt.writeServiceError(w, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, map[string]any{
		"blood_inventory": inventory,
		"count":           len(inventory),
	})
}

func (rt *Routes) bloodReceive(w http.ResponseWriter, r *http.Request) {
	var req service.BloodRequest
	if err := decodeJSON(r, &req); err != nil {
		rt.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	total, err := rt.blood.Receive(r.Context(), req)
	if err != nil {
		rt.writeServiceError(w, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"new_quantity": total,
	})
}

func (rt *Routes) bloodUse(w http.ResponseWriter, r *http.Request) {
	var req service.BloodRequest
	if err := decodeJSON(r, &req); err != nil {
		rt.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	remaining, err := rt.blood.Use(r.Context(), req)
	if err != nil {
		rt.writeServiceError(w, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, map[string]any{
		"success":            true,
		"remaining_quantity": remaining,
	})
}

func (rt *Routes) listBloodBags(w http.ResponseWriter, r *http.Request) {
	bags, err := rt.blood.ListBags(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		rt.writeServiceError(w, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, map[string]any{
		"bags":  bags,
		"count": len(bags),
	})
}

func (rt *Routes) registerBloodBag(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterBagRequest
	if err := decodeJSON(r, &req); err != nil {
		rt.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bag, err := rt.blood.RegisterBag(r.Context(), req)
	if err != nil {
		rt.writeServiceError(w, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"bag":     bag,
	})
}

type useBagRequest struct {
	BloodBagCode string `json:"blood_bag_code"`
	PatientName  string `json:"patient_name"`
	Operator     string `json:"operator"`
}

func (rt *Routes) useBloodBag(w http.ResponseWriter, r *http.Request) {
	var req useBagRequest
	if err := decodeJSON(r, &req); err != nil {
		rt.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := rt.blood.UseBag(r.Context(), req.BloodBagCode, req.PatientName, req.Operator); err != nil {
		rt.writeServiceError(w, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (rt *Routes) listEquipment(w http.ResponseWriter, r *http.Request) {
	equipment, err := rt.equipment.List(r.Context())
	if err != nil {
		rt.writeServiceError(w, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, map[string]any{
		"equipment": equipment,
		"count":     len(equipment),
	})
}

func (rt *Routes) equipmentCheck(w http.ResponseWriter, r *http.Request) {
	var req service.CheckRequest
	if err := decodeJSON(r, &req); err != nil {
		rt.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := rt.equipment.Check(r.Context(), req); err != nil {
		rt.writeServiceError(w, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (rt *Routes) listSurgeries(w http.ResponseWriter, r *http.Request) {
	f := db.SurgeryFilter{
		PatientName: r.URL.Query().Get("patient"),
		Limit:       queryInt(r, "limit", 50),
	}

	surgeries, err := rt.surgery.List(r.Context(), f)
	if err != nil {
		rt.writeServiceError(w, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, map[string]any{
		"surgeries": surgeries,
		"count":     len(surgeries),
	})
}

func (rt *Routes) createSurgery(w http.ResponseWriter, r *http.Request) {
	var req service.CreateSurgeryRequest
	if err := decodeJSON(r, &req); err != nil {
		rt.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := rt.surgery.Create(r.Context(), req)
	if err != nil {
		rt.writeServiceError(w, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"surgery_id":    rec.ID,
		"record_number": rec.RecordNumber,
	})
}

func (rt *Routes) archiveSurgery(w http.ResponseWriter, r *http.Request) {
	var req service.ArchiveSurgeryRequest
	if err := decodeJSON(r, &req); err != nil {
		rt.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := rt.surgery.Archive(r.Context(), req); err != nil {
		rt.writeServiceError(w, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (rt *Routes) createDispense(w http.ResponseWriter, r *http.Request) {
	var req service.DispenseRequest
	if err := decodeJSON(r, &req); err != nil {
		rt.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := rt.dispense.Dispense(r.Context(), req)
	if err != nil {
		rt.writeServiceError(w, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"dispense_id":     result.DispenseID,
		"status":          result.Status,
		"remaining_stock": result.RemainingStock,
	})
}

func (rt *Routes) approveDispense(w http.ResponseWriter, r *http.Request) {
	var req service.ApproveRequest
	if err := decodeJSON(r, &req); err != nil {
		rt.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := rt.dispense.Approve(r.Context(), req); err != nil {
		rt.writeServiceError(w, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (rt *Routes) listPendingDispenses(w http.ResponseWriter, r *http.Request) {
	dispenses, err := rt.dispense.Pending(r.Context(),
		r.URL.Query().Get("status"), queryInt(r, "limit", 50))
	if err != nil {
		rt.writeServiceError(w, err)
		return
	}
	rt.writeJSON(w, http.StatusOK, map[string]any{
		"dispenses": dispenses,
		"count":     len(dispenses),
	})
}
