package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/otoservice/workshop-scheduler/internal/domain/schedule"
	"github.com/otoservice/workshop-scheduler/internal/domain/workorder"
	"github.com/otoservice/workshop-scheduler/internal/dto"
	"github.com/otoservice/workshop-scheduler/internal/httperr"
	"github.com/otoservice/workshop-scheduler/internal/httpresp"
	"github.com/otoservice/workshop-scheduler/internal/middleware"
	"github.com/otoservice/workshop-scheduler/internal/usecase/booking"
)

// ======================================================
// HANDLER
// ======================================================

type BookingHandler struct {
	engine *booking.Engine
}

func NewBookingHandler(engine *booking.Engine) *BookingHandler {
	return &BookingHandler{engine: engine}
}

// ======================================================
// REQUESTS
// ======================================================

type BookServiceRequest struct {
	ServiceID           uint   `json:"service_id" binding:"required"`
	VehicleID           uint   `json:"vehicle_id" binding:"required"`
	EarliestStart       string `json:"earliest_start" binding:"required"`
	LatestStart         string `json:"latest_start" binding:"required"`
	DurationMin         int    `json:"duration_min"`
	PreferredMechanicID *uint  `json:"preferred_mechanic_id"`
	Notes               string `json:"notes"`
}

type AdvanceStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type ReassignRequest struct {
	MechanicID uint `json:"mechanic_id" binding:"required"`
}

// ======================================================
// BOOK
// ======================================================

func (h *BookingHandler) Create(c *gin.Context) {
	customerID := c.MustGet(middleware.ContextUserID).(uint)

	var req BookServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid booking payload.")
		return
	}

	earliest, err := parseRFC3339InWorkshop(req.EarliestStart)
	if err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid earliest_start.")
		return
	}
	latest, err := parseRFC3339InWorkshop(req.LatestStart)
	if err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid latest_start.")
		return
	}

	bookReq := schedule.Request{
		ServiceID:           req.ServiceID,
		VehicleID:           req.VehicleID,
		CustomerID:          customerID,
		EarliestStart:       earliest,
		LatestStart:         latest,
		Duration:            time.Duration(req.DurationMin) * time.Minute,
		PreferredMechanicID: req.PreferredMechanicID,
		Notes:               req.Notes,
	}

	wo, err := h.engine.BookService(c.Request.Context(), bookReq)
	if err != nil {
		writeBusiness(c, err)
		return
	}

	c.JSON(http.StatusCreated, wo)
}

// ======================================================
// STATUS
// ======================================================

func (h *BookingHandler) AdvanceStatus(c *gin.Context) {
	actorID := c.MustGet(middleware.ContextUserID).(uint)

	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req AdvanceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Missing status.")
		return
	}

	status, err := workorder.ParseStatus(req.Status)
	if err != nil {
		writeBusiness(c, err)
		return
	}

	// The server stays authoritative: cancellation through the status
	// endpoint routes into the cancel flow so the slot is released.
	if status == workorder.StatusCancelled {
		h.cancel(c, orderID, actorID)
		return
	}

	wo, err := h.engine.Advance(c.Request.Context(), orderID, &actorID, status)
	if err != nil {
		writeBusiness(c, err)
		return
	}

	c.JSON(http.StatusOK, wo)
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	actorID := c.MustGet(middleware.ContextUserID).(uint)

	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	h.cancel(c, orderID, actorID)
}

func (h *BookingHandler) cancel(c *gin.Context, orderID uint, actorID uint) {
	wo, releaseFailed, err := h.engine.Cancel(c.Request.Context(), orderID, &actorID)
	if err != nil {
		writeBusiness(c, err)
		return
	}

	resp := gin.H{"work_order": wo}
	if releaseFailed {
		// Flagged for operator remediation; the cancellation itself holds.
		resp["release_failed"] = true
	}
	c.JSON(http.StatusOK, resp)
}

// ======================================================
// REASSIGN
// ======================================================

func (h *BookingHandler) Reassign(c *gin.Context) {
	actorID := c.MustGet(middleware.ContextUserID).(uint)

	orderID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req ReassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Missing mechanic_id.")
		return
	}

	wo, err := h.engine.Reassign(c.Request.Context(), orderID, req.MechanicID, &actorID)
	if err != nil {
		writeBusiness(c, err)
		return
	}

	c.JSON(http.StatusOK, wo)
}

// ======================================================
// SCHEDULE / SLOTS
// ======================================================

func (h *BookingHandler) MechanicSchedule(c *gin.Context) {
	mechanicID, ok := paramID(c, "id")
	if !ok {
		return
	}

	from, err := parseDateInWorkshop(c.Query("from"))
	if err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid or missing from date.")
		return
	}

	to := from.AddDate(0, 0, 1)
	if toStr := c.Query("to"); toStr != "" {
		t, err := parseDateInWorkshop(toStr)
		if err != nil {
			httperr.BadRequest(c, "invalid_request", "Invalid to date.")
			return
		}
		to = t.AddDate(0, 0, 1)
	}

	orders, err := h.engine.Schedule(c.Request.Context(), mechanicID, from, to)
	if err != nil {
		writeBusiness(c, err)
		return
	}

	out := make([]dto.WorkOrderListDTO, 0, len(orders))
	for _, wo := range orders {
		out = append(out, dto.WorkOrderListDTO{
			ID:           wo.ID,
			Reference:    wo.Reference,
			StartTime:    wo.StartTime,
			EndTime:      wo.EndTime,
			Status:       wo.Status,
			CustomerName: wo.Customer.Name,
			VehiclePlate: wo.Vehicle.LicensePlate,
			ServiceName:  wo.Service.Name,
			Cost:         wo.Cost,
		})
	}

	httpresp.List(c, out)
}

func (h *BookingHandler) MechanicSlots(c *gin.Context) {
	mechanicID, ok := paramID(c, "id")
	if !ok {
		return
	}

	serviceID, err := strconv.ParseUint(c.Query("service_id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid or missing service_id.")
		return
	}

	day, err := parseDateInWorkshop(c.Query("date"))
	if err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid or missing date.")
		return
	}

	slots, err := h.engine.FreeSlots(c.Request.Context(), mechanicID, uint(serviceID), day)
	if err != nil {
		writeBusiness(c, err)
		return
	}

	httpresp.List(c, slots)
}

func (h *BookingHandler) MyOrders(c *gin.Context) {
	customerID := c.MustGet(middleware.ContextUserID).(uint)

	orders, err := h.engine.CustomerOrders(c.Request.Context(), customerID)
	if err != nil {
		writeBusiness(c, err)
		return
	}

	httpresp.List(c, orders)
}

// ======================================================
// HELPERS
// ======================================================

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid id.")
		return 0, false
	}
	return uint(id), true
}
