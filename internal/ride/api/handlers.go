package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	authapi "campus-rickshaw/internal/auth/api"
	authdomain "campus-rickshaw/internal/auth/domain"
	"campus-rickshaw/internal/ride/app"
	"campus-rickshaw/internal/ride/domain"
	"campus-rickshaw/internal/shared/apperrors"
	"campus-rickshaw/internal/shared/util"
)

type Handler struct {
	service *app.RideService
	logger  *util.Logger
}

func NewHandler(service *app.RideService, logger *util.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes mounts the student/driver surface. authed wraps everything
// in token verification; role gates are applied per route.
func (h *Handler) RegisterRoutes(mux *http.ServeMux, authed func(http.Handler) http.Handler) {
	student := authapi.RequireRole(authdomain.RoleStudent)
	driver := authapi.RequireRole(authdomain.RoleDriver)
	updater := authapi.RequireRole(authdomain.RoleStudent, authdomain.RoleDriver, authdomain.RoleAdmin)

	mux.Handle("GET /api/vehicles/available", authed(http.HandlerFunc(h.ListAvailableVehicles)))
	mux.Handle("POST /api/rides/request", authed(student(http.HandlerFunc(h.RequestRide))))
	mux.Handle("GET /api/rides/mine", authed(http.HandlerFunc(h.ListMyRides)))
	mux.Handle("PUT /api/rides/{id}/status", authed(updater(http.HandlerFunc(h.UpdateRideStatus))))
	mux.Handle("PUT /api/driver/availability", authed(driver(http.HandlerFunc(h.SetAvailability))))
	mux.Handle("PUT /api/vehicles/{id}/availability", authed(http.HandlerFunc(h.SetVehicleAvailability)))
	mux.Handle("POST /api/feedback", authed(student(http.HandlerFunc(h.SubmitFeedback))))
}

func (h *Handler) ListAvailableVehicles(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	vehicles, err := h.service.ListAvailableVehicles(ctx)
	if err != nil {
		h.logger.Error("ListAvailableVehicles", err)
		util.ErrResponseInJSON(w, err)
		return
	}
	util.ResponseInJSON(w, http.StatusOK, vehicles)
	h.logger.HTTP(http.StatusOK, time.Since(start), r.RemoteAddr, r.Method, r.URL.Path)
}

func (h *Handler) RequestRide(w http.ResponseWriter, r *http.Request) {
	instance := "RequestRideHandler"
	start := time.Now()
	principal := authapi.PrincipalFrom(r.Context())

	var req domain.RideRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		util.ErrResponseInJSON(w, apperrors.ErrMissingField)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	ride, err := h.service.CreateRide(ctx, principal.ID, req)
	if err != nil {
		util.ErrResponseInJSON(w, err)
		h.logger.HTTP(apperrors.Status(err), time.Since(start), r.RemoteAddr, r.Method, r.URL.Path)
		return
	}

	util.ResponseInJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"ride_id": ride.ID,
	})
	h.logger.OK(instance, "ride requested: "+ride.ID)
	h.logger.HTTP(http.StatusCreated, time.Since(start), r.RemoteAddr, r.Method, r.URL.Path)
}

func (h *Handler) ListMyRides(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	principal := authapi.PrincipalFrom(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rides, err := h.service.ListRidesFor(ctx, principal)
	if err != nil {
		util.ErrResponseInJSON(w, err)
		return
	}
	util.ResponseInJSON(w, http.StatusOK, rides)
	h.logger.HTTP(http.StatusOK, time.Since(start), r.RemoteAddr, r.Method, r.URL.Path)
}

type statusUpdateRequest struct {
	Status string   `json:"status"`
	Fare   *float64 `json:"fare,omitempty"`
}

func (h *Handler) UpdateRideStatus(w http.ResponseWriter, r *http.Request) {
	instance := "UpdateRideStatusHandler"
	start := time.Now()
	principal := authapi.PrincipalFrom(r.Context())
	rideID := r.PathValue("id")

	var req statusUpdateRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		util.ErrResponseInJSON(w, apperrors.ErrMissingField)
		return
	}
	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		util.ErrResponseInJSON(w, apperrors.ErrMissingField)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	ride, err := h.service.UpdateRideStatus(ctx, rideID, status, req.Fare, principal)
	if err != nil {
		util.ErrResponseInJSON(w, err)
		h.logger.HTTP(apperrors.Status(err), time.Since(start), r.RemoteAddr, r.Method, r.URL.Path)
		return
	}

	util.ResponseInJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"ride":    ride,
	})
	h.logger.OK(instance, "ride "+rideID+" -> "+req.Status)
	h.logger.HTTP(http.StatusOK, time.Since(start), r.RemoteAddr, r.Method, r.URL.Path)
}

type availabilityRequest struct {
	IsAvailable bool `json:"is_available"`
}

func (h *Handler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	principal := authapi.PrincipalFrom(r.Context())

	var req availabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.ErrResponseInJSON(w, apperrors.ErrMissingField)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.service.SetDriverAvailability(ctx, principal.ID, req.IsAvailable, principal); err != nil {
		util.ErrResponseInJSON(w, err)
		h.logger.HTTP(apperrors.Status(err), time.Since(start), r.RemoteAddr, r.Method, r.URL.Path)
		return
	}

	util.ResponseInJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	h.logger.HTTP(http.StatusOK, time.Since(start), r.RemoteAddr, r.Method, r.URL.Path)
}

// SetVehicleAvailability is reachable by the owning driver or an admin; the
// service enforces ownership.
func (h *Handler) SetVehicleAvailability(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	principal := authapi.PrincipalFrom(r.Context())
	vehicleID := r.PathValue("id")

	var req availabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.ErrResponseInJSON(w, apperrors.ErrMissingField)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.service.SetVehicleAvailability(ctx, vehicleID, req.IsAvailable, principal); err != nil {
		util.ErrResponseInJSON(w, err)
		h.logger.HTTP(apperrors.Status(err), time.Since(start), r.RemoteAddr, r.Method, r.URL.Path)
		return
	}

	util.ResponseInJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	h.logger.HTTP(http.StatusOK, time.Since(start), r.RemoteAddr, r.Method, r.URL.Path)
}

type feedbackRequest struct {
	RideID   string `json:"ride_id"`
	Rating   int    `json:"rating"`
	Comments string `json:"comments"`
}

func (h *Handler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	instance := "SubmitFeedbackHandler"
	start := time.Now()
	principal := authapi.PrincipalFrom(r.Context())

	var req feedbackRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		util.ErrResponseInJSON(w, apperrors.ErrMissingField)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	fb, err := h.service.AddFeedback(ctx, req.RideID, req.Rating, req.Comments, principal)
	if err != nil {
		util.ErrResponseInJSON(w, err)
		h.logger.HTTP(apperrors.Status(err), time.Since(start), r.RemoteAddr, r.Method, r.URL.Path)
		return
	}

	util.ResponseInJSON(w, http.StatusCreated, map[string]interface{}{
		"success":     true,
		"feedback_id": fb.ID,
	})
	h.logger.OK(instance, "feedback for ride "+req.RideID)
	h.logger.HTTP(http.StatusCreated, time.Since(start), r.RemoteAddr, r.Method, r.URL.Path)
}
