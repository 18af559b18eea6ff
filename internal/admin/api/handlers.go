package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"campus-rickshaw/internal/admin/app"
	authapi "campus-rickshaw/internal/auth/api"
	authdomain "campus-rickshaw/internal/auth/domain"
	rideapp "campus-rickshaw/internal/ride/app"
	"campus-rickshaw/internal/shared/apperrors"
	"campus-rickshaw/internal/shared/util"
)

type Handler struct {
	service *app.AdminService
	rides   *rideapp.RideService
	logger  *util.Logger
}

func NewHandler(service *app.AdminService, rides *rideapp.RideService, logger *util.Logger) *Handler {
	return &Handler{service: service, rides: rides, logger: logger}
}

// RegisterRoutes mounts the admin surface. Everything here is admin-only.
func (h *Handler) RegisterRoutes(mux *http.ServeMux, authed func(http.Handler) http.Handler) {
	admin := func(next http.HandlerFunc) http.Handler {
		return authed(authapi.RequireRole(authdomain.RoleAdmin)(next))
	}

	mux.Handle("GET /api/admin/students", admin(h.ListStudents))
	mux.Handle("DELETE /api/admin/students/{id}", admin(h.DeleteStudent))
	mux.Handle("GET /api/admin/drivers", admin(h.ListDrivers))
	mux.Handle("POST /api/admin/drivers", admin(h.CreateDriver))
	mux.Handle("DELETE /api/admin/drivers/{id}", admin(h.DeleteDriver))
	mux.Handle("GET /api/admin/vehicles", admin(h.ListVehicles))
	mux.Handle("POST /api/admin/vehicles", admin(h.CreateVehicle))
	mux.Handle("DELETE /api/admin/vehicles/{id}", admin(h.DeleteVehicle))
	mux.Handle("GET /api/admin/rides", admin(h.ListRides))
}

func (h *Handler) ListStudents(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	students, err := h.service.ListStudents(ctx)
	if err != nil {
		h.logger.Error("ListStudents", err)
		util.ErrResponseInJSON(w, err)
		return
	}
	util.ResponseInJSON(w, http.StatusOK, students)
}

func (h *Handler) ListDrivers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	drivers, err := h.service.ListDrivers(ctx)
	if err != nil {
		h.logger.Error("ListDrivers", err)
		util.ErrResponseInJSON(w, err)
		return
	}
	util.ResponseInJSON(w, http.StatusOK, drivers)
}

func (h *Handler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	vehicles, err := h.service.ListVehicles(ctx)
	if err != nil {
		h.logger.Error("ListVehicles", err)
		util.ErrResponseInJSON(w, err)
		return
	}
	util.ResponseInJSON(w, http.StatusOK, vehicles)
}

func (h *Handler) ListRides(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rides, err := h.rides.ListRidesFor(ctx, authapi.PrincipalFrom(r.Context()))
	if err != nil {
		h.logger.Error("ListRides", err)
		util.ErrResponseInJSON(w, err)
		return
	}
	util.ResponseInJSON(w, http.StatusOK, rides)
}

func (h *Handler) CreateDriver(w http.ResponseWriter, r *http.Request) {
	instance := "CreateDriverHandler"
	start := time.Now()

	var req app.NewDriver
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		util.ErrResponseInJSON(w, apperrors.ErrMissingField)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	driver, err := h.service.CreateDriver(ctx, req)
	if err != nil {
		util.ErrResponseInJSON(w, err)
		h.logger.HTTP(apperrors.Status(err), time.Since(start), r.RemoteAddr, r.Method, r.URL.Path)
		return
	}

	util.ResponseInJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"driver":  driver,
	})
	h.logger.OK(instance, "driver created: "+driver.ID)
	h.logger.HTTP(http.StatusCreated, time.Since(start), r.RemoteAddr, r.Method, r.URL.Path)
}

func (h *Handler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	instance := "CreateVehicleHandler"
	start := time.Now()

	var req app.NewVehicle
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		util.ErrResponseInJSON(w, apperrors.ErrMissingField)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	vehicle, err := h.service.CreateVehicle(ctx, req)
	if err != nil {
		util.ErrResponseInJSON(w, err)
		h.logger.HTTP(apperrors.Status(err), time.Since(start), r.RemoteAddr, r.Method, r.URL.Path)
		return
	}

	util.ResponseInJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"vehicle": vehicle,
	})
	h.logger.OK(instance, "vehicle created: "+vehicle.ID)
	h.logger.HTTP(http.StatusCreated, time.Since(start), r.RemoteAddr, r.Method, r.URL.Path)
}

func (h *Handler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, h.service.DeleteStudent)
}

func (h *Handler) DeleteDriver(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, h.service.DeleteDriver)
}

func (h *Handler) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, h.service.DeleteVehicle)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request, fn func(context.Context, string) error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := fn(ctx, r.PathValue("id")); err != nil {
		util.ErrResponseInJSON(w, err)
		h.logger.HTTP(apperrors.Status(err), time.Since(start), r.RemoteAddr, r.Method, r.URL.Path)
		return
	}
	util.ResponseInJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	h.logger.HTTP(http.StatusOK, time.Since(start), r.RemoteAddr, r.Method, r.URL.Path)
}
