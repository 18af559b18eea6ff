package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"campus-rickshaw/internal/auth/app"
	"campus-rickshaw/internal/auth/domain"
	"campus-rickshaw/internal/shared/apperrors"
	"campus-rickshaw/internal/shared/util"
)

type Handler struct {
	service *app.AuthService
	logger  *util.Logger
}

func NewHandler(service *app.AuthService, logger *util.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/login", h.Login)
	mux.HandleFunc("POST /api/register", h.Register)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	instance := "LoginHandler"
	start := time.Now()

	var req loginRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		util.ErrResponseInJSON(w, apperrors.ErrMissingField)
		h.logger.HTTP(http.StatusBadRequest, time.Since(start), r.RemoteAddr, r.Method, r.URL.Path)
		return
	}
	if req.Email == "" || req.Password == "" {
		util.ErrResponseInJSON(w, apperrors.ErrMissingField)
		h.logger.HTTP(http.StatusBadRequest, time.Since(start), r.RemoteAddr, r.Method, r.URL.Path)
		return
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		util.ErrResponseInJSON(w, apperrors.ErrMissingField)
		h.logger.HTTP(http.StatusBadRequest, time.Since(start), r.RemoteAddr, r.Method, r.URL.Path)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	token, principal, err := h.service.Login(ctx, req.Email, req.Password, role)
	if err != nil {
		util.ErrResponseInJSON(w, err)
		h.logger.HTTP(apperrors.Status(err), time.Since(start), r.RemoteAddr, r.Method, r.URL.Path)
		return
	}

	util.ResponseInJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  principal,
	})
	h.logger.OK(instance, "login: "+principal.ID)
	h.logger.HTTP(http.StatusOK, time.Since(start), r.RemoteAddr, r.Method, r.URL.Path)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	instance := "RegisterHandler"
	start := time.Now()

	var req domain.StudentRegistration
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		util.ErrResponseInJSON(w, apperrors.ErrMissingField)
		h.logger.HTTP(http.StatusBadRequest, time.Since(start), r.RemoteAddr, r.Method, r.URL.Path)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	student, err := h.service.Register(ctx, req)
	if err != nil {
		util.ErrResponseInJSON(w, err)
		h.logger.HTTP(apperrors.Status(err), time.Since(start), r.RemoteAddr, r.Method, r.URL.Path)
		return
	}

	util.ResponseInJSON(w, http.StatusCreated, map[string]interface{}{
		"success":    true,
		"student_id": student.ID,
	})
	h.logger.OK(instance, "student registered: "+student.ID)
	h.logger.HTTP(http.StatusCreated, time.Since(start), r.RemoteAddr, r.Method, r.URL.Path)
}
