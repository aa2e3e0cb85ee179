// Package handler содержит HTTP-обработчики API сервиса кэшбэка.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/cashback-system/internal/cashback"
	"github.com/mmeshcher/cashback-system/internal/middleware"
	"github.com/mmeshcher/cashback-system/internal/model"
	"github.com/mmeshcher/cashback-system/internal/repository"
	"github.com/mmeshcher/cashback-system/internal/service"
	"github.com/mmeshcher/cashback-system/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	RegisterReseller(ctx context.Context, name, cpf, email, password string) (int64, error)
	Authenticate(ctx context.Context, cpf, password string) (int64, error)
	AddPurchase(ctx context.Context, resellerID int64, code string, value float64) error
	GetPurchases(ctx context.Context, resellerID int64) ([]model.EnrichedPurchase, error)
	GetCashback(ctx context.Context, resellerID int64) (*cashback.Balance, error)
}

// Handler реализует HTTP-обработчики API сервиса кэшбэка.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
	}
}

type loginRequest struct {
	CPF      string `json:"cpf"`
	Password string `json:"password"`
}

// Login выполняет аутентификацию реселлера и выдаёт bearer-токен.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CPF == "" || req.Password == "" {
		h.logger.Error("authentication failed, no cpf or password was entered")
		h.sendMessage(w, http.StatusBadRequest, "No cpf or password was entered.")
		return
	}

	resellerID, err := h.service.Authenticate(r.Context(), req.CPF, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrResellerNotFound):
			h.logger.Error("authentication failed, reseller not found", zap.String("cpf", req.CPF))
			h.sendMessage(w, http.StatusNotFound, "Not found the reseller.")
		case errors.Is(err, service.ErrInvalidCredentials):
			h.logger.Error("authentication failed, invalid password", zap.String("cpf", req.CPF))
			h.sendMessage(w, http.StatusBadRequest, "The password is invalid.")
		default:
			h.logger.Error("authentication error", zap.Error(err))
			h.sendMessage(w, http.StatusInternalServerError, "Internal Error")
		}
		return
	}

	token, err := h.authMiddleware.IssueToken(resellerID)
	if err != nil {
		h.logger.Error("issue token error", zap.Error(err))
		h.sendMessage(w, http.StatusInternalServerError, "Internal Error")
		return
	}

	h.logger.Info("new token issued", zap.Int64("resellerID", resellerID))
	h.sendJSON(w, http.StatusOK, map[string]string{"token": token})
}

type resellerRequest struct {
	Name     string `json:"name"`
	CPF      string `json:"cpf"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register обрабатывает регистрацию нового реселлера. Проверки выполняются
// последовательно и прерываются на первой неуспешной.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req resellerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Name == "" {
		h.logger.Error("reseller registration failed, name is missing")
		h.sendMessage(w, http.StatusBadRequest, "Name is missing.")
		return
	}

	if req.CPF == "" {
		h.logger.Error("reseller registration failed, cpf is missing")
		h.sendMessage(w, http.StatusBadRequest, "CPF is missing.")
		return
	}

	cpf := validation.NormalizeCPF(req.CPF)

	if !validation.IsValidCPF(cpf) {
		h.logger.Error("reseller registration failed, cpf is not valid")
		h.sendMessage(w, http.StatusBadRequest, "CPF is not valid.")
		return
	}

	if !validation.IsValidEmail(req.Email) {
		h.logger.Error("reseller registration failed, email is not valid")
		h.sendMessage(w, http.StatusBadRequest, "Email is not valid.")
		return
	}

	if req.Password == "" {
		h.logger.Error("reseller registration failed, password is missing")
		h.sendMessage(w, http.StatusBadRequest, "Password is missing.")
		return
	}

	resellerID, err := h.service.RegisterReseller(r.Context(), req.Name, cpf, req.Email, req.Password)
	if err != nil {
		var dup *repository.DuplicateKeyError
		if errors.As(err, &dup) {
			h.logger.Error("reseller registration failed, duplicate key", zap.String("field", dup.Field))
			h.sendMessage(w, http.StatusBadRequest,
				"The following value is already registered: {"+strconv.Quote(dup.Field)+":"+strconv.Quote(dup.Value)+"}")
			return
		}
		h.logger.Error("register reseller error", zap.Error(err))
		h.sendMessage(w, http.StatusInternalServerError, "Internal Error")
		return
	}

	h.logger.Info("new reseller created", zap.Int64("resellerID", resellerID))
	h.sendMessage(w, http.StatusOK, "New Reseller save with success.")
}

type purchaseRequest struct {
	Code  string `json:"code"`
	Value any    `json:"value"`
}

// SubmitPurchase регистрирует покупку текущего реселлера.
func (h *Handler) SubmitPurchase(w http.ResponseWriter, r *http.Request) {
	resellerID, ok := middleware.GetResellerIDFromContext(r.Context())
	if !ok {
		h.sendMessage(w, http.StatusUnauthorized, "No token provided.")
		return
	}

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Code == "" {
		h.logger.Error("purchase registration failed, code is missing")
		h.sendMessage(w, http.StatusBadRequest, "Code is missing.")
		return
	}

	value, present, numeric := parseValue(req.Value)
	if !present {
		h.logger.Error("purchase registration failed, value is missing")
		h.sendMessage(w, http.StatusBadRequest, "Value is missing.")
		return
	}
	if !numeric || value <= 0 {
		h.logger.Error("purchase registration failed, value is not valid")
		h.sendMessage(w, http.StatusBadRequest, "Value is not valid.")
		return
	}

	if err := h.service.AddPurchase(r.Context(), resellerID, req.Code, value); err != nil {
		if errors.Is(err, repository.ErrResellerNotFound) {
			h.logger.Error("purchase registration failed, reseller not found", zap.Int64("resellerID", resellerID))
			h.sendMessage(w, http.StatusNotFound, "The reseller was not found.")
			return
		}
		h.logger.Error("add purchase error", zap.Error(err), zap.Int64("resellerID", resellerID))
		h.sendMessage(w, http.StatusInternalServerError, "Internal Error")
		return
	}

	h.logger.Info("new purchase registered", zap.Int64("resellerID", resellerID))
	h.sendMessage(w, http.StatusOK, "Purchase successfully registered.")
}

// parseValue разбирает значение покупки из JSON. Ноль и пустая строка
// считаются отсутствующим значением, нечисловые типы — невалидным.
func parseValue(raw any) (value float64, present, numeric bool) {
	switch v := raw.(type) {
	case nil:
		return 0, false, false
	case float64:
		if v == 0 {
			return 0, false, false
		}
		return v, true, true
	case string:
		if v == "" {
			return 0, false, false
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, true, false
		}
		return parsed, true, true
	default:
		return 0, true, false
	}
}

type purchaseResponse struct {
	Code          string  `json:"code"`
	Value         float64 `json:"value"`
	Date          string  `json:"date"`
	Status        string  `json:"status"`
	CashbackRate  float64 `json:"cashbackRate"`
	CashbackValue float64 `json:"cashbackValue"`
}

// GetPurchases возвращает список покупок текущего реселлера с кэшбэком.
func (h *Handler) GetPurchases(w http.ResponseWriter, r *http.Request) {
	resellerID, ok := middleware.GetResellerIDFromContext(r.Context())
	if !ok {
		h.sendMessage(w, http.StatusUnauthorized, "No token provided.")
		return
	}

	purchases, err := h.service.GetPurchases(r.Context(), resellerID)
	if err != nil {
		if errors.Is(err, repository.ErrResellerNotFound) {
			h.logger.Error("get purchases failed, reseller not found", zap.Int64("resellerID", resellerID))
			h.sendMessage(w, http.StatusNotFound, "The reseller was not found.")
			return
		}
		h.logger.Error("get purchases error", zap.Error(err), zap.Int64("resellerID", resellerID))
		h.sendMessage(w, http.StatusInternalServerError, "Internal Error")
		return
	}

	resp := make([]purchaseResponse, 0, len(purchases))
	for _, p := range purchases {
		resp = append(resp, purchaseResponse{
			Code:          p.Code,
			Value:         p.Value,
			Date:          p.Date.Format(time.RFC3339),
			Status:        string(p.Status),
			CashbackRate:  p.CashbackRate,
			CashbackValue: p.CashbackValue,
		})
	}

	h.logger.Info("purchase list requested", zap.Int64("resellerID", resellerID))
	h.sendJSON(w, http.StatusOK, resp)
}

// GetCashback возвращает накопленный кэшбэк текущего реселлера из внешнего API.
// Статус и тело ответа внешнего API передаются клиенту без изменений.
func (h *Handler) GetCashback(w http.ResponseWriter, r *http.Request) {
	resellerID, ok := middleware.GetResellerIDFromContext(r.Context())
	if !ok {
		h.sendMessage(w, http.StatusUnauthorized, "No token provided.")
		return
	}

	balance, err := h.service.GetCashback(r.Context(), resellerID)
	if err != nil {
		if errors.Is(err, repository.ErrResellerNotFound) {
			h.logger.Error("get cashback failed, reseller not found", zap.Int64("resellerID", resellerID))
			h.sendMessage(w, http.StatusNotFound, "The reseller was not found.")
			return
		}
		h.logger.Error("external cashback API error", zap.Error(err), zap.Int64("resellerID", resellerID))
		h.sendMessage(w, http.StatusBadGateway,
			"It was not possible to communicate with the external API to check the accumulated cachback.")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(balance.StatusCode)
	if _, err := w.Write(balance.Body); err != nil {
		h.logger.Error("write cashback response error", zap.Error(err))
	}
}

func (h *Handler) sendMessage(w http.ResponseWriter, status int, message string) {
	h.sendJSON(w, status, map[string]string{"message": message})
}

func (h *Handler) sendJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("encode response error", zap.Error(err))
	}
}
