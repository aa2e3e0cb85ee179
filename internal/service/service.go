// Package service реализует бизнес-логику сервиса кэшбэка.
package service

import (
	"context"
	"errors"
	"math"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/cashback-system/internal/cashback"
	"github.com/mmeshcher/cashback-system/internal/model"
)

// bcryptCost соответствует стоимости хэширования паролей реселлеров.
const bcryptCost = 10

// ErrInvalidCredentials возвращается при неверном пароле.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	CreateReseller(ctx context.Context, name, cpf, email string, passwordHash []byte) (int64, error)
	GetResellerByCPF(ctx context.Context, cpf string) (*model.Reseller, error)
	GetResellerByID(ctx context.Context, id int64) (*model.Reseller, error)
	AddPurchase(ctx context.Context, resellerID int64, code string, valueCents int64, status model.PurchaseStatus, date time.Time) error
	GetPurchasesByReseller(ctx context.Context, resellerID int64) ([]model.Purchase, error)
}

// Service содержит бизнес-логику сервиса кэшбэка.
type Service struct {
	repo           Repository
	cashbackClient *cashback.Client
	whiteList      map[string]struct{}
}

// NewService создаёт новый сервис с указанным репозиторием, клиентом внешнего API
// и белым списком CPF для автоматического подтверждения покупок.
func NewService(repo Repository, cashbackClient *cashback.Client, whiteList []string) *Service {
	wl := make(map[string]struct{}, len(whiteList))
	for _, cpf := range whiteList {
		wl[cpf] = struct{}{}
	}

	return &Service{
		repo:           repo,
		cashbackClient: cashbackClient,
		whiteList:      wl,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// RegisterReseller регистрирует нового реселлера. Пароль хэшируется ровно один раз,
// в момент записи; в хранилище попадает только хэш.
func (s *Service) RegisterReseller(ctx context.Context, name, cpf, email, password string) (int64, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return 0, err
	}

	return s.repo.CreateReseller(ctx, name, cpf, email, hash)
}

// Authenticate проверяет CPF и пароль реселлера и возвращает его идентификатор.
func (s *Service) Authenticate(ctx context.Context, cpf, password string) (int64, error) {
	reseller, err := s.repo.GetResellerByCPF(ctx, cpf)
	if err != nil {
		return 0, err
	}

	if !comparePassword(reseller.PasswordHash, password) {
		return 0, ErrInvalidCredentials
	}

	return reseller.ID, nil
}

// comparePassword сравнивает пароль с хэшем. Любая ошибка сравнения
// трактуется как несовпадение.
func comparePassword(hash []byte, candidate string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(candidate)) == nil
}

// AddPurchase регистрирует покупку реселлера. Статус определяется один раз
// при создании: CPF из белого списка даёт автоматическое подтверждение.
func (s *Service) AddPurchase(ctx context.Context, resellerID int64, code string, value float64) error {
	reseller, err := s.repo.GetResellerByID(ctx, resellerID)
	if err != nil {
		return err
	}

	status := model.PurchaseStatusPendingValidation
	if _, ok := s.whiteList[reseller.CPF]; ok {
		status = model.PurchaseStatusApproved
	}

	valueCents := int64(math.Round(value * 100))

	return s.repo.AddPurchase(ctx, resellerID, code, valueCents, status, time.Now().UTC())
}

// GetPurchases возвращает покупки реселлера с рассчитанным кэшбэком
// в порядке добавления.
func (s *Service) GetPurchases(ctx context.Context, resellerID int64) ([]model.EnrichedPurchase, error) {
	if _, err := s.repo.GetResellerByID(ctx, resellerID); err != nil {
		return nil, err
	}

	purchases, err := s.repo.GetPurchasesByReseller(ctx, resellerID)
	if err != nil {
		return nil, err
	}

	enriched := make([]model.EnrichedPurchase, 0, len(purchases))
	for _, p := range purchases {
		rate := CashbackRate(p.Value)
		enriched = append(enriched, model.EnrichedPurchase{
			Code:          p.Code,
			Value:         p.Value,
			Date:          p.Date,
			Status:        p.Status,
			CashbackRate:  rate,
			CashbackValue: rate * p.Value,
		})
	}

	return enriched, nil
}

// GetCashback запрашивает накопленный кэшбэк реселлера во внешнем API.
func (s *Service) GetCashback(ctx context.Context, resellerID int64) (*cashback.Balance, error) {
	reseller, err := s.repo.GetResellerByID(ctx, resellerID)
	if err != nil {
		return nil, err
	}

	return s.cashbackClient.GetAccumulated(ctx, reseller.CPF)
}

// CashbackRate возвращает процент кэшбэка для суммы покупки.
// Граничные значения относятся к нижнему уровню.
func CashbackRate(value float64) float64 {
	switch {
	case value <= 1000.0:
		return 0.10
	case value <= 1500.0:
		return 0.15
	default:
		return 0.20
	}
}
