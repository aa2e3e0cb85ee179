// Package model содержит доменные сущности сервиса кэшбэка.
package model

import "time"

// Reseller представляет зарегистрированного реселлера.
type Reseller struct {
	ID           int64
	Name         string
	CPF          string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}

// PurchaseStatus описывает статус валидации покупки.
type PurchaseStatus string

const (
	PurchaseStatusApproved          PurchaseStatus = "Approved"
	PurchaseStatusPendingValidation PurchaseStatus = "PendingValidation"
)

// Purchase описывает покупку реселлера.
type Purchase struct {
	Code   string
	Value  float64
	Date   time.Time
	Status PurchaseStatus
}

// EnrichedPurchase описывает покупку вместе с рассчитанным кэшбэком.
// Процент и сумма кэшбэка не хранятся, а вычисляются при чтении.
type EnrichedPurchase struct {
	Code          string
	Value         float64
	Date          time.Time
	Status        PurchaseStatus
	CashbackRate  float64
	CashbackValue float64
}
