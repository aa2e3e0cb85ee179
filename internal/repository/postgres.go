// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mmeshcher/cashback-system/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrResellerNotFound возвращается, если реселлер не найден.
var ErrResellerNotFound = errors.New("reseller not found")

// DuplicateKeyError возвращается при нарушении уникальности cpf или email.
type DuplicateKeyError struct {
	Field string
	Value string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate %s: %s", e.Field, e.Value)
}

// PostgresRepository предоставляет доступ к хранилищу данных в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	var err error
	delays := []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

	for i := 0; i <= len(delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		// Ретраим только временные ошибки: сериализацию, дедлоки и сетевые сбои.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected {
				if i < len(delays) {
					time.Sleep(delays[i])
					continue
				}
			}
		}

		if isConnectionError(err) {
			if i < len(delays) {
				time.Sleep(delays[i])
				continue
			}
		}

		break
	}
	return err
}

func isConnectionError(err error) bool {
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// CreateReseller создаёт нового реселлера с уже захэшированным паролем.
func (r *PostgresRepository) CreateReseller(ctx context.Context, name, cpf, email string, passwordHash []byte) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO resellers (name, cpf, email, password_hash) VALUES ($1, $2, $3, $4) RETURNING id`,
		name, cpf, email, passwordHash,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			field, value := "cpf", cpf
			if strings.Contains(pgErr.ConstraintName, "email") {
				field, value = "email", email
			}
			return 0, &DuplicateKeyError{Field: field, Value: value}
		}
		return 0, fmt.Errorf("create reseller: %w", err)
	}
	return id, nil
}

// GetResellerByCPF возвращает реселлера по CPF.
func (r *PostgresRepository) GetResellerByCPF(ctx context.Context, cpf string) (*model.Reseller, error) {
	return r.getReseller(ctx,
		`SELECT id, name, cpf, email, password_hash, created_at FROM resellers WHERE cpf = $1`,
		cpf,
	)
}

// GetResellerByID возвращает реселлера по идентификатору.
func (r *PostgresRepository) GetResellerByID(ctx context.Context, id int64) (*model.Reseller, error) {
	return r.getReseller(ctx,
		`SELECT id, name, cpf, email, password_hash, created_at FROM resellers WHERE id = $1`,
		id,
	)
}

func (r *PostgresRepository) getReseller(ctx context.Context, query string, arg any) (*model.Reseller, error) {
	row := r.pool.QueryRow(ctx, query, arg)

	var res model.Reseller
	err := row.Scan(&res.ID, &res.Name, &res.CPF, &res.Email, &res.PasswordHash, &res.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResellerNotFound
		}
		return nil, fmt.Errorf("get reseller: %w", err)
	}

	return &res, nil
}

// AddPurchase добавляет покупку реселлеру. Вставка атомарна, поэтому параллельные
// покупки одного реселлера не затирают друг друга.
func (r *PostgresRepository) AddPurchase(ctx context.Context, resellerID int64, code string, valueCents int64, status model.PurchaseStatus, date time.Time) error {
	return r.withRetry(ctx, func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO purchases (reseller_id, code, value, status, purchased_at) VALUES ($1, $2, $3, $4, $5)`,
			resellerID, code, valueCents, string(status), date,
		)
		if err != nil {
			return fmt.Errorf("insert purchase: %w", err)
		}
		return nil
	})
}

// GetPurchasesByReseller возвращает покупки реселлера в порядке добавления.
func (r *PostgresRepository) GetPurchasesByReseller(ctx context.Context, resellerID int64) ([]model.Purchase, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT code, value, status, purchased_at
		 FROM purchases
		 WHERE reseller_id = $1
		 ORDER BY id`,
		resellerID,
	)
	if err != nil {
		return nil, fmt.Errorf("select purchases: %w", err)
	}
	defer rows.Close()

	var purchases []model.Purchase
	for rows.Next() {
		var (
			code        string
			valueCents  int64
			status      string
			purchasedAt time.Time
		)
		if err := rows.Scan(&code, &valueCents, &status, &purchasedAt); err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}

		purchases = append(purchases, model.Purchase{
			Code:   code,
			Value:  float64(valueCents) / 100,
			Date:   purchasedAt,
			Status: model.PurchaseStatus(status),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return purchases, nil
}
