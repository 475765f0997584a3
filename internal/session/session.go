package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xiaoxiunique/xhs-poster/internal/models"
	"github.com/xiaoxiunique/xhs-poster/internal/xhs"
	"github.com/xiaoxiunique/xhs-poster/pkg/logging"
)

// Session resolution failures. Both are user-actionable: add an account,
// or activate one.
var (
	ErrNoActiveAccount = errors.New("session: no active account")
	ErrAccountNotFound = errors.New("session: account not found")
)

// CredentialStore is the persistence seam the session manager needs. A
// missing account is reported as (nil, nil), not an error.
type CredentialStore interface {
	GetByID(ctx context.Context, id int64) (*models.Account, error)
	Create(ctx context.Context, name, cookie string) (*models.Account, error)
	Delete(ctx context.Context, id int64) error
	SetValidity(ctx context.Context, id int64, status string, checkedAt time.Time) error
	SetActive(ctx context.Context, id int64) error
	GetActive(ctx context.Context) (*models.Account, error)
	List(ctx context.Context) ([]*models.Account, error)
}

// Prober is the single platform call used to classify credential validity.
type Prober interface {
	MyInfo(ctx context.Context) (*xhs.UserInfo, error)
}

// Manager answers which credential an operation should use and enforces
// the single-active-account invariant.
type Manager struct {
	store     CredentialStore
	newProber func(cookie string) Prober
	logger    *zap.Logger
}

// New creates a session manager over the given store. newProber builds the
// platform probe bound to a credential; validity checks go through it.
func New(store CredentialStore, newProber func(cookie string) Prober) *Manager {
	return &Manager{
		store:     store,
		newProber: newProber,
		logger:    logging.GetLogger().With(zap.String("component", "session")),
	}
}

// Activate transfers the active designation to the given account. The
// store performs the flag flip as one atomic update, so concurrent
// activations race to a single well-defined winner rather than a torn
// state. Activation does not touch validity status.
func (m *Manager) Activate(ctx context.Context, id int64) error {
	account, err := m.store.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load account %d: %w", id, err)
	}
	if account == nil {
		return fmt.Errorf("%w: id %d", ErrAccountNotFound, id)
	}

	if err := m.store.SetActive(ctx, id); err != nil {
		return fmt.Errorf("activate account %d: %w", id, err)
	}

	m.logger.Info("Activated account", zap.Int64("account_id", id), zap.String("name", account.Name))

	return nil
}

// Resolve returns the account an operation should run as. An explicit id
// wins; otherwise the currently active account is used. Every publish,
// search and ingest entry point goes through here instead of reading
// ambient global state, so callers can override per call.
func (m *Manager) Resolve(ctx context.Context, explicitID *int64) (*models.Account, error) {
	if explicitID != nil {
		account, err := m.store.GetByID(ctx, *explicitID)
		if err != nil {
			return nil, fmt.Errorf("load account %d: %w", *explicitID, err)
		}
		if account == nil {
			return nil, fmt.Errorf("%w: id %d", ErrAccountNotFound, *explicitID)
		}
		return account, nil
	}

	account, err := m.store.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active account: %w", err)
	}
	if account == nil {
		return nil, ErrNoActiveAccount
	}
	return account, nil
}

// CheckValidity probes the platform with the account's credential and
// records the outcome. A probe failure of any kind classifies the
// credential as expired rather than propagating: validity checking is
// advisory and is never retried automatically.
func (m *Manager) CheckValidity(ctx context.Context, id int64) (string, error) {
	account, err := m.store.GetByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("load account %d: %w", id, err)
	}
	if account == nil {
		return "", fmt.Errorf("%w: id %d", ErrAccountNotFound, id)
	}

	status := models.StatusActive
	if _, err := m.newProber(account.Cookie).MyInfo(ctx); err != nil {
		m.logger.Warn("Credential probe failed",
			zap.Int64("account_id", id),
			zap.Error(err))
		status = models.StatusExpired
	}

	if err := m.store.SetValidity(ctx, id, status, time.Now().UTC()); err != nil {
		return "", fmt.Errorf("record validity for account %d: %w", id, err)
	}

	m.logger.Info("Checked account validity",
		zap.Int64("account_id", id),
		zap.String("status", status))

	return status, nil
}

// Register stores a new credential and immediately probes it once to
// classify validity. The returned account carries the probe outcome.
func (m *Manager) Register(ctx context.Context, name, cookie string) (*models.Account, error) {
	account, err := m.store.Create(ctx, name, cookie)
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	status, err := m.CheckValidity(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	account.Status = status

	return account, nil
}
