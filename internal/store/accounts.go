package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/models"
	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/utils"
)

// SaveAccount registers or updates a cloud account.
func (s *Store) SaveAccount(ctx context.Context, account models.CloudAccount) error {
	rec := AccountRecord{
		TenantID:       account.TenantID,
		AccountID:      account.AccountID,
		Provider:       string(account.Provider),
		Name:           account.Name,
		CredentialBlob: account.CredentialBlob,
		LastSyncedAt:   account.LastSyncedAt,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tenant_id"}, {Name: "account_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"provider", "name", "credential_blob", "updated_at",
		}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}

// GetAccount fetches one registered account.
func (s *Store) GetAccount(ctx context.Context, tenantID, accountID string) (*models.CloudAccount, error) {
	const op = "store.GetAccount"
	var rec AccountRecord
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND account_id = ?", tenantID, accountID).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NewAppError(op, utils.KindNotFound, fmt.Sprintf("account %s not found", accountID), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	account := rec.toModel()
	return &account, nil
}

// ListAccounts returns every registered account across tenants. Used by the
// collection scheduler.
func (s *Store) ListAccounts(ctx context.Context) ([]models.CloudAccount, error) {
	var recs []AccountRecord
	err := s.db.WithContext(ctx).Order("tenant_id ASC, account_id ASC").Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	accounts := make([]models.CloudAccount, 0, len(recs))
	for _, rec := range recs {
		accounts = append(accounts, rec.toModel())
	}
	return accounts, nil
}

// MarkSynced stamps a successful collection run. Only called after records
// were persisted.
func (s *Store) MarkSynced(ctx context.Context, tenantID, accountID string, at time.Time) error {
	result := s.db.WithContext(ctx).Model(&AccountRecord{}).
		Where("tenant_id = ? AND account_id = ?", tenantID, accountID).
		Update("last_synced_at", at)
	if result.Error != nil {
		return fmt.Errorf("mark synced: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.NewAppError("store.MarkSynced", utils.KindNotFound,
			fmt.Sprintf("account %s not found", accountID), nil)
	}
	return nil
}

func (r AccountRecord) toModel() models.CloudAccount {
	return models.CloudAccount{
		TenantID:       r.TenantID,
		AccountID:      r.AccountID,
		Provider:       models.ProviderKind(r.Provider),
		Name:           r.Name,
		CredentialBlob: r.CredentialBlob,
		LastSyncedAt:   r.LastSyncedAt,
	}
}
