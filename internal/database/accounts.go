package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
)

var accountsUsernameUnique = constraint{Name: "elstracker_accounts_username_key", Table: "elstracker_accounts", Column: "username"}

var ErrAccountNameNotUnique = fmt.Errorf("account username %w", ErrConflict)

type Account struct {
	bun.BaseModel `bun:"table:elstracker_accounts,alias:acc"`

	ID             int64  `bun:"id,pk,autoincrement" json:"id"`
	ServerID       int64  `bun:"server_id,notnull" json:"serverId"`
	Username       string `bun:"username,notnull" json:"username"`
	IsSteam        bool   `bun:"is_steam,notnull" json:"isSteam"`
	ResonanceLevel int    `bun:"resonance_level,notnull" json:"resonanceLevel"`

	Server     *Server     `bun:"rel:belongs-to,join:server_id=id" json:"server,omitempty"`
	Characters []Character `bun:"rel:has-many,join:id=account_id" json:"characters"`
}

// AccountPatch holds the fields UpdateAccount should change; nil fields are left as they are.
type AccountPatch struct {
	ServerID       *int64  `json:"serverId,omitempty"`
	Username       *string `json:"username,omitempty"`
	IsSteam        *bool   `json:"isSteam,omitempty"`
	ResonanceLevel *int    `json:"resonanceLevel,omitempty"`
}

func (a *Account) validate() error {
	a.Username = strings.TrimSpace(a.Username)
	if a.Username == "" {
		return invalidInput("account username is required")
	}

	if a.ResonanceLevel < 0 {
		return invalidInput("resonance level must not be negative, got %d", a.ResonanceLevel)
	}

	return nil
}

// MarshalJSON always emits characters as a list, [] when none are loaded.
func (a Account) MarshalJSON() ([]byte, error) {
	type account Account

	out := account(a)
	if out.Characters == nil {
		out.Characters = []Character{}
	}

	return json.Marshal(out)
}

type AccountQueries interface {
	GetAllAccounts(ctx context.Context) ([]Account, error)
	GetAccountsByServerID(ctx context.Context, serverID int64) ([]Account, error)
	GetAccountByID(ctx context.Context, accountID int64) (Account, error)
	CreateAccount(ctx context.Context, account *Account) (Account, error)
	UpdateAccount(ctx context.Context, accountID int64, patch AccountPatch) (Account, error)
	DeleteAccountByID(ctx context.Context, accountID int64) (Account, error)
}

// selectFullAccounts loads accounts together with their server and every
// character expanded with class, specialization and pvp rank.
func (q *queriesImpl) selectFullAccounts(model any) *bun.SelectQuery {
	return q.db.NewSelect().
		Model(model).
		Relation("Server").
		Relation("Characters", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.OrderExpr("?TableAlias.id ASC")
		}).
		Relation("Characters.Class").
		Relation("Characters.Specialization").
		Relation("Characters.PvPRank")
}

func (q *queriesImpl) GetAllAccounts(ctx context.Context) ([]Account, error) {
	accounts := make([]Account, 0)

	err := q.selectFullAccounts(&accounts).OrderExpr("?TableAlias.id ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}

	return accounts, nil
}

func (q *queriesImpl) GetAccountsByServerID(ctx context.Context, serverID int64) ([]Account, error) {
	accounts := make([]Account, 0)

	err := q.selectFullAccounts(&accounts).
		Where("?TableAlias.server_id = ?", serverID).
		OrderExpr("?TableAlias.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return accounts, nil
}

func (q *queriesImpl) GetAccountByID(ctx context.Context, accountID int64) (Account, error) {
	var account Account

	err := q.selectFullAccounts(&account).Where("?TableAlias.id = ?", accountID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, fmt.Errorf("account %d %w", accountID, ErrNotFound)
		}

		return Account{}, err
	}

	return account, nil
}

func (q *queriesImpl) getAccountRow(ctx context.Context, accountID int64) (Account, error) {
	var account Account

	err := q.db.NewSelect().Model(&account).Where("?TableAlias.id = ?", accountID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, fmt.Errorf("account %d %w", accountID, ErrNotFound)
		}

		return Account{}, err
	}

	return account, nil
}

func (q *queriesImpl) CreateAccount(ctx context.Context, account *Account) (Account, error) {
	if err := account.validate(); err != nil {
		return Account{}, err
	}

	_, err := q.db.NewInsert().Model(account).Exec(ctx)
	if err != nil {
		return Account{}, accountWriteError(err, account)
	}

	return *account, nil
}

func (q *queriesImpl) UpdateAccount(ctx context.Context, accountID int64, patch AccountPatch) (Account, error) {
	var updated Account

	err := q.runInTx(ctx, func(ctx context.Context, tx *queriesImpl) error {
		account, err := tx.getAccountRow(ctx, accountID)
		if err != nil {
			return err
		}

		if patch.ServerID != nil {
			account.ServerID = *patch.ServerID
		}
		if patch.Username != nil {
			account.Username = *patch.Username
		}
		if patch.IsSteam != nil {
			account.IsSteam = *patch.IsSteam
		}
		if patch.ResonanceLevel != nil {
			account.ResonanceLevel = *patch.ResonanceLevel
		}

		if err = account.validate(); err != nil {
			return err
		}

		_, err = tx.db.NewUpdate().Model(&account).WherePK().Exec(ctx)
		if err != nil {
			return accountWriteError(err, &account)
		}

		updated = account
		return nil
	})
	if err != nil {
		return Account{}, err
	}

	return updated, nil
}

// DeleteAccountByID removes the account and returns the deleted row. Its
// characters go with it through the cascading foreign key.
func (q *queriesImpl) DeleteAccountByID(ctx context.Context, accountID int64) (Account, error) {
	var deleted Account

	err := q.runInTx(ctx, func(ctx context.Context, tx *queriesImpl) error {
		account, err := tx.getAccountRow(ctx, accountID)
		if err != nil {
			return err
		}

		_, err = tx.db.NewDelete().Model((*Account)(nil)).Where("id = ?", accountID).Exec(ctx)
		if err != nil {
			return err
		}

		deleted = account
		return nil
	})
	if err != nil {
		return Account{}, err
	}

	return deleted, nil
}

func accountWriteError(err error, account *Account) error {
	if isViolationOfConstraint(err, accountsUsernameUnique) {
		return fmt.Errorf("%w: %s", ErrAccountNameNotUnique, account.Username)
	}

	if isForeignKeyViolation(err) {
		return fmt.Errorf("server %d %w", account.ServerID, ErrNotFound)
	}

	return err
}
