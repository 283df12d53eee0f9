// Package actions wraps the write queries used by the presentation layer.
// Every action returns a Result envelope instead of an error, and marks the
// pages that depend on the written rows as stale.
package actions

import (
	"context"
	"errors"
	"log/slog"

	"github.com/elstracker/elstracker/internal/database"
	"github.com/elstracker/elstracker/internal/revalidate"
)

const unknownErrorMessage = "an unknown error occurred"

type ActionError struct {
	Message string `json:"message"`
}

// Result is the envelope returned to callers: {success, data} on success and
// {success, error: {message}} on failure.
type Result[T any] struct {
	Success bool         `json:"success"`
	Data    *T           `json:"data,omitempty"`
	Error   *ActionError `json:"error,omitempty"`

	err error
}

// Err returns the error behind a failed result, for transports that map
// failures onto their own status codes.
func (r Result[T]) Err() error {
	return r.err
}

type Store interface {
	CreateAccount(ctx context.Context, account *database.Account) (database.Account, error)
	DeleteAccountByID(ctx context.Context, accountID int64) (database.Account, error)
	CreateCharacter(ctx context.Context, character *database.Character) (database.Character, error)
	DeleteCharacterByID(ctx context.Context, characterID int64) (database.Character, error)
}

type Actions struct {
	store       Store
	revalidator revalidate.Revalidator
	log         *slog.Logger
}

func New(store Store, revalidator revalidate.Revalidator, logger *slog.Logger) *Actions {
	return &Actions{
		store:       store,
		revalidator: revalidator,
		log:         logger,
	}
}

type CreateAccountInput struct {
	ServerID       int64  `json:"serverId"`
	Username       string `json:"username"`
	IsSteam        bool   `json:"isSteam"`
	ResonanceLevel int    `json:"resonanceLevel"`
}

type CreateCharacterInput struct {
	AccountID        int64  `json:"accountId"`
	ClassID          int64  `json:"classId"`
	Username         string `json:"username"`
	Level            int    `json:"level"`
	SpecializationID *int64 `json:"specializationId"`
	PvPRankID        *int64 `json:"pvpRankId"`
}

func (a *Actions) CreateAccount(ctx context.Context, input CreateAccountInput) Result[database.Account] {
	account, err := a.store.CreateAccount(ctx, &database.Account{
		ServerID:       input.ServerID,
		Username:       input.Username,
		IsSteam:        input.IsSteam,
		ResonanceLevel: input.ResonanceLevel,
	})
	if err != nil {
		return failure[database.Account](a.log, "create-account", err)
	}

	a.revalidate(ctx, revalidate.HomePath)
	return success(account)
}

func (a *Actions) DeleteAccount(ctx context.Context, accountID int64) Result[database.Account] {
	account, err := a.store.DeleteAccountByID(ctx, accountID)
	if err != nil {
		return failure[database.Account](a.log, "delete-account", err)
	}

	a.revalidate(ctx, revalidate.HomePath, revalidate.AccountPath(account.ID))
	return success(account)
}

func (a *Actions) CreateCharacter(ctx context.Context, input CreateCharacterInput) Result[database.Character] {
	character, err := a.store.CreateCharacter(ctx, &database.Character{
		AccountID:        input.AccountID,
		ClassID:          input.ClassID,
		Username:         input.Username,
		Level:            input.Level,
		SpecializationID: input.SpecializationID,
		PvPRankID:        input.PvPRankID,
	})
	if err != nil {
		return failure[database.Character](a.log, "create-character", err)
	}

	a.revalidate(ctx, revalidate.AccountPath(character.AccountID), revalidate.HomePath)
	return success(character)
}

func (a *Actions) DeleteCharacter(ctx context.Context, characterID int64) Result[database.Character] {
	character, err := a.store.DeleteCharacterByID(ctx, characterID)
	if err != nil {
		return failure[database.Character](a.log, "delete-character", err)
	}

	a.revalidate(ctx,
		revalidate.AccountPath(character.AccountID),
		revalidate.CharacterPath(character.ID),
		revalidate.HomePath,
	)
	return success(character)
}

// revalidate never fails the action: the write has already happened.
func (a *Actions) revalidate(ctx context.Context, paths ...string) {
	if err := a.revalidator.Revalidate(ctx, paths...); err != nil {
		a.log.Error("failed to revalidate pages", "paths", paths, "error", err)
	}
}

func success[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: &data}
}

func failure[T any](logger *slog.Logger, action string, err error) Result[T] {
	logger.Error("action failed", "action", action, "error", err)

	return Result[T]{
		Success: false,
		Error:   &ActionError{Message: Message(err)},
		err:     err,
	}
}

// Message turns an error into the text shown to users. Only errors from the
// known taxonomy keep their own text.
func Message(err error) string {
	switch {
	case errors.Is(err, database.ErrNotFound),
		errors.Is(err, database.ErrConflict),
		errors.Is(err, database.ErrInvalidInput):
		return err.Error()
	default:
		return unknownErrorMessage
	}
}
