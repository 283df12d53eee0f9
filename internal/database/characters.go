package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
)

const (
	MinCharacterLevel = 1
	MaxCharacterLevel = 99
)

var charactersNameUnique = constraint{Name: "elstracker_characters_name_key", Table: "elstracker_characters", Column: "name"}

var ErrCharacterNameNotUnique = fmt.Errorf("character username %w", ErrConflict)

type Character struct {
	bun.BaseModel `bun:"table:elstracker_characters,alias:chr"`

	ID               int64  `bun:"id,pk,autoincrement" json:"id"`
	AccountID        int64  `bun:"account_id,notnull" json:"accountId"`
	ClassID          int64  `bun:"class_id,notnull" json:"classId"`
	Username         string `bun:"name,notnull" json:"username"`
	Level            int    `bun:"level,notnull" json:"level"`
	SpecializationID *int64 `bun:"specialization_id" json:"specializationId"`
	PvPRankID        *int64 `bun:"pvp_rank_id" json:"pvpRankId"`

	Class          *Class          `bun:"rel:belongs-to,join:class_id=id" json:"class,omitempty"`
	Specialization *Specialization `bun:"rel:belongs-to,join:specialization_id=id" json:"specialization,omitempty"`
	PvPRank        *PvPRank        `bun:"rel:belongs-to,join:pvp_rank_id=id" json:"pvpRank,omitempty"`
}

// CharacterPatch holds the fields UpdateCharacter should change; nil fields
// are left as they are. ClearSpecialization and ClearPvPRank null the
// matching reference.
type CharacterPatch struct {
	AccountID           *int64  `json:"accountId,omitempty"`
	ClassID             *int64  `json:"classId,omitempty"`
	Username            *string `json:"username,omitempty"`
	Level               *int    `json:"level,omitempty"`
	SpecializationID    *int64  `json:"specializationId,omitempty"`
	ClearSpecialization bool    `json:"clearSpecialization,omitempty"`
	PvPRankID           *int64  `json:"pvpRankId,omitempty"`
	ClearPvPRank        bool    `json:"clearPvpRank,omitempty"`
}

type CharacterQueries interface {
	GetCharactersByAccountID(ctx context.Context, accountID int64) ([]Character, error)
	GetCharacterByID(ctx context.Context, characterID int64) (Character, error)
	CreateCharacter(ctx context.Context, character *Character) (Character, error)
	UpdateCharacter(ctx context.Context, characterID int64, patch CharacterPatch) (Character, error)
	DeleteCharacterByID(ctx context.Context, characterID int64) (Character, error)
}

func (q *queriesImpl) selectFullCharacters(model any) *bun.SelectQuery {
	return q.db.NewSelect().
		Model(model).
		Relation("Class").
		Relation("Specialization").
		Relation("PvPRank")
}

func (q *queriesImpl) GetCharactersByAccountID(ctx context.Context, accountID int64) ([]Character, error) {
	characters := make([]Character, 0)

	err := q.selectFullCharacters(&characters).
		Where("?TableAlias.account_id = ?", accountID).
		OrderExpr("?TableAlias.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return characters, nil
}

func (q *queriesImpl) GetCharacterByID(ctx context.Context, characterID int64) (Character, error) {
	var character Character

	err := q.selectFullCharacters(&character).Where("?TableAlias.id = ?", characterID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Character{}, fmt.Errorf("character %d %w", characterID, ErrNotFound)
		}

		return Character{}, err
	}

	return character, nil
}

func (q *queriesImpl) getCharacterRow(ctx context.Context, characterID int64) (Character, error) {
	var character Character

	err := q.db.NewSelect().Model(&character).Where("?TableAlias.id = ?", characterID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Character{}, fmt.Errorf("character %d %w", characterID, ErrNotFound)
		}

		return Character{}, err
	}

	return character, nil
}

// validateCharacter checks the field ranges and that a chosen specialization
// belongs to the character's class. It must run in the same transaction as
// the write it guards.
func (q *queriesImpl) validateCharacter(ctx context.Context, character *Character) error {
	character.Username = strings.TrimSpace(character.Username)
	if character.Username == "" {
		return invalidInput("character username is required")
	}

	if character.Level < MinCharacterLevel || character.Level > MaxCharacterLevel {
		return invalidInput("level must be between %d and %d, got %d", MinCharacterLevel, MaxCharacterLevel, character.Level)
	}

	if err := q.ensureClassExists(ctx, character.ClassID); err != nil {
		return err
	}

	if character.SpecializationID == nil {
		return nil
	}

	specialization, err := q.GetSpecializationByID(ctx, *character.SpecializationID)
	if err != nil {
		return err
	}

	if specialization.ClassID != character.ClassID {
		return invalidInput("specialization %q does not belong to class %d", specialization.Name, character.ClassID)
	}

	return nil
}

func (q *queriesImpl) CreateCharacter(ctx context.Context, character *Character) (Character, error) {
	if character.Level == 0 {
		character.Level = MinCharacterLevel
	}

	err := q.runInTx(ctx, func(ctx context.Context, tx *queriesImpl) error {
		if err := tx.validateCharacter(ctx, character); err != nil {
			return err
		}

		_, err := tx.db.NewInsert().Model(character).Exec(ctx)
		if err != nil {
			return characterWriteError(err, character)
		}

		return nil
	})
	if err != nil {
		return Character{}, err
	}

	return *character, nil
}

func (q *queriesImpl) UpdateCharacter(ctx context.Context, characterID int64, patch CharacterPatch) (Character, error) {
	var updated Character

	err := q.runInTx(ctx, func(ctx context.Context, tx *queriesImpl) error {
		character, err := tx.getCharacterRow(ctx, characterID)
		if err != nil {
			return err
		}

		if patch.AccountID != nil {
			character.AccountID = *patch.AccountID
		}
		if patch.ClassID != nil {
			character.ClassID = *patch.ClassID
		}
		if patch.Username != nil {
			character.Username = *patch.Username
		}
		if patch.Level != nil {
			character.Level = *patch.Level
		}
		if patch.ClearSpecialization {
			character.SpecializationID = nil
		} else if patch.SpecializationID != nil {
			character.SpecializationID = patch.SpecializationID
		}
		if patch.ClearPvPRank {
			character.PvPRankID = nil
		} else if patch.PvPRankID != nil {
			character.PvPRankID = patch.PvPRankID
		}

		if err = tx.validateCharacter(ctx, &character); err != nil {
			return err
		}

		_, err = tx.db.NewUpdate().Model(&character).WherePK().Exec(ctx)
		if err != nil {
			return characterWriteError(err, &character)
		}

		updated = character
		return nil
	})
	if err != nil {
		return Character{}, err
	}

	return updated, nil
}

func (q *queriesImpl) DeleteCharacterByID(ctx context.Context, characterID int64) (Character, error) {
	var deleted Character

	err := q.runInTx(ctx, func(ctx context.Context, tx *queriesImpl) error {
		character, err := tx.getCharacterRow(ctx, characterID)
		if err != nil {
			return err
		}

		_, err = tx.db.NewDelete().Model((*Character)(nil)).Where("id = ?", characterID).Exec(ctx)
		if err != nil {
			return err
		}

		deleted = character
		return nil
	})
	if err != nil {
		return Character{}, err
	}

	return deleted, nil
}

func characterWriteError(err error, character *Character) error {
	if isViolationOfConstraint(err, charactersNameUnique) {
		return fmt.Errorf("%w: %s", ErrCharacterNameNotUnique, character.Username)
	}

	if isForeignKeyViolation(err) {
		return fmt.Errorf("account %d, class %d or pvp rank of character %w", character.AccountID, character.ClassID, ErrNotFound)
	}

	return err
}
