package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
)

var specializationsNameUnique = constraint{Name: "elstracker_specializations_name_key", Table: "elstracker_specializations", Column: "name"}

type Specialization struct {
	bun.BaseModel `bun:"table:elstracker_specializations,alias:spc"`

	ID      int64  `bun:"id,pk,autoincrement" json:"id"`
	ClassID int64  `bun:"class_id,notnull" json:"classId"`
	Name    string `bun:"name,notnull" json:"name"`
	IconURL string `bun:"icon_url,notnull" json:"iconUrl"`
}

type SpecializationQueries interface {
	GetAllSpecializations(ctx context.Context) ([]Specialization, error)
	GetSpecializationsByClassID(ctx context.Context, classID int64) ([]Specialization, error)
	GetSpecializationByID(ctx context.Context, specializationID int64) (Specialization, error)
	CreateSpecializationIfNotExists(ctx context.Context, specialization *Specialization) (bool, error)
}

func (q *queriesImpl) GetAllSpecializations(ctx context.Context) ([]Specialization, error) {
	specializations := make([]Specialization, 0)

	err := q.db.NewSelect().Model(&specializations).OrderExpr("?TableAlias.id ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}

	return specializations, nil
}

func (q *queriesImpl) GetSpecializationsByClassID(ctx context.Context, classID int64) ([]Specialization, error) {
	specializations := make([]Specialization, 0)

	err := q.db.NewSelect().
		Model(&specializations).
		Where("?TableAlias.class_id = ?", classID).
		OrderExpr("?TableAlias.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return specializations, nil
}

func (q *queriesImpl) GetSpecializationByID(ctx context.Context, specializationID int64) (Specialization, error) {
	var specialization Specialization

	err := q.db.NewSelect().Model(&specialization).Where("?TableAlias.id = ?", specializationID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Specialization{}, fmt.Errorf("specialization %d %w", specializationID, ErrNotFound)
		}

		return Specialization{}, err
	}

	return specialization, nil
}

// CreateSpecializationIfNotExists is keyed on the specialization name alone;
// a name already taken by any class is skipped. The class is checked up front
// because MySQL's INSERT IGNORE downgrades foreign key failures to warnings.
func (q *queriesImpl) CreateSpecializationIfNotExists(ctx context.Context, specialization *Specialization) (bool, error) {
	if specialization.Name == "" {
		return false, invalidInput("specialization name is required")
	}

	if err := q.ensureClassExists(ctx, specialization.ClassID); err != nil {
		return false, err
	}

	res, err := q.db.NewInsert().Model(specialization).Ignore().Exec(ctx)
	if err != nil {
		if isViolationOfConstraint(err, specializationsNameUnique) {
			return false, nil
		}

		if isForeignKeyViolation(err) {
			return false, fmt.Errorf("class %d %w", specialization.ClassID, ErrNotFound)
		}

		return false, err
	}

	return rowsWritten(res)
}
