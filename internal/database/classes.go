package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
)

var classesNameUnique = constraint{Name: "elstracker_classes_name_key", Table: "elstracker_classes", Column: "name"}

type Class struct {
	bun.BaseModel `bun:"table:elstracker_classes,alias:cls"`

	ID      int64  `bun:"id,pk,autoincrement" json:"id"`
	Name    string `bun:"name,notnull" json:"name"`
	IconURL string `bun:"icon_url,notnull" json:"iconUrl"`

	Specializations []Specialization `bun:"rel:has-many,join:id=class_id" json:"specializations"`
}

func (c Class) MarshalJSON() ([]byte, error) {
	type class Class

	out := class(c)
	if out.Specializations == nil {
		out.Specializations = []Specialization{}
	}

	return json.Marshal(out)
}

type ClassQueries interface {
	GetAllClasses(ctx context.Context) ([]Class, error)
	GetClassByName(ctx context.Context, name string) (Class, error)
	CreateClassIfNotExists(ctx context.Context, class *Class) (bool, error)
}

// GetAllClasses returns every class with its specializations, which is what
// the character form needs to offer only matching specializations.
func (q *queriesImpl) GetAllClasses(ctx context.Context) ([]Class, error) {
	classes := make([]Class, 0)

	err := q.db.NewSelect().
		Model(&classes).
		Relation("Specializations", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.OrderExpr("?TableAlias.id ASC")
		}).
		OrderExpr("?TableAlias.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return classes, nil
}

func (q *queriesImpl) GetClassByName(ctx context.Context, name string) (Class, error) {
	var class Class

	err := q.db.NewSelect().Model(&class).Where("?TableAlias.name = ?", name).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Class{}, fmt.Errorf("class %q %w", name, ErrNotFound)
		}

		return Class{}, err
	}

	return class, nil
}

func (q *queriesImpl) ensureClassExists(ctx context.Context, classID int64) error {
	exists, err := q.db.NewSelect().Model((*Class)(nil)).Where("?TableAlias.id = ?", classID).Exists(ctx)
	if err != nil {
		return err
	}

	if !exists {
		return fmt.Errorf("class %d %w", classID, ErrNotFound)
	}

	return nil
}

func (q *queriesImpl) CreateClassIfNotExists(ctx context.Context, class *Class) (bool, error) {
	if class.Name == "" {
		return false, invalidInput("class name is required")
	}

	res, err := q.db.NewInsert().Model(class).Ignore().Exec(ctx)
	if err != nil {
		if isViolationOfConstraint(err, classesNameUnique) {
			return false, nil
		}

		return false, err
	}

	return rowsWritten(res)
}
