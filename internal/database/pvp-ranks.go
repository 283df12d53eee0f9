package database

import (
	"context"
	"slices"

	"github.com/uptrace/bun"
)

var pvpRanksNameUnique = constraint{Name: "elstracker_pvp_ranks_name_key", Table: "elstracker_pvp_ranks", Column: "name"}

// PvPRankNames is the closed, ordered set of rank names, lowest first.
var PvPRankNames = []string{"Unranked", "E", "D", "C", "B", "A", "S", "SS", "SSS", "Star"}

type PvPRank struct {
	bun.BaseModel `bun:"table:elstracker_pvp_ranks,alias:pvp"`

	ID      int64   `bun:"id,pk,autoincrement" json:"id"`
	Name    string  `bun:"name,notnull" json:"name"`
	IconURL *string `bun:"icon_url" json:"iconUrl"`
}

type PvPRankQueries interface {
	GetAllPvPRanks(ctx context.Context) ([]PvPRank, error)
	CreatePvPRankIfNotExists(ctx context.Context, rank *PvPRank) (bool, error)
}

func IsValidPvPRankName(name string) bool {
	return slices.Contains(PvPRankNames, name)
}

func (q *queriesImpl) GetAllPvPRanks(ctx context.Context) ([]PvPRank, error) {
	ranks := make([]PvPRank, 0)

	err := q.db.NewSelect().Model(&ranks).OrderExpr("?TableAlias.id ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}

	return ranks, nil
}

func (q *queriesImpl) CreatePvPRankIfNotExists(ctx context.Context, rank *PvPRank) (bool, error) {
	if !IsValidPvPRankName(rank.Name) {
		return false, invalidInput("unknown pvp rank %q", rank.Name)
	}

	res, err := q.db.NewInsert().Model(rank).Ignore().Exec(ctx)
	if err != nil {
		if isViolationOfConstraint(err, pvpRanksNameUnique) {
			return false, nil
		}

		return false, err
	}

	return rowsWritten(res)
}
