package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

//nolint:gochecknoinits // this is the typical way to register bun migrations
func init() {
	migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewCreateTable().
			Model((*Server20251018120000)(nil)).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return err
		}

		_, err = db.NewCreateTable().
			Model((*Class20251018120000)(nil)).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return err
		}

		_, err = db.NewCreateTable().
			Model((*Specialization20251018120000)(nil)).
			IfNotExists().
			ForeignKey("(class_id) REFERENCES elstracker_classes (id) ON DELETE CASCADE").
			Exec(ctx)
		if err != nil {
			return err
		}

		_, err = db.NewCreateTable().
			Model((*PvPRank20251018120000)(nil)).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return err
		}

		_, err = db.NewCreateTable().
			Model((*Account20251018120000)(nil)).
			IfNotExists().
			ForeignKey("(server_id) REFERENCES elstracker_servers (id) ON DELETE CASCADE").
			Exec(ctx)
		if err != nil {
			return err
		}

		_, err = db.NewCreateTable().
			Model((*Character20251018120000)(nil)).
			IfNotExists().
			ForeignKey("(account_id) REFERENCES elstracker_accounts (id) ON DELETE CASCADE").
			ForeignKey("(class_id) REFERENCES elstracker_classes (id) ON DELETE CASCADE").
			ForeignKey("(specialization_id) REFERENCES elstracker_specializations (id) ON DELETE SET NULL").
			ForeignKey("(pvp_rank_id) REFERENCES elstracker_pvp_ranks (id) ON DELETE SET NULL").
			Exec(ctx)
		if err != nil {
			return err
		}

		_, err = db.NewCreateIndex().
			Model((*Character20251018120000)(nil)).
			Index("elstracker_characters_account_id_idx").
			Column("account_id").
			Exec(ctx)
		if err != nil {
			return err
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		// children first so the foreign keys never dangle
		models := []any{
			(*Character20251018120000)(nil),
			(*Account20251018120000)(nil),
			(*PvPRank20251018120000)(nil),
			(*Specialization20251018120000)(nil),
			(*Class20251018120000)(nil),
			(*Server20251018120000)(nil),
		}

		for _, model := range models {
			_, err := db.NewDropTable().
				Model(model).
				IfExists().
				Exec(ctx)
			if err != nil {
				return err
			}
		}

		return nil
	})
}

type Server20251018120000 struct {
	bun.BaseModel `bun:"table:elstracker_servers"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name,type:varchar(64),notnull,unique:elstracker_servers_name_key"`
}

type Class20251018120000 struct {
	bun.BaseModel `bun:"table:elstracker_classes"`

	ID      int64  `bun:"id,pk,autoincrement"`
	Name    string `bun:"name,type:varchar(64),notnull,unique:elstracker_classes_name_key"`
	IconURL string `bun:"icon_url,type:varchar(512),notnull"`
}

type Specialization20251018120000 struct {
	bun.BaseModel `bun:"table:elstracker_specializations"`

	ID      int64  `bun:"id,pk,autoincrement"`
	ClassID int64  `bun:"class_id,type:bigint,notnull"`
	Name    string `bun:"name,type:varchar(64),notnull,unique:elstracker_specializations_name_key"`
	IconURL string `bun:"icon_url,type:varchar(512),notnull"`
}

type PvPRank20251018120000 struct {
	bun.BaseModel `bun:"table:elstracker_pvp_ranks"`

	ID      int64   `bun:"id,pk,autoincrement"`
	Name    string  `bun:"name,type:varchar(16),notnull,unique:elstracker_pvp_ranks_name_key"`
	IconURL *string `bun:"icon_url,type:varchar(512)"`
}

type Account20251018120000 struct {
	bun.BaseModel `bun:"table:elstracker_accounts"`

	ID             int64  `bun:"id,pk,autoincrement"`
	ServerID       int64  `bun:"server_id,type:bigint,notnull"`
	Username       string `bun:"username,type:varchar(64),notnull,unique:elstracker_accounts_username_key"`
	IsSteam        bool   `bun:"is_steam,type:boolean,notnull,default:false"`
	ResonanceLevel int    `bun:"resonance_level,type:integer,notnull,default:0"`
}

type Character20251018120000 struct {
	bun.BaseModel `bun:"table:elstracker_characters"`

	ID               int64  `bun:"id,pk,autoincrement"`
	AccountID        int64  `bun:"account_id,type:bigint,notnull"`
	ClassID          int64  `bun:"class_id,type:bigint,notnull"`
	Name             string `bun:"name,type:varchar(64),notnull,unique:elstracker_characters_name_key"`
	Level            int    `bun:"level,type:integer,notnull,default:1"`
	SpecializationID *int64 `bun:"specialization_id,type:bigint"`
	PvPRankID        *int64 `bun:"pvp_rank_id,type:bigint"`
}
