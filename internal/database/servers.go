package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
)

var serversNameUnique = constraint{Name: "elstracker_servers_name_key", Table: "elstracker_servers", Column: "name"}

type Server struct {
	bun.BaseModel `bun:"table:elstracker_servers,alias:srv"`

	ID   int64  `bun:"id,pk,autoincrement" json:"id"`
	Name string `bun:"name,notnull" json:"name"`
}

type ServerQueries interface {
	GetAllServers(ctx context.Context) ([]Server, error)
	GetServerByName(ctx context.Context, name string) (Server, error)
	CreateServerIfNotExists(ctx context.Context, server *Server) (bool, error)
}

func (q *queriesImpl) GetAllServers(ctx context.Context) ([]Server, error) {
	servers := make([]Server, 0)

	err := q.db.NewSelect().Model(&servers).OrderExpr("?TableAlias.id ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}

	return servers, nil
}

func (q *queriesImpl) GetServerByName(ctx context.Context, name string) (Server, error) {
	var server Server

	err := q.db.NewSelect().Model(&server).Where("?TableAlias.name = ?", name).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Server{}, fmt.Errorf("server %q %w", name, ErrNotFound)
		}

		return Server{}, err
	}

	return server, nil
}

// CreateServerIfNotExists inserts the server unless one with the same name
// exists, and reports whether a row was written.
func (q *queriesImpl) CreateServerIfNotExists(ctx context.Context, server *Server) (bool, error) {
	if server.Name == "" {
		return false, invalidInput("server name is required")
	}

	res, err := q.db.NewInsert().Model(server).Ignore().Exec(ctx)
	if err != nil {
		if isViolationOfConstraint(err, serversNameUnique) {
			return false, nil
		}

		return false, err
	}

	return rowsWritten(res)
}

func rowsWritten(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}
