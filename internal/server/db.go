package server

import (
	"context"

	"github.com/elstracker/elstracker/internal/database"
)

func (s *Server) CreateDBConnection(ctx context.Context) error {
	db, err := database.Open(ctx, s.Config(), s.Logger())
	if err != nil {
		return err
	}

	s.db = db
	return nil
}
