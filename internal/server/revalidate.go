package server

import (
	"github.com/elstracker/elstracker/internal/revalidate"
)

func (s *Server) CreateRevalidator() error {
	revalidator, closeFn, err := revalidate.New(s.Config(), s.Logger().With("component", "revalidate"))
	if err != nil {
		return err
	}

	s.revalidator = revalidator
	s.closeRevalidator = closeFn
	return nil
}
