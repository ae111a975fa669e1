package usecase

import (
	"errors"

	"github.com/shandysiswandi/tabclean/internal/pkg/pkgerror"
	"github.com/shandysiswandi/tabclean/internal/tabular/codec"
	"github.com/shandysiswandi/tabclean/internal/tabular/entity"
	"github.com/shandysiswandi/tabclean/internal/tabular/table"
)

func mapSessionErr(err error) error {
	if errors.Is(err, pkgerror.ErrNotFound) {
		return pkgerror.NewBusiness("session not found", pkgerror.CodeNotFound)
	}
	return mapErr(err)
}

func mapFileErr(err error) error {
	if errors.Is(err, pkgerror.ErrNotFound) {
		return pkgerror.NewBusiness("file not found", pkgerror.CodeNotFound)
	}
	return mapErr(err)
}

func mapErr(err error) error {
	var perr *pkgerror.Error
	var parseErr *codec.ParseError

	switch {
	case errors.As(err, &perr):
		return perr
	case errors.Is(err, entity.ErrUnsupportedFormat):
		return pkgerror.NewUnsupported(err)
	case errors.As(err, &parseErr):
		return pkgerror.NewInvalidFormatErr(err)
	case errors.Is(err, table.ErrUnknownColumn):
		return pkgerror.NewBusiness(err.Error(), pkgerror.CodeInvalidInput)
	default:
		return pkgerror.NewServer(err)
	}
}
