package products

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clouderp/simplebooks/internal/shared"
)

// mapDuplicateSKU converts the unique_violation on products.sku into the
// domain duplicate error.
func mapDuplicateSKU(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicate
	}
	return err
}
