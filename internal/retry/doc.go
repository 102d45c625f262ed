// Package retry repeats connection attempts to the models database.
//
//	r := retry.New(retry.NewTransientErrorClassifier(), retry.FromFlag(n), nil)
//	db, err := retry.Do(ctx, r, func(ctx context.Context) (*sql.DB, error) {
//	    return openMySQL(ctx, cfg, nil)
//	})
//
// TransientErrorClassifier understands PostgreSQL SQLSTATE codes, MySQL
// server error numbers and network errors. Everything else is fatal and
// returned after the first attempt.
package retry
