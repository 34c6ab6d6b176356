// Package postgres implements repository.Repository on PostgreSQL using a
// pgx connection pool. Schema migrations are embedded and applied with goose.
//
//	pool, err := postgres.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	if err := postgres.Migrate(ctx, pool, cfg.MigrationsTable, log); err != nil {
//	    return err
//	}
//	repo := postgres.New(pool)
package postgres
